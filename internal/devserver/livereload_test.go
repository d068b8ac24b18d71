package devserver

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sseEvents streams the data payloads of an SSE response.
func sseEvents(body io.Reader) <-chan ReloadEvent {
	ch := make(chan ReloadEvent, 16)
	go func() {
		defer close(ch)
		r := bufio.NewReader(body)
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			payload, ok := strings.CutPrefix(strings.TrimSpace(line), "data: ")
			if !ok {
				continue
			}
			var ev ReloadEvent
			if json.Unmarshal([]byte(payload), &ev) == nil {
				ch <- ev
			}
		}
	}()
	return ch
}

func connect(t *testing.T, url string) <-chan ReloadEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	t.Cleanup(cancel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	return sseEvents(resp.Body)
}

func TestHub_BroadcastReachesClients(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Shutdown()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	a := connect(t, srv.URL)
	b := connect(t, srv.URL)
	require.Equal(t, 2, hub.Clients())

	sent := hub.Broadcast([]string{"index.html"})
	assert.Equal(t, uint64(1), sent.Seq)

	for _, ch := range []<-chan ReloadEvent{a, b} {
		select {
		case ev := <-ch:
			assert.Equal(t, uint64(1), ev.Seq)
			assert.Equal(t, []string{"index.html"}, ev.Paths)
		case <-time.After(2 * time.Second):
			t.Fatal("no reload event received")
		}
	}
}

func TestHub_ShutdownDisconnectsClients(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	events := connect(t, srv.URL)
	require.Equal(t, 1, hub.Clients())

	hub.Shutdown()
	assert.Equal(t, 0, hub.Clients())

	select {
	case _, ok := <-events:
		assert.False(t, ok, "stream should end")
	case <-time.After(2 * time.Second):
		t.Fatal("stream still open after shutdown")
	}

	assert.Equal(t, ReloadEvent{}, hub.Broadcast([]string{"x"}))
	assert.Equal(t, uint64(0), hub.Broadcasts())

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHub_ClientDisconnectIsRemoved(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Shutdown()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	ctx, cancel := context.WithCancel(t.Context())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, 1, hub.Clients())

	cancel()
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestClientScript(t *testing.T) {
	rec := httptest.NewRecorder()
	serveClientScript(rec, httptest.NewRequest(http.MethodGet, "/livereload.js", nil))
	assert.Contains(t, rec.Header().Get("Content-Type"), "javascript")
	assert.Contains(t, rec.Body.String(), "new EventSource('/livereload')")
}
