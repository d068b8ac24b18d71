package devserver

import (
	"bufio"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"git.home.luguber.info/inful/assetpipe/internal/logfields"
	"git.home.luguber.info/inful/assetpipe/internal/metrics"
)

const heartbeatInterval = 30 * time.Second

// ReloadEvent is the payload of one reload notification.
type ReloadEvent struct {
	Seq   uint64   `json:"seq"`
	Paths []string `json:"paths"`
}

// Hub manages SSE clients for reload broadcasts.
type Hub struct {
	mu        sync.RWMutex
	nextID    int
	clients   map[int]*client
	recorder  metrics.Recorder
	closed    bool
	seq       uint64
	heartbeat time.Duration
}

type client struct {
	id   int
	ch   chan []byte
	done chan struct{}
}

// NewHub returns a Hub reporting to rec; nil means no metrics.
func NewHub(rec metrics.Recorder) *Hub {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Hub{clients: map[int]*client{}, recorder: rec, heartbeat: heartbeatInterval}
}

// ServeHTTP implements the SSE endpoint at /livereload.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	c := &client{ch: make(chan []byte, 8), done: make(chan struct{})}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		http.Error(w, "livereload shutting down", http.StatusServiceUnavailable)
		return
	}
	c.id = h.nextID
	h.nextID++
	h.clients[c.id] = c
	n := len(h.clients)
	h.mu.Unlock()
	h.recorder.IncReloadConnection()
	h.recorder.SetReloadClients(n)
	slog.Debug("Live reload client connected", logfields.Clients(n))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	bw := bufio.NewWriter(w)
	send := func(s string) bool {
		if _, err := bw.WriteString(s); err != nil {
			slog.Debug("Live reload write failed", logfields.Error(err))
			return false
		}
		if err := bw.Flush(); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}
	if !send(": connected\n\n") {
		h.removeClient(c.id)
		return
	}

	hb := time.NewTicker(h.heartbeat)
	defer hb.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.removeClient(c.id)
			return
		case <-c.done:
			return
		case <-hb.C:
			send(": ping\n\n")
		case msg := <-c.ch:
			if !send("data: " + string(msg) + "\n\n") {
				h.removeClient(c.id)
				return
			}
		}
	}
}

func (h *Hub) removeClient(id int) {
	h.mu.Lock()
	c, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
		close(c.done)
	}
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		h.recorder.SetReloadClients(n)
		slog.Debug("Live reload client disconnected", logfields.Clients(n))
	}
}

// Broadcast sends one reload notification carrying paths to every client.
// Clients whose buffers are full are dropped. It returns the event sent.
func (h *Hub) Broadcast(paths []string) ReloadEvent {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ReloadEvent{}
	}
	h.seq++
	ev := ReloadEvent{Seq: h.seq, Paths: paths}
	snapshot := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	if ev.Paths == nil {
		ev.Paths = []string{}
	}
	msg, err := json.Marshal(ev)
	if err != nil {
		slog.Error("Encode reload event", logfields.Error(err))
		return ev
	}

	dropped := 0
	for _, c := range snapshot {
		select {
		case c.ch <- msg:
		default:
			dropped++
			h.removeClient(c.id)
		}
	}
	h.recorder.IncReloadBroadcast()
	slog.Info("Reload broadcast",
		slog.Uint64("seq", ev.Seq),
		logfields.Files(len(paths)),
		logfields.Clients(len(snapshot)-dropped),
		slog.Int("dropped", dropped))
	return ev
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcasts returns the number of notifications sent so far.
func (h *Hub) Broadcasts() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.seq
}

// Shutdown disconnects all clients and prevents future broadcasts.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = map[int]*client{}
	h.mu.Unlock()
	for _, c := range clients {
		close(c.done)
	}
	h.recorder.SetReloadClients(0)
}

// clientScript connects to /livereload and reloads the page on every message.
const clientScript = `(() => {
  if (window.__ASSETPIPE_LR__) return;
  window.__ASSETPIPE_LR__ = true;
  function connect() {
    const es = new EventSource('/livereload');
    es.onmessage = () => { console.log('[assetpipe] change detected, reloading'); location.reload(); };
    es.onerror = () => { console.warn('[assetpipe] livereload error - retrying'); es.close(); setTimeout(connect, 2000); };
  }
  connect();
})();
`

func serveClientScript(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write([]byte(clientScript)); err != nil {
		slog.Debug("Write livereload script", logfields.Error(err))
	}
}
