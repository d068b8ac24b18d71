package taskgraph

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

// recorder is a stub leaf factory that records execution order.
type recorder struct {
	mu    sync.Mutex
	order []string
}

func (r *recorder) leaf(name string) *Node {
	return Leaf(name, func(context.Context) error {
		r.mu.Lock()
		r.order = append(r.order, name)
		r.mu.Unlock()
		return nil
	})
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

type countingObserver struct {
	started   atomic.Int32
	completed atomic.Int32
	failed    atomic.Int32
}

func (o *countingObserver) OnTaskStart(string) { o.started.Add(1) }
func (o *countingObserver) OnTaskComplete(_ string, _ time.Duration, err error) {
	o.completed.Add(1)
	if err != nil {
		o.failed.Add(1)
	}
}

func quietRunner(opts ...Option) *Runner {
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return NewRunner(opts...)
}

func TestRun_SeqPreservesOrder(t *testing.T) {
	rec := &recorder{}
	g := Seq("build", rec.leaf("clean"), rec.leaf("compile"), rec.leaf("extra"))

	require.NoError(t, quietRunner().Run(t.Context(), g))
	assert.Equal(t, []string{"clean", "compile", "extra"}, rec.snapshot())
}

func TestRun_AllRunsChildrenConcurrently(t *testing.T) {
	// Each leaf waits for the other one to start; this only completes if both
	// are in flight at the same time.
	var wg sync.WaitGroup
	wg.Add(2)
	rendezvous := func(context.Context) error {
		wg.Done()
		done := make(chan struct{})
		go func() { wg.Wait(); close(done) }()
		select {
		case <-done:
			return nil
		case <-time.After(2 * time.Second):
			return errors.New("sibling never started")
		}
	}
	g := All("compile", Leaf("style", rendezvous), Leaf("script", rendezvous))

	require.NoError(t, quietRunner().Run(t.Context(), g))
}

func TestRun_CleanStrictlyPrecedesGroup(t *testing.T) {
	var cleaned atomic.Bool
	check := func(context.Context) error {
		if !cleaned.Load() {
			return errors.New("ran before clean")
		}
		return nil
	}
	g := Seq("build",
		Leaf("clean", func(context.Context) error {
			time.Sleep(20 * time.Millisecond)
			cleaned.Store(true)
			return nil
		}),
		All("", All("compile", Leaf("style", check), Leaf("script", check)), Leaf("extra", check)),
	)

	require.NoError(t, quietRunner().Run(t.Context(), g))
}

func TestRun_SeqStopsAtFirstFailure(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("permission denied")
	g := Seq("build",
		Leaf("clean", func(context.Context) error { return boom }),
		rec.leaf("compile"),
	)

	err := quietRunner().Run(t.Context(), g)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "task clean")
	assert.Empty(t, rec.snapshot(), "nothing may run after a failed clean")
}

func TestRun_AllLetsSiblingsFinish(t *testing.T) {
	var siblingDone atomic.Bool
	boom := errors.New("invalid syntax")
	obs := &countingObserver{}
	g := All("compile",
		Leaf("style", func(context.Context) error { return boom }),
		Leaf("script", func(ctx context.Context) error {
			time.Sleep(30 * time.Millisecond)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			siblingDone.Store(true)
			return nil
		}),
	)

	err := quietRunner(WithObserver(obs)).Run(t.Context(), g)
	require.ErrorIs(t, err, boom)
	assert.True(t, siblingDone.Load(), "sibling must not be cancelled")
	assert.EqualValues(t, 2, obs.started.Load())
	assert.EqualValues(t, 2, obs.completed.Load())
	assert.EqualValues(t, 1, obs.failed.Load())
}

func TestRun_AllReportsFailureWhenSeveralFail(t *testing.T) {
	g := All("compile",
		Leaf("a", func(context.Context) error { return errors.New("a failed") }),
		Leaf("b", func(context.Context) error { return errors.New("b failed") }),
	)
	require.Error(t, quietRunner().Run(t.Context(), g))
}

func TestRun_EmptyGroupsSucceed(t *testing.T) {
	require.NoError(t, quietRunner().Run(t.Context(), Seq("s", All("a"))))
}

func TestRun_CanceledBeforeNextStep(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	rec := &recorder{}
	g := Seq("build",
		Leaf("clean", func(context.Context) error { cancel(); return nil }),
		rec.leaf("compile"),
	)

	err := quietRunner().Run(ctx, g)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.snapshot())
}

func TestValidate(t *testing.T) {
	noop := func(context.Context) error { return nil }
	tests := []struct {
		name string
		node *Node
	}{
		{"leaf without fn", Leaf("x", nil)},
		{"duplicate names", All("g", Leaf("x", noop), Leaf("x", noop))},
		{"group with fn", &Node{Name: "g", Kind: KindAll, Fn: noop}},
		{"unknown kind", &Node{Name: "g", Kind: Kind(9)}},
		{"nil child", Seq("g", nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.node.Validate())
			err := quietRunner().Run(t.Context(), tt.node)
			require.Error(t, err)
			assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryInternal))
		})
	}
}

func TestNode_StringAndLeaves(t *testing.T) {
	noop := func(context.Context) error { return nil }
	g := Seq("build",
		Leaf("clean", noop),
		All("", All("compile", Leaf("style", noop), Leaf("script", noop)), Leaf("extra", noop)),
	)

	assert.Equal(t, "build=seq(clean, all(compile=all(style, script), extra))", g.String())
	assert.Equal(t, []string{"clean", "style", "script", "extra"}, g.Leaves())
}
