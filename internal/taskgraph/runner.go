package taskgraph

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/assetpipe/internal/logfields"
)

// Observer receives leaf lifecycle callbacks. Callbacks for leaves of the
// same All group arrive from different goroutines.
type Observer interface {
	OnTaskStart(name string)
	OnTaskComplete(name string, d time.Duration, err error)
}

// Runner executes task graphs.
//
// Failure policy: a Seq stops at its first failing child. An All group does
// not cancel its siblings when one fails; it waits for all of them and then
// reports the first error. Later sibling errors are logged.
type Runner struct {
	observer Observer
	logger   *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithObserver registers an observer for leaf callbacks.
func WithObserver(o Observer) Option {
	return func(r *Runner) { r.observer = o }
}

// WithLogger sets the logger used for task progress.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// NewRunner returns a Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{logger: slog.Default()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run executes the tree rooted at n.
func (r *Runner) Run(ctx context.Context, n *Node) error {
	if err := n.Validate(); err != nil {
		return foundationerrors.InternalError("invalid task graph").WithCause(err).Build()
	}
	return r.run(ctx, n)
}

func (r *Runner) run(ctx context.Context, n *Node) error {
	switch n.Kind {
	case KindLeaf:
		return r.runLeaf(ctx, n)
	case KindSeq:
		for _, c := range n.Children {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := r.run(ctx, c); err != nil {
				return err
			}
		}
		return nil
	case KindAll:
		return r.runAll(ctx, n)
	default:
		return fmt.Errorf("node %q has unknown kind %s", n.Name, n.Kind)
	}
}

func (r *Runner) runAll(ctx context.Context, n *Node) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	for _, c := range n.Children {
		g.Go(func() error {
			err := r.run(ctx, c)
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return err
		})
	}
	first := g.Wait()
	if len(errs) > 1 {
		for _, err := range errs {
			if err != first {
				r.logger.Warn("Additional task failure in group", slog.String("group", n.Name), logfields.Error(err))
			}
		}
	}
	return first
}

func (r *Runner) runLeaf(ctx context.Context, n *Node) error {
	if r.observer != nil {
		r.observer.OnTaskStart(n.Name)
	}
	r.logger.Debug("Task started", logfields.Task(n.Name))

	t0 := time.Now()
	err := n.Fn(ctx)
	dur := time.Since(t0)

	if r.observer != nil {
		r.observer.OnTaskComplete(n.Name, dur, err)
	}
	if err != nil {
		r.logger.Error("Task failed", logfields.Task(n.Name), logfields.Duration(dur), logfields.Error(err))
		return fmt.Errorf("task %s: %w", n.Name, err)
	}
	r.logger.Info("Task finished", logfields.Task(n.Name), logfields.Duration(dur))
	return nil
}
