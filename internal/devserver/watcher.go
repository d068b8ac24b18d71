package devserver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/assetpipe/internal/logfields"
)

// Watcher collects filesystem events under a root into batches. A batch
// closes once no event arrives for the debounce window; each closed batch is
// delivered to the callback exactly once.
type Watcher struct {
	root     string
	debounce time.Duration
	onBatch  func(paths []string)
	fw       *fsnotify.Watcher
	done     chan struct{}
}

// NewWatcher returns a Watcher for root. onBatch receives the changed paths
// relative to root, sorted, with forward slashes.
func NewWatcher(root string, debounce time.Duration, onBatch func(paths []string)) *Watcher {
	return &Watcher{
		root:     filepath.Clean(root),
		debounce: debounce,
		onBatch:  onBatch,
		done:     make(chan struct{}),
	}
}

// Start creates root if needed, registers watches and begins collecting
// events in the background until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return fmt.Errorf("create watch root: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	// The parent catches the root being removed and recreated by a clean build.
	if err := fw.Add(filepath.Dir(w.root)); err != nil {
		slog.Warn("Watch add failed", logfields.Path(filepath.Dir(w.root)), logfields.Error(err))
	}
	if err := addDirsRecursive(fw, w.root); err != nil {
		_ = fw.Close()
		return err
	}
	w.fw = fw
	go w.loop(ctx)
	return nil
}

// Done is closed once the watcher has stopped.
func (w *Watcher) Done() <-chan struct{} { return w.done }

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)
	defer func() { _ = w.fw.Close() }()

	pending := map[string]struct{}{}
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			rel, relevant := w.handleEvent(ev)
			if !relevant {
				continue
			}
			pending[rel] = struct{}{}
			timer.Reset(w.debounce)
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			pending = map[string]struct{}{}
			w.onBatch(paths)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// handleEvent registers new directories and reports whether ev belongs in
// the current batch, along with its root-relative path.
func (w *Watcher) handleEvent(ev fsnotify.Event) (string, bool) {
	name := filepath.Clean(ev.Name)
	if name != w.root && !strings.HasPrefix(name, w.root+string(filepath.Separator)) {
		return "", false
	}
	if name != w.root && shouldIgnoreEvent(name) {
		return "", false
	}
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return "", false
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(name); err == nil && fi.IsDir() {
			if err := addDirsRecursive(w.fw, name); err != nil {
				slog.Warn("Watch add failed", logfields.Path(name), logfields.Error(err))
			}
		}
	}
	slog.Debug("File change detected", logfields.Path(name), slog.String("op", ev.Op.String()))

	rel, err := filepath.Rel(w.root, name)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func addDirsRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := fw.Add(path); err != nil {
				slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}

// shouldIgnoreEvent reports events on hidden files and editor temporaries.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasSuffix(base, ".tmp") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db"
}
