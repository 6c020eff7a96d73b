package watch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a burst of filesystem events must settle
// before a run fires.
const DefaultDebounce = 250 * time.Millisecond

// RunFunc is invoked once per settled burst of changes. Errors are logged
// and watching continues; a blocked batch should not end watch mode.
type RunFunc func(ctx context.Context) error

// Watcher re-runs a folder push whenever the watched directory changes.
// Runs never overlap: events arriving mid-run coalesce into one follow-up.
type Watcher struct {
	dir      string
	debounce time.Duration
	run      RunFunc
}

// New creates a watcher over one flat directory.
func New(dir string, debounce time.Duration, run RunFunc) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{dir: dir, debounce: debounce, run: run}
}

// Watch runs an initial pass, then blocks watching the directory until ctx
// is cancelled.
func (w *Watcher) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	slog.Info("watching folder", "dir", w.dir, "debounce", w.debounce)

	w.runOnce(ctx)

	trigger := make(chan struct{}, 1)
	timer := time.AfterFunc(0, func() {})
	timer.Stop()

	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			slog.Debug("file event", "path", event.Name, "op", event.Op)
			timer.Stop()
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", "error", err)

		case <-trigger:
			w.runOnce(ctx)

		case <-ctx.Done():
			timer.Stop()
			return nil
		}
	}
}

func (w *Watcher) runOnce(ctx context.Context) {
	if err := w.run(ctx); err != nil {
		slog.Error("push failed, still watching", "dir", w.dir, "error", err)
	}
}

// relevant filters out events that cannot change the folder's content.
func relevant(event fsnotify.Event) bool {
	return event.Op.Has(fsnotify.Create) ||
		event.Op.Has(fsnotify.Write) ||
		event.Op.Has(fsnotify.Remove) ||
		event.Op.Has(fsnotify.Rename)
}
