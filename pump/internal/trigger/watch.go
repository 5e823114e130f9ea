package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher emits an event each time the watched file is written or replaced.
type Watcher struct {
	path   string
	fsw    *fsnotify.Watcher
	logger *slog.Logger
	events chan Event
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewWatcher watches path until ctx is cancelled or Close is called. The
// parent directory must exist; the file itself may appear later.
func NewWatcher(ctx context.Context, path string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("trigger: resolve %s: %w", path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("trigger: new watcher: %w", err)
	}
	dir := filepath.Dir(abs)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("trigger: watch %s: %w", dir, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	w := &Watcher{
		path:   abs,
		fsw:    fsw,
		logger: logger,
		events: make(chan Event, 1),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go w.run(ctx)

	logger.Info("trigger: watching for changes", "path", abs, "dir", dir)
	return w, nil
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	defer close(w.events)
	defer w.fsw.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			op := opOf(ev)
			if op == "" {
				continue
			}
			// A failed stat still yields an event; the read in that cycle
			// reports the actual problem.
			token, err := Fingerprint(w.path)
			if err != nil {
				token = ""
			}
			if !offer(w.events, Event{Token: token, Op: op, At: time.Now()}) {
				w.logger.Debug("trigger: change coalesced into pending event", "path", w.path, "op", op)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("trigger: watcher error", "path", w.path, "err", err)
		}
	}
}

// opOf maps an fsnotify event to a trigger operation, or "" to ignore it.
// Rename and Remove fire on the old name and mean the content is gone;
// Chmod carries no new content.
func opOf(ev fsnotify.Event) string {
	switch {
	case ev.Has(fsnotify.Create):
		return OpCreate
	case ev.Has(fsnotify.Write):
		return OpWrite
	default:
		return ""
	}
}

// Events returns the change channel.
func (w *Watcher) Events() <-chan Event { return w.events }

// Close stops watching and waits for the watcher goroutine to exit.
func (w *Watcher) Close() error {
	w.once.Do(w.cancel)
	<-w.done
	return nil
}
