// Package fswatch implements importer.Watcher over fsnotify, debouncing
// bursts of events (editors that write-then-rename) into a single
// onChange call per settled file.
package fswatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vocabtrainer/server/internal/importer"
)

// Watcher is an fsnotify-backed importer.Watcher.
type Watcher struct {
	Debounce time.Duration
	Logger   *slog.Logger
}

// New creates a Watcher with a 500ms debounce.
func New(logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{Debounce: 500 * time.Millisecond, Logger: logger}
}

func (w *Watcher) Watch(ctx context.Context, dir string, onChange func(path string)) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := fsw.Add(dir); err != nil {
		return err
	}

	var mu sync.Mutex
	timers := make(map[string]*time.Timer)

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			for _, t := range timers {
				t.Stop()
			}
			mu.Unlock()
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			mu.Lock()
			if t, pending := timers[event.Name]; pending {
				t.Stop()
			}
			path := event.Name
			timers[path] = time.AfterFunc(w.Debounce, func() {
				mu.Lock()
				delete(timers, path)
				mu.Unlock()
				onChange(path)
			})
			mu.Unlock()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.Logger.Warn("fswatch error", "error", err, "dir", dir)
		}
	}
}

var _ importer.Watcher = (*Watcher)(nil)
