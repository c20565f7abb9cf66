package filestore

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceDelay coalesces the burst of events an editor save produces.
const DefaultDebounceDelay = 150 * time.Millisecond

// Watcher calls a reload callback after the watched file changes. It
// watches the parent directory so atomic replace-by-rename is seen.
type Watcher struct {
	path   string
	delay  time.Duration
	reload func(ctx context.Context) error
	logger *slog.Logger
}

// NewWatcher creates a watcher for path. A zero delay uses DefaultDebounceDelay.
func NewWatcher(path string, delay time.Duration, reload func(ctx context.Context) error, logger *slog.Logger) *Watcher {
	if delay <= 0 {
		delay = DefaultDebounceDelay
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{path: path, delay: delay, reload: reload, logger: logger}
}

// Run watches until ctx is cancelled. Reloads run one at a time on a
// single goroutine.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	path, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", w.path, err)
	}
	dir := filepath.Dir(path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	w.logger.Info("watching sessions file", "path", path)

	trigger := make(chan struct{}, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-trigger:
				if err := w.reload(ctx); err != nil {
					w.logger.Error("reload failed", "path", w.path, "error", err)
				}
			}
		}
	}()
	defer wg.Wait()

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	fire := func() {
		select {
		case trigger <- struct{}{}:
		default:
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !relevant(event, path) {
				continue
			}
			w.logger.Debug("sessions file event", "op", event.Op.String())
			if timer == nil {
				timer = time.AfterFunc(w.delay, fire)
			} else {
				timer.Reset(w.delay)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// relevant reports whether event changed the contents at path. Atomic
// replacement shows up as Create.
func relevant(event fsnotify.Event, path string) bool {
	if filepath.Clean(event.Name) != path {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) != 0
}
