// Package watcher monitors open documents for external modification
// and reports changed paths after a per-path debounce. The session
// layer feeds each reported path into ReloadIfClean: tabs with unsaved
// edits keep them, clean tabs pick up the external change.
package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/folio/internal/log"
)

// Watcher monitors directories containing open documents.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debounce  time.Duration
	onChange  chan string
	done      chan struct{}

	mu      sync.Mutex
	watched map[string]struct{} // directories added to fsnotify
	timers  map[string]*time.Timer
}

// Config holds watcher configuration options.
type Config struct {
	DebounceDur time.Duration
}

// DefaultConfig returns sensible defaults for the watcher.
func DefaultConfig() Config {
	return Config{DebounceDur: 500 * time.Millisecond}
}

// New creates a document watcher.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if cfg.DebounceDur <= 0 {
		cfg.DebounceDur = DefaultConfig().DebounceDur
	}

	return &Watcher{
		fsWatcher: fsw,
		debounce:  cfg.DebounceDur,
		onChange:  make(chan string, 16),
		done:      make(chan struct{}),
		watched:   make(map[string]struct{}),
		timers:    make(map[string]*time.Timer),
	}, nil
}

// Watch registers the directory containing path. Watching two files in
// the same directory adds the directory once.
func (w *Watcher) Watch(path string) error {
	dir := filepath.Dir(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.watched[dir]; ok {
		return nil
	}
	if err := w.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("watching directory %s: %w", dir, err)
	}
	w.watched[dir] = struct{}{}
	return nil
}

// Start begins processing events. Returns a channel that receives the
// path of each externally modified file after its quiet period.
func (w *Watcher) Start() <-chan string {
	go w.loop()
	return w.onChange
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)

	w.mu.Lock()
	for _, t := range w.timers {
		t.Stop()
	}
	w.timers = make(map[string]*time.Timer)
	w.mu.Unlock()

	return w.fsWatcher.Close()
}

// loop processes file system events with per-path debouncing.
func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.arm(event.Name)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Warn(log.CatWatcher, "watch error", "error", err.Error())

		case <-w.done:
			return
		}
	}
}

// arm starts or resets the debounce timer for a path.
func (w *Watcher) arm(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		select {
		case <-w.done:
		case w.onChange <- path:
		default:
			// Channel full - drop rather than block the timer goroutine.
		}
	})
}
