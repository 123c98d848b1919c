// Package debounce provides a per-key notification scheduler. Rapid
// calls for the same key coalesce into a single callback after a quiet
// period; a newer call supersedes the pending one. Flush and Cancel
// give tests and shutdown paths deterministic control over pending
// work.
package debounce

import (
	"sync"
	"time"

	"github.com/zjrosen/folio/internal/log"
)

// Scheduler coalesces callbacks per key with a fixed delay.
// Safe for concurrent use.
type Scheduler struct {
	mu      sync.Mutex
	delay   time.Duration
	timers  map[string]*time.Timer
	fns     map[string]func()
	closed  bool
	name    string // channel name for logging
}

// New creates a scheduler with the given quiet-period delay.
func New(name string, delay time.Duration) *Scheduler {
	return &Scheduler{
		delay:  delay,
		timers: make(map[string]*time.Timer),
		fns:    make(map[string]func()),
		name:   name,
	}
}

// Schedule queues fn to run after the delay. A pending callback for the
// same key is cancelled and replaced; callbacks for other keys are
// unaffected.
func (s *Scheduler) Schedule(key string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if t, ok := s.timers[key]; ok {
		t.Stop()
	}
	s.fns[key] = fn
	s.timers[key] = time.AfterFunc(s.delay, func() {
		s.fire(key)
	})
}

// fire runs the pending callback for key, if still pending.
func (s *Scheduler) fire(key string) {
	s.mu.Lock()
	fn := s.fns[key]
	delete(s.fns, key)
	delete(s.timers, key)
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Flush runs the pending callback for key immediately, if any.
func (s *Scheduler) Flush(key string) {
	s.mu.Lock()
	t, ok := s.timers[key]
	if !ok {
		s.mu.Unlock()
		return
	}
	t.Stop()
	fn := s.fns[key]
	delete(s.fns, key)
	delete(s.timers, key)
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// FlushAll runs every pending callback immediately.
func (s *Scheduler) FlushAll() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.fns))
	for key, t := range s.timers {
		t.Stop()
		if fn := s.fns[key]; fn != nil {
			fns = append(fns, fn)
		}
	}
	s.timers = make(map[string]*time.Timer)
	s.fns = make(map[string]func())
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Cancel drops the pending callback for key without running it.
func (s *Scheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[key]; ok {
		t.Stop()
		delete(s.timers, key)
		delete(s.fns, key)
		log.Debug(log.CatDebounce, "cancelled pending callback", "channel", s.name, "key", key)
	}
}

// Pending reports whether a callback is queued for key.
func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[key]
	return ok
}

// Close cancels all pending callbacks and rejects further scheduling.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = make(map[string]*time.Timer)
	s.fns = make(map[string]func())
}
