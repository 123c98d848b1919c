// Package session implements the document tab session store: the
// ordered open-tab list with its pinned prefix, the single preview
// slot, lazy-tab promotion, dirty tracking, and back/forward
// navigation across documents.
//
// The store is an explicit, constructible object. Nothing here is a
// package-level singleton; callers create one store per editing
// session (per window) and pass it down. Tab groups parameterize every
// operation so a split-pane deployment and a single-pane deployment
// run the same code — single-pane callers simply pass DefaultGroup.
//
// All mutations are synchronous and guarded by one mutex. Debounced
// side effects (change notification, diff recompute) re-enter through
// the same lock when their timers fire.
package session

import (
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/folio/internal/debounce"
	"github.com/zjrosen/folio/internal/nav"
	"github.com/zjrosen/folio/internal/provider"
	"github.com/zjrosen/folio/internal/pubsub"
	"github.com/zjrosen/folio/internal/tab"
)

// GroupID identifies a tab group (a pane). Single-pane deployments use
// DefaultGroup everywhere.
type GroupID string

// DefaultGroup is the group every store starts with.
const DefaultGroup GroupID = "main"

// Default debounce delays for the two side-effect channels.
const (
	DefaultChangeNotifyDelay  = 200 * time.Millisecond
	DefaultDiffRecomputeDelay = 150 * time.Millisecond
)

// Options configures a Store. Zero-value fields fall back to defaults;
// nil collaborators disable the corresponding side effects.
type Options struct {
	Content  provider.ContentProvider
	VCS      provider.VCSProvider
	Analysis provider.AnalysisProvider
	Diff     provider.DiffEngine
	Cursor   provider.CursorController
	Tracer   trace.Tracer

	HistoryLimit       int
	ChangeNotifyDelay  time.Duration
	DiffRecomputeDelay time.Duration
}

// group is the per-pane tab list state.
type group struct {
	openTabs []string // ordered ids, pinned ids form the prefix
	pinned   []string // pin order, mirrors the openTabs prefix
	active   string   // id of the focused tab, "" if none
}

func (g *group) indexOf(id string) int {
	for i, t := range g.openTabs {
		if t == id {
			return i
		}
	}
	return -1
}

func (g *group) isPinned(id string) bool {
	for _, p := range g.pinned {
		if p == id {
			return true
		}
	}
	return false
}

// previewSlot records the single system-wide preview tab and the group
// it renders in.
type previewSlot struct {
	id    string
	group GroupID
}

// Store is the session authority for open tabs.
type Store struct {
	mu sync.Mutex

	tabs    map[string]tab.Tab
	groups  map[GroupID]*group
	order   []GroupID // group creation order
	activeG GroupID
	preview previewSlot

	// retained holds session data for closed file tabs, keyed by id,
	// so reopening the same document restores cursor and folds.
	retained map[string]tab.SessionData

	history *nav.History

	content  provider.ContentProvider
	vcs      provider.VCSProvider
	analysis provider.AnalysisProvider
	diff     provider.DiffEngine
	cursor   provider.CursorController
	tracer   trace.Tracer

	changeDebounce *debounce.Scheduler
	diffDebounce   *debounce.Scheduler

	broker *pubsub.Broker[Event]

	// disposers tear down the cursor/scroll listeners attached for the
	// currently active tab. Replaced wholesale on every tab switch;
	// listening records which tab they feed so retiring that tab can
	// detach them.
	disposers []func()
	listening string

	closed bool
}

// New creates a store with a single DefaultGroup.
func New(opts Options) *Store {
	if opts.Diff == nil {
		opts.Diff = provider.DefaultDiffEngine()
	}
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer("session")
	}
	if opts.ChangeNotifyDelay <= 0 {
		opts.ChangeNotifyDelay = DefaultChangeNotifyDelay
	}
	if opts.DiffRecomputeDelay <= 0 {
		opts.DiffRecomputeDelay = DefaultDiffRecomputeDelay
	}

	historyLimit := opts.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = nav.DefaultMaxEntries
	}

	s := &Store{
		tabs:           make(map[string]tab.Tab),
		groups:         map[GroupID]*group{DefaultGroup: {}},
		order:          []GroupID{DefaultGroup},
		activeG:        DefaultGroup,
		retained:       make(map[string]tab.SessionData),
		history:        nav.NewWithLimit(historyLimit),
		content:        opts.Content,
		vcs:            opts.VCS,
		analysis:       opts.Analysis,
		diff:           opts.Diff,
		cursor:         opts.Cursor,
		tracer:         opts.Tracer,
		changeDebounce: debounce.New("content-changed", opts.ChangeNotifyDelay),
		diffDebounce:   debounce.New("diff-recompute", opts.DiffRecomputeDelay),
		broker:         pubsub.NewBroker[Event](),
	}
	return s
}

// Close flushes pending change notifications, drops pending diff
// recomputes, and shuts down the event broker.
func (s *Store) Close() {
	s.changeDebounce.FlushAll()
	s.diffDebounce.Close()
	s.changeDebounce.Close()

	s.mu.Lock()
	s.closed = true
	s.disposeListenersLocked()
	s.mu.Unlock()

	s.broker.Close()
}

// FlushPending runs all pending debounced side effects immediately.
// Exposed for tests and for save-all paths that need the analysis
// collaborator caught up before acting.
func (s *Store) FlushPending() {
	s.changeDebounce.FlushAll()
	s.diffDebounce.FlushAll()
}

// groupLocked returns the group or nil.
func (s *Store) groupLocked(id GroupID) *group {
	return s.groups[id]
}

// hasPreviewLocked reports whether id occupies the preview slot.
func (s *Store) hasPreviewLocked(id string) bool {
	return s.preview.id != "" && s.preview.id == id
}

// existsLocked reports whether id is open in any form anywhere.
func (s *Store) existsLocked(id string) bool {
	_, ok := s.tabs[id]
	return ok
}

// ownerLocked returns the group containing id in its openTabs, or "".
func (s *Store) ownerLocked(id string) GroupID {
	for _, gid := range s.order {
		if s.groups[gid].indexOf(id) >= 0 {
			return gid
		}
	}
	return ""
}

// disposeListenersLocked tears down the cursor listeners for the
// previously active tab.
func (s *Store) disposeListenersLocked() {
	for _, d := range s.disposers {
		d()
	}
	s.disposers = nil
	s.listening = ""
}
