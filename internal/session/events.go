package session

import (
	"context"

	"github.com/zjrosen/folio/internal/pubsub"
)

// EventKind classifies store events.
type EventKind int

const (
	// TabOpened fires when a tab is created (preview, permanent, or
	// lazy) and again when a lazy placeholder is promoted to its real
	// document, so open-pipeline consumers see restored tabs too.
	TabOpened EventKind = iota
	// TabClosed fires when a tab is removed.
	TabClosed
	// TabActivated fires when focus moves to a tab.
	TabActivated
	// TabListChanged fires on reorder, pin/unpin, and preview
	// conversion.
	TabListChanged
	// DirtyChanged fires when a file tab's dirty state flips.
	DirtyChanged
)

// String returns a human-readable name for the event kind.
func (k EventKind) String() string {
	switch k {
	case TabOpened:
		return "tab_opened"
	case TabClosed:
		return "tab_closed"
	case TabActivated:
		return "tab_activated"
	case TabListChanged:
		return "tab_list_changed"
	case DirtyChanged:
		return "dirty_changed"
	default:
		return "unknown"
	}
}

// Event is published on every observable store mutation. The
// persistence adapter subscribes to these to know when to snapshot.
type Event struct {
	Kind  EventKind
	Group GroupID
	TabID string
}

// Subscribe returns a channel of store events for the lifetime of ctx.
func (s *Store) Subscribe(ctx context.Context) <-chan pubsub.Event[Event] {
	return s.broker.Subscribe(ctx)
}

// publish emits an event. Callers must not hold s.mu if a subscriber
// could synchronously call back into the store; the broker is
// non-blocking so holding the lock is safe here.
func (s *Store) publish(kind EventKind, gid GroupID, tabID string) {
	s.broker.Publish(pubsub.UpdatedEvent, Event{Kind: kind, Group: gid, TabID: tabID})
}
