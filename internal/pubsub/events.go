// Package pubsub is the typed event bus the session store publishes
// its mutations on. Subscribers (the persistence adapter, the app's
// open pipeline, any host UI) each get an independent buffered channel
// scoped to their context; a slow subscriber drops events rather than
// blocking store operations.
package pubsub

import (
	"context"
	"time"
)

// EventType is the coarse lifecycle class of a published event; the
// payload carries the domain-specific detail.
type EventType string

const (
	CreatedEvent EventType = "created"
	UpdatedEvent EventType = "updated"
	DeletedEvent EventType = "deleted"
)

// Event is one published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
