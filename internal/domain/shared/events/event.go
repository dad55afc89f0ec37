// Package events defines the domain event contracts and an in-memory
// dispatcher used for intra-process fan-out (audit logging, in-app alerts).
package events

import "time"

// DomainEvent is implemented by every domain event.
type DomainEvent interface {
	// GetAggregateID returns the ID of the aggregate that produced the event.
	GetAggregateID() uint

	// GetEventType returns the event name, e.g. "subscription.suspended".
	GetEventType() string

	// GetTimestamp returns when the event occurred.
	GetTimestamp() time.Time
}

// EventHandler processes dispatched domain events.
type EventHandler interface {
	Handle(event DomainEvent) error
	CanHandle(eventType string) bool
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(event DomainEvent) error
	PublishAll(events []DomainEvent) error
}

// EventSubscriber registers handlers for event types.
type EventSubscriber interface {
	Subscribe(eventType string, handler EventHandler) error
}

// EventDispatcher combines publishing and subscription.
type EventDispatcher interface {
	EventPublisher
	EventSubscriber

	Start() error
	Stop() error
}
