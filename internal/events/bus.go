package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers
// Usage: bus.Publish(BackendExitedEvent{...})
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case BackendStateChangedEvent:
		event.Publish(b.dispatcher, e)
	case BackendExitedEvent:
		event.Publish(b.dispatcher, e)
	case WindowCreatedEvent:
		event.Publish(b.dispatcher, e)
	case WindowClosedEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function.
// The handler type determines which events it receives.
// Returns an unsubscribe function; unknown handler types get a no-op.
// Usage: unsub := bus.Subscribe(func(e BackendExitedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(BackendStateChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(BackendExitedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(WindowCreatedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(WindowClosedEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
