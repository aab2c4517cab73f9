package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrUnknownEventType is returned when publishing or subscribing to a type
// outside the booking and account events.
var ErrUnknownEventType = errors.New("unknown event type")

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher decouples booking and account services from the notification
// side effects they trigger.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// inMemoryDispatcher runs handlers synchronously in the publisher's goroutine.
type inMemoryDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{
		listeners: make(map[EventType][]EventHandler),
	}
}

// Publish synchronously invokes every handler for the event. A failing
// handler does not stop the others; all failures are joined, each tagged with
// the event type and aggregate.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	if !event.Type.Valid() {
		return fmt.Errorf("publish %q: %w", event.Type, ErrUnknownEventType)
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	d.mu.RLock()
	handlers := append([]EventHandler{}, d.listeners[event.Type]...)
	d.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", event.Type, event.AggregateID, err))
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers a handler for the given event type. Subscribing to an
// unknown type is a wiring bug and panics at startup.
func (d *inMemoryDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	if !eventType.Valid() {
		panic(fmt.Sprintf("events: subscribe %q: %v", eventType, ErrUnknownEventType))
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}
