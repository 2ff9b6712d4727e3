package memory

import (
	"context"
	"sync"

	"github.com/aescanero/plexo/pkg/ports"
)

// EventBus implements ports.EventBus with in-memory handlers.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[string][]ports.EventHandler
}

// NewEventBus creates a new in-memory event bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]ports.EventHandler)}
}

// Publish delivers an event to all subscribers of a topic. Handlers
// run asynchronously; handler errors are dropped.
func (e *EventBus) Publish(ctx context.Context, topic string, event ports.Event) error {
	e.mu.RLock()
	handlers := make([]ports.EventHandler, len(e.subscribers[topic]))
	copy(handlers, e.subscribers[topic])
	e.mu.RUnlock()

	for _, handler := range handlers {
		go func(h ports.EventHandler) {
			_ = h(ctx, event)
		}(handler)
	}

	return nil
}

// Subscribe registers a handler for events on a topic.
func (e *EventBus) Subscribe(ctx context.Context, topic string, handler ports.EventHandler) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.subscribers[topic] = append(e.subscribers[topic], handler)
	return nil
}

// Close clears all subscriptions.
func (e *EventBus) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.subscribers = make(map[string][]ports.EventHandler)
	return nil
}
