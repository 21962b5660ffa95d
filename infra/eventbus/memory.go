// Package eventbus provides the in-process implementation of the event bus
// used to fan transaction completion events out to listeners such as cache
// invalidation.
package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/amirasaad/banking/pkg/eventbus"
)

// MemoryBus is a simple in-memory implementation of eventbus.Bus. Handlers
// run synchronously on the publisher's goroutine; a handler panic is
// recovered and logged so it never fails the publish.
type MemoryBus struct {
	handlers  map[string][]eventbus.HandlerFunc
	mu        sync.RWMutex
	logger    *slog.Logger
	published []eventbus.Event // retained for tests
}

// NewMemoryBus creates a new in-memory event bus.
func NewMemoryBus(logger *slog.Logger) *MemoryBus {
	return &MemoryBus{
		handlers: make(map[string][]eventbus.HandlerFunc),
		logger:   logger.With("bus", "memory"),
	}
}

// Subscribe registers a handler for a specific event type.
func (b *MemoryBus) Subscribe(eventType string, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish dispatches the event to every handler registered for its type.
func (b *MemoryBus) Publish(ctx context.Context, event eventbus.Event) error {
	b.mu.RLock()
	handlers := b.handlers[event.Type()]
	b.mu.RUnlock()

	b.mu.Lock()
	b.published = append(b.published, event)
	b.mu.Unlock()

	for _, handler := range handlers {
		b.dispatch(ctx, event, handler)
	}
	return nil
}

func (b *MemoryBus) dispatch(ctx context.Context, event eventbus.Event, handler eventbus.HandlerFunc) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked", "type", event.Type(), "panic", r)
		}
	}()
	handler(ctx, event)
}

// Published returns every event published so far. This is useful for testing.
func (b *MemoryBus) Published() []eventbus.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]eventbus.Event(nil), b.published...)
}

// ClearPublished resets the published event list. This is useful for testing.
func (b *MemoryBus) ClearPublished() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = nil
}

var _ eventbus.Bus = (*MemoryBus)(nil)
