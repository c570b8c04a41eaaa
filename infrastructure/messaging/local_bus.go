package messaging

import (
	"context"
	"sync"
	"time"

	"wmsadmin/application/ports"
	"wmsadmin/domain/events"

	"go.uber.org/zap"
)

// AllEvents subscribes a handler to every event type.
const AllEvents = "*"

// LocalEventBus dispatches events to in-process handlers. Handler failures
// are logged and never returned to the publisher.
type LocalEventBus struct {
	mu       sync.RWMutex
	handlers map[string][]ports.EventHandler
	logger   *zap.Logger
}

// NewLocalEventBus creates a new local event bus
func NewLocalEventBus(logger *zap.Logger) *LocalEventBus {
	return &LocalEventBus{
		handlers: make(map[string][]ports.EventHandler),
		logger:   logger,
	}
}

// Subscribe registers handler for eventType, or for every type with AllEvents
func (b *LocalEventBus) Subscribe(eventType string, handler ports.EventHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// Publish dispatches one event
func (b *LocalEventBus) Publish(ctx context.Context, event events.DomainEvent) error {
	return b.PublishBatch(ctx, []events.DomainEvent{event})
}

// PublishBatch dispatches events in order
func (b *LocalEventBus) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	for _, event := range domainEvents {
		b.dispatch(ctx, event)
	}
	return nil
}

func (b *LocalEventBus) dispatch(ctx context.Context, event events.DomainEvent) {
	b.mu.RLock()
	targets := append([]ports.EventHandler{}, b.handlers[event.GetEventType()]...)
	targets = append(targets, b.handlers[AllEvents]...)
	b.mu.RUnlock()

	start := time.Now()
	for _, h := range targets {
		if !h.CanHandle(event.GetEventType()) {
			continue
		}
		if err := h.Handle(ctx, event); err != nil {
			b.logger.Error("Failed to dispatch event locally",
				zap.String("eventType", event.GetEventType()),
				zap.String("aggregateID", event.GetAggregateID()),
				zap.Error(err),
			)
		}
	}
	b.logger.Debug("Event dispatched locally",
		zap.String("eventType", event.GetEventType()),
		zap.Int("handlers", len(targets)),
		zap.Duration("duration", time.Since(start)),
	)
}
