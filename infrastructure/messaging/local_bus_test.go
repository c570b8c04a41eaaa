package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"wmsadmin/domain/core/valueobjects"
	"wmsadmin/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingHandler struct {
	accepts string
	seen    []string
	err     error
}

func (h *recordingHandler) Handle(ctx context.Context, event events.DomainEvent) error {
	h.seen = append(h.seen, event.GetEventType())
	return h.err
}

func (h *recordingHandler) CanHandle(eventType string) bool {
	return h.accepts == "" || h.accepts == eventType
}

func TestLocalEventBus(t *testing.T) {
	bus := NewLocalEventBus(zap.NewNop())
	now := time.Now()

	committed := &recordingHandler{err: errors.New("boom")}
	everything := &recordingHandler{}
	picky := &recordingHandler{accepts: events.TypeCategoryCreated}
	require.NoError(t, bus.Subscribe(events.TypeBatchCommitted, committed))
	require.NoError(t, bus.Subscribe(AllEvents, everything))
	require.NoError(t, bus.Subscribe(AllEvents, picky))

	err := bus.PublishBatch(context.Background(), []events.DomainEvent{
		events.NewCategoryCreated(valueobjects.LevelMajor, 1, "001", "admin", now),
		events.NewBatchCommitted(valueobjects.NewTrackingID(now), "admin", 1, 0, 0, now),
	})

	assert.NoError(t, err)
	assert.Equal(t, []string{events.TypeBatchCommitted}, committed.seen)
	assert.Equal(t, []string{events.TypeCategoryCreated, events.TypeBatchCommitted}, everything.seen)
	assert.Equal(t, []string{events.TypeCategoryCreated}, picky.seen)
}
