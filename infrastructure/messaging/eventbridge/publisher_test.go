package eventbridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"wmsadmin/domain/core/valueobjects"
	"wmsadmin/domain/events"
	"wmsadmin/infrastructure/messaging"
	apperrors "wmsadmin/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClient struct {
	calls  [][]types.PutEventsRequestEntry
	err    error
	failed int32
}

func (f *fakeClient) PutEvents(ctx context.Context, in *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	f.calls = append(f.calls, in.Entries)
	if f.err != nil {
		return nil, f.err
	}
	out := &eventbridge.PutEventsOutput{FailedEntryCount: f.failed}
	for range in.Entries {
		entry := types.PutEventsResultEntry{}
		if f.failed > 0 {
			entry.ErrorCode = aws.String("InternalFailure")
		}
		out.Entries = append(out.Entries, entry)
	}
	return out, nil
}

func sampleEvents(n int) []events.DomainEvent {
	now := time.Now()
	out := make([]events.DomainEvent, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, events.NewCategoryCreated(valueobjects.LevelMajor, i+1, "001", "admin", now))
	}
	return out
}

func TestPublishBatch_Chunks(t *testing.T) {
	client := &fakeClient{}
	p := NewEventBridgePublisher(client, "codes-bus", DefaultBreakerConfig(), nil, zap.NewNop())

	require.NoError(t, p.PublishBatch(context.Background(), sampleEvents(23)))

	require.Len(t, client.calls, 3)
	assert.Len(t, client.calls[0], 10)
	assert.Len(t, client.calls[2], 3)
	entry := client.calls[0][0]
	assert.Equal(t, Source, aws.ToString(entry.Source))
	assert.Equal(t, "codes-bus", aws.ToString(entry.EventBusName))
	assert.Equal(t, events.TypeCategoryCreated, aws.ToString(entry.DetailType))
	assert.Contains(t, aws.ToString(entry.Detail), `"key":"001"`)
}

func TestPublishBatch_Failures(t *testing.T) {
	t.Run("failed entries", func(t *testing.T) {
		p := NewEventBridgePublisher(&fakeClient{failed: 1}, "bus", DefaultBreakerConfig(), nil, zap.NewNop())
		err := p.Publish(context.Background(), sampleEvents(1)[0])
		assert.ErrorContains(t, err, "1 events failed")
	})

	t.Run("breaker opens", func(t *testing.T) {
		cfg := DefaultBreakerConfig()
		cfg.MinRequests = 2
		client := &fakeClient{err: errors.New("throttled")}
		p := NewEventBridgePublisher(client, "bus", cfg, nil, zap.NewNop())

		for i := 0; i < 2; i++ {
			assert.ErrorContains(t, p.Publish(context.Background(), sampleEvents(1)[0]), "throttled")
		}
		err := p.Publish(context.Background(), sampleEvents(1)[0])
		assert.ErrorIs(t, err, apperrors.ErrEventPublishFailed)
		assert.Len(t, client.calls, 2)
	})
}

type countingHandler struct{ n int }

func (h *countingHandler) Handle(ctx context.Context, event events.DomainEvent) error {
	h.n++
	return nil
}

func (h *countingHandler) CanHandle(string) bool { return true }

func TestPublishBatch_LocalDispatch(t *testing.T) {
	local := messaging.NewLocalEventBus(zap.NewNop())
	p := NewEventBridgePublisher(&fakeClient{}, "bus", DefaultBreakerConfig(), local, zap.NewNop())
	h := &countingHandler{}
	require.NoError(t, p.Subscribe(messaging.AllEvents, h))

	require.NoError(t, p.PublishBatch(context.Background(), sampleEvents(3)))
	assert.Equal(t, 3, h.n)
}
