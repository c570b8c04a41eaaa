package main

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingBroadcaster struct {
	eventType string
	data      json.RawMessage
}

func (r *recordingBroadcaster) Broadcast(ctx context.Context, eventType string, data json.RawMessage) error {
	r.eventType = eventType
	r.data = data
	return nil
}

func TestNotifyForwardsDetail(t *testing.T) {
	rec := &recordingBroadcaster{}
	h := &notifyHandler{notifications: rec, logger: zap.NewNop()}

	err := h.handle(context.Background(), events.CloudWatchEvent{
		ID:         "e1",
		DetailType: "codes.batch_committed",
		Detail:     json.RawMessage(`{"trackingId":"T1"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "codes.batch_committed", rec.eventType)
	assert.JSONEq(t, `{"trackingId":"T1"}`, string(rec.data))
}

func TestNotifyRejectsEmptyEvent(t *testing.T) {
	h := &notifyHandler{notifications: &recordingBroadcaster{}, logger: zap.NewNop()}
	assert.Error(t, h.handle(context.Background(), events.CloudWatchEvent{ID: "e2"}))
}
