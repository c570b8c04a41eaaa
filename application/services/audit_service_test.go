package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"wmsadmin/application/dto"
	"wmsadmin/domain/core/valueobjects"
	"wmsadmin/domain/events"
	"wmsadmin/pkg/common"
	apperrors "wmsadmin/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, e events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *capturePublisher) PublishBatch(ctx context.Context, es []events.DomainEvent) error {
	for _, e := range es {
		_ = p.Publish(ctx, e)
	}
	return p.err
}

func TestAuditService_Record(t *testing.T) {
	pub := &capturePublisher{}
	core, logs := observer.New(zap.InfoLevel)
	svc := NewAuditService(pub, zap.New(core))

	ctx := common.WithClient(context.Background(), "10.0.0.1", "test-agent")
	id := svc.Record(ctx, AuditEvent{
		Type:       valueobjects.AuditLoginFailed,
		Username:   "user",
		ErrorCount: 2,
	})
	svc.Wait()

	require.Len(t, pub.events, 1)
	rec := pub.events[0].(events.AuditRecorded)
	assert.Equal(t, "LOGIN_FAILED", rec.AuditType)
	assert.Equal(t, id.String(), rec.TrackingID)
	assert.Equal(t, "10.0.0.1", rec.IPAddress)
	assert.Equal(t, "test-agent", rec.UserAgent)
	assert.Equal(t, "2", rec.Details["errorCount"])

	entries := logs.FilterMessage("Audit event").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "user", entries[0].ContextMap()["username"])
}

func TestAuditService_PublishFailureIsLogged(t *testing.T) {
	pub := &capturePublisher{err: errors.New("bus down")}
	core, logs := observer.New(zap.WarnLevel)
	svc := NewAuditService(pub, zap.New(core))

	id := svc.Record(context.Background(), AuditEvent{Type: valueobjects.AuditLogout, Username: "admin"})
	svc.Wait()

	assert.NotEmpty(t, id)
	assert.Equal(t, 1, logs.FilterMessage("Failed to publish audit event").Len())
}

func TestAuditService_RecordRequest(t *testing.T) {
	svc := NewAuditService(nil, zap.NewNop())
	ctx := context.Background()

	_, err := svc.RecordRequest(ctx, dto.AuditLogRequest{EventType: "NOPE"}, "")
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.RecordRequest(ctx, dto.AuditLogRequest{EventType: "LOGOUT"}, "")
	assert.True(t, apperrors.IsUnauthorized(err))

	id, err := svc.RecordRequest(ctx, dto.AuditLogRequest{EventType: "LOGIN_FAILED", Username: "x"}, "")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	id, err = svc.RecordRequest(ctx, dto.AuditLogRequest{EventType: "AUTO_LOGOUT", TrackingID: "TRK-1-abc"}, "admin")
	require.NoError(t, err)
	assert.Equal(t, valueobjects.TrackingID("TRK-1-abc"), id)
}
