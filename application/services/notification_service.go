package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wmsadmin/application/ports"
	"wmsadmin/domain/events"

	"go.uber.org/zap"
)

// Notification is the message format sent to WebSocket clients.
type Notification struct {
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NotificationService tells connected editors that a batch was committed,
// so sessions holding older lockVers know to reload. It is an event
// handler for codes.batch_committed.
type NotificationService struct {
	connections ports.ConnectionStore
	pusher      ports.ConnectionPusher
	logger      *zap.Logger
	now         func() time.Time
}

// NewNotificationService creates a new notification service
func NewNotificationService(connections ports.ConnectionStore, pusher ports.ConnectionPusher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		connections: connections,
		pusher:      pusher,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *NotificationService) CanHandle(eventType string) bool {
	return eventType == events.TypeBatchCommitted
}

// Handle broadcasts event to every stored connection. Connections that are
// gone are deleted. It fails only when every push failed.
func (s *NotificationService) Handle(ctx context.Context, event events.DomainEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return s.Broadcast(ctx, event.GetEventType(), data)
}

// Broadcast sends an already encoded event payload.
func (s *NotificationService) Broadcast(ctx context.Context, eventType string, data json.RawMessage) error {
	msg, err := json.Marshal(Notification{
		Type:      eventType,
		Timestamp: s.now().Unix(),
		Data:      data,
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	conns, err := s.connections.List(ctx)
	if err != nil {
		return fmt.Errorf("list connections: %w", err)
	}

	sent, failed, gone := 0, 0, 0
	for _, c := range conns {
		err := s.pusher.Push(ctx, c.ConnectionID, msg)
		switch {
		case err == nil:
			sent++
		case errors.Is(err, ports.ErrConnectionGone):
			gone++
			if derr := s.connections.Delete(ctx, c.ConnectionID); derr != nil {
				s.logger.Warn("Failed to remove stale connection",
					zap.String("connectionId", c.ConnectionID),
					zap.Error(derr),
				)
			}
		default:
			failed++
			s.logger.Warn("Failed to push notification",
				zap.String("connectionId", c.ConnectionID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("Broadcast complete",
		zap.String("eventType", eventType),
		zap.Int("sent", sent),
		zap.Int("failed", failed),
		zap.Int("gone", gone),
	)
	if failed > 0 && sent == 0 {
		return fmt.Errorf("all %d pushes failed", failed)
	}
	return nil
}
