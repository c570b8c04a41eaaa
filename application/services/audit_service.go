package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"wmsadmin/application/dto"
	"wmsadmin/application/ports"
	"wmsadmin/domain/core/valueobjects"
	"wmsadmin/domain/events"
	"wmsadmin/pkg/common"
	apperrors "wmsadmin/pkg/errors"

	"go.uber.org/zap"
)

const auditPublishTimeout = 5 * time.Second

// AuditEvent is one security event before it is recorded.
type AuditEvent struct {
	Type       valueobjects.AuditEventType
	UserID     string
	Username   string
	IPAddress  string
	UserAgent  string
	Details    map[string]interface{}
	ErrorCount int
	IsLocked   bool
	TrackingID valueobjects.TrackingID
}

// AuditService records security events. Recording never blocks or fails
// the caller: the event is logged and then published in the background.
type AuditService struct {
	publisher ports.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
	timeout   time.Duration
	inflight  sync.WaitGroup
}

// NewAuditService creates a new audit service. publisher may be nil.
func NewAuditService(publisher ports.EventPublisher, logger *zap.Logger) *AuditService {
	return &AuditService{
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
		timeout:   auditPublishTimeout,
	}
}

// Record fills in client and tracking details from ctx and records ev.
func (s *AuditService) Record(ctx context.Context, ev AuditEvent) valueobjects.TrackingID {
	now := s.now()
	ip, ua := common.GetClient(ctx)
	if ev.IPAddress == "" {
		ev.IPAddress = ip
	}
	if ev.UserAgent == "" {
		ev.UserAgent = ua
	}
	if ev.TrackingID == "" {
		ev.TrackingID = valueobjects.NewTrackingID(now)
	}

	details := flattenDetails(ev)
	fields := []zap.Field{
		zap.String("eventType", string(ev.Type)),
		zap.String("username", ev.Username),
		zap.String("ipAddress", ev.IPAddress),
		zap.String("trackingId", ev.TrackingID.String()),
		zap.Time("timestamp", now),
	}
	for _, k := range sortedKeys(details) {
		fields = append(fields, zap.String(k, details[k]))
	}
	s.logger.Info("Audit event", fields...)

	if s.publisher == nil {
		return ev.TrackingID
	}
	event := events.NewAuditRecorded(string(ev.Type), ev.TrackingID, ev.Username, ev.IPAddress, ev.UserAgent, details, now)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		pctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.publisher.Publish(pctx, event); err != nil {
			s.logger.Warn("Failed to publish audit event",
				zap.String("trackingId", ev.TrackingID.String()),
				zap.Error(err),
			)
		}
	}()
	return ev.TrackingID
}

// RecordRequest records a client reported event. Only pre-auth events are
// accepted without a user.
func (s *AuditService) RecordRequest(ctx context.Context, req dto.AuditLogRequest, user string) (valueobjects.TrackingID, error) {
	t := valueobjects.AuditEventType(req.EventType)
	if !t.IsValid() {
		return "", apperrors.NewValidationError(fmt.Sprintf("unknown audit event type %q", req.EventType))
	}
	if user == "" && !t.PreAuth() {
		return "", apperrors.NewUnauthorizedError("authentication required for " + req.EventType)
	}
	username := req.Username
	if user != "" {
		username = user
	}
	return s.Record(ctx, AuditEvent{
		Type:       t,
		UserID:     req.UserID,
		Username:   username,
		IPAddress:  req.IPAddress,
		UserAgent:  req.UserAgent,
		Details:    req.Details,
		ErrorCount: req.ErrorCount,
		IsLocked:   req.IsLocked,
		TrackingID: valueobjects.TrackingID(req.TrackingID),
	}), nil
}

// Wait blocks until background publishes finish.
func (s *AuditService) Wait() {
	s.inflight.Wait()
}

func flattenDetails(ev AuditEvent) map[string]string {
	out := make(map[string]string, len(ev.Details)+3)
	for k, v := range ev.Details {
		out[k] = fmt.Sprint(v)
	}
	if ev.UserID != "" {
		out["userId"] = ev.UserID
	}
	if ev.ErrorCount > 0 {
		out["errorCount"] = strconv.Itoa(ev.ErrorCount)
	}
	if ev.IsLocked {
		out["isLocked"] = "true"
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
