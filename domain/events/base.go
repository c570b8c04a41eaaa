package events

import (
	"strconv"
	"time"

	"wmsadmin/domain/core/valueobjects"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// Event type names published on the bus.
const (
	TypeCategoryCreated = "codes.category_created"
	TypeCategoryUpdated = "codes.category_updated"
	TypeCategoryDeleted = "codes.category_deleted"
	TypeBatchCommitted  = "codes.batch_committed"
	TypeAuditRecorded   = "audit.recorded"
)

// CatalogAggregateID is the aggregate id of the single code catalog.
const CatalogAggregateID = "codes-catalog"

// Category events

// CategoryChanged is raised per row applied by a batch.
type CategoryChanged struct {
	BaseEvent
	Level   valueobjects.Level `json:"level"`
	ID      int                `json:"id"`
	Key     string             `json:"key"`
	LockVer int                `json:"lock_ver"`
	Actor   string             `json:"actor"`
}

func newCategoryChanged(eventType string, level valueobjects.Level, id int, key string, lockVer int, actor string, ts time.Time) CategoryChanged {
	return CategoryChanged{
		BaseEvent: BaseEvent{
			AggregateID: string(level) + ":" + strconv.Itoa(id),
			EventType:   eventType,
			Timestamp:   ts,
			Version:     1,
		},
		Level:   level,
		ID:      id,
		Key:     key,
		LockVer: lockVer,
		Actor:   actor,
	}
}

// NewCategoryCreated creates a CategoryChanged event for a created row
func NewCategoryCreated(level valueobjects.Level, id int, key, actor string, ts time.Time) CategoryChanged {
	return newCategoryChanged(TypeCategoryCreated, level, id, key, 1, actor, ts)
}

// NewCategoryUpdated creates a CategoryChanged event carrying the new lockVer
func NewCategoryUpdated(level valueobjects.Level, id int, key string, lockVer int, actor string, ts time.Time) CategoryChanged {
	return newCategoryChanged(TypeCategoryUpdated, level, id, key, lockVer, actor, ts)
}

// NewCategoryDeleted creates a CategoryChanged event for a removed row
func NewCategoryDeleted(level valueobjects.Level, id int, key, actor string, ts time.Time) CategoryChanged {
	return newCategoryChanged(TypeCategoryDeleted, level, id, key, 0, actor, ts)
}

// BatchCommitted is raised once per committed batch. Editors holding an
// older snapshot use it to learn their lockVers are stale.
type BatchCommitted struct {
	BaseEvent
	TrackingID string `json:"tracking_id"`
	Actor      string `json:"actor"`
	Creates    int    `json:"creates"`
	Updates    int    `json:"updates"`
	Deletes    int    `json:"deletes"`
}

// NewBatchCommitted creates a BatchCommitted event
func NewBatchCommitted(trackingID valueobjects.TrackingID, actor string, creates, updates, deletes int, ts time.Time) BatchCommitted {
	return BatchCommitted{
		BaseEvent: BaseEvent{
			AggregateID: CatalogAggregateID,
			EventType:   TypeBatchCommitted,
			Timestamp:   ts,
			Version:     1,
		},
		TrackingID: trackingID.String(),
		Actor:      actor,
		Creates:    creates,
		Updates:    updates,
		Deletes:    deletes,
	}
}

// Audit events

// AuditRecorded carries one security audit record.
type AuditRecorded struct {
	BaseEvent
	AuditType  string            `json:"audit_type"`
	TrackingID string            `json:"tracking_id"`
	Username   string            `json:"username,omitempty"`
	IPAddress  string            `json:"ip_address,omitempty"`
	UserAgent  string            `json:"user_agent,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
}

// NewAuditRecorded creates an AuditRecorded event
func NewAuditRecorded(auditType string, trackingID valueobjects.TrackingID, username, ip, userAgent string, details map[string]string, ts time.Time) AuditRecorded {
	return AuditRecorded{
		BaseEvent: BaseEvent{
			AggregateID: "user:" + username,
			EventType:   TypeAuditRecorded,
			Timestamp:   ts,
			Version:     1,
		},
		AuditType:  auditType,
		TrackingID: trackingID.String(),
		Username:   username,
		IPAddress:  ip,
		UserAgent:  userAgent,
		Details:    details,
	}
}
