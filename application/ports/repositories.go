package ports

import (
	"context"
	"errors"
	"time"

	"wmsadmin/domain/core/aggregates"
	"wmsadmin/domain/core/entities"
	"wmsadmin/domain/events"
)

// CodesRepository defines the interface for code tree persistence
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type CodesRepository interface {
	// LoadTree returns every row of the three levels, each level in id order
	LoadTree(ctx context.Context) (*entities.CodesTree, error)

	// Commit applies a planned change set atomically. A row whose lockVer
	// no longer matches, or a key or id that is already taken, fails the
	// whole commit with errors.ErrConcurrentModification.
	Commit(ctx context.Context, cs *aggregates.ChangeSet) error
}

// CommitLock serializes read-plan-commit cycles across request handlers
type CommitLock interface {
	// Acquire blocks until the lock is held or ctx is done
	Acquire(ctx context.Context) (release func(), err error)
}

// AccountRepository stores local login accounts and their failure counters
type AccountRepository interface {
	// FindByUsername returns the account or a not found AppError
	FindByUsername(ctx context.Context, username string) (*entities.Account, error)

	// RecordFailure increments the consecutive failure count, locking the
	// account when threshold is reached, and returns the updated account
	RecordFailure(ctx context.Context, username string, threshold int) (*entities.Account, error)

	// ResetFailures clears the failure count after a successful login
	ResetFailures(ctx context.Context, username string) error
}

// ConnectionStore tracks WebSocket connections that want change notifications
type ConnectionStore interface {
	Save(ctx context.Context, conn entities.Connection) error
	Delete(ctx context.Context, connectionID string) error
	List(ctx context.Context) ([]entities.Connection, error)
}

// MenuSource supplies the current menu definition
type MenuSource interface {
	Menus() *entities.MenuConfig
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// EventBus defines the interface for publishing and subscribing to domain events
type EventBus interface {
	EventPublisher

	// Subscribe registers a handler for an event type
	Subscribe(eventType string, handler EventHandler) error
}

// EventHandler defines the interface for handling domain events
type EventHandler interface {
	// Handle processes an event
	Handle(ctx context.Context, event events.DomainEvent) error

	// CanHandle checks if this handler can process the event
	CanHandle(eventType string) bool
}

// Cache defines the interface for caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value in cache with TTL in seconds
	Set(ctx context.Context, key string, value interface{}, ttl int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear removes all values from cache
	Clear(ctx context.Context) error
}

// MetricsRecorder receives business metrics
type MetricsRecorder interface {
	// RecordBatch records one batch save; outcome is saved, rejected or error
	RecordBatch(ctx context.Context, outcome string, duration time.Duration, creates, updates, deletes int)

	// RecordLogin records one login attempt; outcome is success, failed or locked
	RecordLogin(ctx context.Context, outcome string)

	// RecordQuery records one query bus dispatch
	RecordQuery(ctx context.Context, query string, duration time.Duration, err error)
}

// ErrConnectionGone is returned by a ConnectionPusher when the client has
// disconnected and its connection should be forgotten.
var ErrConnectionGone = errors.New("connection gone")

// ConnectionPusher delivers a message to one WebSocket connection
type ConnectionPusher interface {
	Push(ctx context.Context, connectionID string, data []byte) error
}
