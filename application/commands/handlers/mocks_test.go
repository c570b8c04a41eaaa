package handlers

import (
	"context"
	"time"

	"wmsadmin/application/ports"
	"wmsadmin/domain/core/aggregates"
	"wmsadmin/domain/core/entities"
	"wmsadmin/domain/events"

	"github.com/stretchr/testify/mock"
)

type MockCodesRepository struct {
	mock.Mock
}

func (m *MockCodesRepository) LoadTree(ctx context.Context) (*entities.CodesTree, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CodesTree), args.Error(1)
}

func (m *MockCodesRepository) Commit(ctx context.Context, cs *aggregates.ChangeSet) error {
	args := m.Called(ctx, cs)
	return args.Error(0)
}

type MockCommitLock struct {
	mock.Mock
	released int
}

func (m *MockCommitLock) Acquire(ctx context.Context) (func(), error) {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return nil, err
	}
	return func() { m.released++ }, nil
}

type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, event events.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventBus) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	args := m.Called(ctx, evts)
	return args.Error(0)
}

func (m *MockEventBus) Subscribe(eventType string, handler ports.EventHandler) error {
	args := m.Called(eventType, handler)
	return args.Error(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (interface{}, bool) {
	args := m.Called(ctx, key)
	return args.Get(0), args.Bool(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value interface{}, ttl int) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) RecordBatch(ctx context.Context, outcome string, duration time.Duration, creates, updates, deletes int) {
	m.Called(ctx, outcome, duration, creates, updates, deletes)
}

func (m *MockMetrics) RecordLogin(ctx context.Context, outcome string) {
	m.Called(ctx, outcome)
}

func (m *MockMetrics) RecordQuery(ctx context.Context, query string, duration time.Duration, err error) {
	m.Called(ctx, query, duration, err)
}
