package bus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keyedQuery struct{ Key string }

func (q keyedQuery) Validate() error {
	if q.Key == "" {
		return errors.New("key required")
	}
	return nil
}

func (q keyedQuery) CacheKey() string { return "keyed:" + q.Key }

type plainQuery struct{}

func (plainQuery) Validate() error { return nil }

type mapCache struct {
	mu    sync.Mutex
	items map[string]interface{}
}

func (c *mapCache) Get(_ context.Context, key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	return v, ok
}

func (c *mapCache) Set(_ context.Context, key string, value interface{}, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

type countingMetrics struct {
	names  []string
	errors int
}

func (m *countingMetrics) RecordQuery(_ context.Context, query string, _ time.Duration, err error) {
	m.names = append(m.names, query)
	if err != nil {
		m.errors++
	}
}

func TestQueryBus_CachingAndMetrics(t *testing.T) {
	cache := &mapCache{items: map[string]interface{}{}}
	metrics := &countingMetrics{}
	b := NewQueryBus(NewMetricsMiddleware(metrics), NewCachingMiddleware(cache, 30))

	calls := 0
	require.NoError(t, b.Register(keyedQuery{}, QueryHandlerFunc(func(ctx context.Context, q Query) (interface{}, error) {
		calls++
		return q.(keyedQuery).Key + "!", nil
	})))
	require.NoError(t, b.Register(plainQuery{}, QueryHandlerFunc(func(ctx context.Context, q Query) (interface{}, error) {
		calls++
		return nil, errors.New("boom")
	})))

	for i := 0; i < 2; i++ {
		got, err := b.Ask(context.Background(), keyedQuery{Key: "a"})
		require.NoError(t, err)
		assert.Equal(t, "a!", got)
	}
	_, err := b.Ask(context.Background(), plainQuery{})
	assert.EqualError(t, err, "boom")

	assert.Equal(t, 2, calls, "second keyed query is served from cache")
	assert.Equal(t, []string{"keyedQuery", "keyedQuery", "plainQuery"}, metrics.names)
	assert.Equal(t, 1, metrics.errors)
}

func TestQueryBus_Validation(t *testing.T) {
	b := NewQueryBus()
	require.NoError(t, b.Register(keyedQuery{}, QueryHandlerFunc(func(ctx context.Context, q Query) (interface{}, error) {
		return nil, nil
	})))

	_, err := b.Ask(context.Background(), keyedQuery{})
	assert.EqualError(t, err, "key required")

	_, err = b.Ask(context.Background(), plainQuery{})
	assert.Error(t, err)

	assert.Error(t, b.Register(keyedQuery{}, QueryHandlerFunc(nil)))
}
