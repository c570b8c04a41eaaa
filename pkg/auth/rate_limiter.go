package auth

import (
	"context"
	"sync"
	"time"
)

// RateLimiter counts attempts per key
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// SlidingWindowLimiter allows limit attempts per key in any windowSize span.
// It keeps state in process, so each instance counts on its own.
type SlidingWindowLimiter struct {
	mu         sync.Mutex
	hits       map[string][]time.Time
	limit      int
	windowSize time.Duration
	now        func() time.Time
}

// NewSlidingWindowLimiter creates a new sliding window rate limiter
func NewSlidingWindowLimiter(limit int, windowSize time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		hits:       make(map[string][]time.Time),
		limit:      limit,
		windowSize: windowSize,
		now:        time.Now,
	}
}

// Allow records an attempt for key unless the window is full
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	if len(l.hits[key]) >= l.limit {
		return false, nil
	}
	l.hits[key] = append(l.hits[key], now)
	return true, nil
}

// prune drops expired attempts and forgets keys left with none.
func (l *SlidingWindowLimiter) prune(now time.Time) {
	start := now.Add(-l.windowSize)
	for key, times := range l.hits {
		live := times[:0]
		for _, t := range times {
			if t.After(start) {
				live = append(live, t)
			}
		}
		if len(live) == 0 {
			delete(l.hits, key)
			continue
		}
		l.hits[key] = live
	}
}

// Reset forgets every attempt for key
func (l *SlidingWindowLimiter) Reset(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.hits, key)
	return nil
}

// keys reports how many keys hold attempts.
func (l *SlidingWindowLimiter) keys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hits)
}

// PrefixedLimiter namespaces keys so one limiter can serve several routes.
type PrefixedLimiter struct {
	limiter RateLimiter
	prefix  string
}

// WithPrefix wraps limiter so every key becomes "<prefix>:<key>"
func WithPrefix(limiter RateLimiter, prefix string) *PrefixedLimiter {
	return &PrefixedLimiter{limiter: limiter, prefix: prefix}
}

func (l *PrefixedLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return l.limiter.Allow(ctx, l.prefix+":"+key)
}

func (l *PrefixedLimiter) Reset(ctx context.Context, key string) error {
	return l.limiter.Reset(ctx, l.prefix+":"+key)
}
