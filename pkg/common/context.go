package common

import (
	"context"
	"time"
)

// ContextKey namespaces values stored on a request context.
type ContextKey string

const (
	ContextKeyRequestID ContextKey = "request_id"
	ContextKeyStartTime ContextKey = "start_time"
	ContextKeyClientIP  ContextKey = "client_ip"
	ContextKeyUserAgent ContextKey = "user_agent"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(ContextKeyRequestID).(string)
	return requestID, ok
}

func WithStartTime(ctx context.Context, startTime time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyStartTime, startTime)
}

// GetElapsedTime returns the time since WithStartTime, or zero.
func GetElapsedTime(ctx context.Context) time.Duration {
	if startTime, ok := ctx.Value(ContextKeyStartTime).(time.Time); ok {
		return time.Since(startTime)
	}
	return 0
}

// WithClient records the caller's address and user agent for audit records.
func WithClient(ctx context.Context, ip, userAgent string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyClientIP, ip)
	return context.WithValue(ctx, ContextKeyUserAgent, userAgent)
}

// GetClient returns the values stored by WithClient.
func GetClient(ctx context.Context) (ip, userAgent string) {
	ip, _ = ctx.Value(ContextKeyClientIP).(string)
	userAgent, _ = ctx.Value(ContextKeyUserAgent).(string)
	return ip, userAgent
}
