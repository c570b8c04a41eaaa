package observability

import (
	"context"
	"time"
)

// Recorder receives business metrics. It matches the application's
// MetricsRecorder port.
type Recorder interface {
	RecordBatch(ctx context.Context, outcome string, duration time.Duration, creates, updates, deletes int)
	RecordLogin(ctx context.Context, outcome string)
	RecordQuery(ctx context.Context, query string, duration time.Duration, err error)
}

// MultiRecorder fans every metric out to its members.
type MultiRecorder []Recorder

// Recorders drops nil members and returns nil when none remain.
func Recorders(rs ...Recorder) Recorder {
	var out MultiRecorder
	for _, r := range rs {
		if r != nil {
			out = append(out, r)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return out
}

func (m MultiRecorder) RecordBatch(ctx context.Context, outcome string, duration time.Duration, creates, updates, deletes int) {
	for _, r := range m {
		r.RecordBatch(ctx, outcome, duration, creates, updates, deletes)
	}
}

func (m MultiRecorder) RecordLogin(ctx context.Context, outcome string) {
	for _, r := range m {
		r.RecordLogin(ctx, outcome)
	}
}

func (m MultiRecorder) RecordQuery(ctx context.Context, query string, duration time.Duration, err error) {
	for _, r := range m {
		r.RecordQuery(ctx, query, duration, err)
	}
}
