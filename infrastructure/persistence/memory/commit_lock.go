package memory

import (
	"context"
	"sync"
)

// MutexCommitLock serializes commits within one process
type MutexCommitLock struct {
	sem chan struct{}
}

func NewMutexCommitLock() *MutexCommitLock {
	return &MutexCommitLock{sem: make(chan struct{}, 1)}
}

// Acquire waits for the lock or for ctx to be done
func (l *MutexCommitLock) Acquire(ctx context.Context) (func(), error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	var once sync.Once
	return func() {
		once.Do(func() { <-l.sem })
	}, nil
}
