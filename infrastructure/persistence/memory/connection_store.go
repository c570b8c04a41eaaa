package memory

import (
	"context"
	"sort"
	"sync"

	"wmsadmin/domain/core/entities"
)

// InMemoryConnectionStore tracks WebSocket connections for local runs
type InMemoryConnectionStore struct {
	mu    sync.RWMutex
	conns map[string]entities.Connection
}

func NewInMemoryConnectionStore() *InMemoryConnectionStore {
	return &InMemoryConnectionStore{conns: make(map[string]entities.Connection)}
}

func (s *InMemoryConnectionStore) Save(ctx context.Context, conn entities.Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn.ConnectionID] = conn
	return nil
}

func (s *InMemoryConnectionStore) Delete(ctx context.Context, connectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, connectionID)
	return nil
}

// List returns the connections ordered by connect time
func (s *InMemoryConnectionStore) List(ctx context.Context) ([]entities.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entities.Connection, 0, len(s.conns))
	for _, c := range s.conns {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ConnectedAt.Before(out[j].ConnectedAt)
	})
	return out, nil
}
