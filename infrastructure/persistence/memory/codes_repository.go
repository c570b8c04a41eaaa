package memory

import (
	"context"
	"sync"

	"wmsadmin/domain/core/aggregates"
	"wmsadmin/domain/core/entities"
)

// InMemoryCodesRepository keeps the code tree in process memory
type InMemoryCodesRepository struct {
	mu   sync.RWMutex
	tree *entities.CodesTree
}

// NewInMemoryCodesRepository creates a repository holding a copy of tree.
// A nil tree starts empty.
func NewInMemoryCodesRepository(tree *entities.CodesTree) *InMemoryCodesRepository {
	if tree == nil {
		tree = entities.NewCodesTree()
	}
	cp := tree.Clone()
	cp.Sort()
	return &InMemoryCodesRepository{tree: cp}
}

// LoadTree returns a snapshot the caller may modify freely
func (r *InMemoryCodesRepository) LoadTree(ctx context.Context) (*entities.CodesTree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tree.Clone(), nil
}

// Commit verifies every write condition and swaps in the new tree
func (r *InMemoryCodesRepository) Commit(ctx context.Context, cs *aggregates.ChangeSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := cs.Verify(r.tree); err != nil {
		return err
	}
	r.tree = cs.Apply(r.tree)
	return nil
}
