package tracing

import (
	"context"
	"testing"
	"time"

	"wmsadmin/domain/core/aggregates"
	"wmsadmin/domain/core/entities"
	"wmsadmin/infrastructure/persistence/memory"
	"wmsadmin/pkg/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	repo := memory.NewInMemoryCodesRepository(entities.NewCodesTree())

	assert.Same(t, repo, Wrap(repo, observability.NewTracer("wmsadmin", false)))

	traced := Wrap(repo, observability.NewTracer("wmsadmin", true))
	require.IsType(t, &CodesRepository{}, traced)

	// Without a segment in ctx calls pass straight through.
	ctx := context.Background()
	cs := &aggregates.ChangeSet{
		Actor:        "admin",
		Timestamp:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		MajorCreates: []entities.MajorCategory{{MajorCatID: 1, MajorCatNo: "001", MajorCatName: "n", LockVer: 1}},
	}
	require.NoError(t, traced.Commit(ctx, cs))

	tree, err := traced.LoadTree(ctx)
	require.NoError(t, err)
	require.Len(t, tree.MajorCategories, 1)
	assert.Equal(t, "001", tree.MajorCategories[0].MajorCatNo)
}
