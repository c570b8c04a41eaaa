package aggregates

import (
	"testing"
	"time"

	"wmsadmin/domain/core/entities"
	"wmsadmin/domain/events"
	pkgerrors "wmsadmin/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var planTime = time.Date(2025, 11, 15, 9, 30, 0, 0, time.UTC)

// sampleTree has majors 001 and 002, mid 001-A01 with sub X01, and an
// empty mid 001-A02.
func sampleTree() *entities.CodesTree {
	tree := entities.NewCodesTree()
	tree.MajorCategories = []entities.MajorCategory{
		{MajorCatID: 1, MajorCatNo: "001", MajorCatName: "大分類-001", LockVer: 1},
		{MajorCatID: 2, MajorCatNo: "002", MajorCatName: "大分類-002", LockVer: 3},
	}
	tree.MidCategories = []entities.MidCategory{
		{MidCatID: 1, MajorCatID: 1, MajorCatNo: "001", MidCatCode: "A01", CodeDesc: "中分類-001-001", LockVer: 1},
		{MidCatID: 2, MajorCatID: 1, MajorCatNo: "001", MidCatCode: "A02", CodeDesc: "中分類-001-002", LockVer: 1},
	}
	tree.SubCategories = []entities.SubCategory{
		{ID: 1, MidCatID: 1, MajorCatNo: "001", MidCatCode: "A01", SubcatCode: "X01", CodeDesc: "細分類", LockVer: 2},
	}
	return tree
}

func newCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog(sampleTree(), nil)
	require.NoError(t, err)
	return c
}

func rejection(t *testing.T, err error) *BatchRejection {
	t.Helper()
	require.Error(t, err)
	rej, ok := AsRejection(err)
	require.True(t, ok, "expected *BatchRejection, got %T", err)
	return rej
}

func TestPlanBatch_CreatesChainByNaturalKey(t *testing.T) {
	c := newCatalog(t)

	// Children are listed first to show creates are ordered by level.
	cs, err := c.PlanBatch(Batch{Creates: []BatchItem{
		{Type: "sub", MajorCatNo: "003", MidCatCode: "B01", SubcatCode: "Y01", CodeDesc: "new sub"},
		{Type: "mid", MajorCatNo: "003", MidCatCode: "B01", CodeDesc: "new mid", Value1: entities.Float(1.5)},
		{Type: "major", MajorCatNo: "003", MajorCatName: "new major", CreatedBy: "manager"},
	}}, "", planTime)
	require.NoError(t, err)

	require.Len(t, cs.MajorCreates, 1)
	require.Len(t, cs.MidCreates, 1)
	require.Len(t, cs.SubCreates, 1)

	major := cs.MajorCreates[0]
	assert.Equal(t, 3, major.MajorCatID)
	assert.Equal(t, 1, major.LockVer)
	assert.Equal(t, "manager", major.CreatedBy)
	assert.Equal(t, "20251115093000", major.CreatedDate)
	assert.Equal(t, "2025-11-15T09:30:00Z", major.UpdatedTime)

	mid := cs.MidCreates[0]
	assert.Equal(t, 3, mid.MidCatID)
	assert.Equal(t, major.MajorCatID, mid.MajorCatID)
	assert.Equal(t, 1.5, *mid.Value1)
	assert.Equal(t, defaultActor, mid.CreatedBy)

	sub := cs.SubCreates[0]
	assert.Equal(t, 2, sub.ID)
	assert.Equal(t, mid.MidCatID, sub.MidCatID)

	assert.Len(t, c.GetUncommittedEvents(), 3)
	c.MarkEventsAsCommitted()
	assert.Empty(t, c.GetUncommittedEvents())
}

func TestPlanBatch_InfersLevelWithoutType(t *testing.T) {
	c := newCatalog(t)

	cs, err := c.PlanBatch(Batch{
		Creates: []BatchItem{
			{MajorCatNo: "001", MidCatCode: "A03", CodeDesc: "mid"},
			{MajorCatNo: "001", MidCatCode: "A01", SubcatCode: "X02", CodeDesc: "sub"},
		},
		Updates: []BatchItem{
			{MidCatID: 2, MajorCatID: 1, CodeDesc: "renamed", LockVer: 1},
		},
	}, "admin", planTime)
	require.NoError(t, err)

	assert.Len(t, cs.MidCreates, 1)
	assert.Len(t, cs.SubCreates, 1)
	require.Len(t, cs.MidUpdates, 1)
	assert.Empty(t, cs.MajorUpdates)
	assert.Equal(t, "renamed", cs.MidUpdates[0].Row.CodeDesc)
	assert.Equal(t, 2, cs.MidUpdates[0].Row.LockVer)
	assert.Equal(t, 1, cs.MidUpdates[0].ExpectedLockVer)
}

func TestPlanBatch_UnknownItemType(t *testing.T) {
	c := newCatalog(t)

	_, err := c.PlanBatch(Batch{Creates: []BatchItem{{CodeDesc: "orphan"}}}, "admin", planTime)

	rej := rejection(t, err)
	require.Len(t, rej.Errors, 1)
	assert.Equal(t, pkgerrors.CodeInvalidItem, rej.Errors[0].Code)
	assert.Equal(t, "0", rej.FailedItems[0].Index)
}

func TestPlanBatch_CreateErrors(t *testing.T) {
	tests := []struct {
		name      string
		item      BatchItem
		wantField string
		wantCode  string
		wantMsg   string
	}{
		{
			name:      "duplicate major",
			item:      BatchItem{Type: "major", MajorCatNo: "001", MajorCatName: "dup"},
			wantField: "majorCatNo",
			wantCode:  pkgerrors.CodeDuplicateKey,
			wantMsg:   "大分類編碼已存在，請使用其他編碼",
		},
		{
			name:      "required major name",
			item:      BatchItem{Type: "major", MajorCatNo: "009"},
			wantField: "majorCatName",
			wantCode:  pkgerrors.CodeRequired,
			wantMsg:   "大分類名稱為必填欄位",
		},
		{
			name:      "mid without parent",
			item:      BatchItem{Type: "mid", MajorCatNo: "999", MidCatCode: "A01", CodeDesc: "x"},
			wantField: "majorCatNo",
			wantCode:  pkgerrors.CodeNotFound,
			wantMsg:   "大分類不存在",
		},
		{
			name:      "sub missing parent keys",
			item:      BatchItem{Type: "sub", MajorCatNo: "001", SubcatCode: "Z01", CodeDesc: "x"},
			wantField: "majorCatNo",
			wantCode:  pkgerrors.CodeRequired,
			wantMsg:   MsgSubParentRequired,
		},
		{
			name:      "sub without parent",
			item:      BatchItem{Type: "sub", MajorCatNo: "001", MidCatCode: "ZZZ", SubcatCode: "Z01", CodeDesc: "x"},
			wantField: "midCatCode",
			wantCode:  pkgerrors.CodeNotFound,
			wantMsg:   "中分類不存在",
		},
		{
			name:      "mid bad charset",
			item:      BatchItem{Type: "mid", MajorCatNo: "001", MidCatCode: "A-1", CodeDesc: "x"},
			wantField: "midCatCode",
			wantCode:  pkgerrors.CodeValidation,
			wantMsg:   "中分類編碼只能包含英數字",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCatalog(t)

			cs, err := c.PlanBatch(Batch{Creates: []BatchItem{tt.item}}, "admin", planTime)

			assert.Nil(t, cs)
			rej := rejection(t, err)
			require.Len(t, rej.Errors, 1)
			assert.Equal(t, ItemError{Field: tt.wantField, Code: tt.wantCode, Message: tt.wantMsg}, rej.Errors[0])
			require.Len(t, rej.FailedItems, 1)
			assert.Equal(t, OpCreate, rej.FailedItems[0].Type)
			assert.Equal(t, "0", rej.FailedItems[0].Index)
			assert.Empty(t, c.GetUncommittedEvents())
		})
	}
}

func TestPlanBatch_LockConflict(t *testing.T) {
	c := newCatalog(t)

	_, err := c.PlanBatch(Batch{Updates: []BatchItem{
		{Type: "major", MajorCatID: 2, MajorCatName: "stale", LockVer: 2},
	}}, "admin", planTime)

	rej := rejection(t, err)
	assert.True(t, rej.HasLockConflict())
	assert.Equal(t, []ItemError{{Field: "lockVer", Message: MsgLockConflict, Code: pkgerrors.CodeOptimisticLockConflict}}, rej.Errors)
	assert.Equal(t, []FailedItem{{Type: OpUpdate, Level: "major", Index: "2", Error: MsgLockConflictItem}}, rej.FailedItems)
}

func TestPlanBatch_MissingLockVerDefaultsToOne(t *testing.T) {
	c := newCatalog(t)

	cs, err := c.PlanBatch(Batch{Updates: []BatchItem{
		{Type: "major", MajorCatID: 1, MajorCatName: "renamed"},
	}}, "admin", planTime)

	require.NoError(t, err)
	require.Len(t, cs.MajorUpdates, 1)
	assert.Equal(t, "001", cs.MajorUpdates[0].Row.MajorCatNo)
	assert.Equal(t, 2, cs.MajorUpdates[0].Row.LockVer)
}

func TestPlanBatch_UpdateKeepsNaturalKey(t *testing.T) {
	c := newCatalog(t)

	cs, err := c.PlanBatch(Batch{Updates: []BatchItem{
		{Type: "sub", ID: 1, SubcatCode: "NEW", CodeDesc: "changed", Remark: "r", LockVer: 2},
	}}, "admin", planTime)

	require.NoError(t, err)
	require.Len(t, cs.SubUpdates, 1)
	row := cs.SubUpdates[0].Row
	assert.Equal(t, "X01", row.SubcatCode)
	assert.Equal(t, "changed", row.CodeDesc)
	assert.Equal(t, "r", row.Remark)
	assert.Equal(t, 3, row.LockVer)
	assert.Equal(t, 2, cs.SubUpdates[0].ExpectedLockVer)
}

func TestPlanBatch_NotFound(t *testing.T) {
	c := newCatalog(t)

	_, err := c.PlanBatch(Batch{
		Updates: []BatchItem{{Type: "mid", MidCatID: 99, CodeDesc: "x", LockVer: 1}},
		Deletes: []BatchItem{{Type: "sub", ID: 42, LockVer: 1}},
	}, "admin", planTime)

	rej := rejection(t, err)
	assert.Equal(t, []ItemError{
		{Field: "midCatId", Message: "中分類不存在", Code: pkgerrors.CodeNotFound},
		{Field: "id", Message: "細分類不存在", Code: pkgerrors.CodeNotFound},
	}, rej.Errors)
}

func TestPlanBatch_HasChildren(t *testing.T) {
	t.Run("major with mids", func(t *testing.T) {
		c := newCatalog(t)

		_, err := c.PlanBatch(Batch{Deletes: []BatchItem{{Type: "major", MajorCatID: 1, LockVer: 1}}}, "admin", planTime)

		rej := rejection(t, err)
		assert.True(t, rej.HasCode(pkgerrors.CodeHasChildren))
		assert.Equal(t, MsgMajorHasChildren, rej.Errors[0].Message)
		assert.Equal(t, MsgMajorChildrenItem, rej.FailedItems[0].Error)
	})

	t.Run("mid with subs", func(t *testing.T) {
		c := newCatalog(t)

		_, err := c.PlanBatch(Batch{Deletes: []BatchItem{{Type: "mid", MidCatID: 1, LockVer: 1}}}, "admin", planTime)

		rej := rejection(t, err)
		assert.Equal(t, MsgMidHasChildren, rej.Errors[0].Message)
	})

	t.Run("children deleted in the same batch", func(t *testing.T) {
		c := newCatalog(t)

		cs, err := c.PlanBatch(Batch{Deletes: []BatchItem{
			{Type: "major", MajorCatID: 1, LockVer: 1},
			{Type: "mid", MidCatID: 1, LockVer: 1},
			{Type: "mid", MidCatID: 2, LockVer: 1},
			{Type: "sub", ID: 1, LockVer: 2},
		}}, "admin", planTime)

		require.NoError(t, err)
		_, _, deletes := cs.Counts()
		assert.Equal(t, 4, deletes)
	})

	t.Run("empty major", func(t *testing.T) {
		c := newCatalog(t)

		cs, err := c.PlanBatch(Batch{Deletes: []BatchItem{{Type: "major", MajorCatID: 2, LockVer: 3}}}, "admin", planTime)

		require.NoError(t, err)
		require.Len(t, cs.MajorDeletes, 1)
		assert.Equal(t, 3, cs.MajorDeletes[0].ExpectedLockVer)
	})
}

func TestPlanBatch_SameBatchInteractions(t *testing.T) {
	t.Run("deleted key is still taken", func(t *testing.T) {
		c := newCatalog(t)

		_, err := c.PlanBatch(Batch{
			Creates: []BatchItem{{Type: "major", MajorCatNo: "002", MajorCatName: "again"}},
			Deletes: []BatchItem{{Type: "major", MajorCatID: 2, LockVer: 3}},
		}, "admin", planTime)

		rej := rejection(t, err)
		assert.True(t, rej.HasCode(pkgerrors.CodeDuplicateKey))
	})

	t.Run("create under deleted parent", func(t *testing.T) {
		c := newCatalog(t)

		_, err := c.PlanBatch(Batch{
			Creates: []BatchItem{{Type: "mid", MajorCatNo: "002", MidCatCode: "C01", CodeDesc: "x"}},
			Deletes: []BatchItem{{Type: "major", MajorCatID: 2, LockVer: 3}},
		}, "admin", planTime)

		rej := rejection(t, err)
		assert.Equal(t, pkgerrors.CodeNotFound, rej.Errors[0].Code)
	})

	t.Run("update and delete of one row", func(t *testing.T) {
		c := newCatalog(t)

		_, err := c.PlanBatch(Batch{
			Updates: []BatchItem{{Type: "sub", ID: 1, CodeDesc: "x", LockVer: 2}},
			Deletes: []BatchItem{{Type: "sub", ID: 1, LockVer: 2}},
		}, "admin", planTime)

		rej := rejection(t, err)
		require.Len(t, rej.Errors, 1)
		assert.Equal(t, pkgerrors.CodeConflictingOperations, rej.Errors[0].Code)
		assert.Equal(t, OpDelete, rej.FailedItems[0].Type)
	})

	t.Run("all or nothing", func(t *testing.T) {
		c := newCatalog(t)

		cs, err := c.PlanBatch(Batch{
			Creates: []BatchItem{{Type: "major", MajorCatNo: "010", MajorCatName: "fine"}},
			Updates: []BatchItem{{Type: "major", MajorCatID: 2, MajorCatName: "stale", LockVer: 1}},
		}, "admin", planTime)

		assert.Nil(t, cs)
		rejection(t, err)
		assert.Empty(t, c.GetUncommittedEvents())
	})
}

func TestPlanBatch_TooLarge(t *testing.T) {
	c := newCatalog(t)
	items := make([]BatchItem, c.rules.MaxBatchItems+1)

	_, err := c.PlanBatch(Batch{Deletes: items}, "admin", planTime)

	rej := rejection(t, err)
	assert.True(t, rej.HasCode(pkgerrors.CodeBatchTooLarge))
}

func TestChangeSet_ApplyAndVerify(t *testing.T) {
	tree := sampleTree()
	c, err := NewCatalog(tree, nil)
	require.NoError(t, err)

	cs, err := c.PlanBatch(Batch{
		Creates: []BatchItem{{Type: "mid", MajorCatNo: "002", MidCatCode: "C01", CodeDesc: "x"}},
		Updates: []BatchItem{{Type: "major", MajorCatID: 1, MajorCatName: "renamed", LockVer: 1}},
		Deletes: []BatchItem{{Type: "mid", MidCatID: 2, LockVer: 1}},
	}, "admin", planTime)
	require.NoError(t, err)
	require.NoError(t, cs.Verify(tree))

	next := cs.Apply(tree)

	assert.Equal(t, "renamed", next.MajorCategories[0].MajorCatName)
	require.Len(t, next.MidCategories, 2)
	assert.Equal(t, 1, next.MidCategories[0].MidCatID)
	assert.Equal(t, 3, next.MidCategories[1].MidCatID)
	assert.Len(t, tree.MidCategories, 2, "input tree must not change")

	// Replaying against the new state fails every condition.
	err = cs.Verify(next)
	assert.ErrorIs(t, err, pkgerrors.ErrConcurrentModification)
}

func TestPlanBatch_Events(t *testing.T) {
	c := newCatalog(t)

	_, err := c.PlanBatch(Batch{
		Updates: []BatchItem{{Type: "sub", ID: 1, CodeDesc: "x", LockVer: 2}},
	}, "manager", planTime)
	require.NoError(t, err)

	evts := c.GetUncommittedEvents()
	require.Len(t, evts, 1)
	changed, ok := evts[0].(events.CategoryChanged)
	require.True(t, ok)
	assert.Equal(t, events.TypeCategoryUpdated, changed.GetEventType())
	assert.Equal(t, "001-A01-X01", changed.Key)
	assert.Equal(t, 3, changed.LockVer)
	assert.Equal(t, "manager", changed.Actor)
}
