package aggregates

import (
	"time"

	"wmsadmin/domain/core/entities"
	"wmsadmin/domain/core/valueobjects"
	pkgerrors "wmsadmin/pkg/errors"
)

// Change is a row to write together with the lockVer the stored row must
// still have when the write lands.
type Change[T any] struct {
	Row             T
	ExpectedLockVer int
}

// ChangeSet is a fully planned batch. Repositories commit it atomically or
// not at all.
type ChangeSet struct {
	Actor     string
	Timestamp time.Time

	MajorCreates []entities.MajorCategory
	MidCreates   []entities.MidCategory
	SubCreates   []entities.SubCategory

	MajorUpdates []Change[entities.MajorCategory]
	MidUpdates   []Change[entities.MidCategory]
	SubUpdates   []Change[entities.SubCategory]

	MajorDeletes []Change[entities.MajorCategory]
	MidDeletes   []Change[entities.MidCategory]
	SubDeletes   []Change[entities.SubCategory]
}

// Counts returns the number of creates, updates and deletes.
func (cs *ChangeSet) Counts() (creates, updates, deletes int) {
	creates = len(cs.MajorCreates) + len(cs.MidCreates) + len(cs.SubCreates)
	updates = len(cs.MajorUpdates) + len(cs.MidUpdates) + len(cs.SubUpdates)
	deletes = len(cs.MajorDeletes) + len(cs.MidDeletes) + len(cs.SubDeletes)
	return creates, updates, deletes
}

func (cs *ChangeSet) Size() int {
	c, u, d := cs.Counts()
	return c + u + d
}

func (cs *ChangeSet) IsEmpty() bool { return cs.Size() == 0 }

func conflict(level valueobjects.Level, id int) error {
	return pkgerrors.ErrConcurrentModification.
		WithDetail("level", level.String()).
		WithDetail("id", id)
}

// Verify re-checks every write condition against tree. Stores without
// native conditional writes call it inside their critical section.
func (cs *ChangeSet) Verify(tree *entities.CodesTree) error {
	majorIDs := make(map[int]entities.MajorCategory, len(tree.MajorCategories))
	majorNos := make(map[string]bool, len(tree.MajorCategories))
	for _, m := range tree.MajorCategories {
		majorIDs[m.MajorCatID] = m
		majorNos[m.MajorCatNo] = true
	}
	midIDs := make(map[int]entities.MidCategory, len(tree.MidCategories))
	midKeys := make(map[entities.MidKey]bool, len(tree.MidCategories))
	for _, m := range tree.MidCategories {
		midIDs[m.MidCatID] = m
		midKeys[entities.MidKey{MajorCatNo: m.MajorCatNo, MidCatCode: m.MidCatCode}] = true
	}
	subIDs := make(map[int]entities.SubCategory, len(tree.SubCategories))
	subKeys := make(map[entities.SubKey]bool, len(tree.SubCategories))
	for _, s := range tree.SubCategories {
		subIDs[s.ID] = s
		subKeys[entities.SubKey{MajorCatNo: s.MajorCatNo, MidCatCode: s.MidCatCode, SubcatCode: s.SubcatCode}] = true
	}

	for _, m := range cs.MajorCreates {
		if _, ok := majorIDs[m.MajorCatID]; ok || majorNos[m.MajorCatNo] {
			return conflict(valueobjects.LevelMajor, m.MajorCatID)
		}
	}
	for _, m := range cs.MidCreates {
		if _, ok := midIDs[m.MidCatID]; ok || midKeys[entities.MidKey{MajorCatNo: m.MajorCatNo, MidCatCode: m.MidCatCode}] {
			return conflict(valueobjects.LevelMid, m.MidCatID)
		}
	}
	for _, s := range cs.SubCreates {
		if _, ok := subIDs[s.ID]; ok || subKeys[entities.SubKey{MajorCatNo: s.MajorCatNo, MidCatCode: s.MidCatCode, SubcatCode: s.SubcatCode}] {
			return conflict(valueobjects.LevelSub, s.ID)
		}
	}

	for _, list := range [][]Change[entities.MajorCategory]{cs.MajorUpdates, cs.MajorDeletes} {
		for _, ch := range list {
			if cur, ok := majorIDs[ch.Row.MajorCatID]; !ok || cur.LockVer != ch.ExpectedLockVer {
				return conflict(valueobjects.LevelMajor, ch.Row.MajorCatID)
			}
		}
	}
	for _, list := range [][]Change[entities.MidCategory]{cs.MidUpdates, cs.MidDeletes} {
		for _, ch := range list {
			if cur, ok := midIDs[ch.Row.MidCatID]; !ok || cur.LockVer != ch.ExpectedLockVer {
				return conflict(valueobjects.LevelMid, ch.Row.MidCatID)
			}
		}
	}
	for _, list := range [][]Change[entities.SubCategory]{cs.SubUpdates, cs.SubDeletes} {
		for _, ch := range list {
			if cur, ok := subIDs[ch.Row.ID]; !ok || cur.LockVer != ch.ExpectedLockVer {
				return conflict(valueobjects.LevelSub, ch.Row.ID)
			}
		}
	}
	return nil
}

// Apply returns a copy of tree with the change set applied, in id order.
func (cs *ChangeSet) Apply(tree *entities.CodesTree) *entities.CodesTree {
	out := entities.NewCodesTree()

	majorUpd := make(map[int]entities.MajorCategory, len(cs.MajorUpdates))
	for _, ch := range cs.MajorUpdates {
		majorUpd[ch.Row.MajorCatID] = ch.Row
	}
	majorDel := make(map[int]bool, len(cs.MajorDeletes))
	for _, ch := range cs.MajorDeletes {
		majorDel[ch.Row.MajorCatID] = true
	}
	for _, m := range tree.MajorCategories {
		if majorDel[m.MajorCatID] {
			continue
		}
		if u, ok := majorUpd[m.MajorCatID]; ok {
			m = u
		}
		out.MajorCategories = append(out.MajorCategories, m)
	}
	out.MajorCategories = append(out.MajorCategories, cs.MajorCreates...)

	midUpd := make(map[int]entities.MidCategory, len(cs.MidUpdates))
	for _, ch := range cs.MidUpdates {
		midUpd[ch.Row.MidCatID] = ch.Row
	}
	midDel := make(map[int]bool, len(cs.MidDeletes))
	for _, ch := range cs.MidDeletes {
		midDel[ch.Row.MidCatID] = true
	}
	for _, m := range tree.MidCategories {
		if midDel[m.MidCatID] {
			continue
		}
		if u, ok := midUpd[m.MidCatID]; ok {
			m = u
		}
		out.MidCategories = append(out.MidCategories, m)
	}
	out.MidCategories = append(out.MidCategories, cs.MidCreates...)

	subUpd := make(map[int]entities.SubCategory, len(cs.SubUpdates))
	for _, ch := range cs.SubUpdates {
		subUpd[ch.Row.ID] = ch.Row
	}
	subDel := make(map[int]bool, len(cs.SubDeletes))
	for _, ch := range cs.SubDeletes {
		subDel[ch.Row.ID] = true
	}
	for _, s := range tree.SubCategories {
		if subDel[s.ID] {
			continue
		}
		if u, ok := subUpd[s.ID]; ok {
			s = u
		}
		out.SubCategories = append(out.SubCategories, s)
	}
	out.SubCategories = append(out.SubCategories, cs.SubCreates...)

	out = out.Clone()
	out.Sort()
	return out
}
