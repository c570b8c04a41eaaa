package editsession

import (
	"wmsadmin/domain/core/entities"
	"wmsadmin/domain/core/valueobjects"
)

// Store is the working copy of the codes tree. It is not safe for
// concurrent use; Session serializes access to it.
type Store struct {
	majors []MajorRow
	mids   []MidRow
	subs   []SubRow
	newID  func() valueobjects.TempID
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{newID: valueobjects.NewTempID}
}

// Reload replaces every row with a clean copy of tree. A nil tree empties
// the store.
func (s *Store) Reload(tree *entities.CodesTree) {
	if tree == nil {
		tree = entities.NewCodesTree()
	}
	tree = tree.Clone()
	s.majors = make([]MajorRow, len(tree.MajorCategories))
	for i, m := range tree.MajorCategories {
		s.majors[i] = MajorRow{MajorCategory: m}
	}
	s.mids = make([]MidRow, len(tree.MidCategories))
	for i, m := range tree.MidCategories {
		s.mids[i] = MidRow{MidCategory: m}
	}
	s.subs = make([]SubRow, len(tree.SubCategories))
	for i, c := range tree.SubCategories {
		s.subs[i] = SubRow{SubCategory: c}
	}
}

// Majors returns a copy of the major rows in store order.
func (s *Store) Majors() []MajorRow { return append([]MajorRow{}, s.majors...) }

// Mids returns a copy of the mid rows in store order.
func (s *Store) Mids() []MidRow {
	out := make([]MidRow, len(s.mids))
	for i, m := range s.mids {
		m.Value1 = copyFloat(m.Value1)
		m.Value2 = copyFloat(m.Value2)
		out[i] = m
	}
	return out
}

// Subs returns a copy of the sub rows in store order.
func (s *Store) Subs() []SubRow { return append([]SubRow{}, s.subs...) }

// HasUnsavedChanges reports whether any row carries a marker.
func (s *Store) HasUnsavedChanges() bool {
	for _, r := range s.majors {
		if r.Marker.IsPending() {
			return true
		}
	}
	for _, r := range s.mids {
		if r.Marker.IsPending() {
			return true
		}
	}
	for _, r := range s.subs {
		if r.Marker.IsPending() {
			return true
		}
	}
	return false
}

// HasPendingCreate reports whether an unsaved new row exists on any level.
func (s *Store) HasPendingCreate() bool {
	for _, r := range s.majors {
		if r.Marker == MarkerPendingCreate {
			return true
		}
	}
	for _, r := range s.mids {
		if r.Marker == MarkerPendingCreate {
			return true
		}
	}
	for _, r := range s.subs {
		if r.Marker == MarkerPendingCreate {
			return true
		}
	}
	return false
}

// touched is the marker a row gets after a field edit.
func touched(m Marker) Marker {
	if m == MarkerNone {
		return MarkerPendingUpdate
	}
	return m
}

// UpdateMajor sets one field of the major at index.
func (s *Store) UpdateMajor(index int, f MajorField) error {
	if index < 0 || index >= len(s.majors) {
		return &IndexError{Level: valueobjects.LevelMajor, Index: index, Len: len(s.majors)}
	}
	r := &s.majors[index]
	if f.isKey() && r.Marker != MarkerPendingCreate {
		return ErrKeyImmutable
	}
	f.applyMajor(&r.MajorCategory)
	r.Marker = touched(r.Marker)
	return nil
}

// UpdateMid sets one field of the mid at index.
func (s *Store) UpdateMid(index int, f MidField) error {
	if index < 0 || index >= len(s.mids) {
		return &IndexError{Level: valueobjects.LevelMid, Index: index, Len: len(s.mids)}
	}
	r := &s.mids[index]
	if f.isKey() && r.Marker != MarkerPendingCreate {
		return ErrKeyImmutable
	}
	f.applyMid(&r.MidCategory)
	r.Marker = touched(r.Marker)
	return nil
}

// UpdateSub sets one field of the sub at index.
func (s *Store) UpdateSub(index int, f SubField) error {
	if index < 0 || index >= len(s.subs) {
		return &IndexError{Level: valueobjects.LevelSub, Index: index, Len: len(s.subs)}
	}
	r := &s.subs[index]
	if f.isKey() && r.Marker != MarkerPendingCreate {
		return ErrKeyImmutable
	}
	f.applySub(&r.SubCategory)
	r.Marker = touched(r.Marker)
	return nil
}

// AddMajor appends an empty unsaved major and returns its index.
func (s *Store) AddMajor() (int, error) {
	if s.HasPendingCreate() {
		return -1, ErrPendingCreateExists
	}
	s.majors = append(s.majors, MajorRow{Marker: MarkerPendingCreate, TempID: s.newID()})
	return len(s.majors) - 1, nil
}

// AddMid appends an empty unsaved mid under parent. The child is linked by
// the parent's natural key, never by its temporary id.
func (s *Store) AddMid(parent entities.MajorCategory) (int, error) {
	if s.HasPendingCreate() {
		return -1, ErrPendingCreateExists
	}
	s.mids = append(s.mids, MidRow{
		MidCategory: entities.MidCategory{
			MajorCatID: parent.MajorCatID,
			MajorCatNo: parent.MajorCatNo,
		},
		Marker: MarkerPendingCreate,
		TempID: s.newID(),
	})
	return len(s.mids) - 1, nil
}

// AddSub appends an empty unsaved sub under major and mid.
func (s *Store) AddSub(major entities.MajorCategory, mid entities.MidCategory) (int, error) {
	if s.HasPendingCreate() {
		return -1, ErrPendingCreateExists
	}
	s.subs = append(s.subs, SubRow{
		SubCategory: entities.SubCategory{
			MidCatID:   mid.MidCatID,
			MajorCatNo: major.MajorCatNo,
			MidCatCode: mid.MidCatCode,
		},
		Marker: MarkerPendingCreate,
		TempID: s.newID(),
	})
	return len(s.subs) - 1, nil
}

// DeleteMajor marks the major at index for deletion. Children are left
// alone; the server refuses the delete while they exist.
func (s *Store) DeleteMajor(index int) error {
	if index < 0 || index >= len(s.majors) {
		return &IndexError{Level: valueobjects.LevelMajor, Index: index, Len: len(s.majors)}
	}
	s.majors[index].Marker = MarkerPendingDelete
	return nil
}

func (s *Store) DeleteMid(index int) error {
	if index < 0 || index >= len(s.mids) {
		return &IndexError{Level: valueobjects.LevelMid, Index: index, Len: len(s.mids)}
	}
	s.mids[index].Marker = MarkerPendingDelete
	return nil
}

func (s *Store) DeleteSub(index int) error {
	if index < 0 || index >= len(s.subs) {
		return &IndexError{Level: valueobjects.LevelSub, Index: index, Len: len(s.subs)}
	}
	s.subs[index].Marker = MarkerPendingDelete
	return nil
}

func (s *Store) majorIndex(k rowKey) int {
	for i, r := range s.majors {
		if r.key() == k {
			return i
		}
	}
	return -1
}

func (s *Store) midIndex(k rowKey) int {
	for i, r := range s.mids {
		if r.key() == k {
			return i
		}
	}
	return -1
}

func (s *Store) subIndex(k rowKey) int {
	for i, r := range s.subs {
		if r.key() == k {
			return i
		}
	}
	return -1
}
