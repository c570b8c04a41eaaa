package editsession

import (
	"context"

	"wmsadmin/application/dto"
	"wmsadmin/domain/core/valueobjects"
)

// Selection is a snapshot of the three column selection.
type Selection struct {
	Major *Indexed[MajorRow]
	Mid   *Indexed[MidRow]
	Sub   *Indexed[SubRow]
}

func (s *Session) HasSelectedMajor() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.majorIndex(s.major) >= 0 && !s.major.isZero()
}

func (s *Session) HasSelectedMid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.midIndex(s.mid) >= 0 && !s.mid.isZero()
}

// HasSelectedRow reports whether a sub row is selected.
func (s *Session) HasSelectedRow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.subIndex(s.sub) >= 0 && !s.sub.isZero()
}

// Selection returns the selected rows.
func (s *Session) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sel Selection
	if i := s.store.majorIndex(s.major); i >= 0 && !s.major.isZero() {
		sel.Major = &Indexed[MajorRow]{Index: i, Row: s.store.majors[i]}
	}
	if i := s.store.midIndex(s.mid); i >= 0 && !s.mid.isZero() {
		sel.Mid = &Indexed[MidRow]{Index: i, Row: s.store.Mids()[i]}
	}
	if i := s.store.subIndex(s.sub); i >= 0 && !s.sub.isZero() {
		sel.Sub = &Indexed[SubRow]{Index: i, Row: s.store.subs[i]}
	}
	return sel
}

// VisibleMids returns the mids under the selected major plus every unsaved
// new mid. It is empty when no major is selected.
func (s *Session) VisibleMids() []Indexed[MidRow] {
	s.mu.Lock()
	defer s.mu.Unlock()
	mi := s.store.majorIndex(s.major)
	if s.major.isZero() || mi < 0 {
		return []Indexed[MidRow]{}
	}
	key := s.store.majors[mi].MajorCatNo
	out := []Indexed[MidRow]{}
	for i, r := range s.store.Mids() {
		if r.MajorCatNo == key || r.Marker == MarkerPendingCreate {
			out = append(out, Indexed[MidRow]{Index: i, Row: r})
		}
	}
	return out
}

// VisibleSubs returns the subs under the selected major and mid plus every
// unsaved new sub.
func (s *Session) VisibleSubs() []Indexed[SubRow] {
	s.mu.Lock()
	defer s.mu.Unlock()
	mi, di := s.store.majorIndex(s.major), s.store.midIndex(s.mid)
	if s.major.isZero() || s.mid.isZero() || mi < 0 || di < 0 {
		return []Indexed[SubRow]{}
	}
	majorNo, midCode := s.store.majors[mi].MajorCatNo, s.store.mids[di].MidCatCode
	out := []Indexed[SubRow]{}
	for i, r := range s.store.subs {
		if (r.MajorCatNo == majorNo && r.MidCatCode == midCode) || r.Marker == MarkerPendingCreate {
			out = append(out, Indexed[SubRow]{Index: i, Row: r})
		}
	}
	return out
}

// discardFor asks before a selection change drops pending edits. It reports
// false when the operator declined.
func (s *Session) discardFor(ctx context.Context) (bool, error) {
	if !s.store.HasUnsavedChanges() {
		return true, nil
	}
	ok, err := s.confirm(ctx, MsgDiscardChanges)
	if err != nil || !ok {
		return false, err
	}
	return true, s.reload(ctx)
}

// SelectMajor selects the major at store index. Selecting the current
// major is a no-op. With unsaved changes the Confirmer decides: declining
// leaves everything as is, accepting reloads and selects the same record in
// the fresh data. It reports whether the major is now selected.
func (s *Session) SelectMajor(ctx context.Context, index int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.committing {
		return false, ErrCommitInProgress
	}
	if index < 0 || index >= len(s.store.majors) {
		return false, &IndexError{Level: valueobjects.LevelMajor, Index: index, Len: len(s.store.majors)}
	}
	return s.selectMajor(ctx, s.store.majors[index].key())
}

func (s *Session) selectMajor(ctx context.Context, target rowKey) (bool, error) {
	if target == s.major {
		return true, nil
	}
	ok, err := s.discardFor(ctx)
	if err != nil || !ok {
		return false, err
	}
	if s.store.majorIndex(target) < 0 {
		return false, ErrRowNotFound
	}
	s.major, s.mid, s.sub = target, rowKey{}, rowKey{}
	return true, nil
}

// SelectMid selects the mid at store index and clears the sub selection.
// It follows the same confirmation rules as SelectMajor.
func (s *Session) SelectMid(ctx context.Context, index int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.committing {
		return false, ErrCommitInProgress
	}
	if index < 0 || index >= len(s.store.mids) {
		return false, &IndexError{Level: valueobjects.LevelMid, Index: index, Len: len(s.store.mids)}
	}
	return s.selectMid(ctx, s.store.mids[index].key())
}

func (s *Session) selectMid(ctx context.Context, target rowKey) (bool, error) {
	if target == s.mid {
		return true, nil
	}
	ok, err := s.discardFor(ctx)
	if err != nil || !ok {
		return false, err
	}
	if s.store.midIndex(target) < 0 {
		return false, ErrRowNotFound
	}
	s.mid, s.sub = target, rowKey{}
	return true, nil
}

// SelectSub selects the sub at store index. Sub selection never prompts.
func (s *Session) SelectSub(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.committing {
		return ErrCommitInProgress
	}
	if index < 0 || index >= len(s.store.subs) {
		return &IndexError{Level: valueobjects.LevelSub, Index: index, Len: len(s.store.subs)}
	}
	s.sub = s.store.subs[index].key()
	return nil
}

// Jump moves the selection to a search hit. A mid hit selects its major
// first, a sub hit its major and mid. It reports false when the operator
// declined to discard pending edits on the way.
func (s *Session) Jump(ctx context.Context, hit dto.SearchCodeResult) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.committing {
		return false, ErrCommitInProgress
	}

	var majorNo, midCode string
	var midID, subID int
	switch {
	case hit.Type == valueobjects.LevelMajor && hit.Major != nil:
		return s.selectMajor(ctx, rowKey{id: hit.Major.MajorCatID})
	case hit.Type == valueobjects.LevelMid && hit.Mid != nil:
		majorNo, midID = hit.Mid.MajorCatNo, hit.Mid.MidCatID
	case hit.Type == valueobjects.LevelSub && hit.Sub != nil:
		majorNo, midCode, subID = hit.Sub.MajorCatNo, hit.Sub.MidCatCode, hit.Sub.ID
	default:
		return false, ErrRowNotFound
	}

	major := s.storedMajorByNo(majorNo)
	if major.isZero() {
		return false, ErrRowNotFound
	}
	if ok, err := s.selectMajor(ctx, major); err != nil || !ok {
		return false, err
	}
	if midID == 0 {
		mk := s.storedMidByCode(majorNo, midCode)
		if mk.isZero() {
			return false, ErrRowNotFound
		}
		midID = mk.id
	}
	if ok, err := s.selectMid(ctx, rowKey{id: midID}); err != nil || !ok {
		return false, err
	}
	if subID == 0 {
		return true, nil
	}
	if s.store.subIndex(rowKey{id: subID}) < 0 {
		return false, ErrRowNotFound
	}
	s.sub = rowKey{id: subID}
	return true, nil
}

func (s *Session) storedMajorByNo(no string) rowKey {
	for _, r := range s.store.majors {
		if r.Marker != MarkerPendingCreate && r.MajorCatNo == no {
			return r.key()
		}
	}
	return rowKey{}
}

func (s *Session) storedMidByCode(majorNo, midCode string) rowKey {
	for _, r := range s.store.mids {
		if r.Marker != MarkerPendingCreate && r.MajorCatNo == majorNo && r.MidCatCode == midCode {
			return r.key()
		}
	}
	return rowKey{}
}
