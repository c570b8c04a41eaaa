package editsession

import (
	"context"
	"fmt"
	"sync"

	"wmsadmin/application/dto"
	"wmsadmin/domain/config"
	"wmsadmin/domain/core/entities"
	"wmsadmin/domain/core/validators"
)

// Transport is the part of the codes API a session needs.
type Transport interface {
	GetCodesTree(ctx context.Context) (*entities.CodesTree, error)
	BatchSave(ctx context.Context, req dto.BatchSaveRequest) (*dto.BatchSaveResponse, error)
}

// Confirmer asks the operator to approve discarding unsaved changes.
type Confirmer interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, message string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, message string) (bool, error) {
	return f(ctx, message)
}

// Prompts shown through the Confirmer.
const (
	MsgDiscardChanges = "您有未儲存的變更，是否要放棄？"
	MsgConfirmDelete  = "確定要刪除此筆資料嗎？"
)

// State is the lifecycle of a session.
type State int

const (
	Clean State = iota
	Dirty
	Committing
)

func (s State) String() string {
	switch s {
	case Clean:
		return "clean"
	case Dirty:
		return "dirty"
	case Committing:
		return "committing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session is a single editor's working copy plus selection. Methods may be
// called from several goroutines, but a save in flight makes every mutating
// call fail with ErrCommitInProgress rather than wait. The Confirmer must
// not call back into the session.
type Session struct {
	mu         sync.Mutex
	transport  Transport
	confirmer  Confirmer
	validator  *validators.CategoryValidator
	operator   string
	store      *Store
	committing bool
	errs       FieldErrors

	major rowKey
	mid   rowKey
	sub   rowKey
}

// Option configures a Session.
type Option func(*Session)

// WithConfirmer sets the prompt used before unsaved changes are dropped.
// Without one every prompt is declined.
func WithConfirmer(c Confirmer) Option {
	return func(s *Session) { s.confirmer = c }
}

// WithOperator sets the createdBy/modifiedBy value sent on each item.
func WithOperator(name string) Option {
	return func(s *Session) { s.operator = name }
}

// WithRules overrides the validation limits.
func WithRules(rules *config.CodesRules) Option {
	return func(s *Session) { s.validator = validators.NewCategoryValidator(rules) }
}

// New returns an empty session. Call Load before editing.
func New(transport Transport, opts ...Option) *Session {
	s := &Session{
		transport: transport,
		validator: validators.NewCategoryValidator(nil),
		store:     NewStore(),
		errs:      FieldErrors{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches the tree and drops every pending edit.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.committing {
		return ErrCommitInProgress
	}
	return s.reload(ctx)
}

// reload refetches the tree, keeping the selection on rows that survive.
func (s *Session) reload(ctx context.Context) error {
	tree, err := s.transport.GetCodesTree(ctx)
	if err != nil {
		return fmt.Errorf("load codes tree: %w", err)
	}
	s.store.Reload(tree)
	s.errs = FieldErrors{}
	if s.store.majorIndex(s.major) < 0 {
		s.major, s.mid, s.sub = rowKey{}, rowKey{}, rowKey{}
	}
	if s.store.midIndex(s.mid) < 0 {
		s.mid, s.sub = rowKey{}, rowKey{}
	}
	if s.store.subIndex(s.sub) < 0 {
		s.sub = rowKey{}
	}
	return nil
}

func (s *Session) confirm(ctx context.Context, message string) (bool, error) {
	if s.confirmer == nil {
		return false, nil
	}
	return s.confirmer.Confirm(ctx, message)
}

// State reports Committing while a save is in flight, otherwise Dirty when
// any row carries a marker.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.committing:
		return Committing
	case s.store.HasUnsavedChanges():
		return Dirty
	default:
		return Clean
	}
}

func (s *Session) HasUnsavedChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.HasUnsavedChanges()
}

func (s *Session) HasPendingCreate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.HasPendingCreate()
}

// Errors returns the errors of the last save attempt.
func (s *Session) Errors() FieldErrors {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(FieldErrors, len(s.errs))
	for k, v := range s.errs {
		out[k] = append([]string{}, v...)
	}
	return out
}

func (s *Session) Majors() []MajorRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Majors()
}

func (s *Session) Mids() []MidRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Mids()
}

func (s *Session) Subs() []SubRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Subs()
}

// edit runs fn on the store unless a save is in flight.
func (s *Session) edit(fn func(*Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.committing {
		return ErrCommitInProgress
	}
	return fn(s.store)
}

func (s *Session) UpdateMajor(index int, f MajorField) error {
	return s.edit(func(st *Store) error { return st.UpdateMajor(index, f) })
}

func (s *Session) UpdateMid(index int, f MidField) error {
	return s.edit(func(st *Store) error { return st.UpdateMid(index, f) })
}

func (s *Session) UpdateSub(index int, f SubField) error {
	return s.edit(func(st *Store) error { return st.UpdateSub(index, f) })
}

func (s *Session) DeleteMajor(index int) error {
	return s.edit(func(st *Store) error { return st.DeleteMajor(index) })
}

func (s *Session) DeleteMid(index int) error {
	return s.edit(func(st *Store) error { return st.DeleteMid(index) })
}

func (s *Session) DeleteSub(index int) error {
	return s.edit(func(st *Store) error { return st.DeleteSub(index) })
}

// AddMajor appends an unsaved major and returns its store index.
func (s *Session) AddMajor() (int, error) {
	idx := -1
	err := s.edit(func(st *Store) (err error) {
		idx, err = st.AddMajor()
		return err
	})
	return idx, err
}

// AddMid appends an unsaved mid under the selected major.
func (s *Session) AddMid() (int, error) {
	idx := -1
	err := s.edit(func(st *Store) (err error) {
		mi := st.majorIndex(s.major)
		if s.major.isZero() || mi < 0 {
			return ErrNoSelection
		}
		idx, err = st.AddMid(st.majors[mi].MajorCategory)
		return err
	})
	return idx, err
}

// AddSub appends an unsaved sub under the selected major and mid.
func (s *Session) AddSub() (int, error) {
	idx := -1
	err := s.edit(func(st *Store) (err error) {
		mi, di := st.majorIndex(s.major), st.midIndex(s.mid)
		if s.major.isZero() || s.mid.isZero() || mi < 0 || di < 0 {
			return ErrNoSelection
		}
		idx, err = st.AddSub(st.majors[mi].MajorCategory, st.mids[di].MidCategory)
		return err
	})
	return idx, err
}

// DeleteSelected asks for confirmation and marks the deepest selected row
// for deletion, then clears that selection.
func (s *Session) DeleteSelected(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.committing {
		return false, ErrCommitInProgress
	}
	if s.major.isZero() && s.mid.isZero() && s.sub.isZero() {
		return false, ErrNoSelection
	}
	ok, err := s.confirm(ctx, MsgConfirmDelete)
	if err != nil || !ok {
		return false, err
	}
	switch {
	case !s.sub.isZero():
		if i := s.store.subIndex(s.sub); i >= 0 {
			s.store.subs[i].Marker = MarkerPendingDelete
		}
		s.sub = rowKey{}
	case !s.mid.isZero():
		if i := s.store.midIndex(s.mid); i >= 0 {
			s.store.mids[i].Marker = MarkerPendingDelete
		}
		s.mid = rowKey{}
	default:
		if i := s.store.majorIndex(s.major); i >= 0 {
			s.store.majors[i].Marker = MarkerPendingDelete
		}
		s.major = rowKey{}
	}
	return true, nil
}

// Cancel asks to discard every pending edit and reloads when confirmed.
func (s *Session) Cancel(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.committing {
		return false, ErrCommitInProgress
	}
	ok, err := s.confirm(ctx, MsgDiscardChanges)
	if err != nil || !ok {
		return false, err
	}
	return true, s.reload(ctx)
}
