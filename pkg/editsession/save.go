package editsession

import (
	"context"
	"fmt"

	"wmsadmin/application/dto"
)

// SaveResult is the outcome of a save that reached a verdict.
type SaveResult struct {
	// Saved is true when the server committed the batch.
	Saved bool
	// Submitted is false when local validation stopped the save.
	Submitted  bool
	TrackingID string
	Message    string
	Errors     FieldErrors
	// Conflict is set when another editor changed a row first.
	Conflict    bool
	FailedItems []dto.FailedItem
}

// Save validates the pending rows, sends them as one batch and reloads on
// success. If that reload fails the session is left empty until the next
// Load. Validation failures and server rejections are reported in the
// result with the markers kept. A transport failure leaves the session as
// it was and is returned as the error.
func (s *Session) Save(ctx context.Context) (*SaveResult, error) {
	s.mu.Lock()
	if s.committing {
		s.mu.Unlock()
		return nil, ErrCommitInProgress
	}
	if errs := s.store.validate(s.validator); len(errs) > 0 {
		s.errs = errs
		s.mu.Unlock()
		return &SaveResult{Errors: errs}, nil
	}
	req := s.store.request(s.operator)
	s.committing = true
	s.mu.Unlock()

	resp, err := s.transport.BatchSave(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.committing = false }()
	if err != nil {
		return nil, fmt.Errorf("batch save: %w", err)
	}

	res := &SaveResult{
		Submitted:  true,
		Saved:      resp.Success,
		TrackingID: resp.TrackingID,
		Message:    resp.Message,
		Errors:     FieldErrors{},
	}
	if !resp.Success {
		res.Errors = responseErrors(resp)
		res.Conflict = resp.HasLockConflict()
		res.FailedItems = append([]dto.FailedItem{}, resp.FailedItems...)
		s.errs = res.Errors
		return res, nil
	}
	if err := s.reload(ctx); err != nil {
		// The batch is committed, so its markers must not be sent again.
		// The selection keys stay for the next Load to restore.
		s.store.Reload(nil)
		s.errs = FieldErrors{}
		return res, fmt.Errorf("reload after save %s: %w", resp.TrackingID, err)
	}
	return res, nil
}
