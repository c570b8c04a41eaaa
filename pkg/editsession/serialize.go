package editsession

import (
	"fmt"

	"wmsadmin/application/dto"
	"wmsadmin/domain/core/validators"
	"wmsadmin/domain/core/valueobjects"
)

// FieldErrors maps an error key to its messages. Local validation keys
// look like major_<index>_<field>; server errors use the field name the
// server reported, or "general".
type FieldErrors map[string][]string

func (e FieldErrors) add(key, msg string) { e[key] = append(e[key], msg) }

// GeneralKey collects server errors that name no field.
const GeneralKey = "general"

// DefaultErrorMessage replaces an empty server error message.
const DefaultErrorMessage = "發生錯誤"

func addResult(errs FieldErrors, level valueobjects.Level, index int, res validators.ValidationResult) {
	for _, fe := range res.Errors {
		errs.add(fmt.Sprintf("%s_%d_%s", level, index, fe.Field), fe.Message)
	}
}

// validate checks every created or updated row. Uniqueness is tested
// against the other non-deleted rows under the same parent key.
func (s *Store) validate(v *validators.CategoryValidator) FieldErrors {
	errs := FieldErrors{}
	for i, r := range s.majors {
		if r.Marker != MarkerPendingCreate && r.Marker != MarkerPendingUpdate {
			continue
		}
		var existing []string
		for j, o := range s.majors {
			if j != i && o.MajorCatNo != "" && o.Marker != MarkerPendingDelete {
				existing = append(existing, o.MajorCatNo)
			}
		}
		addResult(errs, valueobjects.LevelMajor, i, v.ValidateMajor(r.MajorCatNo, r.MajorCatName, existing))
	}
	for i, r := range s.mids {
		if r.Marker != MarkerPendingCreate && r.Marker != MarkerPendingUpdate {
			continue
		}
		var existing []string
		for j, o := range s.mids {
			if j != i && o.MidCatCode != "" && o.Marker != MarkerPendingDelete && o.MajorCatNo == r.MajorCatNo {
				existing = append(existing, o.MidCatCode)
			}
		}
		addResult(errs, valueobjects.LevelMid, i, v.ValidateMid(r.MidCatCode, r.CodeDesc, r.MajorCatNo, existing))
		if r.Remark != "" {
			addResult(errs, valueobjects.LevelMid, i, v.ValidateRemark(r.Remark))
		}
	}
	for i, r := range s.subs {
		if r.Marker != MarkerPendingCreate && r.Marker != MarkerPendingUpdate {
			continue
		}
		var existing []string
		for j, o := range s.subs {
			if j != i && o.SubcatCode != "" && o.Marker != MarkerPendingDelete &&
				o.MajorCatNo == r.MajorCatNo && o.MidCatCode == r.MidCatCode {
				existing = append(existing, o.SubcatCode)
			}
		}
		addResult(errs, valueobjects.LevelSub, i, v.ValidateSub(r.SubcatCode, r.CodeDesc, r.MajorCatNo, r.MidCatCode, existing))
		if r.Remark != "" {
			addResult(errs, valueobjects.LevelSub, i, v.ValidateRemark(r.Remark))
		}
	}
	return errs
}

// lockVer is the version sent for a stored row. Rows loaded without one are
// sent as version 1.
func lockVer(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

// request serializes the markers into one batch. Deleting a row that was
// never stored needs no server call and is skipped.
func (s *Store) request(operator string) dto.BatchSaveRequest {
	req := dto.BatchSaveRequest{
		Creates: []dto.CreateItem{},
		Updates: []dto.UpdateItem{},
		Deletes: []dto.DeleteItem{},
	}
	major, mid, sub := string(valueobjects.LevelMajor), string(valueobjects.LevelMid), string(valueobjects.LevelSub)

	for _, r := range s.majors {
		switch r.Marker {
		case MarkerPendingCreate:
			req.Creates = append(req.Creates, dto.CreateItem{
				Type:         major,
				MajorCatNo:   r.MajorCatNo,
				MajorCatName: r.MajorCatName,
				CreatedBy:    operator,
			})
		case MarkerPendingUpdate:
			req.Updates = append(req.Updates, dto.UpdateItem{
				Type:         major,
				MajorCatID:   r.MajorCatID,
				MajorCatName: r.MajorCatName,
				LockVer:      lockVer(r.LockVer),
				ModifiedBy:   operator,
			})
		case MarkerPendingDelete:
			if r.MajorCatID != 0 {
				req.Deletes = append(req.Deletes, dto.DeleteItem{Type: major, MajorCatID: r.MajorCatID, LockVer: lockVer(r.LockVer)})
			}
		}
	}
	for _, r := range s.mids {
		switch r.Marker {
		case MarkerPendingCreate:
			req.Creates = append(req.Creates, dto.CreateItem{
				Type:       mid,
				MajorCatNo: r.MajorCatNo,
				MidCatCode: r.MidCatCode,
				CodeDesc:   r.CodeDesc,
				Value1:     copyFloat(r.Value1),
				Value2:     copyFloat(r.Value2),
				Remark:     r.Remark,
				CreatedBy:  operator,
			})
		case MarkerPendingUpdate:
			req.Updates = append(req.Updates, dto.UpdateItem{
				Type:       mid,
				MidCatID:   r.MidCatID,
				CodeDesc:   r.CodeDesc,
				Value1:     copyFloat(r.Value1),
				Value2:     copyFloat(r.Value2),
				Remark:     r.Remark,
				LockVer:    lockVer(r.LockVer),
				ModifiedBy: operator,
			})
		case MarkerPendingDelete:
			if r.MidCatID != 0 {
				req.Deletes = append(req.Deletes, dto.DeleteItem{Type: mid, MidCatID: r.MidCatID, LockVer: lockVer(r.LockVer)})
			}
		}
	}
	for _, r := range s.subs {
		switch r.Marker {
		case MarkerPendingCreate:
			req.Creates = append(req.Creates, dto.CreateItem{
				Type:       sub,
				MajorCatNo: r.MajorCatNo,
				MidCatCode: r.MidCatCode,
				SubcatCode: r.SubcatCode,
				CodeDesc:   r.CodeDesc,
				Remark:     r.Remark,
				CreatedBy:  operator,
			})
		case MarkerPendingUpdate:
			req.Updates = append(req.Updates, dto.UpdateItem{
				Type:       sub,
				ID:         r.ID,
				CodeDesc:   r.CodeDesc,
				Remark:     r.Remark,
				LockVer:    lockVer(r.LockVer),
				ModifiedBy: operator,
			})
		case MarkerPendingDelete:
			if r.ID != 0 {
				req.Deletes = append(req.Deletes, dto.DeleteItem{Type: sub, ID: r.ID, LockVer: lockVer(r.LockVer)})
			}
		}
	}
	return req
}

// responseErrors maps a rejected response onto error keys.
func responseErrors(resp *dto.BatchSaveResponse) FieldErrors {
	errs := FieldErrors{}
	for _, e := range resp.Errors {
		key, msg := e.Field, e.Message
		if key == "" {
			key = GeneralKey
		}
		if msg == "" {
			msg = DefaultErrorMessage
		}
		errs.add(key, msg)
	}
	if len(errs) == 0 && resp.Message != "" {
		errs.add(GeneralKey, resp.Message)
	}
	return errs
}
