// Package dto holds the JSON shapes of the codes, auth and audit endpoints.
// The server handlers and the Go client share them.
package dto

import (
	"wmsadmin/domain/core/aggregates"
	"wmsadmin/domain/core/entities"
	"wmsadmin/domain/core/valueobjects"
	"wmsadmin/pkg/errors"
)


// Batch response messages.
const (
	MsgBatchSaved    = "批次儲存成功"
	MsgBatchRejected = "部分操作失敗"
)

// BatchSaveRequest is the body of POST /api/codes/batch.
type BatchSaveRequest struct {
	Creates []CreateItem `json:"creates"`
	Updates []UpdateItem `json:"updates"`
	Deletes []DeleteItem `json:"deletes"`
}

// IsEmpty reports whether the request carries no operations.
func (r BatchSaveRequest) IsEmpty() bool {
	return len(r.Creates)+len(r.Updates)+len(r.Deletes) == 0
}

// CreateItem is a new row. It carries no id and no lockVer.
type CreateItem struct {
	Type         string   `json:"type,omitempty"`
	MajorCatNo   string   `json:"majorCatNo,omitempty"`
	MajorCatName string   `json:"majorCatName,omitempty"`
	MidCatCode   string   `json:"midCatCode,omitempty"`
	SubcatCode   string   `json:"subcatCode,omitempty"`
	CodeDesc     string   `json:"codeDesc,omitempty"`
	Value1       *float64 `json:"value1,omitempty"`
	Value2       *float64 `json:"value2,omitempty"`
	Remark       string   `json:"remark,omitempty"`
	CreatedBy    string   `json:"createdBy,omitempty"`
}

// UpdateItem addresses a stored row by its level's id and carries the
// lockVer last seen by the client.
type UpdateItem struct {
	Type         string   `json:"type,omitempty"`
	MajorCatID   int      `json:"majorCatId,omitempty"`
	MidCatID     int      `json:"midCatId,omitempty"`
	ID           int      `json:"id,omitempty"`
	MajorCatNo   string   `json:"majorCatNo,omitempty"`
	MajorCatName string   `json:"majorCatName,omitempty"`
	MidCatCode   string   `json:"midCatCode,omitempty"`
	SubcatCode   string   `json:"subcatCode,omitempty"`
	CodeDesc     string   `json:"codeDesc,omitempty"`
	Value1       *float64 `json:"value1,omitempty"`
	Value2       *float64 `json:"value2,omitempty"`
	Remark       string   `json:"remark,omitempty"`
	LockVer      int      `json:"lockVer"`
	ModifiedBy   string   `json:"modifiedBy,omitempty"`
}

// DeleteItem removes a stored row.
type DeleteItem struct {
	Type       string `json:"type"`
	MajorCatID int    `json:"majorCatId,omitempty"`
	MidCatID   int    `json:"midCatId,omitempty"`
	ID         int    `json:"id,omitempty"`
	LockVer    int    `json:"lockVer"`
}

// ToBatch converts the request into the aggregate's input.
func (r BatchSaveRequest) ToBatch() aggregates.Batch {
	b := aggregates.Batch{
		Creates: make([]aggregates.BatchItem, 0, len(r.Creates)),
		Updates: make([]aggregates.BatchItem, 0, len(r.Updates)),
		Deletes: make([]aggregates.BatchItem, 0, len(r.Deletes)),
	}
	for _, c := range r.Creates {
		b.Creates = append(b.Creates, aggregates.BatchItem{
			Type:         c.Type,
			MajorCatNo:   c.MajorCatNo,
			MajorCatName: c.MajorCatName,
			MidCatCode:   c.MidCatCode,
			SubcatCode:   c.SubcatCode,
			CodeDesc:     c.CodeDesc,
			Value1:       c.Value1,
			Value2:       c.Value2,
			Remark:       c.Remark,
			CreatedBy:    c.CreatedBy,
		})
	}
	for _, u := range r.Updates {
		b.Updates = append(b.Updates, aggregates.BatchItem{
			Type:         u.Type,
			MajorCatID:   u.MajorCatID,
			MidCatID:     u.MidCatID,
			ID:           u.ID,
			MajorCatNo:   u.MajorCatNo,
			MajorCatName: u.MajorCatName,
			MidCatCode:   u.MidCatCode,
			SubcatCode:   u.SubcatCode,
			CodeDesc:     u.CodeDesc,
			Value1:       u.Value1,
			Value2:       u.Value2,
			Remark:       u.Remark,
			LockVer:      u.LockVer,
			ModifiedBy:   u.ModifiedBy,
		})
	}
	for _, d := range r.Deletes {
		b.Deletes = append(b.Deletes, aggregates.BatchItem{
			Type:       d.Type,
			MajorCatID: d.MajorCatID,
			MidCatID:   d.MidCatID,
			ID:         d.ID,
			LockVer:    d.LockVer,
		})
	}
	return b
}

// BatchError is one entry of the errors array.
type BatchError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// FailedItem names the request item an error belongs to.
type FailedItem struct {
	Type  string `json:"type"`
	Level string `json:"level,omitempty"`
	Index string `json:"index"`
	Error string `json:"error"`
}

// BatchSaveResponse is the body returned by POST /api/codes/batch.
type BatchSaveResponse struct {
	Success     bool         `json:"success"`
	TrackingID  string       `json:"trackingId"`
	Message     string       `json:"message,omitempty"`
	Errors      []BatchError `json:"errors,omitempty"`
	FailedItems []FailedItem `json:"failedItems,omitempty"`
}

// NewBatchSuccess builds the full success response.
func NewBatchSuccess(trackingID valueobjects.TrackingID) *BatchSaveResponse {
	return &BatchSaveResponse{Success: true, TrackingID: trackingID.String(), Message: MsgBatchSaved}
}

// NewBatchFailure builds the rejected response from a rejection.
func NewBatchFailure(trackingID valueobjects.TrackingID, rej *aggregates.BatchRejection) *BatchSaveResponse {
	resp := &BatchSaveResponse{
		Success:     false,
		TrackingID:  trackingID.String(),
		Message:     MsgBatchRejected,
		Errors:      make([]BatchError, 0, len(rej.Errors)),
		FailedItems: make([]FailedItem, 0, len(rej.FailedItems)),
	}
	for _, e := range rej.Errors {
		resp.Errors = append(resp.Errors, BatchError{Field: e.Field, Message: e.Message, Code: e.Code})
	}
	for _, f := range rej.FailedItems {
		resp.FailedItems = append(resp.FailedItems, FailedItem{
			Type:  string(f.Type),
			Level: string(f.Level),
			Index: f.Index,
			Error: f.Error,
		})
	}
	return resp
}

// SearchCodesRequest holds the query parameters of GET /api/codes/search.
type SearchCodesRequest struct {
	Keyword    string `json:"keyword,omitempty"`
	MajorCatNo string `json:"majorCatNo,omitempty"`
	MidCatCode string `json:"midCatCode,omitempty"`
	Page       int    `json:"page,omitempty"`
	PageSize   int    `json:"pageSize,omitempty"`
}

// SearchCodeResult is one hit. Exactly one of Major, Mid or Sub is set.
type SearchCodeResult struct {
	Type          valueobjects.Level      `json:"type"`
	Major         *entities.MajorCategory `json:"major,omitempty"`
	Mid           *entities.MidCategory   `json:"mid,omitempty"`
	Sub           *entities.SubCategory   `json:"sub,omitempty"`
	MatchedFields []string                `json:"matchedFields"`
}

// SearchCodesResponse is one page of hits.
type SearchCodesResponse struct {
	Results    []SearchCodeResult `json:"results"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"pageSize"`
	TotalPages int                `json:"totalPages"`
}

// HasLockConflict reports whether a rejected response lost an optimistic
// lock check.
func (r *BatchSaveResponse) HasLockConflict() bool {
	for _, e := range r.Errors {
		if e.Code == errors.CodeOptimisticLockConflict {
			return true
		}
	}
	return false
}
