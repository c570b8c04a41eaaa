package entities

import (
	"time"

	"wmsadmin/pkg/utils"
)

// AuditFields are stamped by the server on every write.
type AuditFields struct {
	CreatedBy    string `json:"createdBy"`
	CreatedDate  string `json:"createdDate"`
	ModifiedBy   string `json:"modifiedBy"`
	ModifiedDate string `json:"modifiedDate"`
	CreatedTime  string `json:"createdTime"`
	UpdatedTime  string `json:"updatedTime"`
}

// Stamp sets the creation and modification fields to actor at now.
func (a *AuditFields) Stamp(actor string, now time.Time) {
	a.CreatedBy = actor
	a.CreatedDate = utils.FormatCompact(now)
	a.CreatedTime = now.UTC().Format(time.RFC3339)
	a.Touch(actor, now)
}

// Touch sets only the modification fields.
func (a *AuditFields) Touch(actor string, now time.Time) {
	a.ModifiedBy = actor
	a.ModifiedDate = utils.FormatCompact(now)
	a.UpdatedTime = now.UTC().Format(time.RFC3339)
}

// MajorCategory is the top tier, keyed by majorCatNo.
type MajorCategory struct {
	MajorCatID   int    `json:"majorCatId"`
	MajorCatNo   string `json:"majorCatNo"`
	MajorCatName string `json:"majorCatName"`
	LockVer      int    `json:"lockVer"`
	AuditFields
}

// MidCategory belongs to a major through majorCatNo.
type MidCategory struct {
	MidCatID   int      `json:"midCatId"`
	MajorCatID int      `json:"majorCatId"`
	MajorCatNo string   `json:"majorCatNo"`
	MidCatCode string   `json:"midCatCode"`
	CodeDesc   string   `json:"codeDesc"`
	Value1     *float64 `json:"value1,omitempty"`
	Value2     *float64 `json:"value2,omitempty"`
	Remark     string   `json:"remark"`
	LockVer    int      `json:"lockVer"`
	AuditFields
}

// ParentKey is the natural key of the owning major.
func (m MidCategory) ParentKey() string { return m.MajorCatNo }

// SubCategory belongs to a mid through majorCatNo and midCatCode.
type SubCategory struct {
	ID         int    `json:"id"`
	MidCatID   int    `json:"midCatId"`
	MajorCatNo string `json:"majorCatNo"`
	MidCatCode string `json:"midCatCode"`
	SubcatCode string `json:"subcatCode"`
	CodeDesc   string `json:"codeDesc"`
	Remark     string `json:"remark"`
	LockVer    int    `json:"lockVer"`
	AuditFields
}

// ParentKey is the composite natural key of the owning mid.
func (s SubCategory) ParentKey() MidKey {
	return MidKey{MajorCatNo: s.MajorCatNo, MidCatCode: s.MidCatCode}
}

// MidKey identifies a mid by natural key.
type MidKey struct {
	MajorCatNo string
	MidCatCode string
}

// SubKey identifies a sub by natural key.
type SubKey struct {
	MajorCatNo string
	MidCatCode string
	SubcatCode string
}

// Float returns a pointer to v, for optional numeric fields.
func Float(v float64) *float64 { return &v }
