package editsession

import "wmsadmin/domain/core/entities"

// MajorField is one editable column of a major row.
type MajorField interface {
	applyMajor(m *entities.MajorCategory)
	isKey() bool
}

// MidField is one editable column of a mid row.
type MidField interface {
	applyMid(m *entities.MidCategory)
	isKey() bool
}

// SubField is one editable column of a sub row.
type SubField interface {
	applySub(s *entities.SubCategory)
	isKey() bool
}

type (
	MajorCatNo   string
	MajorCatName string
)

func (v MajorCatNo) applyMajor(m *entities.MajorCategory)   { m.MajorCatNo = string(v) }
func (v MajorCatNo) isKey() bool                            { return true }
func (v MajorCatName) applyMajor(m *entities.MajorCategory) { m.MajorCatName = string(v) }
func (v MajorCatName) isKey() bool                          { return false }

type (
	MidCatCode  string
	MidCodeDesc string
	MidRemark   string
	// MidValue1 and MidValue2 are optional; nil clears the value.
	MidValue1 struct{ V *float64 }
	MidValue2 struct{ V *float64 }
)

func (v MidCatCode) applyMid(m *entities.MidCategory)  { m.MidCatCode = string(v) }
func (v MidCatCode) isKey() bool                       { return true }
func (v MidCodeDesc) applyMid(m *entities.MidCategory) { m.CodeDesc = string(v) }
func (v MidCodeDesc) isKey() bool                      { return false }
func (v MidRemark) applyMid(m *entities.MidCategory)   { m.Remark = string(v) }
func (v MidRemark) isKey() bool                        { return false }
func (v MidValue1) applyMid(m *entities.MidCategory)   { m.Value1 = copyFloat(v.V) }
func (v MidValue1) isKey() bool                        { return false }
func (v MidValue2) applyMid(m *entities.MidCategory)   { m.Value2 = copyFloat(v.V) }
func (v MidValue2) isKey() bool                        { return false }

type (
	SubcatCode  string
	SubCodeDesc string
	SubRemark   string
)

func (v SubcatCode) applySub(s *entities.SubCategory)  { s.SubcatCode = string(v) }
func (v SubcatCode) isKey() bool                       { return true }
func (v SubCodeDesc) applySub(s *entities.SubCategory) { s.CodeDesc = string(v) }
func (v SubCodeDesc) isKey() bool                      { return false }
func (v SubRemark) applySub(s *entities.SubCategory)   { s.Remark = string(v) }
func (v SubRemark) isKey() bool                        { return false }

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	return entities.Float(*p)
}
