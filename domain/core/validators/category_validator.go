package validators

import (
	"fmt"
	"strings"

	"wmsadmin/domain/config"
	"wmsadmin/domain/core/valueobjects"
	"wmsadmin/pkg/errors"
	"wmsadmin/pkg/utils"
)

// FieldError is one rule violation. Code is the batch error code the server
// reports for it.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidationResult is the outcome of validating one row.
type ValidationResult struct {
	IsValid bool         `json:"isValid"`
	Errors  []FieldError `json:"errors"`
}

// Merge appends the errors of other.
func (r ValidationResult) Merge(other ValidationResult) ValidationResult {
	errs := append(append([]FieldError{}, r.Errors...), other.Errors...)
	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// ToValidationErrors converts the result into the shared error aggregate.
func (r ValidationResult) ToValidationErrors() *errors.ValidationErrors {
	out := errors.NewValidationErrors()
	for _, fe := range r.Errors {
		out.AddError(errors.NewDomainError(errors.DomainValidationError, fe.Code, fe.Message).WithField(fe.Field))
	}
	return out
}

// CategoryValidator applies the field rules shared by the edit session and
// the batch endpoint.
type CategoryValidator struct {
	rules *config.CodesRules
}

func NewCategoryValidator(rules *config.CodesRules) *CategoryValidator {
	if rules == nil {
		rules = config.DefaultCodesRules()
	}
	return &CategoryValidator{rules: rules}
}

var defaultValidator = NewCategoryValidator(nil)

// ValidateMajorCategory validates a major row. existing holds the codes of
// the other non-deleted majors.
func ValidateMajorCategory(majorCatNo, majorCatName string, existing []string) ValidationResult {
	return defaultValidator.ValidateMajor(majorCatNo, majorCatName, existing)
}

// ValidateMidCategory validates a mid row against its siblings' codes.
func ValidateMidCategory(midCatCode, codeDesc, majorCatNo string, existing []string) ValidationResult {
	return defaultValidator.ValidateMid(midCatCode, codeDesc, majorCatNo, existing)
}

// ValidateSubCategory validates a sub row against its siblings' codes.
func ValidateSubCategory(subcatCode, codeDesc, majorCatNo, midCatCode string, existing []string) ValidationResult {
	return defaultValidator.ValidateSub(subcatCode, codeDesc, majorCatNo, midCatCode, existing)
}

// ValidateRemark checks the remark length cap.
func ValidateRemark(remark string) ValidationResult {
	return defaultValidator.ValidateRemark(remark)
}

type check struct {
	errs []FieldError
}

func (c *check) add(field, code, message string) {
	c.errs = append(c.errs, FieldError{Field: field, Message: message, Code: code})
}

func (c *check) result() ValidationResult {
	if c.errs == nil {
		c.errs = []FieldError{}
	}
	return ValidationResult{IsValid: len(c.errs) == 0, Errors: c.errs}
}

func (c *check) required(field, value, message string) {
	if strings.TrimSpace(value) == "" {
		c.add(field, errors.CodeRequired, message)
	}
}

func (v *CategoryValidator) ValidateMajor(majorCatNo, majorCatName string, existing []string) ValidationResult {
	var c check
	c.required("majorCatNo", majorCatNo, "大分類編碼為必填欄位")
	c.required("majorCatName", majorCatName, "大分類名稱為必填欄位")
	v.keyLength(&c, valueobjects.LevelMajor, majorCatNo)
	v.textLength(&c, "majorCatName", majorCatName, "大分類名稱")
	v.keyCharset(&c, valueobjects.LevelMajor, majorCatNo)
	v.duplicate(&c, valueobjects.LevelMajor, majorCatNo, existing)
	return c.result()
}

func (v *CategoryValidator) ValidateMid(midCatCode, codeDesc, majorCatNo string, existing []string) ValidationResult {
	var c check
	c.required("midCatCode", midCatCode, "中分類編碼為必填欄位")
	c.required("codeDesc", codeDesc, "編碼說明為必填欄位")
	c.required("majorCatNo", majorCatNo, "大分類編碼為必填欄位")
	v.keyLength(&c, valueobjects.LevelMid, midCatCode)
	v.textLength(&c, "codeDesc", codeDesc, "編碼說明")
	v.keyCharset(&c, valueobjects.LevelMid, midCatCode)
	v.duplicate(&c, valueobjects.LevelMid, midCatCode, existing)
	return c.result()
}

func (v *CategoryValidator) ValidateSub(subcatCode, codeDesc, majorCatNo, midCatCode string, existing []string) ValidationResult {
	var c check
	c.required("subcatCode", subcatCode, "細分類編碼為必填欄位")
	c.required("codeDesc", codeDesc, "編碼說明為必填欄位")
	c.required("majorCatNo", majorCatNo, "大分類編碼為必填欄位")
	c.required("midCatCode", midCatCode, "中分類編碼為必填欄位")
	v.keyLength(&c, valueobjects.LevelSub, subcatCode)
	v.textLength(&c, "codeDesc", codeDesc, "編碼說明")
	v.keyCharset(&c, valueobjects.LevelSub, subcatCode)
	v.duplicate(&c, valueobjects.LevelSub, subcatCode, existing)
	return c.result()
}

func (v *CategoryValidator) ValidateRemark(remark string) ValidationResult {
	var c check
	if remark != "" && !utils.CheckVar(remark, fmt.Sprintf("max=%d", v.rules.MaxRemarkLength)) {
		c.add("remark", errors.CodeValidation, fmt.Sprintf("備註不得超過 %d 字元", v.rules.MaxRemarkLength))
	}
	return c.result()
}

func (v *CategoryValidator) keyLength(c *check, level valueobjects.Level, key string) {
	if key != "" && !utils.CheckVar(key, fmt.Sprintf("len=%d", v.rules.KeyLength)) {
		c.add(level.KeyField(), errors.CodeValidation,
			fmt.Sprintf("%s編碼必須為 %d 字元", level.Label(), v.rules.KeyLength))
	}
}

func (v *CategoryValidator) textLength(c *check, field, value, label string) {
	if value != "" && !utils.CheckVar(value, fmt.Sprintf("max=%d", v.rules.MaxNameLength)) {
		c.add(field, errors.CodeValidation, fmt.Sprintf("%s不得超過 %d 字元", label, v.rules.MaxNameLength))
	}
}

func (v *CategoryValidator) keyCharset(c *check, level valueobjects.Level, key string) {
	if key != "" && !utils.CheckVar(key, "alphanum") {
		c.add(level.KeyField(), errors.CodeValidation, level.Label()+"編碼只能包含英數字")
	}
}

func (v *CategoryValidator) duplicate(c *check, level valueobjects.Level, key string, existing []string) {
	if key == "" {
		return
	}
	for _, e := range existing {
		if e == key {
			c.add(level.KeyField(), errors.CodeDuplicateKey, level.Label()+"編碼已存在，請使用其他編碼")
			return
		}
	}
}
