package errors

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// DomainErrorType represents the category of a domain error.
type DomainErrorType string

const (
	DomainValidationError     DomainErrorType = "VALIDATION_ERROR"
	DomainBusinessRuleError   DomainErrorType = "BUSINESS_RULE_ERROR"
	DomainNotFoundError       DomainErrorType = "NOT_FOUND"
	DomainConflictError       DomainErrorType = "CONFLICT"
	DomainInfrastructureError DomainErrorType = "INFRASTRUCTURE_ERROR"
	DomainAuthenticationError DomainErrorType = "AUTHENTICATION_ERROR"
)

// Codes reported to clients in batch responses.
const (
	CodeRequired               = "REQUIRED"
	CodeValidation             = "VALIDATION_ERROR"
	CodeDuplicateKey           = "DUPLICATE_KEY"
	CodeNotFound               = "NOT_FOUND"
	CodeOptimisticLockConflict = "OPTIMISTIC_LOCK_CONFLICT"
	CodeHasChildren            = "HAS_CHILDREN"
	CodeInvalidItem            = "INVALID_ITEM"
	CodeConflictingOperations  = "CONFLICTING_OPERATIONS"
	CodeBatchTooLarge          = "BATCH_TOO_LARGE"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
)

// DomainError is a rule violation tied to an optional field.
type DomainError struct {
	Type       DomainErrorType        `json:"type"`
	Code       string                 `json:"code"`
	Field      string                 `json:"field,omitempty"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Retryable  bool                   `json:"retryable"`
	StatusCode int                    `json:"-"`
}

// NewDomainError creates a domain error with the status implied by its type.
func NewDomainError(errorType DomainErrorType, code string, message string) *DomainError {
	return &DomainError{
		Type:       errorType,
		Code:       code,
		Message:    message,
		StatusCode: domainErrorTypeToStatusCode(errorType),
	}
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Type, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

// WithField returns a copy bound to field so shared sentinels stay untouched.
func (e *DomainError) WithField(field string) *DomainError {
	cp := *e
	cp.Field = field
	return &cp
}

// WithCause returns a copy wrapping cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	cp := *e
	cp.Cause = cause
	return &cp
}

// WithDetail returns a copy with key set in Details.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	cp := *e
	cp.Details = make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = value
	return &cp
}

// WithRetryable marks the error as retryable.
func (e *DomainError) WithRetryable(retryable bool) *DomainError {
	cp := *e
	cp.Retryable = retryable
	return &cp
}

// Is matches on type and code so errors.Is works against the sentinels.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

func domainErrorTypeToStatusCode(errorType DomainErrorType) int {
	switch errorType {
	case DomainValidationError:
		return http.StatusBadRequest
	case DomainBusinessRuleError:
		return http.StatusUnprocessableEntity
	case DomainNotFoundError:
		return http.StatusNotFound
	case DomainConflictError:
		return http.StatusConflict
	case DomainAuthenticationError:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

var (
	// ErrConcurrentModification is returned by repositories when a
	// conditional write finds a different lockVer or a taken key.
	ErrConcurrentModification = NewDomainError(
		DomainConflictError,
		CodeConcurrentModification,
		"The resource was modified by another process",
	).WithRetryable(true)

	// ErrBatchTooLarge is returned when a store cannot commit the change
	// set in one transaction.
	ErrBatchTooLarge = NewDomainError(
		DomainBusinessRuleError,
		CodeBatchTooLarge,
		"Batch exceeds the number of operations a single transaction can hold",
	)

	ErrEventPublishFailed = NewDomainError(
		DomainInfrastructureError,
		"EVENT_PUBLISH_FAILED",
		"Failed to publish domain event",
	).WithRetryable(true)
)

// ValidationErrors aggregates field level violations.
type ValidationErrors struct {
	Errors []*DomainError `json:"errors"`
}

func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{Errors: make([]*DomainError, 0)}
}

// Add records a violation on field.
func (v *ValidationErrors) Add(field string, message string) {
	v.Errors = append(v.Errors, &DomainError{
		Type:       DomainValidationError,
		Code:       CodeValidation,
		Field:      field,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	})
}

// AddError records a pre-built domain error.
func (v *ValidationErrors) AddError(err *DomainError) {
	v.Errors = append(v.Errors, err)
}

func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return ""
	}
	messages := make([]string, len(v.Errors))
	for i, err := range v.Errors {
		messages[i] = err.Message
	}
	return fmt.Sprintf("Validation failed: %s", strings.Join(messages, "; "))
}

// ToMap groups messages by field, using "general" for unbound errors.
func (v *ValidationErrors) ToMap() map[string][]string {
	result := make(map[string][]string)
	for _, err := range v.Errors {
		field := err.Field
		if field == "" {
			field = "general"
		}
		result[field] = append(result[field], err.Message)
	}
	return result
}

// FieldErrors maps a display key to the messages shown next to it.
type FieldErrors map[string][]string

// Add appends message under key.
func (f FieldErrors) Add(key, message string) {
	f[key] = append(f[key], message)
}

// Keys returns the keys in sorted order.
func (f FieldErrors) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (f FieldErrors) Empty() bool {
	return len(f) == 0
}
