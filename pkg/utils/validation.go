package utils

import (
	"fmt"
	"strings"

	apperrors "wmsadmin/pkg/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validator exposes the shared validator instance for single-value checks.
func Validator() *validator.Validate {
	return validate
}

// ValidateStruct runs tag validation and returns an AppError listing every
// failed field.
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// CheckVar reports whether value satisfies tag.
func CheckVar(value interface{}, tag string) bool {
	return validate.Var(value, tag) == nil
}

func formatValidationError(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.NewValidationError(err.Error())
	}
	messages := make([]string, 0, len(validationErrors))
	details := make(map[string]interface{}, len(validationErrors))
	for _, e := range validationErrors {
		msg := formatFieldError(e)
		messages = append(messages, msg)
		details[e.Field()] = msg
	}
	return apperrors.NewValidationError(strings.Join(messages, "; ")).WithDetails(details)
}

func formatFieldError(e validator.FieldError) string {
	field := e.Field()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, e.Param())
	case "alphanum":
		return fmt.Sprintf("%s must be alphanumeric", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
