package utils

import (
	"testing"

	apperrors "wmsadmin/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginInput struct {
	Username string `validate:"required,max=50"`
	Password string `validate:"required"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateStruct(loginInput{Username: "admin", Password: "x"}))
	})

	t.Run("missing fields", func(t *testing.T) {
		err := ValidateStruct(loginInput{})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
		assert.Contains(t, err.Error(), "Username is required")
		assert.Contains(t, err.Error(), "Password is required")
	})
}

func TestCheckVar(t *testing.T) {
	assert.True(t, CheckVar("A01", "alphanum"))
	assert.False(t, CheckVar("A-1", "alphanum"))
	assert.True(t, CheckVar("大分類", "max=3"))
	assert.False(t, CheckVar("大分類-", "max=3"))
}
