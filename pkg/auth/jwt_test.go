package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() JWTConfig {
	return JWTConfig{SecretKey: "test-secret", Issuer: "wmsadmin", AccessExpiry: time.Hour}
}

func TestJWT_RoundTrip(t *testing.T) {
	gen, err := NewJWTGenerator(testConfig())
	require.NoError(t, err)
	val, err := NewJWTValidator(testConfig())
	require.NoError(t, err)

	user := UserContext{UserID: "1", Username: "admin", Name: "系統管理員", Roles: []string{"admin"}, Permissions: []string{"*"}}
	pair, err := gen.GenerateTokenPair(user)
	require.NoError(t, err)

	claims, err := val.ValidateToken("Bearer " + pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user, *claims.User())

	_, err = val.ValidateToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	refresh, err := val.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", refresh.Username)
}

func TestJWT_Rejections(t *testing.T) {
	val, err := NewJWTValidator(testConfig())
	require.NoError(t, err)

	t.Run("missing", func(t *testing.T) {
		_, err := val.ValidateToken("Bearer ")
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("expired", func(t *testing.T) {
		gen, err := NewJWTGenerator(testConfig())
		require.NoError(t, err)
		gen.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		pair, err := gen.GenerateTokenPair(UserContext{Username: "user"})
		require.NoError(t, err)

		_, err = val.ValidateToken(pair.AccessToken)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("other secret", func(t *testing.T) {
		cfg := testConfig()
		cfg.SecretKey = "other"
		gen, err := NewJWTGenerator(cfg)
		require.NoError(t, err)
		pair, err := gen.GenerateTokenPair(UserContext{Username: "user"})
		require.NoError(t, err)

		_, err = val.ValidateToken(pair.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("empty secret", func(t *testing.T) {
		_, err := NewJWTValidator(JWTConfig{})
		assert.Error(t, err)
	})
}

func TestUserContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", UsernameFromContext(ctx))

	ctx = SetUserInContext(ctx, &UserContext{Username: "manager"})
	assert.Equal(t, "manager", UsernameFromContext(ctx))
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("Admin@123")
	require.NoError(t, err)

	assert.True(t, CheckPassword(hash, "Admin@123"))
	assert.False(t, CheckPassword(hash, "admin@123"))
}
