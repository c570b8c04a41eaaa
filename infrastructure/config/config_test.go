package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, StorageMemory, cfg.StorageBackend)
	assert.True(t, cfg.SeedData)
	assert.Equal(t, 8*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 6, cfg.LoginLockoutThreshold)
	assert.Equal(t, developmentJWTSecret, cfg.JWTSecret)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "SQLite")
	t.Setenv("SEED_DATA", "")
	t.Setenv("JWT_EXPIRY", "15m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StorageSQLite, cfg.StorageBackend)
	assert.False(t, cfg.SeedData)
	assert.Equal(t, 15*time.Minute, cfg.JWTExpiry)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Environment:           "production",
			StorageBackend:        StorageDynamoDB,
			DynamoDBTable:         "codes",
			JWTSecret:             "s3cret",
			LoginLockoutThreshold: 6,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown backend", func(c *Config) { c.StorageBackend = "redis" }, "STORAGE_BACKEND"},
		{"missing table", func(c *Config) { c.DynamoDBTable = "" }, "TABLE_NAME"},
		{"default secret in production", func(c *Config) { c.JWTSecret = developmentJWTSecret }, "JWT_SECRET"},
		{"event bus without name", func(c *Config) { c.EnableEventBus = true }, "EVENT_BUS_NAME"},
		{"zero threshold", func(c *Config) { c.LoginLockoutThreshold = 0 }, "LOCKOUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
