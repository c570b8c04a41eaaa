package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StorageDynamoDB = "dynamodb"
)

// developmentJWTSecret signs tokens when JWT_SECRET is unset outside production.
const developmentJWTSecret = "wmsadmin-development-secret"

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Storage
	StorageBackend string
	SQLitePath     string
	SeedData       bool

	// AWS configuration
	AWSRegion        string
	DynamoDBTable    string
	ConnectionsTable string
	EventBusName     string
	CommitLockTTL    time.Duration

	// Lambda configuration
	IsLambda           bool
	LambdaFunctionName string

	// WebSocket configuration
	WebSocketEndpoint string

	// Logging
	LogLevel string

	// Authentication
	JWTSecret             string
	JWTIssuer             string
	JWTExpiry             time.Duration
	RefreshExpiry         time.Duration
	LoginLockoutThreshold int
	LoginRateLimit        int

	// Menus
	MenuConfigPath string

	// HTTP
	CORSAllowedOrigins []string

	// Feature flags
	EnableEventBus   bool
	EnableMetrics    bool
	EnableCloudWatch bool
	EnableTracing    bool
}

// LoadConfig loads configuration from environment variables. A .env file in
// the working directory is read first when present; real environment
// variables win over it.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	backend := strings.ToLower(getEnv("STORAGE_BACKEND", StorageMemory))
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		StorageBackend: backend,
		SQLitePath:     getEnv("SQLITE_PATH", "codes.db"),
		SeedData:       getEnvBool("SEED_DATA", backend == StorageMemory),

		AWSRegion:        getEnv("AWS_REGION", "ap-northeast-1"),
		DynamoDBTable:    getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", "wms-codes")),
		ConnectionsTable: getEnv("CONNECTIONS_TABLE", "wms-connections"),
		EventBusName:     getEnv("EVENT_BUS_NAME", ""),
		CommitLockTTL:    getEnvDuration("COMMIT_LOCK_TTL", 30*time.Second),

		IsLambda:           getEnv("AWS_LAMBDA_FUNCTION_NAME", "") != "",
		LambdaFunctionName: getEnv("AWS_LAMBDA_FUNCTION_NAME", ""),

		WebSocketEndpoint: getEnv("WEBSOCKET_ENDPOINT", ""),

		JWTSecret:             getEnv("JWT_SECRET", ""),
		JWTIssuer:             getEnv("JWT_ISSUER", "wmsadmin"),
		JWTExpiry:             getEnvDuration("JWT_EXPIRY", 8*time.Hour),
		RefreshExpiry:         getEnvDuration("REFRESH_EXPIRY", 7*24*time.Hour),
		LoginLockoutThreshold: getEnvInt("LOGIN_LOCKOUT_THRESHOLD", 6),
		LoginRateLimit:        getEnvInt("LOGIN_RATE_LIMIT", 30),

		MenuConfigPath: getEnv("MENU_CONFIG_PATH", ""),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		LogLevel:         getEnv("LOG_LEVEL", "info"),
		EnableEventBus:   getEnvBool("ENABLE_EVENT_BUS", false),
		EnableMetrics:    getEnvBool("ENABLE_METRICS", true),
		EnableCloudWatch: getEnvBool("ENABLE_CLOUDWATCH", false),
		EnableTracing:    getEnvBool("ENABLE_TRACING", false),
	}

	if cfg.JWTSecret == "" && !cfg.IsProduction() {
		cfg.JWTSecret = developmentJWTSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageMemory, StorageSQLite, StorageDynamoDB:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.StorageBackend == StorageDynamoDB && c.DynamoDBTable == "" {
		return fmt.Errorf("TABLE_NAME is required for the dynamodb backend")
	}
	if c.EnableEventBus && c.EventBusName == "" {
		return fmt.Errorf("EVENT_BUS_NAME is required when ENABLE_EVENT_BUS is set")
	}
	if c.LoginLockoutThreshold < 1 {
		return fmt.Errorf("LOGIN_LOCKOUT_THRESHOLD must be positive")
	}

	if c.IsProduction() {
		if c.JWTSecret == "" || c.JWTSecret == developmentJWTSecret {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
