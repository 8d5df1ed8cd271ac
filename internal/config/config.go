package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the API server
type Config struct {
	Server ServerConfig

	// Database Configuration
	Database DatabaseConfig

	Auth AuthConfig

	// Seed data applied at start-up
	Seed SeedConfig

	// Housekeeping jobs
	Cleanup CleanupConfig

	// Logging Configuration
	Logging LoggingConfig
}

// ServerConfig holds HTTP listener configuration
type ServerConfig struct {
	Port               string
	CORSAllowedOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// AuthConfig holds token issuance configuration
type AuthConfig struct {
	// JWTSecret signs tokens. Empty means a secret is generated once and kept in the database.
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	// LoginRateLimit is the number of token requests allowed per client IP per minute. 0 disables limiting.
	LoginRateLimit int
}

// SeedConfig points at an optional YAML seed file
type SeedConfig struct {
	File string
}

// CleanupConfig holds the refresh token cleanup schedule
type CleanupConfig struct {
	Schedule string // cron expression or descriptor such as @hourly
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	accessTTL, err := durationEnv("ACCESS_TOKEN_TTL", 60*time.Minute)
	if err != nil {
		return nil, err
	}
	refreshTTL, err := durationEnv("REFRESH_TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	if refreshTTL <= accessTTL {
		return nil, fmt.Errorf("REFRESH_TOKEN_TTL (%s) must be longer than ACCESS_TOKEN_TTL (%s)", refreshTTL, accessTTL)
	}

	loginRateLimit, err := intEnv("LOGIN_RATE_LIMIT", 10)
	if err != nil {
		return nil, err
	}
	if loginRateLimit < 0 {
		return nil, fmt.Errorf("LOGIN_RATE_LIMIT must not be negative")
	}

	return &Config{
		Server: ServerConfig{
			Port:               stringEnv("PORT", "8000"),
			CORSAllowedOrigins: listEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		},
		Database: DatabaseConfig{
			URL: stringEnv("DATABASE_URL", "cruisemate.sqlite"),
		},
		Auth: AuthConfig{
			JWTSecret:       os.Getenv("JWT_SECRET"),
			AccessTokenTTL:  accessTTL,
			RefreshTokenTTL: refreshTTL,
			LoginRateLimit:  loginRateLimit,
		},
		Seed: SeedConfig{
			File: os.Getenv("SEED_FILE"),
		},
		Cleanup: CleanupConfig{
			Schedule: stringEnv("TOKEN_CLEANUP_SCHEDULE", "@hourly"),
		},
		Logging: LoggingConfig{
			Level:  stringEnv("LOG_LEVEL", "info"),
			Format: stringEnv("LOG_FORMAT", "json"),
		},
	}, nil
}

func stringEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func listEnv(key string, fallback []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
