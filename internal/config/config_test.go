package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{
		"PORT", "DATABASE_URL", "JWT_SECRET", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL",
		"LOGIN_RATE_LIMIT", "SEED_FILE", "TOKEN_CLEANUP_SCHEDULE", "CORS_ALLOWED_ORIGINS",
		"LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "cruisemate.sqlite", cfg.Database.URL)
	assert.Equal(t, 60*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.Auth.RefreshTokenTTL)
	assert.Equal(t, 10, cfg.Auth.LoginRateLimit)
	assert.Equal(t, "@hourly", cfg.Cleanup.Schedule)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Len(t, cfg.Server.CORSAllowedOrigins, 2)
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9000")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("REFRESH_TOKEN_TTL", "1h")
	t.Setenv("LOGIN_RATE_LIMIT", "0")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, time.Hour, cfg.Auth.RefreshTokenTTL)
	assert.Equal(t, 0, cfg.Auth.LoginRateLimit)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSAllowedOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"bad duration":        {"ACCESS_TOKEN_TTL": "soon"},
		"negative duration":   {"ACCESS_TOKEN_TTL": "-1m"},
		"refresh not longer":  {"ACCESS_TOKEN_TTL": "2h", "REFRESH_TOKEN_TTL": "1h"},
		"bad rate limit":      {"LOGIN_RATE_LIMIT": "many"},
		"negative rate limit": {"LOGIN_RATE_LIMIT": "-3"},
	}

	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv("ACCESS_TOKEN_TTL", "")
			t.Setenv("REFRESH_TOKEN_TTL", "")
			t.Setenv("LOGIN_RATE_LIMIT", "")
			for k, v := range env {
				t.Setenv(k, v)
			}

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
