package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/trailbook")
	t.Setenv("JWT_SECRET", "test-secret")
}

func clearOptional(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "REDIS_URL", "PUBLIC_BASE_URL", "JWT_ISSUER",
		"JWT_EXPIRES_IN_DAYS", "JWT_COOKIE_EXPIRES_DAYS",
		"LOGIN_CHALLENGE_TTL_MINUTES", "RESET_TOKEN_TTL_MINUTES",
		"CORS_ALLOWED_ORIGINS", "RATE_LIMIT_MAX", "RATE_LIMIT_WINDOW_MINUTES",
		"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD", "SMTP_FROM",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	clearOptional(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.HTTPAddress())
	assert.Equal(t, "http://localhost:8080", cfg.PublicBaseURL)
	assert.Equal(t, "trailbook-backend", cfg.JWTIssuer)
	assert.Equal(t, 90*24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 90*24*time.Hour, cfg.CookieTTL)
	assert.Equal(t, 10*time.Minute, cfg.ChallengeTTL)
	assert.Equal(t, 10*time.Minute, cfg.ResetTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 100, cfg.RateLimitMax)
	assert.Equal(t, time.Hour, cfg.RateLimitWindow)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	clearOptional(t)
	t.Setenv("PORT", "9000")
	t.Setenv("JWT_EXPIRES_IN_DAYS", "7")
	t.Setenv("LOGIN_CHALLENGE_TTL_MINUTES", "5")
	t.Setenv("RATE_LIMIT_MAX", "20")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddress())
	assert.Equal(t, 7*24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 5*time.Minute, cfg.ChallengeTTL)
	assert.Equal(t, 20, cfg.RateLimitMax)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.CORSOrigins)
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	setRequired(t)
	clearOptional(t)
	t.Setenv("JWT_EXPIRES_IN_DAYS", "not-a-number")
	t.Setenv("RATE_LIMIT_MAX", "-5")

	cfg, err := Load()
	require.NoError(t, err)

	// Unparseable or non-positive values fall back to defaults.
	assert.Equal(t, 90*24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 100, cfg.RateLimitMax)
}

func TestLoadRequiredVars(t *testing.T) {
	clearOptional(t)

	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "test-secret")
	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("DATABASE_URL", "postgres://localhost:5432/trailbook")
	t.Setenv("JWT_SECRET", "")
	_, err = Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}
