package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/trailbook/trailbook-be/internal/email"
)

// Config holds runtime configuration sourced from env vars. It is
// constructed once at process start and passed explicitly into the
// components that need it; nothing reads the environment afterwards.
type Config struct {
	Port          string
	DatabaseURL   string
	RedisURL      string
	PublicBaseURL string

	JWTSecret string
	JWTIssuer string
	// Session token lifetime.
	JWTTTL time.Duration
	// Session cookie lifetime; usually matches JWTTTL.
	CookieTTL time.Duration

	// Lifetimes of the emailed 2FA code and password-reset token.
	ChallengeTTL time.Duration
	ResetTTL     time.Duration

	CORSOrigins []string

	// Per-IP request budget; the limiter is disabled when RedisURL is
	// empty.
	RateLimitMax    int
	RateLimitWindow time.Duration

	SMTP email.SMTPConfig
}

// Load reads configuration from the environment and performs minimal
// validation.
func Load() (Config, error) {
	cfg := Config{
		Port:          fallback(os.Getenv("PORT"), "8080"),
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisURL:      strings.TrimSpace(os.Getenv("REDIS_URL")),
		PublicBaseURL: fallback(os.Getenv("PUBLIC_BASE_URL"), "http://localhost:8080"),
		JWTSecret:     strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:     fallback(os.Getenv("JWT_ISSUER"), "trailbook-backend"),
		CORSOrigins:   parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
	}

	cfg.JWTTTL = durationEnv("JWT_EXPIRES_IN_DAYS", 90, 24*time.Hour)
	cfg.CookieTTL = durationEnv("JWT_COOKIE_EXPIRES_DAYS", 90, 24*time.Hour)
	cfg.ChallengeTTL = durationEnv("LOGIN_CHALLENGE_TTL_MINUTES", 10, time.Minute)
	cfg.ResetTTL = durationEnv("RESET_TOKEN_TTL_MINUTES", 10, time.Minute)
	cfg.RateLimitMax = intEnv("RATE_LIMIT_MAX", 100)
	cfg.RateLimitWindow = durationEnv("RATE_LIMIT_WINDOW_MINUTES", 60, time.Minute)

	cfg.SMTP = email.SMTPConfig{
		Host:     strings.TrimSpace(os.Getenv("SMTP_HOST")),
		Port:     intEnv("SMTP_PORT", 587),
		Username: strings.TrimSpace(os.Getenv("SMTP_USERNAME")),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     fallback(os.Getenv("SMTP_FROM"), "Trailbook <noreply@trailbook.example>"),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func intEnv(key string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil && n > 0 {
		return n
	}
	return def
}

func durationEnv(key string, def int, unit time.Duration) time.Duration {
	return time.Duration(intEnv(key, def)) * unit
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
