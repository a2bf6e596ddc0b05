package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/trailbook/trailbook-be/internal/http/respond"
)

// RateLimiter enforces a fixed-window per-IP request budget using
// Redis counters, shared across any number of server processes. On
// Redis errors it fails open: the auth surface stays available and the
// failure is logged.
type RateLimiter struct {
	redis  redis.UniversalClient
	logger *slog.Logger
	max    int
	window time.Duration
}

func NewRateLimiter(client redis.UniversalClient, max int, window time.Duration, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		redis:  client,
		logger: logger,
		max:    max,
		window: window,
	}
}

// Middleware wraps next with the per-IP limit.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		key := "ratelimit:ip:" + ip

		count, err := rl.redis.Incr(r.Context(), key).Result()
		if err != nil {
			rl.logger.Warn("rate limiter unavailable, allowing request", "ip", ip, "error", err)
			next.ServeHTTP(w, r)
			return
		}
		// Fixed-window semantics: the TTL is set once per window, on
		// the first hit.
		if count == 1 {
			if err := rl.redis.Expire(r.Context(), key, rl.window).Err(); err != nil {
				rl.logger.Warn("rate limiter expire failed", "ip", ip, "error", err)
			}
		}
		if count > int64(rl.max) {
			respond.Error(w, http.StatusTooManyRequests, "Too many requests from this IP, please try again in an hour!")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first, _, found := strings.Cut(forwarded, ","); found || first != "" {
			return strings.TrimSpace(first)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
