package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/trailbook/trailbook-be/internal/auth"
	"github.com/trailbook/trailbook-be/internal/config"
	"github.com/trailbook/trailbook-be/internal/email"
	"github.com/trailbook/trailbook-be/internal/http/handlers"
	"github.com/trailbook/trailbook-be/internal/middleware"
	"github.com/trailbook/trailbook-be/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires middleware, the auth service and routes, and returns a
// ready server. redisClient may be nil, which disables rate limiting.
func New(cfg config.Config, store storage.UserStore, redisClient redis.UniversalClient, mailer email.Mailer, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	handlers.NewHealthHandler(time.Now()).Register(mux)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	service := auth.NewService(store, tokens, mailer, logger, auth.ServiceConfig{
		ChallengeTTL:  cfg.ChallengeTTL,
		ResetTTL:      cfg.ResetTTL,
		PublicBaseURL: cfg.PublicBaseURL,
	})
	requireAuth := middleware.RequireAuth(tokens, store, logger)
	handlers.NewAuthHandler(service, cfg.CookieTTL, logger).Register(mux, requireAuth)

	var handler http.Handler = mux
	if redisClient != nil {
		limiter := middleware.NewRateLimiter(redisClient, cfg.RateLimitMax, cfg.RateLimitWindow, logger)
		handler = limiter.Middleware(handler)
	}
	handler = middleware.CORS(cfg.CORSOrigins, middleware.Logging(logger, handler))
	handler = middleware.Recovery(logger, handler)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
