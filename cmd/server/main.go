package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/trailbook/trailbook-be/internal/config"
	"github.com/trailbook/trailbook-be/internal/email"
	"github.com/trailbook/trailbook-be/internal/server"
	"github.com/trailbook/trailbook-be/internal/storage/postgres"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	loadLocalEnv(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	userStore, err := postgres.NewUserStore(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("init database", "error", err)
		os.Exit(1)
	}
	defer userStore.Close()

	var redisClient redis.UniversalClient
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("parse redis url", "error", err)
			os.Exit(1)
		}
		client := redis.NewClient(opts)
		defer client.Close()
		redisClient = client
	} else {
		logger.Warn("REDIS_URL not set; per-IP rate limiting disabled")
	}

	var mailer email.Mailer
	if cfg.SMTP.Host != "" {
		mailer = email.NewSMTPMailer(cfg.SMTP)
	} else {
		logger.Warn("SMTP_HOST not set; emails will be written to the log")
		mailer = email.NewLogMailer(logger)
	}

	srv := server.New(cfg, userStore, redisClient, mailer, logger)

	go func() {
		logger.Info("trailbook backend listening", "addr", cfg.HTTPAddress())
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("graceful shutdown error", "error", err)
	}
}

func loadLocalEnv(logger *slog.Logger) {
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found; relying on existing environment")
	}
}
