package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Clark-Hu/course-reviews/internal/auth"
	"github.com/Clark-Hu/course-reviews/internal/config"
	httpserver "github.com/Clark-Hu/course-reviews/internal/http"
	"github.com/Clark-Hu/course-reviews/internal/ratelimit"
	"github.com/Clark-Hu/course-reviews/internal/repository"
	"github.com/Clark-Hu/course-reviews/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("could not read .env")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}

	logger := cfg.NewLogger()

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	st, err := store.New(dbCtx, cfg.DBURL, store.OptionsFromConfig(cfg, logger))
	if err != nil {
		logger.WithError(err).Fatal("connect database")
	}
	defer st.Close()

	if cfg.DBAutoMigrate {
		if err := st.Migrate(dbCtx); err != nil {
			logger.WithError(err).Fatal("apply migrations")
		}
	}

	tokens, err := auth.NewTokens(cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour)
	if err != nil {
		logger.WithError(err).Fatal("init tokens")
	}

	var limiter *ratelimit.Limiter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		defer rdb.Close()
		if err := rdb.Ping(dbCtx).Err(); err != nil {
			logger.WithError(err).Warn("redis unreachable, rate limiter will fail open until it recovers")
		}
		limiter = ratelimit.New(rdb, ratelimit.Options{
			Capacity:   cfg.RateLimitCapacity,
			RatePerSec: float64(cfg.RateLimitPerSec),
			Prefix:     "course-reviews:ratelimit",
			Logger:     logger,
		})
		logger.WithField("addr", cfg.RedisAddr).Info("rate limiting enabled")
	}

	repo := repository.New(st)
	server := httpserver.New(cfg, st, repo, tokens, limiter, logger)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			logger.WithError(err).Error("server error")
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Error("graceful shutdown error")
	}
}
