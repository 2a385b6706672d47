package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/yxshee/marfa-gallery/internal/config"
	"github.com/yxshee/marfa-gallery/internal/http/router"
	"github.com/yxshee/marfa-gallery/internal/platform/logging"
	"github.com/yxshee/marfa-gallery/internal/platform/ratelimit"
	"github.com/yxshee/marfa-gallery/internal/storage/memory"
	"github.com/yxshee/marfa-gallery/internal/storage/sqlstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config load failed: %v", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := router.Dependencies{Logger: logger}

	switch cfg.DatabaseDriver {
	case config.DriverSQLite, config.DriverPostgres:
		store, err := sqlstore.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
		if err != nil {
			logger.WithError(err).Fatal("database initialization failed")
		}
		defer store.Close()
		deps.GalleryStore = store
		deps.ProfileStore = store
		deps.Ready = store.Ping
	default:
		store := memory.New()
		deps.GalleryStore = store
		deps.ProfileStore = store
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Fatal("redis connection failed")
		}
		defer client.Close()
		deps.Limiter = ratelimit.NewRedis(client, ratelimit.RedisConfig{
			Prefix: "gallery:ratelimit",
			Limit:  cfg.RateLimitBurst,
			Window: time.Second,
		})
	}

	r, err := router.New(cfg, deps)
	if err != nil {
		logger.WithError(err).Fatal("router initialization failed")
	}

	addr := ":" + cfg.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"addr":        addr,
			"environment": cfg.Environment,
			"driver":      cfg.DatabaseDriver,
		}).Info("api listening")
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("graceful shutdown failed")
		}
	}
}
