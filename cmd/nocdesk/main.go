package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nocdesk/nocdesk/internal/app"
	"github.com/nocdesk/nocdesk/internal/observability"
	"github.com/nocdesk/nocdesk/internal/platform/cache"
	"github.com/nocdesk/nocdesk/internal/platform/db"
	"github.com/nocdesk/nocdesk/jobs"
)

const appName = "nocdesk-api"

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns, ApplicationName: appName})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Error("migrate schema", slog.Any("error", err))
		os.Exit(1)
	}

	deps := app.Deps{Config: cfg, Logger: logger, Pool: pool, Metrics: observability.NewMetrics()}
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, collections will not be cached", slog.Any("error", err))
	} else {
		deps.Redis = redisClient
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	services, err := app.NewServices(deps)
	if err != nil {
		logger.Error("init services", slog.Any("error", err))
		os.Exit(1)
	}
	if services.Cache != nil {
		go func() {
			if err := services.Cache.ListenForInvalidation(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("cache invalidation listener stopped", slog.Any("error", err))
			}
		}()
	}

	redisOpt, err := jobs.RedisConnOpt(cfg.RedisAddr)
	if err != nil {
		logger.Error("redis address", slog.Any("error", err))
		os.Exit(1)
	}
	inspector := asynq.NewInspector(redisOpt)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(services.Handlers(logger, cfg, app.RouterParams{
		Logger:     logger,
		Config:     cfg,
		Metrics:    deps.Metrics,
		JobHandler: jobs.NewHandler(inspector, logger),
		Health: func(r *http.Request) error {
			return deps.Ping(r.Context())
		},
	}))

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
