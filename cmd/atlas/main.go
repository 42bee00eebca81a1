package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/atlas-plan/atlas-plan/internal/app"
	"github.com/atlas-plan/atlas-plan/internal/matrix"
	matrixhttp "github.com/atlas-plan/atlas-plan/internal/matrix/http"
	"github.com/atlas-plan/atlas-plan/internal/observability"
	"github.com/atlas-plan/atlas-plan/internal/platform/cache"
	"github.com/atlas-plan/atlas-plan/internal/platform/db"
	"github.com/atlas-plan/atlas-plan/internal/worklog"
	workloghttp "github.com/atlas-plan/atlas-plan/internal/worklog/http"
	"github.com/atlas-plan/atlas-plan/jobs"
)

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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	matrixCache := matrix.NewCache(redisClient, cfg.CacheTTL)
	if err := matrixCache.ListenForInvalidation(ctx, ""); err != nil {
		logger.Warn("cache invalidation listener", slog.Any("error", err))
	}
	matrixRepo := matrix.NewRepository(pool)
	matrixService := matrix.NewService(matrixRepo, matrixCache, logger, metrics)
	matrixHandler := matrixhttp.NewHandler(logger, matrixService)

	parserClient := worklog.NewParserClient(cfg.ParserURL, cfg.ParserTimeout)
	worklogRepo := worklog.NewRepository(pool)
	worklogService := worklog.NewService(worklogRepo, parserClient, matrixCache, logger)
	worklogHandler := workloghttp.NewHandler(logger, worklogService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() { _ = inspector.Close() }()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		MatrixHandler:  matrixHandler,
		WorklogHandler: worklogHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
