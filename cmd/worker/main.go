package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/forecourt-hq/forecourt/internal/app"
	"github.com/forecourt-hq/forecourt/internal/ledger/reports"
	"github.com/forecourt-hq/forecourt/internal/notify"
	"github.com/forecourt-hq/forecourt/internal/platform/cache"
	"github.com/forecourt-hq/forecourt/internal/platform/db"
	"github.com/forecourt-hq/forecourt/internal/shared"
	"github.com/forecourt-hq/forecourt/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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
		logger.Error("connect database", slog.Any("error", err))
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

	var sender jobs.Sender
	if cfg.NotificationsEnabled {
		sender = notify.NewWhatsAppSender(cfg.WhatsAppGatewayURL, cfg.WhatsAppToken)
	}
	whatsappHandler := jobs.NewWhatsAppHandler(sender, logger)

	reportsRepo := reports.NewRepository(pool)
	reportsService := reports.NewService(reportsRepo, reports.NewCache(redisClient, 10*time.Minute))
	integrityHandler := jobs.NewIntegrityHandler(reportsService, logger)
	cleanupHandler := jobs.NewCleanupHandler(shared.NewIdempotencyStore(pool), cfg.IdempotencyRetention, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		WhatsApp:  whatsappHandler,
		Integrity: integrityHandler,
		Cleanup:   cleanupHandler,
		Cron: []jobs.CronRegistration{
			{Spec: cfg.IntegrityCron, Task: jobs.NewLedgerIntegrityTask(), Options: []asynq.Option{asynq.MaxRetry(1)}},
			{Spec: cfg.IdempotencyCleanupCron, Task: jobs.NewIdempotencyCleanupTask(), Options: []asynq.Option{asynq.MaxRetry(1)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
