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

	"github.com/forecourt-hq/forecourt/internal/ap"
	"github.com/forecourt-hq/forecourt/internal/app"
	"github.com/forecourt-hq/forecourt/internal/ledger/accounts"
	"github.com/forecourt-hq/forecourt/internal/ledger/postings"
	"github.com/forecourt-hq/forecourt/internal/ledger/reports"
	"github.com/forecourt-hq/forecourt/internal/ledger/roles"
	"github.com/forecourt-hq/forecourt/internal/notify"
	"github.com/forecourt-hq/forecourt/internal/observability"
	"github.com/forecourt-hq/forecourt/internal/platform/cache"
	"github.com/forecourt-hq/forecourt/internal/platform/db"
	"github.com/forecourt-hq/forecourt/internal/shared"
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

	if len(os.Args) > 1 {
		os.Exit(runSubcommand(ctx, cfg, logger, os.Args[1], os.Args[2:]))
	}

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

	rolesTable := roles.Defaults().WithOverrides(roleOverrides(cfg))

	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)
	reportCache := reports.NewCache(redisClient, 10*time.Minute)

	metrics := observability.NewMetrics()

	accountsRepo := accounts.NewRepository(pool)
	accountsService := accounts.NewService(accountsRepo)
	accountsHandler := accounts.NewHandler(logger, accountsService)

	postingsRepo := postings.NewRepository(pool)
	postingsService := postings.NewService(postingsRepo, auditLogger, idempotencyStore, reportCache, metrics)
	postingsHandler := postings.NewHandler(logger, postingsService)

	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.NotificationsEnabled {
		asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer func() {
			if err := asynqClient.Close(); err != nil {
				logger.Warn("asynq client close", slog.Any("error", err))
			}
		}()
		notifier = notify.NewAsynqNotifier(asynqClient, logger)
	}

	apRepo := ap.NewRepository(pool)
	apService := ap.NewService(apRepo, rolesTable, notifier, auditLogger, idempotencyStore, reportCache, metrics, logger)
	apHandler := ap.NewHandler(logger, apService)

	reportsRepo := reports.NewRepository(pool)
	reportsService := reports.NewService(reportsRepo, reportCache)
	reportsHandler := reports.NewHandler(logger, reportsService)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		AccountsHandler: accountsHandler,
		PostingsHandler: postingsHandler,
		APHandler:       apHandler,
		ReportsHandler:  reportsHandler,
		Metrics:         metrics,
	})

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

func roleOverrides(cfg *app.Config) map[roles.Role]string {
	overrides := map[roles.Role]string{}
	for role, code := range map[roles.Role]string{
		roles.Cash:            cfg.CashAccountCode,
		roles.Bank:            cfg.BankAccountCode,
		roles.AccountsPayable: cfg.PayableAccountCode,
		roles.FuelInventory:   cfg.InventoryAccountCode,
	} {
		if code != "" {
			overrides[role] = code
		}
	}
	return overrides
}
