package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/pawshaus/pawshaus/internal/app"
	"github.com/pawshaus/pawshaus/internal/crm"
	"github.com/pawshaus/pawshaus/internal/ledger"
	"github.com/pawshaus/pawshaus/internal/platform/cache"
	"github.com/pawshaus/pawshaus/internal/platform/db"
	"github.com/pawshaus/pawshaus/internal/pricing"
	"github.com/pawshaus/pawshaus/jobs"
)

func main() {
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

	ledgerClient := ledger.NewClient(cfg.LedgerURL, cfg.LedgerAPIKey, nil)
	crmClient := crm.NewClient(cfg.CRMURL, cfg.CRMAPIKey, nil)

	ledgerJob := jobs.NewLedgerPostJob(ledgerClient, logger, nil)
	crmJob := jobs.NewCRMSyncJob(crmClient, logger, nil)

	pricingRepo := pricing.NewRepository(pool)
	snapshotCache := pricing.NewSnapshotCache(pricingRepo, redisClient, cfg.SnapshotTTL, logger)
	refreshJob := jobs.NewSnapshotRefreshJob(snapshotCache, logger, nil)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeLedgerPost, Handler: ledgerJob.Handle},
			{Type: jobs.TaskTypeCRMSync, Handler: crmJob.Handle},
			{Type: jobs.TaskTypeSnapshotRefresh, Handler: refreshJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/15 * * * *", Task: jobs.NewSnapshotRefreshTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
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
