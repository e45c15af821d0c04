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

	"github.com/pawshaus/pawshaus/internal/app"
	"github.com/pawshaus/pawshaus/internal/booking"
	"github.com/pawshaus/pawshaus/internal/calendar"
	"github.com/pawshaus/pawshaus/internal/observability"
	"github.com/pawshaus/pawshaus/internal/platform/cache"
	"github.com/pawshaus/pawshaus/internal/platform/db"
	"github.com/pawshaus/pawshaus/internal/pricing"
	"github.com/pawshaus/pawshaus/jobs"
	"github.com/pawshaus/pawshaus/report"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	pricingRepo := pricing.NewRepository(dbpool)
	snapshotCache := pricing.NewSnapshotCache(pricingRepo, redisClient, cfg.SnapshotTTL, logger)
	pricingEngine := pricing.NewEngine(snapshotCache)
	pricingHandler := pricing.NewHandler(logger, pricingEngine, pricingRepo, snapshotCache)

	queueClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()
	notifier := jobs.NewNotifier(queueClient, logger)

	bookingRepo := booking.NewRepository(dbpool)
	bookingService := booking.NewService(logger, bookingRepo, pricingEngine, notifier)
	bookingHandler := booking.NewHandler(logger, bookingService)

	calendarFeed := calendar.NewFeed(logger, bookingRepo)

	reportClient := report.NewClient(cfg.GotenbergURL)
	reportHandler := report.NewHandler(reportClient, bookingService, logger)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		PricingHandler: pricingHandler,
		BookingHandler: bookingHandler,
		CalendarFeed:   calendarFeed,
		ReportHandler:  reportHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
		Pool:           dbpool,
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
