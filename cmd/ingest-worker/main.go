package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hyunsoolee/aptpulse/internal/cron"
	"github.com/hyunsoolee/aptpulse/internal/features"
	"github.com/hyunsoolee/aptpulse/internal/gapinvest"
	"github.com/hyunsoolee/aptpulse/internal/ingest"
	"github.com/hyunsoolee/aptpulse/internal/ops"
	"github.com/hyunsoolee/aptpulse/internal/pipeline"
	"github.com/hyunsoolee/aptpulse/pkg/config"
	"github.com/hyunsoolee/aptpulse/pkg/db"
	"github.com/hyunsoolee/aptpulse/pkg/logger"
	"github.com/hyunsoolee/aptpulse/pkg/metrics"
	"github.com/hyunsoolee/aptpulse/pkg/migrate"
	"github.com/hyunsoolee/aptpulse/pkg/molit"
	"github.com/hyunsoolee/aptpulse/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "ingest-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "ingest-worker"

	logg = logger.New(logger.Options{
		ServiceName: "ingest-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	molitClient, err := molit.NewClient(cfg.Molit, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create api client", err)
		os.Exit(1)
	}

	pipelineMetrics := metrics.NewPipelineMetrics(prometheus.DefaultRegisterer)
	reconciler, err := ingest.NewReconciler(ingest.ReconcilerParams{
		Logger:  logg,
		Fetcher: molitClient,
		Repo:    ingest.NewRepository(dbClient.DB()),
		Metrics: pipelineMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciler", err)
		os.Exit(1)
	}

	pipelineService, err := pipeline.NewService(pipeline.ServiceParams{
		Logger:       logg,
		Reconciler:   reconciler,
		SaleBuilder:  features.NewSaleBuilder(logg),
		LeaseBuilder: features.NewLeaseBuilder(logg),
		Analyzer:     gapinvest.NewAnalyzer(logg),
		FeatureRepo:  features.NewRepository(dbClient.DB()),
		GapRepo:      gapinvest.NewRepository(dbClient.DB()),
		Metrics:      pipelineMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create pipeline service", err)
		os.Exit(1)
	}

	ingestJob, err := cron.NewMonthlyIngestJob(cron.MonthlyIngestJobParams{
		Logger:   logg,
		Pipeline: pipelineService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create ingest job", err)
		os.Exit(1)
	}
	rebuildJob, err := cron.NewFeatureRebuildJob(cron.FeatureRebuildJobParams{
		Logger:   logg,
		Pipeline: pipelineService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create rebuild job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create pipeline lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(ingestJob, rebuildJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Ingest.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})

	opsServer := &http.Server{
		Addr: ":" + cfg.App.OpsPort,
		Handler: ops.NewRouter(ops.RouterParams{
			Logger: logg,
			DB:     dbClient,
			Redis:  redisClient,
		}),
	}
	go func() {
		if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "ops listener stopped unexpectedly", err)
		}
	}()
	defer opsServer.Close()

	logg.Info(ctx, "starting ingest worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "ingest worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "ingest worker shutting down gracefully")
}
