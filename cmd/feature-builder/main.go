package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"

	"github.com/hyunsoolee/aptpulse/internal/features"
	"github.com/hyunsoolee/aptpulse/internal/gapinvest"
	"github.com/hyunsoolee/aptpulse/internal/pipeline"
	"github.com/hyunsoolee/aptpulse/pkg/config"
	"github.com/hyunsoolee/aptpulse/pkg/db"
	"github.com/hyunsoolee/aptpulse/pkg/logger"
	"github.com/hyunsoolee/aptpulse/pkg/migrate"
)

// One-shot rebuild of the feature and analytics tables from the full
// raw store, for runs outside the worker's schedule. With -gap-only,
// only the gap-investment summary is recomputed from the stored
// feature tables.
func main() {
	logg := logger.New(logger.Options{ServiceName: "feature-builder"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	gapOnly := flag.Bool("gap-only", false, "rebuild only the gap-investment summary from the stored feature tables")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "feature-builder",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	pipelineService, err := pipeline.NewService(pipeline.ServiceParams{
		Logger:       logg,
		SaleBuilder:  features.NewSaleBuilder(logg),
		LeaseBuilder: features.NewLeaseBuilder(logg),
		Analyzer:     gapinvest.NewAnalyzer(logg),
		FeatureRepo:  features.NewRepository(dbClient.DB()),
		GapRepo:      gapinvest.NewRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(ctx, "failed to create pipeline service", err)
		os.Exit(1)
	}

	if *gapOnly {
		if err := pipelineService.RunGapRebuild(ctx); err != nil {
			logg.Error(ctx, "gap rebuild failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "gap rebuild finished")
		return
	}

	if err := pipelineService.RunFeatureBuild(ctx); err != nil {
		logg.Error(ctx, "feature build failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "feature build finished")
}
