package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hyunsoolee/aptpulse/internal/ingest"
	"github.com/hyunsoolee/aptpulse/pkg/config"
	"github.com/hyunsoolee/aptpulse/pkg/db"
	"github.com/hyunsoolee/aptpulse/pkg/enums"
	"github.com/hyunsoolee/aptpulse/pkg/logger"
	"github.com/hyunsoolee/aptpulse/pkg/metrics"
	"github.com/hyunsoolee/aptpulse/pkg/migrate"
	"github.com/hyunsoolee/aptpulse/pkg/molit"
)

// Loads a historical range of months, one reconciliation per
// (period, trade type) pair. Failed periods are logged and skipped so a
// long backfill survives transient API trouble.
func main() {
	logg := logger.New(logger.Options{ServiceName: "backfill"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	start := flag.String("start", "", "first month to load, YYYYMM")
	end := flag.String("end", "", "last month to load, YYYYMM (inclusive)")
	trade := flag.String("trade", "", "restrict to one trade type (sale or lease); both when empty")
	flag.Parse()

	periods, err := periodsBetween(*start, *end)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	tradeTypes, err := tradeTypesFor(*trade)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "backfill",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":   cfg.App.Env,
		"start": *start,
		"end":   *end,
	})

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

	molitClient, err := molit.NewClient(cfg.Molit, logg)
	if err != nil {
		logg.Error(ctx, "failed to create api client", err)
		os.Exit(1)
	}

	reconciler, err := ingest.NewReconciler(ingest.ReconcilerParams{
		Logger:  logg,
		Fetcher: molitClient,
		Repo:    ingest.NewRepository(dbClient.DB()),
		Metrics: metrics.NewPipelineMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logg.Error(ctx, "failed to create reconciler", err)
		os.Exit(1)
	}

	logg.Info(ctx, fmt.Sprintf("backfilling %d months", len(periods)))

	failed := 0
	for _, period := range periods {
		for _, tradeType := range tradeTypes {
			report, err := reconciler.Reconcile(ctx, tradeType, period)
			if err != nil {
				failed++
				logg.Error(ctx, fmt.Sprintf("backfill %s %s failed, continuing", tradeType, period), err)
				continue
			}
			logCtx := logg.WithFields(ctx, map[string]any{
				"period":     period,
				"trade_type": tradeType.String(),
				"appended":   report.Appended,
				"skipped":    report.SkippedDistricts(),
			})
			logg.Info(logCtx, "period loaded")
		}
	}

	if failed > 0 {
		logg.Warn(ctx, fmt.Sprintf("backfill finished with %d failed runs", failed))
		os.Exit(1)
	}
	logg.Info(ctx, "backfill finished")
}

// tradeTypesFor resolves the -trade flag; both feeds when empty.
func tradeTypesFor(value string) ([]enums.TradeType, error) {
	if value == "" {
		return []enums.TradeType{enums.TradeTypeSale, enums.TradeTypeLease}, nil
	}
	tradeType, err := enums.ParseTradeType(value)
	if err != nil {
		return nil, fmt.Errorf("invalid -trade: %w", err)
	}
	return []enums.TradeType{tradeType}, nil
}

// periodsBetween expands an inclusive YYYYMM range into its months.
func periodsBetween(start, end string) ([]string, error) {
	if start == "" || end == "" {
		return nil, fmt.Errorf("both -start and -end are required (YYYYMM)")
	}
	from, err := time.Parse("200601", start)
	if err != nil {
		return nil, fmt.Errorf("invalid -start %q: %w", start, err)
	}
	to, err := time.Parse("200601", end)
	if err != nil {
		return nil, fmt.Errorf("invalid -end %q: %w", end, err)
	}
	if from.After(to) {
		return nil, fmt.Errorf("-start %s is after -end %s", start, end)
	}

	var periods []string
	for cursor := from; !cursor.After(to); cursor = cursor.AddDate(0, 1, 0) {
		periods = append(periods, cursor.Format("200601"))
	}
	return periods, nil
}
