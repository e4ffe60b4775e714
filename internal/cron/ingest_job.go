package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/hyunsoolee/aptpulse/internal/ingest"
	"github.com/hyunsoolee/aptpulse/pkg/enums"
	"github.com/hyunsoolee/aptpulse/pkg/logger"
)

type ingestionRunner interface {
	RunIngestion(ctx context.Context, tradeType enums.TradeType, period string) (*ingest.Report, error)
}

// MonthlyIngestJobParams configure the monthly ingestion job.
type MonthlyIngestJobParams struct {
	Logger   *logger.Logger
	Pipeline ingestionRunner
	Now      func() time.Time
}

// NewMonthlyIngestJob builds the job that loads the previous month's
// sale and lease transactions. The government publishes deals for a
// month over the following weeks, so the target period is always the
// month before the run time.
func NewMonthlyIngestJob(params MonthlyIngestJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Pipeline == nil {
		return nil, fmt.Errorf("pipeline required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &monthlyIngestJob{
		logg:     params.Logger,
		pipeline: params.Pipeline,
		now:      now,
	}, nil
}

type monthlyIngestJob struct {
	logg     *logger.Logger
	pipeline ingestionRunner
	now      func() time.Time
}

func (j *monthlyIngestJob) Name() string { return "monthly-ingest" }

// Run reconciles both trade types for the previous month. A failing
// trade type does not stop the other; failures are aggregated into the
// job result.
func (j *monthlyIngestJob) Run(ctx context.Context) error {
	period := previousMonth(j.now())
	ctx = j.logg.WithField(ctx, "period", period)

	var errs error
	for _, tradeType := range []enums.TradeType{enums.TradeTypeSale, enums.TradeTypeLease} {
		report, err := j.pipeline.RunIngestion(ctx, tradeType, period)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s ingestion: %w", tradeType, err))
			continue
		}
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"trade_type": tradeType.String(),
			"appended":   report.Appended,
			"skipped":    report.SkippedDistricts(),
		})
		j.logg.Info(logCtx, "monthly ingestion done")
	}
	return errs
}

// previousMonth formats the month before t as YYYYMM, anchored to the
// first of the month so late-month run times cannot skew the
// arithmetic.
func previousMonth(t time.Time) string {
	firstOfMonth := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return firstOfMonth.AddDate(0, -1, 0).Format("200601")
}
