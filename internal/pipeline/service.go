package pipeline

import (
	"context"
	"fmt"

	"github.com/hyunsoolee/aptpulse/internal/features"
	"github.com/hyunsoolee/aptpulse/internal/gapinvest"
	"github.com/hyunsoolee/aptpulse/internal/ingest"
	"github.com/hyunsoolee/aptpulse/pkg/db/models"
	"github.com/hyunsoolee/aptpulse/pkg/enums"
	pkgerrors "github.com/hyunsoolee/aptpulse/pkg/errors"
	"github.com/hyunsoolee/aptpulse/pkg/logger"
	"github.com/hyunsoolee/aptpulse/pkg/metrics"
)

// Reconciler is the ingestion entry point the pipeline drives.
type Reconciler interface {
	Reconcile(ctx context.Context, tradeType enums.TradeType, period string) (*ingest.Report, error)
}

// Analyzer produces the gap-investment summary from the two feature
// sets.
type Analyzer interface {
	Analyze(ctx context.Context, sales []models.SaleFeature, jeonse []models.JeonseFeature) []models.GapInvestmentSummary
}

// ServiceParams configure the pipeline service.
type ServiceParams struct {
	Logger       *logger.Logger
	Reconciler   Reconciler
	SaleBuilder  *features.SaleBuilder
	LeaseBuilder *features.LeaseBuilder
	Analyzer     Analyzer
	FeatureRepo  features.Repository
	GapRepo      gapinvest.Repository
	Metrics      *metrics.PipelineMetrics
}

// Service ties the pipeline stages together: incremental raw ingestion
// on one side, full feature and analytics rebuilds on the other.
type Service struct {
	logg         *logger.Logger
	reconciler   Reconciler
	saleBuilder  *features.SaleBuilder
	leaseBuilder *features.LeaseBuilder
	analyzer     Analyzer
	featureRepo  features.Repository
	gapRepo      gapinvest.Repository
	metrics      *metrics.PipelineMetrics
}

// NewService builds the pipeline service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.SaleBuilder == nil || params.LeaseBuilder == nil {
		return nil, fmt.Errorf("feature builders required")
	}
	if params.Analyzer == nil {
		return nil, fmt.Errorf("analyzer required")
	}
	if params.FeatureRepo == nil {
		return nil, fmt.Errorf("feature repository required")
	}
	if params.GapRepo == nil {
		return nil, fmt.Errorf("gap repository required")
	}
	return &Service{
		logg:         params.Logger,
		reconciler:   params.Reconciler,
		saleBuilder:  params.SaleBuilder,
		leaseBuilder: params.LeaseBuilder,
		analyzer:     params.Analyzer,
		featureRepo:  params.FeatureRepo,
		gapRepo:      params.GapRepo,
		metrics:      params.Metrics,
	}, nil
}

// RunIngestion performs one incremental raw load for the trade type and
// YYYYMM period. The reconciler is optional so feature-only deployments
// can skip the API client entirely.
func (s *Service) RunIngestion(ctx context.Context, tradeType enums.TradeType, period string) (*ingest.Report, error) {
	if s.reconciler == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "no reconciler configured")
	}
	return s.reconciler.Reconcile(ctx, tradeType, period)
}

// RunFeatureBuild rebuilds the three feature tables and the
// gap-investment summary from the current raw data. The whole run
// aborts on the first store failure; builders only skip individual
// rows.
func (s *Service) RunFeatureBuild(ctx context.Context) error {
	s.logg.Info(ctx, "feature build starting")

	rawSales, err := s.featureRepo.ListRawSaleDeals(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStore, err, "read raw sale deals")
	}
	saleFeatures, _ := s.saleBuilder.Build(ctx, rawSales)
	if err := s.featureRepo.ReplaceSaleFeatures(ctx, saleFeatures); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStore, err, "replace sale features")
	}
	s.metrics.AddWritten(models.SaleFeature{}.TableName(), len(saleFeatures))

	rawLeases, err := s.featureRepo.ListRawLeaseDeals(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStore, err, "read raw lease deals")
	}
	jeonse, monthly, _ := s.leaseBuilder.Build(ctx, rawLeases)
	if err := s.featureRepo.ReplaceJeonseFeatures(ctx, jeonse); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStore, err, "replace jeonse features")
	}
	s.metrics.AddWritten(models.JeonseFeature{}.TableName(), len(jeonse))
	if err := s.featureRepo.ReplaceMonthlyRentFeatures(ctx, monthly); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStore, err, "replace monthly rent features")
	}
	s.metrics.AddWritten(models.MonthlyRentFeature{}.TableName(), len(monthly))

	summaries := s.analyzer.Analyze(ctx, saleFeatures, jeonse)
	if err := s.gapRepo.ReplaceSummaries(ctx, summaries); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStore, err, "replace gap summaries")
	}
	s.metrics.AddWritten(models.GapInvestmentSummary{}.TableName(), len(summaries))

	ctx = s.logg.WithFields(ctx, map[string]any{
		"sale_features":    len(saleFeatures),
		"jeonse_features":  len(jeonse),
		"monthly_features": len(monthly),
		"gap_groups":       len(summaries),
	})
	s.logg.Info(ctx, "feature build complete")
	return nil
}

// RunGapRebuild recomputes the gap-investment summary from the feature
// tables already in the store, without touching the raw tables. Useful
// after an analyzer change when the features themselves are current.
func (s *Service) RunGapRebuild(ctx context.Context) error {
	s.logg.Info(ctx, "gap rebuild starting")

	sales, err := s.featureRepo.ListSaleFeatures(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStore, err, "read sale features")
	}
	jeonse, err := s.featureRepo.ListJeonseFeatures(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStore, err, "read jeonse features")
	}

	summaries := s.analyzer.Analyze(ctx, sales, jeonse)
	if err := s.gapRepo.ReplaceSummaries(ctx, summaries); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStore, err, "replace gap summaries")
	}
	s.metrics.AddWritten(models.GapInvestmentSummary{}.TableName(), len(summaries))

	ctx = s.logg.WithFields(ctx, map[string]any{
		"sale_features":   len(sales),
		"jeonse_features": len(jeonse),
		"gap_groups":      len(summaries),
	})
	s.logg.Info(ctx, "gap rebuild complete")
	return nil
}
