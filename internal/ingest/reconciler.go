package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/hyunsoolee/aptpulse/internal/regions"
	"github.com/hyunsoolee/aptpulse/pkg/db/models"
	"github.com/hyunsoolee/aptpulse/pkg/enums"
	pkgerrors "github.com/hyunsoolee/aptpulse/pkg/errors"
	"github.com/hyunsoolee/aptpulse/pkg/logger"
	"github.com/hyunsoolee/aptpulse/pkg/metrics"
	"github.com/hyunsoolee/aptpulse/pkg/molit"
)

// DealFetcher is the slice of the transaction-price API client the
// reconciler needs.
type DealFetcher interface {
	FetchSaleDeals(ctx context.Context, params molit.FetchParams) ([]molit.SaleRow, error)
	FetchRentDeals(ctx context.Context, params molit.FetchParams) ([]molit.RentRow, error)
}

// ReconcilerParams configure the ingestion reconciler.
type ReconcilerParams struct {
	Logger    *logger.Logger
	Fetcher   DealFetcher
	Repo      Repository
	Districts []regions.District
	Metrics   *metrics.PipelineMetrics
}

// Reconciler performs the compare-then-append incremental load: fetch
// every district for a period, diff against stored rows, append only
// the pure-new set.
type Reconciler struct {
	logg      *logger.Logger
	fetcher   DealFetcher
	repo      Repository
	districts []regions.District
	metrics   *metrics.PipelineMetrics
}

// NewReconciler builds a reconciler over the Seoul catalog unless a
// district list is injected.
func NewReconciler(params ReconcilerParams) (*Reconciler, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Fetcher == nil {
		return nil, fmt.Errorf("deal fetcher required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("repository required")
	}
	districts := params.Districts
	if len(districts) == 0 {
		districts = regions.Seoul()
	}
	return &Reconciler{
		logg:      params.Logger,
		fetcher:   params.Fetcher,
		repo:      params.Repo,
		districts: districts,
		metrics:   params.Metrics,
	}, nil
}

// Reconcile runs one incremental load for the trade type and YYYYMM
// period. Per-district API failures are skipped and reported; a failed
// append is fatal and propagated.
func (r *Reconciler) Reconcile(ctx context.Context, tradeType enums.TradeType, period string) (*Report, error) {
	if !tradeType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid trade type %q", tradeType))
	}
	if len(period) != 6 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid period %q, want YYYYMM", period))
	}

	report := &Report{
		RunID:     uuid.New(),
		TradeType: tradeType,
		Period:    period,
	}
	ctx = r.logg.WithRunID(ctx, report.RunID.String())
	ctx = r.logg.WithPeriod(ctx, period)
	ctx = r.logg.WithTradeType(ctx, tradeType.String())
	r.logg.Info(ctx, "reconciliation starting")

	var err error
	switch tradeType {
	case enums.TradeTypeSale:
		err = r.reconcileSale(ctx, period, report)
	case enums.TradeTypeLease:
		err = r.reconcileLease(ctx, period, report)
	}
	if err != nil {
		return nil, err
	}

	r.metrics.AddFetched(tradeType.String(), report.Fetched)
	r.metrics.AddAppended(tradeType.String(), report.Appended)

	ctx = r.logg.WithFields(ctx, map[string]any{
		"fetched":   report.Fetched,
		"existing":  report.Existing,
		"appended":  report.Appended,
		"districts": len(report.Districts),
		"skipped":   report.SkippedDistricts(),
	})
	r.logg.Info(ctx, "reconciliation complete")
	return report, nil
}

func (r *Reconciler) reconcileSale(ctx context.Context, period string, report *Report) error {
	apiRows := r.fetchSaleDistricts(ctx, period, report)
	if len(apiRows) == 0 {
		r.logg.Info(ctx, "no data returned by any district; nothing to do")
		return nil
	}
	report.Fetched = len(apiRows)

	existing, err := r.repo.ListSaleDealsByMonth(ctx, period)
	if err != nil {
		if !missingRelation(err) {
			return pkgerrors.Wrap(pkgerrors.CodeStore, err, "read stored sale deals")
		}
		// A table that does not exist yet reads as an empty month.
		// Anything else is fatal: diffing against a falsely empty month
		// would duplicate every stored row on append.
		r.logg.Warn(ctx, fmt.Sprintf("raw sale table missing, treating month as empty: %v", err))
		existing = nil
	}
	report.Existing = len(existing)

	fresh := pureNewRows(apiRows, existing, saleKey)
	if len(fresh) == 0 {
		r.logg.Info(ctx, "no new rows after dedup-merge")
		return nil
	}

	if err := r.repo.AppendSaleDeals(ctx, fresh); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStore, err, "append sale deals")
	}
	report.Appended = len(fresh)
	return nil
}

func (r *Reconciler) reconcileLease(ctx context.Context, period string, report *Report) error {
	apiRows := r.fetchLeaseDistricts(ctx, period, report)
	if len(apiRows) == 0 {
		r.logg.Info(ctx, "no data returned by any district; nothing to do")
		return nil
	}
	report.Fetched = len(apiRows)

	existing, err := r.repo.ListLeaseDealsByMonth(ctx, period)
	if err != nil {
		if !missingRelation(err) {
			return pkgerrors.Wrap(pkgerrors.CodeStore, err, "read stored lease deals")
		}
		r.logg.Warn(ctx, fmt.Sprintf("raw lease table missing, treating month as empty: %v", err))
		existing = nil
	}
	report.Existing = len(existing)

	fresh := pureNewRows(apiRows, existing, leaseKey)
	if len(fresh) == 0 {
		r.logg.Info(ctx, "no new rows after dedup-merge")
		return nil
	}

	if err := r.repo.AppendLeaseDeals(ctx, fresh); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStore, err, "append lease deals")
	}
	report.Appended = len(fresh)
	return nil
}

func (r *Reconciler) fetchSaleDistricts(ctx context.Context, period string, report *Report) []models.RawSaleDeal {
	var all []models.RawSaleDeal
	for _, district := range r.districts {
		dctx := r.logg.WithDistrict(ctx, district.Code, district.Name)
		rows, err := r.fetcher.FetchSaleDeals(dctx, molit.FetchParams{
			RegionCode: district.Code,
			YearMonth:  period,
		})
		if err != nil {
			r.skipDistrict(dctx, district, err, report)
			continue
		}
		report.Districts = append(report.Districts, DistrictOutcome{
			Code: district.Code,
			Name: district.Name,
			Rows: len(rows),
		})
		for _, row := range rows {
			all = append(all, saleRowToModel(row, period, district))
		}
	}
	return all
}

func (r *Reconciler) fetchLeaseDistricts(ctx context.Context, period string, report *Report) []models.RawLeaseDeal {
	var all []models.RawLeaseDeal
	for _, district := range r.districts {
		dctx := r.logg.WithDistrict(ctx, district.Code, district.Name)
		rows, err := r.fetcher.FetchRentDeals(dctx, molit.FetchParams{
			RegionCode: district.Code,
			YearMonth:  period,
		})
		if err != nil {
			r.skipDistrict(dctx, district, err, report)
			continue
		}
		report.Districts = append(report.Districts, DistrictOutcome{
			Code: district.Code,
			Name: district.Name,
			Rows: len(rows),
		})
		for _, row := range rows {
			all = append(all, rentRowToModel(row, period, district))
		}
	}
	return all
}

// missingRelation reports whether the store error means the raw table
// has not been created yet (postgres undefined_table, sqlite "no such
// table").
func missingRelation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "does not exist") ||
		strings.Contains(msg, "SQLSTATE 42P01") ||
		strings.Contains(msg, "no such table")
}

func (r *Reconciler) skipDistrict(ctx context.Context, district regions.District, err error, report *Report) {
	r.logg.Warn(ctx, fmt.Sprintf("district fetch failed, skipping: %v", err))
	r.metrics.IncDistrictSkipped(report.TradeType.String())
	report.Districts = append(report.Districts, DistrictOutcome{
		Code:    district.Code,
		Name:    district.Name,
		Skipped: true,
		Reason:  err.Error(),
	})
	report.DistrictErrors = multierr.Append(report.DistrictErrors,
		fmt.Errorf("district %s (%s): %w", district.Name, district.Code, err))
}

func saleRowToModel(row molit.SaleRow, period string, district regions.District) models.RawSaleDeal {
	deal := models.RawSaleDeal{
		CollectedMonth:   period,
		DistrictCode:     row.DistrictCode,
		DistrictName:     district.Name,
		NeighborhoodCode: row.NeighborhoodCode,
		NeighborhoodName: row.NeighborhoodName,
		Parcel:           row.Parcel,
		ComplexName:      row.ComplexName,
		ExclusiveArea:    row.ExclusiveArea,
		DealYear:         row.DealYear,
		DealMonth:        row.DealMonth,
		DealDay:          row.DealDay,
		Floor:            row.Floor,
		BuildYear:        row.BuildYear,
		DealAmount:       row.DealAmount,
	}
	if deal.DistrictCode == "" {
		deal.DistrictCode = district.Code
	}
	return deal
}

func rentRowToModel(row molit.RentRow, period string, district regions.District) models.RawLeaseDeal {
	deal := models.RawLeaseDeal{
		CollectedMonth:   period,
		DistrictCode:     row.DistrictCode,
		DistrictName:     district.Name,
		NeighborhoodCode: row.NeighborhoodCode,
		NeighborhoodName: row.NeighborhoodName,
		Parcel:           row.Parcel,
		ComplexName:      row.ComplexName,
		ExclusiveArea:    row.ExclusiveArea,
		DealYear:         row.DealYear,
		DealMonth:        row.DealMonth,
		DealDay:          row.DealDay,
		Floor:            row.Floor,
		BuildYear:        row.BuildYear,
		Deposit:          row.Deposit,
		MonthlyRent:      row.MonthlyRent,
		ContractTerm:     row.ContractTerm,
	}
	if deal.DistrictCode == "" {
		deal.DistrictCode = district.Code
	}
	return deal
}
