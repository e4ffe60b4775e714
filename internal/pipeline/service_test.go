package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hyunsoolee/aptpulse/internal/features"
	"github.com/hyunsoolee/aptpulse/internal/gapinvest"
	"github.com/hyunsoolee/aptpulse/internal/ingest"
	"github.com/hyunsoolee/aptpulse/pkg/db/models"
	"github.com/hyunsoolee/aptpulse/pkg/enums"
	"github.com/hyunsoolee/aptpulse/pkg/logger"
)

type fakeReconciler struct {
	report *ingest.Report
	err    error
	calls  []string
}

func (f *fakeReconciler) Reconcile(_ context.Context, tradeType enums.TradeType, period string) (*ingest.Report, error) {
	f.calls = append(f.calls, tradeType.String()+":"+period)
	return f.report, f.err
}

type fakeFeatureRepo struct {
	rawSales       []models.RawSaleDeal
	rawLeases      []models.RawLeaseDeal
	listErr        error
	featureListErr error
	writeErr       error

	sale    []models.SaleFeature
	jeonse  []models.JeonseFeature
	monthly []models.MonthlyRentFeature
}

func (f *fakeFeatureRepo) ListRawSaleDeals(context.Context) ([]models.RawSaleDeal, error) {
	return f.rawSales, f.listErr
}

func (f *fakeFeatureRepo) ListRawLeaseDeals(context.Context) ([]models.RawLeaseDeal, error) {
	return f.rawLeases, f.listErr
}

func (f *fakeFeatureRepo) ReplaceSaleFeatures(_ context.Context, rows []models.SaleFeature) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.sale = rows
	return nil
}

func (f *fakeFeatureRepo) ReplaceJeonseFeatures(_ context.Context, rows []models.JeonseFeature) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.jeonse = rows
	return nil
}

func (f *fakeFeatureRepo) ReplaceMonthlyRentFeatures(_ context.Context, rows []models.MonthlyRentFeature) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.monthly = rows
	return nil
}

func (f *fakeFeatureRepo) ListSaleFeatures(context.Context) ([]models.SaleFeature, error) {
	return f.sale, f.featureListErr
}

func (f *fakeFeatureRepo) ListJeonseFeatures(context.Context) ([]models.JeonseFeature, error) {
	return f.jeonse, f.featureListErr
}

type fakeGapRepo struct {
	summaries []models.GapInvestmentSummary
	writeErr  error
}

func (f *fakeGapRepo) ReplaceSummaries(_ context.Context, rows []models.GapInvestmentSummary) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.summaries = rows
	return nil
}

func (f *fakeGapRepo) ListSummaries(context.Context) ([]models.GapInvestmentSummary, error) {
	return f.summaries, nil
}

func newTestService(t *testing.T, rec Reconciler, featureRepo features.Repository, gapRepo gapinvest.Repository) *Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test"})
	svc, err := NewService(ServiceParams{
		Logger:       logg,
		Reconciler:   rec,
		SaleBuilder:  features.NewSaleBuilder(logg),
		LeaseBuilder: features.NewLeaseBuilder(logg),
		Analyzer:     gapinvest.NewAnalyzer(logg),
		FeatureRepo:  featureRepo,
		GapRepo:      gapRepo,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestRunIngestionDelegates(t *testing.T) {
	rec := &fakeReconciler{report: &ingest.Report{Appended: 5}}
	svc := newTestService(t, rec, &fakeFeatureRepo{}, &fakeGapRepo{})

	report, err := svc.RunIngestion(context.Background(), enums.TradeTypeSale, "202305")
	if err != nil {
		t.Fatalf("RunIngestion: %v", err)
	}
	if report.Appended != 5 {
		t.Fatalf("report not passed through, got %+v", report)
	}
	if len(rec.calls) != 1 || rec.calls[0] != "sale:202305" {
		t.Fatalf("unexpected reconciler calls %v", rec.calls)
	}
}

func TestRunFeatureBuildEndToEnd(t *testing.T) {
	featureRepo := &fakeFeatureRepo{
		rawSales: []models.RawSaleDeal{{
			DistrictCode: "11680", DistrictName: "강남구", NeighborhoodName: "대치동",
			Parcel: "316", ComplexName: "은마", ExclusiveArea: "84.43",
			DealYear: "2023", DealMonth: "6", DealDay: "15",
			Floor: "7", BuildYear: "1979", DealAmount: "50,000",
		}},
		rawLeases: []models.RawLeaseDeal{{
			DistrictCode: "11680", DistrictName: "강남구", NeighborhoodName: "대치동",
			Parcel: "316", ComplexName: "은마", ExclusiveArea: "84.43",
			DealYear: "2023", DealMonth: "1", DealDay: "5",
			Floor: "7", BuildYear: "1979",
			Deposit: "30,000", MonthlyRent: "0", ContractTerm: "23.01~25.01",
		}},
	}
	gapRepo := &fakeGapRepo{}
	svc := newTestService(t, &fakeReconciler{}, featureRepo, gapRepo)

	if err := svc.RunFeatureBuild(context.Background()); err != nil {
		t.Fatalf("RunFeatureBuild: %v", err)
	}
	if len(featureRepo.sale) != 1 || len(featureRepo.jeonse) != 1 || len(featureRepo.monthly) != 0 {
		t.Fatalf("unexpected feature outputs: %d sale, %d jeonse, %d monthly",
			len(featureRepo.sale), len(featureRepo.jeonse), len(featureRepo.monthly))
	}
	if len(gapRepo.summaries) != 1 {
		t.Fatalf("expected 1 gap summary group, got %d", len(gapRepo.summaries))
	}
	if gapRepo.summaries[0].GapCount != 1 {
		t.Fatalf("sale inside the contract interval must be flagged, got %+v", gapRepo.summaries[0])
	}
}

func TestRunGapRebuildReadsStoredFeatures(t *testing.T) {
	dealDate := time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC)
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	floor := 7
	featureRepo := &fakeFeatureRepo{
		sale: []models.SaleFeature{{
			DistrictName: "강남구", NeighborhoodName: "대치동", Parcel: "316",
			ComplexName: "은마", ExclusiveArea: 84.43, Floor: 7,
			DealAmount: 50000, DealDate: &dealDate, PricePerPyeong: 1958.07,
		}},
		jeonse: []models.JeonseFeature{{
			DistrictName: "강남구", NeighborhoodName: "대치동", Parcel: "316",
			ComplexName: "은마", ExclusiveArea: 84.43, Floor: &floor,
			Deposit: 30000, RentType: enums.RentTypeJeonse,
			ContractStart: &start, ContractEnd: &end,
		}},
	}
	gapRepo := &fakeGapRepo{}
	svc := newTestService(t, &fakeReconciler{}, featureRepo, gapRepo)

	if err := svc.RunGapRebuild(context.Background()); err != nil {
		t.Fatalf("RunGapRebuild: %v", err)
	}
	if len(gapRepo.summaries) != 1 {
		t.Fatalf("expected 1 gap summary group, got %d", len(gapRepo.summaries))
	}
	if gapRepo.summaries[0].GapCount != 1 {
		t.Fatalf("stored features must feed the analyzer, got %+v", gapRepo.summaries[0])
	}
}

func TestRunGapRebuildReadFailureIsFatal(t *testing.T) {
	featureRepo := &fakeFeatureRepo{featureListErr: errors.New("connection refused")}
	svc := newTestService(t, &fakeReconciler{}, featureRepo, &fakeGapRepo{})

	if err := svc.RunGapRebuild(context.Background()); err == nil {
		t.Fatal("feature read failure must abort the rebuild")
	}
}

func TestRunFeatureBuildReadFailureIsFatal(t *testing.T) {
	featureRepo := &fakeFeatureRepo{listErr: errors.New("connection refused")}
	svc := newTestService(t, &fakeReconciler{}, featureRepo, &fakeGapRepo{})

	if err := svc.RunFeatureBuild(context.Background()); err == nil {
		t.Fatal("store read failure must abort the run")
	}
}

func TestRunFeatureBuildWriteFailureIsFatal(t *testing.T) {
	featureRepo := &fakeFeatureRepo{writeErr: errors.New("disk full")}
	svc := newTestService(t, &fakeReconciler{}, featureRepo, &fakeGapRepo{})

	if err := svc.RunFeatureBuild(context.Background()); err == nil {
		t.Fatal("store write failure must abort the run")
	}
}
