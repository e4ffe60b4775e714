package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/hyunsoolee/aptpulse/internal/regions"
	"github.com/hyunsoolee/aptpulse/pkg/db/models"
	"github.com/hyunsoolee/aptpulse/pkg/enums"
	"github.com/hyunsoolee/aptpulse/pkg/logger"
	"github.com/hyunsoolee/aptpulse/pkg/molit"
)

type fakeFetcher struct {
	saleByDistrict map[string][]molit.SaleRow
	rentByDistrict map[string][]molit.RentRow
	failDistricts  map[string]error
	calls          int
}

func (f *fakeFetcher) FetchSaleDeals(_ context.Context, params molit.FetchParams) ([]molit.SaleRow, error) {
	f.calls++
	if err, ok := f.failDistricts[params.RegionCode]; ok {
		return nil, err
	}
	return f.saleByDistrict[params.RegionCode], nil
}

func (f *fakeFetcher) FetchRentDeals(_ context.Context, params molit.FetchParams) ([]molit.RentRow, error) {
	f.calls++
	if err, ok := f.failDistricts[params.RegionCode]; ok {
		return nil, err
	}
	return f.rentByDistrict[params.RegionCode], nil
}

type fakeRepo struct {
	sale      []models.RawSaleDeal
	lease     []models.RawLeaseDeal
	listErr   error
	appendErr error
}

func (f *fakeRepo) ListSaleDealsByMonth(_ context.Context, month string) ([]models.RawSaleDeal, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.RawSaleDeal
	for _, row := range f.sale {
		if row.CollectedMonth == month {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeRepo) AppendSaleDeals(_ context.Context, rows []models.RawSaleDeal) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.sale = append(f.sale, rows...)
	return nil
}

func (f *fakeRepo) ListLeaseDealsByMonth(_ context.Context, month string) ([]models.RawLeaseDeal, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.RawLeaseDeal
	for _, row := range f.lease {
		if row.CollectedMonth == month {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeRepo) AppendLeaseDeals(_ context.Context, rows []models.RawLeaseDeal) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.lease = append(f.lease, rows...)
	return nil
}

var testDistricts = []regions.District{
	{Code: "11680", Name: "강남구"},
	{Code: "11650", Name: "서초구"},
}

func apiSaleRow(district, parcel string) molit.SaleRow {
	return molit.SaleRow{
		DistrictCode:     district,
		NeighborhoodName: "대치동",
		Parcel:           parcel,
		ComplexName:      "은마",
		ExclusiveArea:    "84.43",
		DealYear:         "2023",
		DealMonth:        "5",
		DealDay:          "10",
		Floor:            "7",
		BuildYear:        "1979",
		DealAmount:       "50,000",
	}
}

func newTestReconciler(t *testing.T, fetcher *fakeFetcher, repo *fakeRepo) *Reconciler {
	t.Helper()
	rec, err := NewReconciler(ReconcilerParams{
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
		Fetcher:   fetcher,
		Repo:      repo,
		Districts: testDistricts,
	})
	if err != nil {
		t.Fatalf("NewReconciler: %v", err)
	}
	return rec
}

func TestReconcileAppendsFreshRows(t *testing.T) {
	fetcher := &fakeFetcher{saleByDistrict: map[string][]molit.SaleRow{
		"11680": {apiSaleRow("11680", "1"), apiSaleRow("11680", "2")},
	}}
	repo := &fakeRepo{}
	rec := newTestReconciler(t, fetcher, repo)

	report, err := rec.Reconcile(context.Background(), enums.TradeTypeSale, "202305")
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if report.Appended != 2 || len(repo.sale) != 2 {
		t.Fatalf("expected 2 appended rows, got report=%d stored=%d", report.Appended, len(repo.sale))
	}
	if repo.sale[0].CollectedMonth != "202305" {
		t.Fatalf("rows must be tagged with the collection month, got %q", repo.sale[0].CollectedMonth)
	}
	if repo.sale[0].DistrictName != "강남구" {
		t.Fatalf("rows must be tagged with the district name, got %q", repo.sale[0].DistrictName)
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	fetcher := &fakeFetcher{saleByDistrict: map[string][]molit.SaleRow{
		"11680": {apiSaleRow("11680", "1"), apiSaleRow("11680", "2")},
	}}
	repo := &fakeRepo{}
	rec := newTestReconciler(t, fetcher, repo)

	first, err := rec.Reconcile(context.Background(), enums.TradeTypeSale, "202305")
	if err != nil {
		t.Fatalf("first Reconcile: %v", err)
	}
	if first.Appended != 2 {
		t.Fatalf("first run should append 2, got %d", first.Appended)
	}

	second, err := rec.Reconcile(context.Background(), enums.TradeTypeSale, "202305")
	if err != nil {
		t.Fatalf("second Reconcile: %v", err)
	}
	if second.Appended != 0 {
		t.Fatalf("second run should append nothing, got %d", second.Appended)
	}
	if len(repo.sale) != 2 {
		t.Fatalf("store should still hold 2 rows, got %d", len(repo.sale))
	}
}

func TestReconcileSkipsFailedDistricts(t *testing.T) {
	fetcher := &fakeFetcher{
		saleByDistrict: map[string][]molit.SaleRow{
			"11650": {apiSaleRow("11650", "1")},
		},
		failDistricts: map[string]error{"11680": errors.New("timeout")},
	}
	repo := &fakeRepo{}
	rec := newTestReconciler(t, fetcher, repo)

	report, err := rec.Reconcile(context.Background(), enums.TradeTypeSale, "202305")
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if report.SkippedDistricts() != 1 {
		t.Fatalf("expected 1 skipped district, got %d", report.SkippedDistricts())
	}
	if report.Appended != 1 {
		t.Fatalf("surviving districts should still be appended, got %d", report.Appended)
	}
	if report.DistrictErrors == nil {
		t.Fatal("expected aggregated district errors")
	}
}

func TestReconcileNoDataIsSuccessfulNoop(t *testing.T) {
	fetcher := &fakeFetcher{}
	repo := &fakeRepo{}
	rec := newTestReconciler(t, fetcher, repo)

	report, err := rec.Reconcile(context.Background(), enums.TradeTypeSale, "202305")
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if report.Fetched != 0 || report.Appended != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}
}

func TestReconcileAppendFailureIsFatal(t *testing.T) {
	fetcher := &fakeFetcher{saleByDistrict: map[string][]molit.SaleRow{
		"11680": {apiSaleRow("11680", "1")},
	}}
	repo := &fakeRepo{appendErr: errors.New("connection reset")}
	rec := newTestReconciler(t, fetcher, repo)

	if _, err := rec.Reconcile(context.Background(), enums.TradeTypeSale, "202305"); err == nil {
		t.Fatal("append failure must propagate")
	}
}

func TestReconcileMissingTableReadsAsEmpty(t *testing.T) {
	fetcher := &fakeFetcher{saleByDistrict: map[string][]molit.SaleRow{
		"11680": {apiSaleRow("11680", "1")},
	}}
	repo := &fakeRepo{listErr: errors.New(`relation "raw_apt_sale" does not exist (SQLSTATE 42P01)`)}
	rec := newTestReconciler(t, fetcher, repo)

	report, err := rec.Reconcile(context.Background(), enums.TradeTypeSale, "202305")
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if report.Appended != 1 {
		t.Fatalf("missing table should read as empty, got appended=%d", report.Appended)
	}
}

func TestReconcileReadConnectivityFailureIsFatal(t *testing.T) {
	fetcher := &fakeFetcher{saleByDistrict: map[string][]molit.SaleRow{
		"11680": {apiSaleRow("11680", "1")},
	}}
	repo := &fakeRepo{listErr: errors.New("connection refused")}
	rec := newTestReconciler(t, fetcher, repo)

	// Treating a failed read as an empty month would re-append every
	// stored row, so only a missing table is tolerated.
	if _, err := rec.Reconcile(context.Background(), enums.TradeTypeSale, "202305"); err == nil {
		t.Fatal("transient read failure must propagate")
	}
	if len(repo.sale) != 0 {
		t.Fatalf("nothing may be appended after a failed read, got %d rows", len(repo.sale))
	}
}

func TestReconcileLeaseFlow(t *testing.T) {
	fetcher := &fakeFetcher{rentByDistrict: map[string][]molit.RentRow{
		"11680": {{
			DistrictCode:     "11680",
			NeighborhoodName: "대치동",
			Parcel:           "316",
			ComplexName:      "은마",
			ExclusiveArea:    "84.43",
			DealYear:         "2023",
			DealMonth:        "1",
			DealDay:          "5",
			Floor:            "7",
			BuildYear:        "1979",
			Deposit:          "30,000",
			MonthlyRent:      "0",
			ContractTerm:     "23.01~25.01",
		}},
	}}
	repo := &fakeRepo{}
	rec := newTestReconciler(t, fetcher, repo)

	report, err := rec.Reconcile(context.Background(), enums.TradeTypeLease, "202301")
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if report.Appended != 1 || len(repo.lease) != 1 {
		t.Fatalf("expected 1 lease row appended, got %d", report.Appended)
	}
	if repo.lease[0].ContractTerm != "23.01~25.01" {
		t.Fatalf("contract term must be preserved verbatim, got %q", repo.lease[0].ContractTerm)
	}
}

func TestReconcileRejectsBadInput(t *testing.T) {
	rec := newTestReconciler(t, &fakeFetcher{}, &fakeRepo{})

	if _, err := rec.Reconcile(context.Background(), enums.TradeType("rent"), "202305"); err == nil {
		t.Fatal("invalid trade type must be rejected")
	}
	if _, err := rec.Reconcile(context.Background(), enums.TradeTypeSale, "2023"); err == nil {
		t.Fatal("invalid period must be rejected")
	}
}
