package gapinvest

import (
	"context"
	"testing"
	"time"

	"github.com/hyunsoolee/aptpulse/pkg/db/models"
	"github.com/hyunsoolee/aptpulse/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test"})
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func sale(neighborhood string, area float64, floor int, dealDate *time.Time) models.SaleFeature {
	return models.SaleFeature{
		DistrictName:     "강남구",
		NeighborhoodName: neighborhood,
		Parcel:           "316",
		ComplexName:      "은마",
		ExclusiveArea:    area,
		Floor:            floor,
		DealAmount:       50000,
		DealDate:         dealDate,
		PricePerPyeong:   1956.8,
	}
}

func lease(neighborhood string, area float64, floor int, start, end *time.Time) models.JeonseFeature {
	return models.JeonseFeature{
		DistrictName:     "강남구",
		NeighborhoodName: neighborhood,
		Parcel:           "316",
		ComplexName:      "은마",
		ExclusiveArea:    area,
		Floor:            &floor,
		Deposit:          30000,
		ContractStart:    start,
		ContractEnd:      end,
	}
}

func TestAnalyzeFlagsSaleInsideContract(t *testing.T) {
	analyzer := NewAnalyzer(testLogger())

	summaries := analyzer.Analyze(context.Background(),
		[]models.SaleFeature{sale("대치동", 84.43, 7, date(2023, 6, 15))},
		[]models.JeonseFeature{lease("대치동", 84.43, 7, date(2023, 1, 1), date(2024, 1, 1))},
	)
	if len(summaries) != 1 {
		t.Fatalf("expected 1 group, got %d", len(summaries))
	}
	s := summaries[0]
	if s.GapCount != 1 || s.TotalSaleCount != 1 {
		t.Fatalf("expected gap=1 total=1, got %+v", s)
	}
	if s.GapRatioPct != 100 {
		t.Fatalf("ratio = %v, want 100", s.GapRatioPct)
	}
}

func TestAnalyzeSaleOutsideContractNotFlagged(t *testing.T) {
	analyzer := NewAnalyzer(testLogger())

	summaries := analyzer.Analyze(context.Background(),
		[]models.SaleFeature{sale("대치동", 84.43, 7, date(2024, 6, 15))},
		[]models.JeonseFeature{lease("대치동", 84.43, 7, date(2023, 1, 1), date(2024, 1, 1))},
	)
	if len(summaries) != 1 {
		t.Fatalf("expected 1 group, got %d", len(summaries))
	}
	if summaries[0].GapCount != 0 {
		t.Fatalf("sale after contract end must not be flagged, got %+v", summaries[0])
	}
	if summaries[0].GapRatioPct != 0 {
		t.Fatalf("ratio = %v, want 0", summaries[0].GapRatioPct)
	}
}

func TestAnalyzeIntervalBoundsAreInclusive(t *testing.T) {
	analyzer := NewAnalyzer(testLogger())

	for _, d := range []*time.Time{date(2023, 1, 1), date(2024, 1, 1)} {
		summaries := analyzer.Analyze(context.Background(),
			[]models.SaleFeature{sale("대치동", 84.43, 7, d)},
			[]models.JeonseFeature{lease("대치동", 84.43, 7, date(2023, 1, 1), date(2024, 1, 1))},
		)
		if summaries[0].GapCount != 1 {
			t.Fatalf("boundary date %v must count as inside the contract", d)
		}
	}
}

func TestAnalyzeDedupsMultipleMatches(t *testing.T) {
	analyzer := NewAnalyzer(testLogger())

	// The unit was re-leased three times over the sale date.
	leases := []models.JeonseFeature{
		lease("대치동", 84.43, 7, date(2022, 6, 1), date(2024, 6, 1)),
		lease("대치동", 84.43, 7, date(2023, 1, 1), date(2025, 1, 1)),
		lease("대치동", 84.43, 7, date(2023, 5, 1), date(2025, 5, 1)),
	}
	summaries := analyzer.Analyze(context.Background(),
		[]models.SaleFeature{sale("대치동", 84.43, 7, date(2023, 6, 15))},
		leases,
	)
	if summaries[0].GapCount != 1 {
		t.Fatalf("a sale matching 3 contracts must count once, got %d", summaries[0].GapCount)
	}
}

func TestAnalyzeAreaRoundingAlignsJoin(t *testing.T) {
	analyzer := NewAnalyzer(testLogger())

	summaries := analyzer.Analyze(context.Background(),
		[]models.SaleFeature{sale("대치동", 84.4300001, 7, date(2023, 6, 15))},
		[]models.JeonseFeature{lease("대치동", 84.43, 7, date(2023, 1, 1), date(2024, 1, 1))},
	)
	if summaries[0].GapCount != 1 {
		t.Fatalf("areas equal after 2-decimal rounding must join, got %+v", summaries[0])
	}
}

func TestAnalyzeCutoffFilters(t *testing.T) {
	analyzer := NewAnalyzer(testLogger())

	sales := []models.SaleFeature{
		sale("대치동", 84.43, 7, date(2021, 6, 15)), // before window
		sale("대치동", 84.43, 7, nil),              // no date
		sale("대치동", 84.43, 7, date(2023, 6, 15)),
	}
	leases := []models.JeonseFeature{
		lease("대치동", 84.43, 7, date(2019, 1, 1), date(2021, 1, 1)), // ended before window
		lease("대치동", 84.43, 7, nil, date(2024, 1, 1)),             // missing start
		lease("대치동", 84.43, 7, date(2023, 1, 1), date(2024, 1, 1)),
	}
	summaries := analyzer.Analyze(context.Background(), sales, leases)
	if len(summaries) != 1 {
		t.Fatalf("pre-window and dateless sales must be excluded, got %d groups", len(summaries))
	}
	if summaries[0].TotalSaleCount != 1 || summaries[0].GapCount != 1 {
		t.Fatalf("expected total=1 gap=1, got %+v", summaries[0])
	}
}

func TestAnalyzeRatioBounds(t *testing.T) {
	analyzer := NewAnalyzer(testLogger())

	sales := []models.SaleFeature{
		sale("대치동", 84.43, 7, date(2023, 6, 15)),
		sale("대치동", 59.9, 3, date(2023, 7, 1)),
		sale("대치동", 114.2, 11, date(2023, 8, 1)),
		sale("역삼동", 84.43, 5, date(2023, 6, 15)),
	}
	leases := []models.JeonseFeature{
		lease("대치동", 84.43, 7, date(2023, 1, 1), date(2024, 1, 1)),
	}
	summaries := analyzer.Analyze(context.Background(), sales, leases)
	for _, s := range summaries {
		if s.GapRatioPct < 0 || s.GapRatioPct > 100 {
			t.Fatalf("ratio out of bounds: %+v", s)
		}
		if s.TotalSaleCount == 0 && s.GapRatioPct != 0 {
			t.Fatalf("empty group must have zero ratio: %+v", s)
		}
	}
	// 대치동 2023: 1 gap out of 3 sales.
	for _, s := range summaries {
		if s.NeighborhoodName == "대치동" && s.GapRatioPct != 33.33 {
			t.Fatalf("ratio = %v, want 33.33", s.GapRatioPct)
		}
	}
}

func TestAnalyzeZeroGapGroupsPresent(t *testing.T) {
	analyzer := NewAnalyzer(testLogger())

	summaries := analyzer.Analyze(context.Background(),
		[]models.SaleFeature{sale("역삼동", 59.9, 2, date(2023, 3, 1))},
		nil,
	)
	if len(summaries) != 1 {
		t.Fatal("groups without any lease match must still appear")
	}
	if summaries[0].GapCount != 0 || summaries[0].TotalSaleCount != 1 {
		t.Fatalf("expected gap=0 total=1, got %+v", summaries[0])
	}
}
