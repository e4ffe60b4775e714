package gapinvest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hyunsoolee/aptpulse/pkg/db/models"
	"github.com/hyunsoolee/aptpulse/pkg/logger"
)

// Sales and lease contracts before this year are outside the analysis
// window.
const cutoffYear = 2022

// Analyzer detects gap-investment transactions: sales that closed while
// the unit was under an active jeonse contract, inferred by joining the
// two feature tables on property identity and checking that the sale
// date falls inside the contract interval.
type Analyzer struct {
	logg *logger.Logger
}

func NewAnalyzer(logg *logger.Logger) *Analyzer {
	return &Analyzer{logg: logg}
}

type interval struct {
	start time.Time
	end   time.Time
}

func (iv interval) contains(t time.Time) bool {
	return !t.Before(iv.start) && !t.After(iv.end)
}

// Analyze aggregates per (deal year, district, neighborhood) how many
// sales closed under an active jeonse contract. A sale matching several
// contracts counts once. Groups with sales but no matches appear with a
// zero gap count.
func (a *Analyzer) Analyze(ctx context.Context, sales []models.SaleFeature, jeonse []models.JeonseFeature) []models.GapInvestmentSummary {
	leasesByUnit := map[string][]interval{}
	candidates := 0
	for _, row := range jeonse {
		if row.ContractStart == nil || row.ContractEnd == nil {
			continue
		}
		if row.ContractEnd.Year() < cutoffYear {
			continue
		}
		key := unitKey(row.DistrictName, row.NeighborhoodName, row.Parcel, row.ComplexName, row.ExclusiveArea, row.Floor)
		leasesByUnit[key] = append(leasesByUnit[key], interval{start: *row.ContractStart, end: *row.ContractEnd})
		candidates++
	}

	totals := map[groupID]int{}
	gaps := map[groupID]int{}
	analyzed := 0
	for _, sale := range sales {
		if sale.DealDate == nil || sale.DealDate.Year() < cutoffYear {
			continue
		}
		analyzed++
		floor := sale.Floor
		key := unitKey(sale.DistrictName, sale.NeighborhoodName, sale.Parcel, sale.ComplexName, sale.ExclusiveArea, &floor)
		group := groupID{
			Year:         sale.DealDate.Year(),
			District:     sale.DistrictName,
			Neighborhood: sale.NeighborhoodName,
		}
		totals[group]++
		for _, iv := range leasesByUnit[key] {
			if iv.contains(*sale.DealDate) {
				gaps[group]++
				break
			}
		}
	}

	summaries := make([]models.GapInvestmentSummary, 0, len(totals))
	for group, total := range totals {
		summaries = append(summaries, models.GapInvestmentSummary{
			DealYear:         group.Year,
			DistrictName:     group.District,
			NeighborhoodName: group.Neighborhood,
			TotalSaleCount:   total,
			GapCount:         gaps[group],
			GapRatioPct:      ratioPct(gaps[group], total),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		left, right := summaries[i], summaries[j]
		if left.DealYear != right.DealYear {
			return left.DealYear < right.DealYear
		}
		if left.DistrictName != right.DistrictName {
			return left.DistrictName < right.DistrictName
		}
		return left.NeighborhoodName < right.NeighborhoodName
	})

	a.logg.Info(a.logg.WithFields(ctx, map[string]any{
		"sales_analyzed":  analyzed,
		"lease_contracts": candidates,
		"groups":          len(summaries),
	}), "gap investment summary built")
	return summaries
}

type groupID struct {
	Year         int
	District     string
	Neighborhood string
}

// unitKey identifies one physical unit across the sale and lease
// tables. Area is rounded to two decimals on both sides so float noise
// cannot break the join.
func unitKey(district, neighborhood, parcel, complexName string, area float64, floor *int) string {
	floorPart := ""
	if floor != nil {
		floorPart = fmt.Sprintf("%d", *floor)
	}
	return fmt.Sprintf("%s\x1f%s\x1f%s\x1f%s\x1f%s\x1f%s",
		district, neighborhood, parcel, complexName,
		decimal.NewFromFloat(area).Round(2).String(), floorPart)
}

func ratioPct(gap, total int) float64 {
	if total == 0 {
		return 0
	}
	return decimal.NewFromInt(int64(gap * 100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(2).InexactFloat64()
}
