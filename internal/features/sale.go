package features

import (
	"context"
	"fmt"

	"github.com/hyunsoolee/aptpulse/internal/regions"
	"github.com/hyunsoolee/aptpulse/pkg/db/models"
	"github.com/hyunsoolee/aptpulse/pkg/logger"
)

// BuildStats counts what a feature build did with its input rows.
type BuildStats struct {
	Input   int
	Dropped int
	Output  int
}

// SaleBuilder turns raw sale rows into cleaned feature rows with
// derived pricing columns.
type SaleBuilder struct {
	logg *logger.Logger
}

func NewSaleBuilder(logg *logger.Logger) *SaleBuilder {
	return &SaleBuilder{logg: logg}
}

// Build cleans and enriches raw sale rows. Rows with a missing deal
// amount or area, a non-positive floor, or an unresolvable district are
// dropped; everything else survives, including rows whose deal date
// could not be assembled.
func (b *SaleBuilder) Build(ctx context.Context, raws []models.RawSaleDeal) ([]models.SaleFeature, BuildStats) {
	stats := BuildStats{Input: len(raws)}
	out := make([]models.SaleFeature, 0, len(raws))

	for _, raw := range raws {
		feature, ok := b.cleanSaleRow(raw)
		if !ok {
			stats.Dropped++
			continue
		}
		out = append(out, feature)
	}

	broadcastSaleMeans(out)

	stats.Output = len(out)
	b.logg.Info(b.logg.WithFields(ctx, map[string]any{
		"input":   stats.Input,
		"dropped": stats.Dropped,
		"output":  stats.Output,
	}), "sale features built")
	return out, stats
}

func (b *SaleBuilder) cleanSaleRow(raw models.RawSaleDeal) (models.SaleFeature, bool) {
	amount := parseAmount(raw.DealAmount)
	area := parseFloat(raw.ExclusiveArea)
	if amount == nil || area == nil {
		return models.SaleFeature{}, false
	}
	floor := parseInt(raw.Floor)
	if floor == nil || *floor <= 0 {
		return models.SaleFeature{}, false
	}
	name := raw.DistrictName
	if name == "" {
		resolved, ok := regions.NameByCode(raw.DistrictCode)
		if !ok {
			return models.SaleFeature{}, false
		}
		name = resolved
	}
	ppp, ok := pricePerPyeong(*amount, *area)
	if !ok {
		return models.SaleFeature{}, false
	}

	return models.SaleFeature{
		DistrictCode:     raw.DistrictCode,
		DistrictName:     name,
		NeighborhoodCode: raw.NeighborhoodCode,
		NeighborhoodName: raw.NeighborhoodName,
		Parcel:           raw.Parcel,
		ComplexName:      raw.ComplexName,
		ExclusiveArea:    *area,
		Floor:            *floor,
		BuildYear:        parseInt(raw.BuildYear),
		DealAmount:       *amount,
		DealDate:         dealDate(raw.DealYear, raw.DealMonth, raw.DealDay),
		PricePerPyeong:   round2(ppp),
	}, true
}

// broadcastSaleMeans writes the (district, neighborhood) mean
// price-per-pyeong back onto every row of the group.
func broadcastSaleMeans(rows []models.SaleFeature) {
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, row := range rows {
		key := groupKey(row.DistrictName, row.NeighborhoodName)
		sums[key] += row.PricePerPyeong
		counts[key]++
	}
	for i := range rows {
		key := groupKey(rows[i].DistrictName, rows[i].NeighborhoodName)
		rows[i].NeighborhoodAvgPricePerPyeong = round2(sums[key] / float64(counts[key]))
	}
}

func groupKey(district, neighborhood string) string {
	return fmt.Sprintf("%s\x1f%s", district, neighborhood)
}
