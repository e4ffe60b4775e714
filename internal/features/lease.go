package features

import (
	"context"

	"github.com/hyunsoolee/aptpulse/internal/regions"
	"github.com/hyunsoolee/aptpulse/pkg/db/models"
	"github.com/hyunsoolee/aptpulse/pkg/enums"
	"github.com/hyunsoolee/aptpulse/pkg/logger"
)

// LeaseBuilder turns raw lease rows into cleaned jeonse and
// monthly-rent feature rows. A missing or zero monthly rent marks the
// contract as jeonse.
type LeaseBuilder struct {
	logg *logger.Logger
}

func NewLeaseBuilder(logg *logger.Logger) *LeaseBuilder {
	return &LeaseBuilder{logg: logg}
}

// Build cleans raw lease rows and splits them by rent classification.
// Rows with a missing deposit or area, or an unresolvable district, are
// dropped. Monthly rent is never a drop condition.
func (b *LeaseBuilder) Build(ctx context.Context, raws []models.RawLeaseDeal) ([]models.JeonseFeature, []models.MonthlyRentFeature, BuildStats) {
	stats := BuildStats{Input: len(raws)}
	var jeonse []models.JeonseFeature
	var monthly []models.MonthlyRentFeature

	for _, raw := range raws {
		deposit := parseAmount(raw.Deposit)
		area := parseFloat(raw.ExclusiveArea)
		if deposit == nil || area == nil {
			stats.Dropped++
			continue
		}
		name := raw.DistrictName
		if name == "" {
			resolved, ok := regions.NameByCode(raw.DistrictCode)
			if !ok {
				stats.Dropped++
				continue
			}
			name = resolved
		}

		rent := parseAmount(raw.MonthlyRent)
		start, end := parseContractTerm(raw.ContractTerm)
		date := dealDate(raw.DealYear, raw.DealMonth, raw.DealDay)

		if rent == nil || *rent == 0 {
			jeonse = append(jeonse, models.JeonseFeature{
				DistrictCode:     raw.DistrictCode,
				DistrictName:     name,
				NeighborhoodName: raw.NeighborhoodName,
				Parcel:           raw.Parcel,
				ComplexName:      raw.ComplexName,
				ExclusiveArea:    *area,
				Floor:            parseInt(raw.Floor),
				BuildYear:        parseInt(raw.BuildYear),
				Deposit:          *deposit,
				RentType:         enums.RentTypeJeonse,
				DealDate:         date,
				ContractStart:    start,
				ContractEnd:      end,
			})
			continue
		}
		monthly = append(monthly, models.MonthlyRentFeature{
			DistrictCode:     raw.DistrictCode,
			DistrictName:     name,
			NeighborhoodName: raw.NeighborhoodName,
			Parcel:           raw.Parcel,
			ComplexName:      raw.ComplexName,
			ExclusiveArea:    *area,
			Floor:            parseInt(raw.Floor),
			BuildYear:        parseInt(raw.BuildYear),
			Deposit:          *deposit,
			MonthlyRent:      *rent,
			RentType:         enums.RentTypeMonthlyRent,
			DealDate:         date,
			ContractStart:    start,
			ContractEnd:      end,
		})
	}

	broadcastJeonseMeans(jeonse)
	broadcastMonthlyRentMeans(monthly)

	stats.Output = len(jeonse) + len(monthly)
	b.logg.Info(b.logg.WithFields(ctx, map[string]any{
		"input":        stats.Input,
		"dropped":      stats.Dropped,
		"jeonse":       len(jeonse),
		"monthly_rent": len(monthly),
	}), "lease features built")
	return jeonse, monthly, stats
}

type meanAcc struct {
	sum float64
	n   int
}

func (a *meanAcc) add(v float64) {
	a.sum += v
	a.n++
}

func (a meanAcc) mean() *float64 {
	if a.n == 0 {
		return nil
	}
	m := round2(a.sum / float64(a.n))
	return &m
}

// broadcastJeonseMeans computes deposit-per-pyeong means over jeonse
// contracts with positive deposit and area, at district and
// (district, neighborhood) granularity, and writes them back onto every
// row of the matching group.
func broadcastJeonseMeans(rows []models.JeonseFeature) {
	byDistrict := map[string]*meanAcc{}
	byNeighborhood := map[string]*meanAcc{}
	for _, row := range rows {
		if row.Deposit <= 0 {
			continue
		}
		ppp, ok := pricePerPyeong(row.Deposit, row.ExclusiveArea)
		if !ok {
			continue
		}
		accumulate(byDistrict, row.DistrictName, ppp)
		accumulate(byNeighborhood, groupKey(row.DistrictName, row.NeighborhoodName), ppp)
	}
	for i := range rows {
		rows[i].DistrictAvgPricePerPyeong = lookupMean(byDistrict, rows[i].DistrictName)
		rows[i].NeighborhoodAvgPricePerPyeong = lookupMean(byNeighborhood, groupKey(rows[i].DistrictName, rows[i].NeighborhoodName))
	}
}

func broadcastMonthlyRentMeans(rows []models.MonthlyRentFeature) {
	dppByDistrict := map[string]*meanAcc{}
	dppByNeighborhood := map[string]*meanAcc{}
	rentByDistrict := map[string]*meanAcc{}
	rentByNeighborhood := map[string]*meanAcc{}
	for _, row := range rows {
		nKey := groupKey(row.DistrictName, row.NeighborhoodName)
		accumulate(rentByDistrict, row.DistrictName, row.MonthlyRent)
		accumulate(rentByNeighborhood, nKey, row.MonthlyRent)
		if dpp, ok := pricePerPyeong(row.Deposit, row.ExclusiveArea); ok {
			accumulate(dppByDistrict, row.DistrictName, dpp)
			accumulate(dppByNeighborhood, nKey, dpp)
		}
	}
	for i := range rows {
		nKey := groupKey(rows[i].DistrictName, rows[i].NeighborhoodName)
		rows[i].DistrictAvgDepositPerPyeong = lookupMean(dppByDistrict, rows[i].DistrictName)
		rows[i].NeighborhoodAvgDepositPerPyeong = lookupMean(dppByNeighborhood, nKey)
		rows[i].DistrictAvgMonthlyRent = lookupMean(rentByDistrict, rows[i].DistrictName)
		rows[i].NeighborhoodAvgMonthlyRent = lookupMean(rentByNeighborhood, nKey)
	}
}

func accumulate(accs map[string]*meanAcc, key string, v float64) {
	acc, ok := accs[key]
	if !ok {
		acc = &meanAcc{}
		accs[key] = acc
	}
	acc.add(v)
}

func lookupMean(accs map[string]*meanAcc, key string) *float64 {
	acc, ok := accs[key]
	if !ok {
		return nil
	}
	return acc.mean()
}
