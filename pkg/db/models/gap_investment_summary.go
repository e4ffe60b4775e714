package models

// GapInvestmentSummary aggregates, per (deal year, district,
// neighborhood), how many sales closed while the unit was under an
// active jeonse contract. GapRatioPct is 0 when TotalSaleCount is 0,
// otherwise 100 * GapCount / TotalSaleCount rounded to two decimals.
type GapInvestmentSummary struct {
	ID               uint    `gorm:"column:id;primaryKey;autoIncrement"`
	DealYear         int     `gorm:"column:deal_year;not null;index:idx_gap_summary_group"`
	DistrictName     string  `gorm:"column:district_name;not null;index:idx_gap_summary_group"`
	NeighborhoodName string  `gorm:"column:neighborhood_name;not null;index:idx_gap_summary_group"`
	TotalSaleCount   int     `gorm:"column:total_sale_count;not null"`
	GapCount         int     `gorm:"column:gap_count;not null"`
	GapRatioPct      float64 `gorm:"column:gap_ratio_pct;not null"`
}

func (GapInvestmentSummary) TableName() string {
	return "analytics_gap_investment"
}
