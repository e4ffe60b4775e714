package models

import "time"

// SaleFeature is one cleaned sale transaction with derived pricing
// columns. The table is fully rebuilt from raw_apt_sale on every
// feature run.
type SaleFeature struct {
	ID               uint       `gorm:"column:id;primaryKey;autoIncrement"`
	DistrictCode     string     `gorm:"column:district_code;size:5;not null"`
	DistrictName     string     `gorm:"column:district_name;not null;index:idx_sale_feature_area"`
	NeighborhoodCode string     `gorm:"column:neighborhood_code"`
	NeighborhoodName string     `gorm:"column:neighborhood_name;index:idx_sale_feature_area"`
	Parcel           string     `gorm:"column:parcel"`
	ComplexName      string     `gorm:"column:complex_name"`
	ExclusiveArea    float64    `gorm:"column:exclusive_area;not null"`
	Floor            int        `gorm:"column:floor;not null"`
	BuildYear        *int       `gorm:"column:build_year"`
	DealAmount       float64    `gorm:"column:deal_amount;not null"`
	DealDate         *time.Time `gorm:"column:deal_date;type:date"`
	PricePerPyeong   float64    `gorm:"column:price_per_pyeong;not null"`
	// Mean price-per-pyeong across all cleaned sales in the same
	// (district, neighborhood) group.
	NeighborhoodAvgPricePerPyeong float64 `gorm:"column:neighborhood_avg_price_per_pyeong"`
}

func (SaleFeature) TableName() string {
	return "feature_apt_sale"
}
