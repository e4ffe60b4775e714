package models

import (
	"time"

	"github.com/hyunsoolee/aptpulse/pkg/enums"
)

// JeonseFeature is one cleaned deposit-only lease contract. Contract
// start/end stay nullable: unparseable term strings survive cleaning and
// are excluded later by the gap analyzer's own date filter.
type JeonseFeature struct {
	ID               uint           `gorm:"column:id;primaryKey;autoIncrement"`
	DistrictCode     string         `gorm:"column:district_code;size:5;not null"`
	DistrictName     string         `gorm:"column:district_name;not null"`
	NeighborhoodName string         `gorm:"column:neighborhood_name"`
	Parcel           string         `gorm:"column:parcel"`
	ComplexName      string         `gorm:"column:complex_name"`
	ExclusiveArea    float64        `gorm:"column:exclusive_area;not null"`
	Floor            *int           `gorm:"column:floor"`
	BuildYear        *int           `gorm:"column:build_year"`
	Deposit          float64        `gorm:"column:deposit;not null"`
	RentType         enums.RentType `gorm:"column:rent_type;not null"`
	DealDate         *time.Time     `gorm:"column:deal_date;type:date"`
	ContractStart    *time.Time     `gorm:"column:contract_start;type:date"`
	ContractEnd      *time.Time     `gorm:"column:contract_end;type:date"`
	// Group means of deposit-per-pyeong over jeonse contracts with
	// positive deposit and area; null when the group has none.
	DistrictAvgPricePerPyeong     *float64 `gorm:"column:district_avg_price_per_pyeong"`
	NeighborhoodAvgPricePerPyeong *float64 `gorm:"column:neighborhood_avg_price_per_pyeong"`
}

func (JeonseFeature) TableName() string {
	return "feature_apt_jeonse"
}
