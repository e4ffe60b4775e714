package models

import (
	"time"

	"github.com/hyunsoolee/aptpulse/pkg/enums"
)

// MonthlyRentFeature is one cleaned monthly-rent lease contract.
type MonthlyRentFeature struct {
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
	MonthlyRent      float64        `gorm:"column:monthly_rent;not null"`
	RentType         enums.RentType `gorm:"column:rent_type;not null"`
	DealDate         *time.Time     `gorm:"column:deal_date;type:date"`
	ContractStart    *time.Time     `gorm:"column:contract_start;type:date"`
	ContractEnd      *time.Time     `gorm:"column:contract_end;type:date"`
	// Group means over monthly-rent contracts with positive area.
	DistrictAvgDepositPerPyeong     *float64 `gorm:"column:district_avg_deposit_per_pyeong"`
	NeighborhoodAvgDepositPerPyeong *float64 `gorm:"column:neighborhood_avg_deposit_per_pyeong"`
	DistrictAvgMonthlyRent          *float64 `gorm:"column:district_avg_monthly_rent"`
	NeighborhoodAvgMonthlyRent      *float64 `gorm:"column:neighborhood_avg_monthly_rent"`
}

func (MonthlyRentFeature) TableName() string {
	return "feature_apt_monthly_rent"
}
