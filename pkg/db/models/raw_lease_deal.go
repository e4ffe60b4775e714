package models

import "time"

// RawLeaseDeal mirrors one lease row (jeonse or monthly rent) as
// returned by the transaction-price API. ContractTerm keeps the
// government's "YY.MM~YY.MM" text; parsing happens in the feature stage.
type RawLeaseDeal struct {
	ID               uint      `gorm:"column:id;primaryKey;autoIncrement"`
	CollectedMonth   string    `gorm:"column:collected_month;size:6;not null;index"`
	DistrictCode     string    `gorm:"column:district_code;size:5;not null"`
	DistrictName     string    `gorm:"column:district_name;not null"`
	NeighborhoodCode string    `gorm:"column:neighborhood_code"`
	NeighborhoodName string    `gorm:"column:neighborhood_name"`
	Parcel           string    `gorm:"column:parcel"`
	ComplexName      string    `gorm:"column:complex_name"`
	ExclusiveArea    string    `gorm:"column:exclusive_area"`
	DealYear         string    `gorm:"column:deal_year"`
	DealMonth        string    `gorm:"column:deal_month"`
	DealDay          string    `gorm:"column:deal_day"`
	Floor            string    `gorm:"column:floor"`
	BuildYear        string    `gorm:"column:build_year"`
	Deposit          string    `gorm:"column:deposit"`
	MonthlyRent      string    `gorm:"column:monthly_rent"`
	ContractTerm     string    `gorm:"column:contract_term"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (RawLeaseDeal) TableName() string {
	return "raw_apt_lease"
}
