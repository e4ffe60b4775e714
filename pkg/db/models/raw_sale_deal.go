package models

import "time"

// RawSaleDeal mirrors one sale row as returned by the transaction-price
// API, tagged with the collection month and district name at fetch time.
// Every API field stays a string until the feature stage coerces it;
// rows are append-only and never mutated.
type RawSaleDeal struct {
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
	DealAmount       string    `gorm:"column:deal_amount"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (RawSaleDeal) TableName() string {
	return "raw_apt_sale"
}
