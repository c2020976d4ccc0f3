package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Vehicle is the unit being financed.
type Vehicle struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Brand        string          `gorm:"not null" json:"brand"`
	Model        string          `gorm:"not null" json:"model"`
	Year         int             `json:"year"`
	Plate        string          `gorm:"index" json:"plate"`
	VIN          string          `gorm:"column:vin;uniqueIndex" json:"vin"`
	Color        string          `json:"color"`
	ListPrice    decimal.Decimal `gorm:"type:decimal(14,2)" json:"list_price"`
	HasGPS       bool            `gorm:"column:has_gps;default:false" json:"has_gps"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Vehicle
func (Vehicle) TableName() string {
	return "vehicles"
}

// Label returns a human readable description used in logs and exports
func (v *Vehicle) Label() string {
	return v.Brand + " " + v.Model
}
