package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Opportunity is a vehicle-financing deal moving through the sales pipeline.
// The credit terms (price, down payment, rate, term, insurance, GPS) live
// here while the deal is open; once the terminal stage is reached they are
// materialized into a FinancingContract and become immutable on this side.
type Opportunity struct {
	ID               uint        `gorm:"primaryKey" json:"id"`
	LeadID           uint        `gorm:"index;not null" json:"lead_id"`
	Lead             *Lead       `gorm:"foreignKey:LeadID" json:"lead,omitempty"`
	StageID          uint        `gorm:"index;not null" json:"stage_id"`
	Stage            *SalesStage `gorm:"foreignKey:StageID" json:"stage,omitempty"`
	OwnerID          uint        `gorm:"index;not null" json:"owner_id"`
	Owner            *User       `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	VehicleID        *uint       `gorm:"index" json:"vehicle_id"`
	Vehicle          *Vehicle    `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
	Status           string      `gorm:"default:open;index" json:"status"`
	AnalysisApproved bool        `gorm:"default:false" json:"analysis_approved"`

	VehiclePrice     decimal.NullDecimal `gorm:"type:decimal(14,2)" json:"vehicle_price"`
	DownPayment      decimal.NullDecimal `gorm:"type:decimal(14,2)" json:"down_payment"`
	MonthlyRate      decimal.NullDecimal `gorm:"type:decimal(8,4)" json:"monthly_rate"`
	TermMonths       *int                `json:"term_months"`
	PayDay           *int                `json:"pay_day"`
	StartDate        *time.Time          `json:"start_date"`
	MonthlyInsurance decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"monthly_insurance"`
	MonthlyGPS       decimal.NullDecimal `gorm:"column:monthly_gps;type:decimal(12,2)" json:"monthly_gps"`

	ActualCloseDate *time.Time `json:"actual_close_date"`
	LockVersion     uint       `gorm:"default:0" json:"lock_version"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Opportunity
func (Opportunity) TableName() string {
	return "opportunities"
}

// Opportunity status constants
const (
	OpportunityStatusOpen   = "open"
	OpportunityStatusWon    = "won"
	OpportunityStatusLost   = "lost"
	OpportunityStatusOnHold = "on_hold"
)

// FinancedAmount returns vehicle price minus down payment. Both fields must
// be present; callers validate that before asking.
func (o *Opportunity) FinancedAmount() decimal.Decimal {
	if !o.VehiclePrice.Valid || !o.DownPayment.Valid {
		return decimal.Zero
	}
	return o.VehiclePrice.Decimal.Sub(o.DownPayment.Decimal)
}
