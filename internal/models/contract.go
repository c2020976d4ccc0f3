package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FinancingContract is the immutable credit agreement materialized from a won
// opportunity. The frozen credit terms are copied here; the opportunity is no
// longer the source of truth once the contract exists.
type FinancingContract struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	GUID          string       `gorm:"column:guid;uniqueIndex;not null" json:"guid"`
	OpportunityID uint         `gorm:"uniqueIndex;not null" json:"opportunity_id"`
	Opportunity   *Opportunity `gorm:"foreignKey:OpportunityID" json:"opportunity,omitempty"`
	ClientID      uint         `gorm:"index;not null" json:"client_id"`
	Client        *Client      `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	VehicleID     uint         `gorm:"index;not null" json:"vehicle_id"`
	Vehicle       *Vehicle     `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`

	VehiclePrice     decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"vehicle_price"`
	DownPayment      decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"down_payment"`
	FinancedAmount   decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"financed_amount"`
	MonthlyRate      decimal.Decimal `gorm:"type:decimal(8,4);not null" json:"monthly_rate"`
	TermMonths       int             `gorm:"not null" json:"term_months"`
	PayDay           int             `gorm:"not null" json:"pay_day"`
	MonthlyInsurance decimal.Decimal `gorm:"type:decimal(12,2)" json:"monthly_insurance"`
	MonthlyGPS       decimal.Decimal `gorm:"column:monthly_gps;type:decimal(12,2)" json:"monthly_gps"`
	MonthlyPayment   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"monthly_payment"`

	StartDate    time.Time `gorm:"not null" json:"start_date"`
	MaturityDate time.Time `gorm:"not null" json:"maturity_date"`

	Status    string     `gorm:"default:activo;index" json:"status"`
	SignedAt  time.Time  `json:"signed_at"`
	ClosedAt  *time.Time `json:"closed_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName specifies the table name for FinancingContract
func (FinancingContract) TableName() string {
	return "financing_contracts"
}

// Contract status constants
const (
	ContractStatusActive     = "activo"
	ContractStatusCompleted  = "completado"
	ContractStatusChargedOff = "incobrable"
	ContractStatusRecovered  = "recuperado"
)

// BeforeCreate hook for generating GUID
func (c *FinancingContract) BeforeCreate(tx *gorm.DB) error {
	if c.GUID == "" {
		c.GUID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = ContractStatusActive
	}
	return nil
}

// MayComplete checks if the contract can be marked fully paid
func (c *FinancingContract) MayComplete() bool {
	return c.Status == ContractStatusActive
}

// MayChargeOff checks if the contract can be written off as uncollectible
func (c *FinancingContract) MayChargeOff() bool {
	return c.Status == ContractStatusActive
}

// MayRecover checks if the contract can be closed by vehicle repossession
func (c *FinancingContract) MayRecover() bool {
	return c.Status == ContractStatusActive
}

// IsActive reports whether the contract still accrues collection activity
func (c *FinancingContract) IsActive() bool {
	return c.Status == ContractStatusActive
}

// IsClosed reports whether the contract reached a terminal status
func (c *FinancingContract) IsClosed() bool {
	return c.Status == ContractStatusCompleted ||
		c.Status == ContractStatusChargedOff ||
		c.Status == ContractStatusRecovered
}
