package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentArrangement is a negotiated restructuring attached to a collection
// case: an agreed total split into a number of arrangement installments.
// It is a side agreement and never marks ledger installments as paid by
// itself; actual payments flow through the payment registration path.
type PaymentArrangement struct {
	ID     uint            `gorm:"primaryKey" json:"id"`
	CaseID uint            `gorm:"index;not null" json:"case_id"`
	Case   *CollectionCase `gorm:"foreignKey:CaseID" json:"case,omitempty"`

	AgreedAmount      decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"agreed_amount"`
	InstallmentCount  int             `gorm:"not null" json:"installment_count"`
	InstallmentAmount decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"installment_amount"`
	StartDate         time.Time       `gorm:"not null" json:"start_date"`

	Active            bool   `gorm:"default:true;index" json:"active"`
	Fulfilled         bool   `gorm:"default:false" json:"fulfilled"`
	FulfilledCount    int    `gorm:"default:0" json:"fulfilled_count"`
	SpecialConditions string `json:"special_conditions"`

	ApprovedByID uint      `gorm:"index;not null" json:"approved_by_id"`
	ApprovedBy   *User     `gorm:"foreignKey:ApprovedByID" json:"approved_by,omitempty"`
	ApprovedAt   time.Time `gorm:"not null" json:"approved_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for PaymentArrangement
func (PaymentArrangement) TableName() string {
	return "payment_arrangements"
}

// MayRecordInstallment reports whether fulfillment can still advance
func (p *PaymentArrangement) MayRecordInstallment() bool {
	return p.Active && !p.Fulfilled
}
