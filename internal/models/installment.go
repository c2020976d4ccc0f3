package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Installment is one row of a contract's amortization schedule. Sequence 0 is
// the synthetic disbursement row carrying the opening balance and no payment;
// sequences 1..N are the monthly dues.
type Installment struct {
	ID         uint               `gorm:"primaryKey" json:"id"`
	ContractID uint               `gorm:"index:idx_installment_contract_seq,unique;not null" json:"contract_id"`
	Contract   *FinancingContract `gorm:"foreignKey:ContractID" json:"contract,omitempty"`
	Sequence   int                `gorm:"index:idx_installment_contract_seq,unique;not null" json:"sequence"`

	DueDate        time.Time       `gorm:"index;not null" json:"due_date"`
	AmountDue      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount_due"`
	Principal      decimal.Decimal `gorm:"type:decimal(12,2)" json:"principal"`
	Interest       decimal.Decimal `gorm:"type:decimal(12,2)" json:"interest"`
	Insurance      decimal.Decimal `gorm:"type:decimal(12,2)" json:"insurance"`
	GPS            decimal.Decimal `gorm:"column:gps;type:decimal(12,2)" json:"gps"`
	ClosingBalance decimal.Decimal `gorm:"type:decimal(14,2)" json:"closing_balance"`

	Status        string              `gorm:"default:pendiente;index" json:"status"`
	PaidAt        *time.Time          `json:"paid_at"`
	PaidAmount    decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"paid_amount"`
	PenaltyAmount decimal.Decimal     `gorm:"type:decimal(12,2);default:0" json:"penalty_amount"`

	// Delinquency marks recomputed on every sweep
	Bucket      DelinquencyBucket `gorm:"default:al_dia" json:"bucket"`
	DaysPastDue int               `gorm:"default:0" json:"days_past_due"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Installment
func (Installment) TableName() string {
	return "installments"
}

// Installment status constants
const (
	InstallmentStatusPending = "pendiente"
	InstallmentStatusPaid    = "pagado"
	InstallmentStatusWaived  = "condonado"
)

// IsPaid reports whether the installment was settled
func (i *Installment) IsPaid() bool {
	return i.Status == InstallmentStatusPaid
}

// IsOverdue reports whether the installment is unpaid past its due date
func (i *Installment) IsOverdue(now time.Time) bool {
	return i.Status == InstallmentStatusPending && i.Sequence > 0 && i.DueDate.Before(now)
}

// DaysLate returns how many whole days the installment is past due, zero if
// it is not overdue.
func (i *Installment) DaysLate(now time.Time) int {
	if !i.IsOverdue(now) {
		return 0
	}
	days := int(now.Sub(i.DueDate).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
