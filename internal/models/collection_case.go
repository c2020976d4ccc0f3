package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DelinquencyBucket classifies how late a contract is, measured by its
// oldest unpaid installment.
type DelinquencyBucket string

// Delinquency buckets ordered from current to worst
const (
	BucketCurrent DelinquencyBucket = "al_dia"
	Bucket30      DelinquencyBucket = "mora_30"
	Bucket60      DelinquencyBucket = "mora_60"
	Bucket90      DelinquencyBucket = "mora_90"
	Bucket120     DelinquencyBucket = "mora_120"
	Bucket120Plus DelinquencyBucket = "mora_120_plus"
)

// BucketForDaysLate maps days past due to a bucket. Zero days means the
// contract is current.
func BucketForDaysLate(days int) DelinquencyBucket {
	switch {
	case days <= 0:
		return BucketCurrent
	case days <= 30:
		return Bucket30
	case days <= 60:
		return Bucket60
	case days <= 90:
		return Bucket90
	case days <= 120:
		return Bucket120
	default:
		return Bucket120Plus
	}
}

// Rank orders buckets so "worse than" comparisons are explicit
func (b DelinquencyBucket) Rank() int {
	switch b {
	case BucketCurrent:
		return 0
	case Bucket30:
		return 1
	case Bucket60:
		return 2
	case Bucket90:
		return 3
	case Bucket120:
		return 4
	case Bucket120Plus:
		return 5
	default:
		return -1
	}
}

// CollectionCase tracks the recovery effort over a delinquent contract. At
// most one open case exists per contract; re-entering delinquency after a
// cure opens a fresh case instead of reviving the old one.
type CollectionCase struct {
	ID          uint               `gorm:"primaryKey" json:"id"`
	ContractID  uint               `gorm:"index;not null" json:"contract_id"`
	Contract    *FinancingContract `gorm:"foreignKey:ContractID" json:"contract,omitempty"`
	CollectorID *uint              `gorm:"index" json:"collector_id"`
	Collector   *User              `gorm:"foreignKey:CollectorID" json:"collector,omitempty"`

	Bucket        DelinquencyBucket `gorm:"index;not null" json:"bucket"`
	DaysLate      int               `json:"days_late"`
	AmountOverdue decimal.Decimal   `gorm:"type:decimal(14,2)" json:"amount_overdue"`
	OverdueCount  int               `json:"overdue_count"`

	// Debtor contact info snapshotted when the case opens
	ContactPhone   string `json:"contact_phone"`
	ContactEmail   string `json:"contact_email"`
	ContactAddress string `json:"contact_address"`

	NextContactAt     *time.Time `json:"next_contact_at"`
	NextContactMethod string     `json:"next_contact_method"`

	Status      string     `gorm:"default:abierto;index" json:"status"`
	OpenedAt    time.Time  `json:"opened_at"`
	ClosedAt    *time.Time `json:"closed_at"`
	CloseReason string     `json:"close_reason"`

	LockVersion uint      `gorm:"default:0" json:"lock_version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for CollectionCase
func (CollectionCase) TableName() string {
	return "collection_cases"
}

// Collection case status constants
const (
	CaseStatusOpen   = "abierto"
	CaseStatusClosed = "cerrado"
)

// Close reasons recorded when a case is shut
const (
	CaseCloseReasonCured      = "pagado"
	CaseCloseReasonChargedOff = "incobrable"
	CaseCloseReasonRecovered  = "recuperado"
	CaseCloseReasonCompleted  = "completado"
)

// IsOpen reports whether the case is still being worked
func (c *CollectionCase) IsOpen() bool {
	return c.Status == CaseStatusOpen
}

// MayClose checks if the case can be shut
func (c *CollectionCase) MayClose() bool {
	return c.Status == CaseStatusOpen
}
