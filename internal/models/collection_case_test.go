package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBucketForDaysLate(t *testing.T) {
	cases := []struct {
		days int
		want DelinquencyBucket
	}{
		{-5, BucketCurrent},
		{0, BucketCurrent},
		{1, Bucket30},
		{30, Bucket30},
		{31, Bucket60},
		{45, Bucket60},
		{60, Bucket60},
		{61, Bucket90},
		{90, Bucket90},
		{91, Bucket120},
		{120, Bucket120},
		{121, Bucket120Plus},
		{400, Bucket120Plus},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, BucketForDaysLate(tc.days), "days=%d", tc.days)
	}
}

func TestBucketRankOrdering(t *testing.T) {
	ordered := []DelinquencyBucket{
		BucketCurrent, Bucket30, Bucket60, Bucket90, Bucket120, Bucket120Plus,
	}
	for i := 1; i < len(ordered); i++ {
		assert.Greater(t, ordered[i].Rank(), ordered[i-1].Rank())
	}
	assert.Equal(t, -1, DelinquencyBucket("desconocido").Rank())
}

func TestInstallmentOverdue(t *testing.T) {
	now := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
	due := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)

	pending := &Installment{Sequence: 3, Status: InstallmentStatusPending, DueDate: due}
	assert.True(t, pending.IsOverdue(now))
	assert.Equal(t, 10, pending.DaysLate(now))

	paid := &Installment{Sequence: 3, Status: InstallmentStatusPaid, DueDate: due}
	assert.False(t, paid.IsOverdue(now))
	assert.Equal(t, 0, paid.DaysLate(now))

	// The disbursement row never goes overdue
	disbursement := &Installment{Sequence: 0, Status: InstallmentStatusPending, DueDate: due}
	assert.False(t, disbursement.IsOverdue(now))
}

func TestContractStatusGuards(t *testing.T) {
	active := &FinancingContract{Status: ContractStatusActive}
	assert.True(t, active.IsActive())
	assert.True(t, active.MayComplete())
	assert.True(t, active.MayChargeOff())
	assert.True(t, active.MayRecover())
	assert.False(t, active.IsClosed())

	for _, status := range []string{ContractStatusCompleted, ContractStatusChargedOff, ContractStatusRecovered} {
		closed := &FinancingContract{Status: status}
		assert.False(t, closed.IsActive(), status)
		assert.False(t, closed.MayComplete(), status)
		assert.True(t, closed.IsClosed(), status)
	}
}
