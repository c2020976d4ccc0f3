package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autocredit/cartera-api/internal/models"
)

func TestRegisterPayment(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, models.RoleSales)
	collector := createTestUser(t, db, models.RoleCollections)
	contract := createTestContract(t, db, svcs, owner.ID)

	amount := decimal.NewFromFloat(18500.75)
	installment, err := svcs.Payment.RegisterPayment(ctx, collector.ID, collector.Role, contract.ID, 1, amount)
	require.NoError(t, err)
	assert.Equal(t, models.InstallmentStatusPaid, installment.Status)
	require.NotNil(t, installment.PaidAt)
	assert.True(t, installment.PaidAmount.Decimal.Equal(amount))

	// Paying the same installment twice is rejected
	_, err = svcs.Payment.RegisterPayment(ctx, collector.ID, collector.Role, contract.ID, 1, amount)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestRegisterPaymentRoleAndInputChecks(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, models.RoleSales)
	collector := createTestUser(t, db, models.RoleCollections)
	contract := createTestContract(t, db, svcs, owner.ID)
	amount := decimal.NewFromInt(1000)

	// Sales agents cannot post payments
	_, err := svcs.Payment.RegisterPayment(ctx, owner.ID, owner.Role, contract.ID, 1, amount)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// The disbursement row is not payable
	_, err = svcs.Payment.RegisterPayment(ctx, collector.ID, collector.Role, contract.ID, 0, amount)
	assert.True(t, IsValidation(err))

	_, err = svcs.Payment.RegisterPayment(ctx, collector.ID, collector.Role, contract.ID, 1, decimal.Zero)
	assert.True(t, IsValidation(err))
}

func TestRegisterPaymentRejectedOnClosedContract(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)

	owner := createTestUser(t, db, models.RoleSales)
	collector := createTestUser(t, db, models.RoleCollections)
	contract := createTestContract(t, db, svcs, owner.ID)
	require.NoError(t, db.Model(&models.FinancingContract{}).
		Where("id = ?", contract.ID).
		Update("status", models.ContractStatusRecovered).Error)

	_, err := svcs.Payment.RegisterPayment(context.Background(),
		collector.ID, collector.Role, contract.ID, 1, decimal.NewFromInt(1000))
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestLastPaymentCompletesContractAndClosesCase(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, models.RoleSales)
	admin := createTestUser(t, db, models.RoleAdmin)
	contract := createTestContract(t, db, svcs, owner.ID)

	// An open case hangs over the contract
	backdateInstallments(t, db, contract.ID, 1, 40)
	kase, err := svcs.Delinquency.Reevaluate(ctx, contract.ID, time.Now())
	require.NoError(t, err)
	require.NotNil(t, kase)

	// Settle all but the last installment out of band
	require.NoError(t, db.Model(&models.Installment{}).
		Where("contract_id = ? AND sequence < ?", contract.ID, contract.TermMonths).
		Update("status", models.InstallmentStatusPaid).Error)

	_, err = svcs.Payment.RegisterPayment(ctx, admin.ID, admin.Role, contract.ID, contract.TermMonths, decimal.NewFromInt(20000))
	require.NoError(t, err)

	var reloadedContract models.FinancingContract
	require.NoError(t, db.First(&reloadedContract, contract.ID).Error)
	assert.Equal(t, models.ContractStatusCompleted, reloadedContract.Status)
	assert.NotNil(t, reloadedContract.ClosedAt)

	var reloadedCase models.CollectionCase
	require.NoError(t, db.First(&reloadedCase, kase.ID).Error)
	assert.Equal(t, models.CaseStatusClosed, reloadedCase.Status)
	assert.Equal(t, models.CaseCloseReasonCompleted, reloadedCase.CloseReason)
}

func TestScheduleReturnsAllRows(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)

	owner := createTestUser(t, db, models.RoleSales)
	contract := createTestContract(t, db, svcs, owner.ID)

	rows, err := svcs.Payment.Schedule(context.Background(), contract.ID)
	require.NoError(t, err)
	assert.Len(t, rows, contract.TermMonths+1)

	_, err = svcs.Payment.Schedule(context.Background(), 99999)
	assert.ErrorIs(t, err, ErrNotFound)
}
