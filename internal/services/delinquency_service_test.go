package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autocredit/cartera-api/internal/models"
)

func TestReevaluateCurrentContractOpensNoCase(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)

	owner := createTestUser(t, db, models.RoleSales)
	contract := createTestContract(t, db, svcs, owner.ID)

	kase, err := svcs.Delinquency.Reevaluate(context.Background(), contract.ID, time.Now())
	require.NoError(t, err)
	assert.Nil(t, kase)

	var count int64
	require.NoError(t, db.Model(&models.CollectionCase{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestReevaluateOpensCaseForOverdueContract(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, models.RoleSales)
	collector := createTestUser(t, db, models.RoleCollections)
	contract := createTestContract(t, db, svcs, owner.ID)
	backdateInstallments(t, db, contract.ID, 2, 45)

	kase, err := svcs.Delinquency.Reevaluate(ctx, contract.ID, time.Now())
	require.NoError(t, err)
	require.NotNil(t, kase)
	assert.Equal(t, models.CaseStatusOpen, kase.Status)
	assert.Equal(t, models.Bucket60, kase.Bucket)
	assert.Equal(t, 45, kase.DaysLate)
	assert.Equal(t, 2, kase.OverdueCount)
	require.NotNil(t, kase.CollectorID)
	assert.Equal(t, collector.ID, *kase.CollectorID)
	assert.Equal(t, "9999-0000", kase.ContactPhone)
	assert.NotEmpty(t, kase.ContactEmail)

	// A second pass updates the same case instead of opening another
	again, err := svcs.Delinquency.Reevaluate(ctx, contract.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, kase.ID, again.ID)

	var count int64
	require.NoError(t, db.Model(&models.CollectionCase{}).
		Where("contract_id = ?", contract.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// Per-installment marks follow the sweep
	var overdue []models.Installment
	require.NoError(t, db.Where("contract_id = ? AND days_past_due > 0", contract.ID).
		Find(&overdue).Error)
	require.Len(t, overdue, 2)
	assert.Equal(t, models.Bucket60, overdue[0].Bucket)
	assert.Equal(t, 45, overdue[0].DaysPastDue)
}

func TestReevaluateWorsensBucketAsTimePasses(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, models.RoleSales)
	contract := createTestContract(t, db, svcs, owner.ID)
	backdateInstallments(t, db, contract.ID, 1, 10)

	kase, err := svcs.Delinquency.Reevaluate(ctx, contract.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.Bucket30, kase.Bucket)

	// Same schedule, evaluated four months later
	later, err := svcs.Delinquency.Reevaluate(ctx, contract.ID, time.Now().AddDate(0, 0, 120))
	require.NoError(t, err)
	assert.Equal(t, kase.ID, later.ID)
	assert.Equal(t, models.Bucket120Plus, later.Bucket)
	assert.Greater(t, later.OverdueCount, kase.OverdueCount)
}

func TestReevaluateCuresCaseWhenPaidUp(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, models.RoleSales)
	createTestUser(t, db, models.RoleCollections)
	contract := createTestContract(t, db, svcs, owner.ID)
	backdateInstallments(t, db, contract.ID, 1, 20)

	kase, err := svcs.Delinquency.Reevaluate(ctx, contract.ID, time.Now())
	require.NoError(t, err)
	require.NotNil(t, kase)

	// The debtor catches up
	require.NoError(t, db.Model(&models.Installment{}).
		Where("contract_id = ? AND sequence = 1", contract.ID).
		Update("status", models.InstallmentStatusPaid).Error)

	cured, err := svcs.Delinquency.Reevaluate(ctx, contract.ID, time.Now())
	require.NoError(t, err)
	assert.Nil(t, cured)

	var reloaded models.CollectionCase
	require.NoError(t, db.First(&reloaded, kase.ID).Error)
	assert.Equal(t, models.CaseStatusClosed, reloaded.Status)
	assert.Equal(t, models.CaseCloseReasonCured, reloaded.CloseReason)
	assert.Equal(t, models.BucketCurrent, reloaded.Bucket)
	assert.NotNil(t, reloaded.ClosedAt)
}

func TestReevaluateAfterCureOpensFreshCase(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, models.RoleSales)
	contract := createTestContract(t, db, svcs, owner.ID)
	backdateInstallments(t, db, contract.ID, 1, 20)

	first, err := svcs.Delinquency.Reevaluate(ctx, contract.ID, time.Now())
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Installment{}).
		Where("contract_id = ? AND sequence = 1", contract.ID).
		Update("status", models.InstallmentStatusPaid).Error)
	_, err = svcs.Delinquency.Reevaluate(ctx, contract.ID, time.Now())
	require.NoError(t, err)

	// Falls behind again on the next installment
	backdateInstallments(t, db, contract.ID, 2, 5)
	second, err := svcs.Delinquency.Reevaluate(ctx, contract.ID, time.Now())
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestReevaluateSkipsClosedContracts(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)

	owner := createTestUser(t, db, models.RoleSales)
	contract := createTestContract(t, db, svcs, owner.ID)
	backdateInstallments(t, db, contract.ID, 3, 90)
	require.NoError(t, db.Model(&models.FinancingContract{}).
		Where("id = ?", contract.ID).
		Update("status", models.ContractStatusChargedOff).Error)

	kase, err := svcs.Delinquency.Reevaluate(context.Background(), contract.ID, time.Now())
	require.NoError(t, err)
	assert.Nil(t, kase)

	var count int64
	require.NoError(t, db.Model(&models.CollectionCase{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestSweepAllCoversTheActivePortfolio(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)

	owner := createTestUser(t, db, models.RoleSales)
	createTestUser(t, db, models.RoleCollections)

	overdue := createTestContract(t, db, svcs, owner.ID)
	backdateInstallments(t, db, overdue.ID, 1, 35)
	createTestContract(t, db, svcs, owner.ID) // stays current

	require.NoError(t, svcs.Delinquency.SweepAll(context.Background()))

	var cases []models.CollectionCase
	require.NoError(t, db.Find(&cases).Error)
	require.Len(t, cases, 1)
	assert.Equal(t, overdue.ID, cases[0].ContractID)
	assert.Equal(t, models.Bucket60, cases[0].Bucket)
}

func TestPickCollectorPrefersFewestOpenCases(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, models.RoleSales)
	busy := createTestUser(t, db, models.RoleCollections)
	idle := createTestUser(t, db, models.RoleCollections)

	// Load the first collector with an existing case
	existing := createTestContract(t, db, svcs, owner.ID)
	require.NoError(t, db.Create(&models.CollectionCase{
		ContractID:  existing.ID,
		CollectorID: &busy.ID,
		Bucket:      models.Bucket30,
		Status:      models.CaseStatusOpen,
		OpenedAt:    time.Now(),
	}).Error)

	fresh := createTestContract(t, db, svcs, owner.ID)
	backdateInstallments(t, db, fresh.ID, 1, 15)

	kase, err := svcs.Delinquency.Reevaluate(ctx, fresh.ID, time.Now())
	require.NoError(t, err)
	require.NotNil(t, kase.CollectorID)
	assert.Equal(t, idle.ID, *kase.CollectorID)
}

func TestCaseUnassignedWhenNoCollectorsExist(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)

	owner := createTestUser(t, db, models.RoleSales)
	contract := createTestContract(t, db, svcs, owner.ID)
	backdateInstallments(t, db, contract.ID, 1, 10)

	kase, err := svcs.Delinquency.Reevaluate(context.Background(), contract.ID, time.Now())
	require.NoError(t, err)
	require.NotNil(t, kase)
	assert.Nil(t, kase.CollectorID)
}
