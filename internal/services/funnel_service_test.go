package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autocredit/cartera-api/internal/models"
)

func TestFunnelSnapshotSegments(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, models.RoleSales)
	createTestUser(t, db, models.RoleCollections)

	// One current, one in mora_30, one fully paid but still active, one
	// completed, one charged off, one recovered. Completed wins over
	// everything, and both terminal loss statuses fold into uncollectible.
	createTestContract(t, db, svcs, owner.ID)

	late := createTestContract(t, db, svcs, owner.ID)
	backdateInstallments(t, db, late.ID, 1, 10)
	_, err := svcs.Delinquency.Reevaluate(ctx, late.ID, time.Now())
	require.NoError(t, err)

	paidUp := createTestContract(t, db, svcs, owner.ID)
	require.NoError(t, db.Model(&models.Installment{}).
		Where("contract_id = ?", paidUp.ID).Update("status", models.InstallmentStatusPaid).Error)

	completed := createTestContract(t, db, svcs, owner.ID)
	require.NoError(t, db.Model(&models.FinancingContract{}).
		Where("id = ?", completed.ID).Update("status", models.ContractStatusCompleted).Error)

	chargedOff := createTestContract(t, db, svcs, owner.ID)
	require.NoError(t, db.Model(&models.FinancingContract{}).
		Where("id = ?", chargedOff.ID).Update("status", models.ContractStatusChargedOff).Error)

	recovered := createTestContract(t, db, svcs, owner.ID)
	require.NoError(t, db.Model(&models.FinancingContract{}).
		Where("id = ?", recovered.ID).Update("status", models.ContractStatusRecovered).Error)

	snapshot, err := svcs.Funnel.Snapshot(ctx)
	require.NoError(t, err)

	assert.EqualValues(t, 1, snapshot.Segments[string(models.BucketCurrent)])
	assert.EqualValues(t, 1, snapshot.Segments[string(models.Bucket30)])
	assert.EqualValues(t, 1, snapshot.Segments[FunnelPaid])
	assert.EqualValues(t, 1, snapshot.Segments[FunnelCompleted])
	assert.EqualValues(t, 2, snapshot.Segments[FunnelUncollectible])

	// The overdue amount rides on the delinquent segment only
	assert.True(t, snapshot.Amounts[string(models.Bucket30)].IsPositive())
	assert.True(t, snapshot.Amounts[string(models.BucketCurrent)].IsZero())
	assert.True(t, snapshot.Amounts[FunnelPaid].IsZero())

	var total int64
	for _, count := range snapshot.Segments {
		total += count
	}
	assert.EqualValues(t, 6, total, "every contract lands in exactly one segment")
}

func TestFunnelRowsKeepPresentationOrder(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)

	snapshot, err := svcs.Funnel.Snapshot(context.Background())
	require.NoError(t, err)

	rows := snapshot.Rows()
	require.Len(t, rows, 9)
	assert.Equal(t, string(models.BucketCurrent), rows[0].Segment)
	assert.Equal(t, string(models.Bucket120Plus), rows[5].Segment)
	assert.Equal(t, FunnelPaid, rows[6].Segment)
	assert.Equal(t, FunnelUncollectible, rows[7].Segment)
	assert.Equal(t, FunnelCompleted, rows[8].Segment)
}

func TestFunnelCSVExport(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)

	owner := createTestUser(t, db, models.RoleSales)
	createTestContract(t, db, svcs, owner.ID)

	data, filename, err := svcs.Export.FunnelCSV(context.Background())
	require.NoError(t, err)
	assert.Contains(t, filename, ".csv")
	assert.Contains(t, string(data), "al_dia")
	assert.Contains(t, string(data), "pagado")
	assert.Contains(t, string(data), "Monto Vencido")
}

func TestFunnelXLSXExport(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)

	data, filename, err := svcs.Export.FunnelXLSX(context.Background())
	require.NoError(t, err)
	assert.Contains(t, filename, ".xlsx")
	assert.NotEmpty(t, data)
}

func TestCasesXLSXExport(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, models.RoleSales)
	createTestUser(t, db, models.RoleCollections)
	late := createTestContract(t, db, svcs, owner.ID)
	backdateInstallments(t, db, late.ID, 1, 50)
	_, err := svcs.Delinquency.Reevaluate(ctx, late.ID, time.Now())
	require.NoError(t, err)

	data, filename, err := svcs.Export.CasesXLSX(ctx)
	require.NoError(t, err)
	assert.Contains(t, filename, ".xlsx")
	assert.NotEmpty(t, data)
}
