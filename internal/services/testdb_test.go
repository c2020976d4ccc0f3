package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/autocredit/cartera-api/internal/database"
	"github.com/autocredit/cartera-api/internal/jobs"
	"github.com/autocredit/cartera-api/internal/models"
	"github.com/autocredit/cartera-api/internal/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedStages(db))
	return db
}

func newTestServices(t *testing.T, db *gorm.DB) *Services {
	t.Helper()
	repos := repository.NewRepositories(db)
	worker := jobs.NewWorker(1)
	t.Cleanup(worker.Shutdown)
	return NewServices(repos, worker, nil, db)
}

var testSeq int

func createTestUser(t *testing.T, db *gorm.DB, role string) *models.User {
	t.Helper()
	testSeq++
	user := &models.User{
		Email:    fmt.Sprintf("user%d@test.hn", testSeq),
		FullName: fmt.Sprintf("Usuario %d", testSeq),
		Role:     role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestLead(t *testing.T, db *gorm.DB, ownerID *uint) *models.Lead {
	t.Helper()
	testSeq++
	lead := &models.Lead{
		FullName: fmt.Sprintf("Prospecto %d", testSeq),
		Email:    fmt.Sprintf("lead%d@test.hn", testSeq),
		Phone:    "9999-0000",
		OwnerID:  ownerID,
	}
	require.NoError(t, db.Create(lead).Error)
	return lead
}

func createTestVehicle(t *testing.T, db *gorm.DB) *models.Vehicle {
	t.Helper()
	testSeq++
	vehicle := &models.Vehicle{
		Brand:     "Toyota",
		Model:     "Hilux",
		Year:      2025,
		VIN:       fmt.Sprintf("VIN-%06d", testSeq),
		ListPrice: decimal.NewFromInt(650000),
	}
	require.NoError(t, db.Create(vehicle).Error)
	return vehicle
}

func stageByOrder(t *testing.T, db *gorm.DB, order int) *models.SalesStage {
	t.Helper()
	var stage models.SalesStage
	require.NoError(t, db.Where("stage_order = ?", order).First(&stage).Error)
	return &stage
}

// createTestOpportunity inserts a deal with complete credit terms at the
// given pipeline stage.
func createTestOpportunity(t *testing.T, db *gorm.DB, ownerID uint, stageID uint) *models.Opportunity {
	t.Helper()
	vehicle := createTestVehicle(t, db)
	lead := createTestLead(t, db, &ownerID)

	term := 36
	payDay := 15
	start := time.Now()
	opp := &models.Opportunity{
		LeadID:           lead.ID,
		StageID:          stageID,
		OwnerID:          ownerID,
		VehicleID:        &vehicle.ID,
		Status:           models.OpportunityStatusOpen,
		VehiclePrice:     decimal.NewNullDecimal(decimal.NewFromInt(650000)),
		DownPayment:      decimal.NewNullDecimal(decimal.NewFromInt(150000)),
		MonthlyRate:      decimal.NewNullDecimal(decimal.NewFromFloat(1.75)),
		TermMonths:       &term,
		PayDay:           &payDay,
		StartDate:        &start,
		MonthlyInsurance: decimal.NewNullDecimal(decimal.NewFromInt(900)),
		MonthlyGPS:       decimal.NewNullDecimal(decimal.NewFromInt(350)),
	}
	require.NoError(t, db.Create(opp).Error)
	return opp
}

// createTestContract materializes a contract directly, bypassing the
// pipeline, for collections and payment tests.
func createTestContract(t *testing.T, db *gorm.DB, svcs *Services, ownerID uint) *models.FinancingContract {
	t.Helper()
	terminal := stageByOrder(t, db, 9)
	opp := createTestOpportunity(t, db, ownerID, terminal.ID)

	contract, err := svcs.Origination.Materialize(context.Background(), ownerID, opp)
	require.NoError(t, err)
	return contract
}

// backdateInstallments shifts the first n due dates into the past so the
// contract shows up overdue.
func backdateInstallments(t *testing.T, db *gorm.DB, contractID uint, n, daysAgo int) {
	t.Helper()
	due := time.Now().AddDate(0, 0, -daysAgo)
	require.NoError(t, db.Model(&models.Installment{}).
		Where("contract_id = ? AND sequence <= ?", contractID, n).
		Update("due_date", due).Error)
}
