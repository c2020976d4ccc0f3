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

func TestConvertLead(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)
	ctx := context.Background()

	seller := createTestUser(t, db, models.RoleSales)
	lead := createTestLead(t, db, &seller.ID)

	opp, err := svcs.Origination.ConvertLead(ctx, seller.ID, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, lead.ID, opp.LeadID)
	assert.Equal(t, seller.ID, opp.OwnerID)
	assert.Equal(t, models.OpportunityStatusOpen, opp.Status)

	first := stageByOrder(t, db, 1)
	assert.Equal(t, first.ID, opp.StageID)

	// The lead is now converted and cannot be converted again
	var reloaded models.Lead
	require.NoError(t, db.First(&reloaded, lead.ID).Error)
	assert.True(t, reloaded.IsConverted())

	_, err = svcs.Origination.ConvertLead(ctx, seller.ID, lead.ID)
	assert.ErrorIs(t, err, ErrDuplicate)

	// The opening transition is on record
	history, err := svcs.Pipeline.History(ctx, opp.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Nil(t, history[0].FromStageID)
	assert.Equal(t, first.ID, history[0].ToStageID)
}

func TestConvertLeadOwnerFallsBackToActor(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)

	seller := createTestUser(t, db, models.RoleSales)
	lead := createTestLead(t, db, nil)

	opp, err := svcs.Origination.ConvertLead(context.Background(), seller.ID, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, seller.ID, opp.OwnerID)
}

func TestUpdateTermsOwnership(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, models.RoleSales)
	other := createTestUser(t, db, models.RoleSales)
	admin := createTestUser(t, db, models.RoleAdmin)
	first := stageByOrder(t, db, 1)
	opp := createTestOpportunity(t, db, owner.ID, first.ID)

	price := decimal.NewFromInt(700000)
	_, err := svcs.Origination.UpdateTerms(ctx, other.ID, other.Role, opp.ID, TermsInput{VehiclePrice: &price})
	assert.ErrorIs(t, err, ErrUnauthorized)

	updated, err := svcs.Origination.UpdateTerms(ctx, owner.ID, owner.Role, opp.ID, TermsInput{VehiclePrice: &price})
	require.NoError(t, err)
	assert.True(t, updated.VehiclePrice.Decimal.Equal(price))

	// Admins may edit deals they do not own
	rate := decimal.NewFromFloat(2.25)
	updated, err = svcs.Origination.UpdateTerms(ctx, admin.ID, admin.Role, opp.ID, TermsInput{MonthlyRate: &rate})
	require.NoError(t, err)
	assert.True(t, updated.MonthlyRate.Decimal.Equal(rate))
}

func TestUpdateTermsRejectsBadRanges(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, models.RoleSales)
	first := stageByOrder(t, db, 1)
	opp := createTestOpportunity(t, db, owner.ID, first.ID)

	badDay := 32
	_, err := svcs.Origination.UpdateTerms(ctx, owner.ID, owner.Role, opp.ID, TermsInput{PayDay: &badDay})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	badTerm := 0
	_, err = svcs.Origination.UpdateTerms(ctx, owner.ID, owner.Role, opp.ID, TermsInput{TermMonths: &badTerm})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestUpdateTermsFrozenAfterWon(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)

	owner := createTestUser(t, db, models.RoleSales)
	first := stageByOrder(t, db, 1)
	opp := createTestOpportunity(t, db, owner.ID, first.ID)
	require.NoError(t, db.Model(opp).Update("status", models.OpportunityStatusWon).Error)

	price := decimal.NewFromInt(1)
	_, err := svcs.Origination.UpdateTerms(context.Background(), owner.ID, owner.Role, opp.ID, TermsInput{VehiclePrice: &price})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestValidateReadyToCloseReportsAllGaps(t *testing.T) {
	svc := &OriginationService{}

	err := svc.ValidateReadyToClose(&models.Opportunity{})
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "vehículo")
	assert.Contains(t, verr.Fields, "precio del vehículo")
	assert.Contains(t, verr.Fields, "prima")
	assert.Contains(t, verr.Fields, "tasa mensual")
	assert.Contains(t, verr.Fields, "plazo en meses")
	assert.Contains(t, verr.Fields, "día de pago")
	assert.Contains(t, verr.Fields, "fecha de inicio")
}

func TestValidateReadyToCloseDownPaymentBelowPrice(t *testing.T) {
	svc := &OriginationService{}
	term := 24
	payDay := 10
	vehicleID := uint(1)
	start := time.Now()
	opp := &models.Opportunity{
		VehicleID:    &vehicleID,
		VehiclePrice: decimal.NewNullDecimal(decimal.NewFromInt(100000)),
		DownPayment:  decimal.NewNullDecimal(decimal.NewFromInt(100000)),
		MonthlyRate:  decimal.NewNullDecimal(decimal.NewFromFloat(1.5)),
		TermMonths:   &term,
		PayDay:       &payDay,
		StartDate:    &start,
	}

	err := svc.ValidateReadyToClose(opp)
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	opp.DownPayment = decimal.NewNullDecimal(decimal.NewFromInt(99999))
	assert.NoError(t, svc.ValidateReadyToClose(opp))
}

func TestMaterializeCreatesClientContractAndSchedule(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, models.RoleSales)
	terminal := stageByOrder(t, db, 9)
	opp := createTestOpportunity(t, db, owner.ID, terminal.ID)

	contract, err := svcs.Origination.Materialize(ctx, owner.ID, opp)
	require.NoError(t, err)
	assert.NotEmpty(t, contract.GUID)
	assert.Equal(t, models.ContractStatusActive, contract.Status)
	assert.True(t, contract.FinancedAmount.Equal(decimal.NewFromInt(500000)))
	assert.Equal(t, 36, contract.TermMonths)
	assert.Equal(t, contract.StartDate.AddDate(0, 36, 0), contract.MaturityDate)

	var client models.Client
	require.NoError(t, db.Where("opportunity_id = ?", opp.ID).First(&client).Error)

	// One row per month, sequences 1..N, the disbursement row stays out
	var installments []models.Installment
	require.NoError(t, db.Where("contract_id = ?", contract.ID).Order("sequence ASC").Find(&installments).Error)
	require.Len(t, installments, 36)
	for i, inst := range installments {
		assert.Equal(t, i+1, inst.Sequence)
	}
	assert.True(t, installments[0].ClosingBalance.LessThan(contract.FinancedAmount))
	assert.True(t, installments[35].ClosingBalance.IsZero())

	// The deal itself is closed out as won
	var won models.Opportunity
	require.NoError(t, db.First(&won, opp.ID).Error)
	assert.Equal(t, models.OpportunityStatusWon, won.Status)
	require.NotNil(t, won.ActualCloseDate)
}

func TestMaterializeIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, models.RoleSales)
	terminal := stageByOrder(t, db, 9)
	opp := createTestOpportunity(t, db, owner.ID, terminal.ID)

	first, err := svcs.Origination.Materialize(ctx, owner.ID, opp)
	require.NoError(t, err)

	second, err := svcs.Origination.Materialize(ctx, owner.ID, opp)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.GUID, second.GUID)

	var count int64
	require.NoError(t, db.Model(&models.FinancingContract{}).
		Where("opportunity_id = ?", opp.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestMaterializeByIDOwnership(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, models.RoleSales)
	stranger := createTestUser(t, db, models.RoleSales)
	admin := createTestUser(t, db, models.RoleAdmin)
	terminal := stageByOrder(t, db, 9)
	opp := createTestOpportunity(t, db, owner.ID, terminal.ID)

	_, err := svcs.Origination.MaterializeByID(ctx, stranger.ID, stranger.Role, opp.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	contract, err := svcs.Origination.MaterializeByID(ctx, admin.ID, admin.Role, opp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContractStatusActive, contract.Status)
}

func TestPreviewScheduleAccess(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, models.RoleSales)
	stranger := createTestUser(t, db, models.RoleSales)
	analyst := createTestUser(t, db, models.RoleAnalyst)
	first := stageByOrder(t, db, 1)
	opp := createTestOpportunity(t, db, owner.ID, first.ID)

	_, err := svcs.Origination.PreviewSchedule(ctx, stranger.ID, stranger.Role, opp.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	rows, err := svcs.Origination.PreviewSchedule(ctx, owner.ID, owner.Role, opp.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 37)

	// Analysts can inspect any deal's schedule
	rows, err = svcs.Origination.PreviewSchedule(ctx, analyst.ID, analyst.Role, opp.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 37)
}
