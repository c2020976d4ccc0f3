package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autocredit/cartera-api/internal/models"
)

func TestAdvanceStageWalksThePipelineInOrder(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, models.RoleSales)
	first := stageByOrder(t, db, 1)
	opp := createTestOpportunity(t, db, owner.ID, first.ID)

	result, err := svcs.Pipeline.AdvanceStage(ctx, owner.ID, owner.Role, opp.ID, 0, "cliente interesado")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Stage.Order)
	assert.False(t, result.Overridden)
	assert.Nil(t, result.Contract)

	result, err = svcs.Pipeline.AdvanceStage(ctx, owner.ID, owner.Role, opp.ID, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 3, result.Stage.Order)

	history, err := svcs.Pipeline.History(ctx, opp.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestAdvanceStageToExplicitTarget(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, models.RoleSales)
	first := stageByOrder(t, db, 1)
	third := stageByOrder(t, db, 3)
	opp := createTestOpportunity(t, db, owner.ID, first.ID)

	// Jumping ahead of order is fine as long as analysis is not crossed
	result, err := svcs.Pipeline.AdvanceStage(ctx, owner.ID, owner.Role, opp.ID, third.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 3, result.Stage.Order)
	assert.False(t, result.Overridden)

	// Backward moves work too and never flag anything
	result, err = svcs.Pipeline.AdvanceStage(ctx, owner.ID, owner.Role, opp.ID, first.ID, "faltan documentos")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stage.Order)
	assert.False(t, result.Overridden)

	// Moving to the stage the deal is already in makes no sense
	_, err = svcs.Pipeline.AdvanceStage(ctx, owner.ID, owner.Role, opp.ID, first.ID, "")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestNonOwnerAdvanceIsFlaggedAsOverride(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, models.RoleSales)
	stranger := createTestUser(t, db, models.RoleSales)
	first := stageByOrder(t, db, 1)
	opp := createTestOpportunity(t, db, owner.ID, first.ID)

	// The move goes through but lands on the record as an override
	result, err := svcs.Pipeline.AdvanceStage(ctx, stranger.ID, stranger.Role, opp.ID, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Stage.Order)
	assert.True(t, result.Overridden)

	history, err := svcs.Pipeline.History(ctx, opp.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].IsOverride)
	assert.Equal(t, stranger.ID, history[0].MovedByID)
}

func TestAnalysisSkipIsFlaggedAsOverride(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, models.RoleSales)
	analyst := createTestUser(t, db, models.RoleAnalyst)
	analysis := stageByOrder(t, db, 4)
	opp := createTestOpportunity(t, db, owner.ID, analysis.ID)

	// Pushing past analysis without approval goes through, audited
	result, err := svcs.Pipeline.AdvanceStage(ctx, owner.ID, owner.Role, opp.ID, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 5, result.Stage.Order)
	assert.True(t, result.Overridden)

	history, err := svcs.Pipeline.History(ctx, opp.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].IsOverride)

	// Back to analysis, approve, and the same move is clean
	_, err = svcs.Pipeline.AdvanceStage(ctx, owner.ID, owner.Role, opp.ID, analysis.ID, "")
	require.NoError(t, err)

	// Sales agents cannot approve their own analysis
	_, err = svcs.Pipeline.ApproveAnalysis(ctx, owner.ID, owner.Role, opp.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svcs.Pipeline.ApproveAnalysis(ctx, analyst.ID, analyst.Role, opp.ID)
	require.NoError(t, err)

	result, err = svcs.Pipeline.AdvanceStage(ctx, owner.ID, owner.Role, opp.ID, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 5, result.Stage.Order)
	assert.False(t, result.Overridden)
}

func TestAdminAnalysisSkipIsRecorded(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, models.RoleSales)
	admin := createTestUser(t, db, models.RoleAdmin)
	analysis := stageByOrder(t, db, 4)
	opp := createTestOpportunity(t, db, owner.ID, analysis.ID)

	result, err := svcs.Pipeline.AdvanceStage(ctx, admin.ID, admin.Role, opp.ID, 0, "cliente recurrente")
	require.NoError(t, err)
	assert.True(t, result.Overridden)

	history, err := svcs.Pipeline.History(ctx, opp.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].IsOverride)
	assert.Equal(t, "cliente recurrente", history[0].Comment)
}

func TestApproveAnalysisOnlyInAnalysisStage(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)

	owner := createTestUser(t, db, models.RoleSales)
	analyst := createTestUser(t, db, models.RoleAnalyst)
	first := stageByOrder(t, db, 1)
	opp := createTestOpportunity(t, db, owner.ID, first.ID)

	_, err := svcs.Pipeline.ApproveAnalysis(context.Background(), analyst.ID, analyst.Role, opp.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

type fixedChecklist struct {
	missing []string
}

func (c fixedChecklist) MissingDocuments(ctx context.Context, opportunityID uint) ([]string, error) {
	return c.missing, nil
}

func TestApproveAnalysisRequiresDocuments(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, models.RoleSales)
	analyst := createTestUser(t, db, models.RoleAnalyst)
	analysis := stageByOrder(t, db, 4)
	opp := createTestOpportunity(t, db, owner.ID, analysis.ID)

	svcs.Pipeline.docs = fixedChecklist{missing: []string{"identificación", "comprobante de ingresos"}}
	_, err := svcs.Pipeline.ApproveAnalysis(ctx, analyst.ID, analyst.Role, opp.ID)
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "identificación")
	assert.Contains(t, verr.Fields, "comprobante de ingresos")

	svcs.Pipeline.docs = fixedChecklist{}
	approved, err := svcs.Pipeline.ApproveAnalysis(ctx, analyst.ID, analyst.Role, opp.ID)
	require.NoError(t, err)
	assert.True(t, approved.AnalysisApproved)
}

func TestTerminalAdvanceMaterializesContract(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, models.RoleSales)
	preTerminal := stageByOrder(t, db, 8)
	opp := createTestOpportunity(t, db, owner.ID, preTerminal.ID)

	result, err := svcs.Pipeline.AdvanceStage(ctx, owner.ID, owner.Role, opp.ID, 0, "entrega realizada")
	require.NoError(t, err)
	require.NotNil(t, result.Contract)
	assert.True(t, result.Stage.IsTerminal())
	assert.Equal(t, models.OpportunityStatusWon, result.Opportunity.Status)
	assert.NotNil(t, result.Opportunity.ActualCloseDate)

	var installmentCount int64
	require.NoError(t, db.Model(&models.Installment{}).
		Where("contract_id = ?", result.Contract.ID).Count(&installmentCount).Error)
	assert.EqualValues(t, 36, installmentCount)

	// A won deal cannot keep advancing
	_, err = svcs.Pipeline.AdvanceStage(ctx, owner.ID, owner.Role, opp.ID, 0, "")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestTerminalAdvanceRejectsIncompleteTerms(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)

	owner := createTestUser(t, db, models.RoleSales)
	preTerminal := stageByOrder(t, db, 8)
	opp := createTestOpportunity(t, db, owner.ID, preTerminal.ID)
	require.NoError(t, db.Model(opp).Update("vehicle_id", nil).Error)

	_, err := svcs.Pipeline.AdvanceStage(context.Background(), owner.ID, owner.Role, opp.ID, 0, "")
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	// No contract came out of the failed close
	var count int64
	require.NoError(t, db.Model(&models.FinancingContract{}).
		Where("opportunity_id = ?", opp.ID).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestAdvanceStageConflictOnStaleVersion(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)

	owner := createTestUser(t, db, models.RoleSales)
	first := stageByOrder(t, db, 1)
	opp := createTestOpportunity(t, db, owner.ID, first.ID)

	// Simulate a writer that bumped the lock version under us. Every retry
	// rereads the row, so tryAdvance with a doctored in-memory version is
	// exercised through the repository directly.
	rows, err := svcs.Pipeline.repos.Opportunity.MoveStage(
		context.Background(), opp.ID, first.ID, stageByOrder(t, db, 2).ID, opp.LockVersion+5, models.OpportunityStatusOpen)
	require.NoError(t, err)
	assert.EqualValues(t, 0, rows)
}

func TestMarkLost(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, models.RoleSales)
	first := stageByOrder(t, db, 1)
	opp := createTestOpportunity(t, db, owner.ID, first.ID)

	lost, err := svcs.Pipeline.MarkLost(ctx, owner.ID, owner.Role, opp.ID, "compró en otra agencia")
	require.NoError(t, err)
	assert.Equal(t, models.OpportunityStatusLost, lost.Status)

	// Lost deals are frozen
	_, err = svcs.Pipeline.AdvanceStage(ctx, owner.ID, owner.Role, opp.ID, 0, "")
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = svcs.Pipeline.MarkLost(ctx, owner.ID, owner.Role, opp.ID, "")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestStagesListedInOrder(t *testing.T) {
	db := newTestDB(t)
	svcs := newTestServices(t, db)

	stages, err := svcs.Pipeline.Stages(context.Background())
	require.NoError(t, err)
	require.Len(t, stages, 9)
	for i := 1; i < len(stages); i++ {
		assert.Greater(t, stages[i].Order, stages[i-1].Order)
	}
	assert.True(t, stages[len(stages)-1].IsTerminal())
}
