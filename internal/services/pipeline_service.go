package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/autocredit/cartera-api/internal/models"
	"github.com/autocredit/cartera-api/internal/repository"
	"github.com/autocredit/cartera-api/pkg/logger"
)

// moveStageAttempts bounds the optimistic retry loop on concurrent stage moves
const moveStageAttempts = 3

var errStaleStage = errors.New("stale stage read")

// PipelineService moves opportunities through the sales stages: ordered
// advancement, the analysis gate, audited overrides and the terminal close
// that materializes a contract.
type PipelineService struct {
	db          *gorm.DB
	repos       *repository.Repositories
	origination *OriginationService
	auditSvc    *AuditService
	docs        DocumentChecklist
}

// NewPipelineService creates a new pipeline service. A nil docs checklist
// means no document is ever required.
func NewPipelineService(db *gorm.DB, repos *repository.Repositories, origination *OriginationService, auditSvc *AuditService, docs DocumentChecklist) *PipelineService {
	if docs == nil {
		docs = completeChecklist{}
	}
	return &PipelineService{
		db:          db,
		repos:       repos,
		origination: origination,
		auditSvc:    auditSvc,
		docs:        docs,
	}
}

// AdvanceResult reports where the opportunity ended up after a move
type AdvanceResult struct {
	Opportunity *models.Opportunity       `json:"opportunity"`
	Stage       *models.SalesStage        `json:"stage"`
	Contract    *models.FinancingContract `json:"contract,omitempty"`
	Overridden  bool                      `json:"overridden"`
}

// AdvanceStage moves an opportunity to another pipeline stage; target 0
// means the next stage in order. A move by someone other than the owner or
// an admin, or one that carries an unapproved deal past credit analysis,
// goes through but is recorded as an override. Reaching the terminal stage
// materializes the contract in the same transaction as the stage move.
func (s *PipelineService) AdvanceStage(ctx context.Context, actorID uint, actorRole string, oppID, targetStageID uint, comment string) (*AdvanceResult, error) {
	var result *AdvanceResult
	for attempt := 0; attempt < moveStageAttempts; attempt++ {
		var err error
		result, err = s.tryAdvance(ctx, actorID, actorRole, oppID, targetStageID, comment)
		if errors.Is(err, errStaleStage) {
			logger.Warn("Concurrent stage move, retrying", "opportunity_id", oppID, "attempt", attempt+1)
			continue
		}
		return result, err
	}
	return nil, ErrConflict
}

func (s *PipelineService) tryAdvance(ctx context.Context, actorID uint, actorRole string, oppID, targetStageID uint, comment string) (*AdvanceResult, error) {
	opp, err := s.repos.Opportunity.FindByID(ctx, oppID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if opp.Status != models.OpportunityStatusOpen {
		return nil, ErrInvalidState
	}

	current, err := s.repos.Stage.FindByID(ctx, opp.StageID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if current.IsTerminal() {
		return nil, ErrInvalidState
	}

	var target *models.SalesStage
	if targetStageID == 0 {
		target, err = s.repos.Stage.FindNext(ctx, current.Order)
	} else {
		target, err = s.repos.Stage.FindByID(ctx, targetStageID)
	}
	if err != nil {
		return nil, mapNotFound(err)
	}
	if target.ID == current.ID {
		return nil, ErrInvalidState
	}

	// Overrides are permitted but land on the transition record: someone who
	// is neither the owner nor an admin moving the deal, or a deal carried
	// past credit analysis without approval.
	override := actorRole != models.RoleAdmin && opp.OwnerID != actorID
	if !opp.AnalysisApproved {
		analysis, err := s.repos.Stage.FindAnalysis(ctx)
		if err != nil {
			return nil, mapNotFound(err)
		}
		if current.Order <= analysis.Order && target.Order > analysis.Order {
			override = true
		}
	}

	newStatus := models.OpportunityStatusOpen
	if target.IsTerminal() {
		newStatus = models.OpportunityStatusWon
		if err := s.origination.ValidateReadyToClose(opp); err != nil {
			return nil, err
		}
	}

	var contract *models.FinancingContract
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepos := repository.NewRepositories(tx)

		rows, err := txRepos.Opportunity.MoveStage(ctx, opp.ID, current.ID, target.ID, opp.LockVersion, newStatus)
		if err != nil {
			return err
		}
		if rows == 0 {
			return errStaleStage
		}

		if err := txRepos.Stage.CreateTransition(ctx, &models.StageTransition{
			OpportunityID: opp.ID,
			FromStageID:   &current.ID,
			ToStageID:     target.ID,
			MovedByID:     actorID,
			IsOverride:    override,
			Comment:       comment,
		}); err != nil {
			return err
		}

		if target.IsTerminal() {
			contract, err = s.origination.materializeIn(ctx, tx, opp)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, wrapInfra(err)
	}

	opp.StageID = target.ID
	opp.Status = newStatus
	opp.LockVersion++

	action := "move_stage"
	if override {
		action = "move_stage_override"
	}
	s.auditSvc.Log(ctx, actorID, action, "opportunity", opp.ID,
		fmt.Sprintf("etapa %q → %q", current.Name, target.Name))
	logger.Info("Opportunity moved",
		"opportunity_id", opp.ID,
		"from", current.Name,
		"to", target.Name,
		"override", override)

	return &AdvanceResult{
		Opportunity: opp,
		Stage:       target,
		Contract:    contract,
		Overridden:  override,
	}, nil
}

// ApproveAnalysis records the credit analyst's sign-off on a deal sitting in
// the analysis stage. Approval requires the mandatory document checklist to
// be complete.
func (s *PipelineService) ApproveAnalysis(ctx context.Context, actorID uint, actorRole string, oppID uint) (*models.Opportunity, error) {
	if actorRole != models.RoleAdmin && actorRole != models.RoleAnalyst {
		return nil, ErrUnauthorized
	}

	opp, err := s.repos.Opportunity.FindByID(ctx, oppID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if opp.Status != models.OpportunityStatusOpen {
		return nil, ErrInvalidState
	}

	stage, err := s.repos.Stage.FindByID(ctx, opp.StageID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if !stage.IsAnalysis {
		return nil, ErrInvalidState
	}

	missing, err := s.docs.MissingDocuments(ctx, opp.ID)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, NewValidationError(missing...)
	}

	if err := s.repos.Opportunity.SetAnalysisApproved(ctx, opp.ID, true); err != nil {
		return nil, err
	}
	opp.AnalysisApproved = true

	s.auditSvc.Log(ctx, actorID, "approve_analysis", "opportunity", opp.ID, "análisis de crédito aprobado")
	logger.Info("Analysis approved", "opportunity_id", opp.ID, "analyst_id", actorID)
	return opp, nil
}

// MarkLost closes an opportunity without a contract
func (s *PipelineService) MarkLost(ctx context.Context, actorID uint, actorRole string, oppID uint, comment string) (*models.Opportunity, error) {
	opp, err := s.repos.Opportunity.FindByID(ctx, oppID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if actorRole != models.RoleAdmin && opp.OwnerID != actorID {
		return nil, ErrUnauthorized
	}
	if opp.Status != models.OpportunityStatusOpen && opp.Status != models.OpportunityStatusOnHold {
		return nil, ErrInvalidState
	}

	opp.Status = models.OpportunityStatusLost
	if err := s.repos.Opportunity.Update(ctx, opp); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, "mark_lost", "opportunity", opp.ID, comment)
	return opp, nil
}

// History returns the full stage transition trail of an opportunity
func (s *PipelineService) History(ctx context.Context, oppID uint) ([]models.StageTransition, error) {
	if _, err := s.repos.Opportunity.FindByID(ctx, oppID); err != nil {
		return nil, mapNotFound(err)
	}
	return s.repos.Stage.TransitionsByOpportunity(ctx, oppID)
}

// Stages lists the pipeline stages in order
func (s *PipelineService) Stages(ctx context.Context) ([]models.SalesStage, error) {
	return s.repos.Stage.ListOrdered(ctx)
}

// Get returns one opportunity with its lead, stage, owner and vehicle
func (s *PipelineService) Get(ctx context.Context, actorID uint, actorRole string, oppID uint) (*models.Opportunity, error) {
	opp, err := s.repos.Opportunity.FindByIDWithDetails(ctx, oppID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if actorRole != models.RoleAdmin && actorRole != models.RoleAnalyst && opp.OwnerID != actorID {
		return nil, ErrUnauthorized
	}
	return opp, nil
}

// List returns opportunities visible to the actor
func (s *PipelineService) List(ctx context.Context, query *repository.OpportunityQuery) ([]models.Opportunity, int64, error) {
	return s.repos.Opportunity.List(ctx, query)
}
