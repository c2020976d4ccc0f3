package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/autocredit/cartera-api/internal/models"
	"github.com/autocredit/cartera-api/internal/repository"
	"github.com/autocredit/cartera-api/internal/statemachine"
	"github.com/autocredit/cartera-api/pkg/logger"
)

// RecoveryService drives the repossession track and the write-off of
// uncollectible contracts. Both paths close the contract and its case for
// good: a closed contract never re-enters collections.
type RecoveryService struct {
	db       *gorm.DB
	repos    *repository.Repositories
	auditSvc *AuditService
}

// NewRecoveryService creates a new recovery service
func NewRecoveryService(db *gorm.DB, repos *repository.Repositories, auditSvc *AuditService) *RecoveryService {
	return &RecoveryService{
		db:       db,
		repos:    repos,
		auditSvc: auditSvc,
	}
}

// RecoveryInput carries a new repossession track
type RecoveryInput struct {
	RecoveryType string
	Location     string
	Notes        string
	CaseNumber   string
	Court        string
}

// Open starts a repossession on an open collection case
func (s *RecoveryService) Open(ctx context.Context, actorID uint, actorRole string, caseID uint, input RecoveryInput) (*models.VehicleRecovery, error) {
	kase, err := s.repos.Case.FindByID(ctx, caseID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if !canWorkCase(kase, actorID, actorRole) {
		return nil, ErrUnauthorized
	}
	if !kase.IsOpen() {
		return nil, ErrInvalidState
	}
	if !models.ValidRecoveryType(input.RecoveryType) {
		return nil, NewValidationError("tipo de recuperación")
	}

	inProgress, err := s.repos.Recovery.FindInProgressByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if inProgress != nil {
		return nil, ErrDuplicate
	}

	rec := &models.VehicleRecovery{
		CaseID:       kase.ID,
		ContractID:   kase.ContractID,
		OpenedByID:   actorID,
		RecoveryType: input.RecoveryType,
		Location:     input.Location,
		Notes:        input.Notes,
		CourtOrder:   input.RecoveryType == models.RecoveryTypeCourtOrder,
		CaseNumber:   input.CaseNumber,
		Court:        input.Court,
		Status:       models.RecoveryStatusInProgress,
		StartedAt:    time.Now(),
	}
	if err := s.repos.Recovery.Create(ctx, rec); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, "open_recovery", "vehicle_recovery", rec.ID,
		fmt.Sprintf("recuperación %s sobre contrato %d", input.RecoveryType, kase.ContractID))
	logger.Info("Vehicle recovery opened", "recovery_id", rec.ID, "case_id", kase.ID)
	return rec, nil
}

// Complete finishes a repossession: the recovery, the contract and the case
// close together or not at all.
func (s *RecoveryService) Complete(ctx context.Context, actorID uint, actorRole string, recoveryID uint) (*models.VehicleRecovery, error) {
	rec, err := s.repos.Recovery.FindByID(ctx, recoveryID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if rec.Status != models.RecoveryStatusInProgress {
		return nil, ErrInvalidState
	}

	kase, err := s.repos.Case.FindByID(ctx, rec.CaseID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if !canWorkCase(kase, actorID, actorRole) {
		return nil, ErrUnauthorized
	}

	contract, err := s.repos.Contract.FindByID(ctx, rec.ContractID)
	if err != nil {
		return nil, mapNotFound(err)
	}

	cfsm := statemachine.NewContractFSM(contract)
	if err := cfsm.Recover(ctx); err != nil {
		return nil, ErrInvalidState
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepos := repository.NewRepositories(tx)

		rec.Status = models.RecoveryStatusCompleted
		rec.CompletedAt = &now
		if err := txRepos.Recovery.Update(ctx, rec); err != nil {
			return err
		}

		if err := txRepos.Contract.UpdateStatus(ctx, contract.ID, contract.Status, &now); err != nil {
			return err
		}

		if kase.IsOpen() {
			fsm := statemachine.NewCaseFSM(kase)
			if err := fsm.Close(ctx, models.CaseCloseReasonRecovered, now); err != nil {
				return ErrInvalidState
			}
			rows, err := txRepos.Case.UpdateLocked(ctx, kase)
			if err != nil {
				return err
			}
			if rows == 0 {
				return ErrConflict
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapInfra(err)
	}

	s.auditSvc.Log(ctx, actorID, "complete_recovery", "vehicle_recovery", rec.ID,
		fmt.Sprintf("contrato %d recuperado", contract.ID))
	logger.Info("Vehicle recovery completed", "recovery_id", rec.ID, "contract_id", contract.ID)
	return rec, nil
}

// Cancel abandons a repossession attempt without touching the contract
func (s *RecoveryService) Cancel(ctx context.Context, actorID uint, actorRole string, recoveryID uint) (*models.VehicleRecovery, error) {
	rec, err := s.repos.Recovery.FindByID(ctx, recoveryID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if rec.Status != models.RecoveryStatusInProgress {
		return nil, ErrInvalidState
	}

	kase, err := s.repos.Case.FindByID(ctx, rec.CaseID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if !canWorkCase(kase, actorID, actorRole) {
		return nil, ErrUnauthorized
	}

	rec.Status = models.RecoveryStatusCanceled
	if err := s.repos.Recovery.Update(ctx, rec); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, "cancel_recovery", "vehicle_recovery", rec.ID, "recuperación cancelada")
	return rec, nil
}

// ChargeOff writes a contract off as uncollectible and closes its open
// case. Admin only.
func (s *RecoveryService) ChargeOff(ctx context.Context, actorID uint, actorRole string, contractID uint) (*models.FinancingContract, error) {
	if actorRole != models.RoleAdmin {
		return nil, ErrUnauthorized
	}

	contract, err := s.repos.Contract.FindByID(ctx, contractID)
	if err != nil {
		return nil, mapNotFound(err)
	}

	cfsm := statemachine.NewContractFSM(contract)
	if err := cfsm.ChargeOff(ctx); err != nil {
		return nil, ErrInvalidState
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepos := repository.NewRepositories(tx)

		if err := txRepos.Contract.UpdateStatus(ctx, contract.ID, contract.Status, &now); err != nil {
			return err
		}

		kase, err := txRepos.Case.FindOpenByContract(ctx, contract.ID)
		if err != nil {
			return err
		}
		if kase != nil {
			fsm := statemachine.NewCaseFSM(kase)
			if err := fsm.Close(ctx, models.CaseCloseReasonChargedOff, now); err != nil {
				return ErrInvalidState
			}
			rows, err := txRepos.Case.UpdateLocked(ctx, kase)
			if err != nil {
				return err
			}
			if rows == 0 {
				return ErrConflict
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapInfra(err)
	}
	contract.ClosedAt = &now

	s.auditSvc.Log(ctx, actorID, "charge_off", "contract", contract.ID, "contrato declarado incobrable")
	logger.Info("Contract charged off", "contract_id", contract.ID)
	return contract, nil
}
