package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/autocredit/cartera-api/internal/jobs"
	"github.com/autocredit/cartera-api/internal/models"
	"github.com/autocredit/cartera-api/internal/repository"
	"github.com/autocredit/cartera-api/internal/statemachine"
	"github.com/autocredit/cartera-api/pkg/logger"
)

// PaymentService posts installment payments against contracts. Paying the
// last pending installment completes the contract and shuts its case.
type PaymentService struct {
	db          *gorm.DB
	repos       *repository.Repositories
	delinquency *DelinquencyService
	auditSvc    *AuditService
	worker      *jobs.Worker
}

// NewPaymentService creates a new payment service
func NewPaymentService(db *gorm.DB, repos *repository.Repositories, delinquency *DelinquencyService, auditSvc *AuditService, worker *jobs.Worker) *PaymentService {
	return &PaymentService{
		db:          db,
		repos:       repos,
		delinquency: delinquency,
		auditSvc:    auditSvc,
		worker:      worker,
	}
}

// RegisterPayment marks one installment as paid
func (s *PaymentService) RegisterPayment(ctx context.Context, actorID uint, actorRole string, contractID uint, sequence int, amount decimal.Decimal) (*models.Installment, error) {
	if actorRole != models.RoleAdmin && actorRole != models.RoleCollections {
		return nil, ErrUnauthorized
	}
	if sequence <= 0 {
		return nil, NewValidationError("número de cuota")
	}
	if !amount.IsPositive() {
		return nil, NewValidationError("monto")
	}

	contract, err := s.repos.Contract.FindByID(ctx, contractID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if !contract.IsActive() {
		return nil, ErrInvalidState
	}

	installment, err := s.repos.Installment.FindBySequence(ctx, contractID, sequence)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if installment.IsPaid() {
		return nil, ErrDuplicate
	}

	now := time.Now()
	completed := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepos := repository.NewRepositories(tx)

		if err := txRepos.Installment.MarkPaid(ctx, installment.ID, amount, now); err != nil {
			return err
		}

		remaining, err := txRepos.Installment.CountUnpaid(ctx, contractID)
		if err != nil {
			return err
		}
		if remaining > 0 {
			return nil
		}

		// Last installment settled, the contract completes and any open
		// case closes with it.
		cfsm := statemachine.NewContractFSM(contract)
		if err := cfsm.Complete(ctx); err != nil {
			return ErrInvalidState
		}
		if err := txRepos.Contract.UpdateStatus(ctx, contract.ID, contract.Status, &now); err != nil {
			return err
		}

		kase, err := txRepos.Case.FindOpenByContract(ctx, contract.ID)
		if err != nil {
			return err
		}
		if kase != nil {
			fsm := statemachine.NewCaseFSM(kase)
			if err := fsm.Close(ctx, models.CaseCloseReasonCompleted, now); err != nil {
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
		completed = true
		return nil
	})
	if err != nil {
		return nil, wrapInfra(err)
	}

	installment.Status = models.InstallmentStatusPaid
	installment.PaidAt = &now
	installment.PaidAmount = decimal.NewNullDecimal(amount)

	s.auditSvc.Log(ctx, actorID, "register_payment", "contract", contract.ID,
		fmt.Sprintf("cuota %d pagada, %s", sequence, amount.StringFixed(2)))
	logger.Info("Payment registered",
		"contract_id", contract.ID,
		"sequence", sequence,
		"completed", completed)

	if completed {
		s.auditSvc.Log(ctx, actorID, "complete_contract", "contract", contract.ID, "contrato completado")
	} else {
		// The bucket may have improved; refresh the case off the request path.
		id := contract.ID
		s.worker.Submit(func(jobCtx context.Context) error {
			_, err := s.delinquency.Reevaluate(jobCtx, id, time.Now())
			return err
		})
	}
	return installment, nil
}

// Schedule returns the amortization table of a contract
func (s *PaymentService) Schedule(ctx context.Context, contractID uint) ([]models.Installment, error) {
	if _, err := s.repos.Contract.FindByID(ctx, contractID); err != nil {
		return nil, mapNotFound(err)
	}
	return s.repos.Installment.FindByContract(ctx, contractID)
}

// GetContract returns a contract with client and vehicle details
func (s *PaymentService) GetContract(ctx context.Context, contractID uint) (*models.FinancingContract, error) {
	contract, err := s.repos.Contract.FindByIDWithDetails(ctx, contractID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return contract, nil
}

// ListContracts returns contracts matching the query
func (s *PaymentService) ListContracts(ctx context.Context, query *repository.ContractQuery) ([]models.FinancingContract, int64, error) {
	return s.repos.Contract.List(ctx, query)
}
