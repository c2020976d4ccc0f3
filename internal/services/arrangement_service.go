package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/autocredit/cartera-api/internal/models"
	"github.com/autocredit/cartera-api/internal/repository"
	"github.com/autocredit/cartera-api/pkg/logger"
)

const maxArrangementInstallments = 60

// ArrangementService manages the restructurings negotiated on collection
// cases. A case carries at most one arrangement in force at a time. The
// arrangement tracks its own fulfillment counter and never reconciles
// against the contract's installment ledger.
type ArrangementService struct {
	repos    *repository.Repositories
	auditSvc *AuditService
}

// NewArrangementService creates a new arrangement service
func NewArrangementService(repos *repository.Repositories, auditSvc *AuditService) *ArrangementService {
	return &ArrangementService{
		repos:    repos,
		auditSvc: auditSvc,
	}
}

// ArrangementInput carries the negotiated terms
type ArrangementInput struct {
	AgreedAmount      decimal.Decimal
	InstallmentCount  int
	InstallmentAmount decimal.Decimal
	StartDate         time.Time
	SpecialConditions string
}

// Create records a negotiated arrangement on an open case
func (s *ArrangementService) Create(ctx context.Context, actorID uint, actorRole string, caseID uint, input ArrangementInput) (*models.PaymentArrangement, error) {
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

	var bad []string
	if !input.AgreedAmount.IsPositive() {
		bad = append(bad, "monto acordado")
	}
	if input.InstallmentCount < 1 || input.InstallmentCount > maxArrangementInstallments {
		bad = append(bad, "número de cuotas")
	}
	if !input.InstallmentAmount.IsPositive() {
		bad = append(bad, "monto de cuota")
	}
	if input.StartDate.IsZero() {
		bad = append(bad, "fecha de inicio")
	}
	if len(bad) > 0 {
		return nil, NewValidationError(bad...)
	}

	existing, err := s.repos.Arrangement.FindActiveByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicate
	}

	arr := &models.PaymentArrangement{
		CaseID:            kase.ID,
		AgreedAmount:      input.AgreedAmount,
		InstallmentCount:  input.InstallmentCount,
		InstallmentAmount: input.InstallmentAmount,
		StartDate:         input.StartDate,
		Active:            true,
		SpecialConditions: input.SpecialConditions,
		ApprovedByID:      actorID,
		ApprovedAt:        time.Now(),
	}
	if err := s.repos.Arrangement.Create(ctx, arr); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, "create_arrangement", "payment_arrangement", arr.ID,
		fmt.Sprintf("convenio de %s en %d cuotas", input.AgreedAmount.StringFixed(2), input.InstallmentCount))
	return arr, nil
}

// RecordInstallmentPaid advances the fulfillment counter; reaching the
// agreed count marks the arrangement fulfilled and takes it out of force.
func (s *ArrangementService) RecordInstallmentPaid(ctx context.Context, actorID uint, actorRole string, arrangementID uint) (*models.PaymentArrangement, error) {
	arr, err := s.repos.Arrangement.FindByID(ctx, arrangementID)
	if err != nil {
		return nil, mapNotFound(err)
	}

	kase, err := s.repos.Case.FindByID(ctx, arr.CaseID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if !canWorkCase(kase, actorID, actorRole) {
		return nil, ErrUnauthorized
	}
	if !arr.MayRecordInstallment() {
		return nil, ErrInvalidState
	}

	arr.FulfilledCount++
	if arr.FulfilledCount >= arr.InstallmentCount {
		arr.Fulfilled = true
		arr.Active = false
	}
	if err := s.repos.Arrangement.Update(ctx, arr); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, "arrangement_installment_paid", "payment_arrangement", arr.ID,
		fmt.Sprintf("cuota %d de %d del convenio", arr.FulfilledCount, arr.InstallmentCount))
	if arr.Fulfilled {
		logger.Info("Payment arrangement fulfilled", "arrangement_id", arr.ID, "case_id", arr.CaseID)
	}
	return arr, nil
}

// Cancel takes an arrangement out of force without fulfilling it
func (s *ArrangementService) Cancel(ctx context.Context, actorID uint, actorRole string, arrangementID uint) (*models.PaymentArrangement, error) {
	arr, err := s.repos.Arrangement.FindByID(ctx, arrangementID)
	if err != nil {
		return nil, mapNotFound(err)
	}

	kase, err := s.repos.Case.FindByID(ctx, arr.CaseID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if !canWorkCase(kase, actorID, actorRole) {
		return nil, ErrUnauthorized
	}
	if !arr.Active {
		return nil, ErrInvalidState
	}

	arr.Active = false
	if err := s.repos.Arrangement.Update(ctx, arr); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, "cancel_arrangement", "payment_arrangement", arr.ID, "convenio cancelado")
	return arr, nil
}

// ListByCase returns every arrangement ever negotiated on a case
func (s *ArrangementService) ListByCase(ctx context.Context, actorID uint, actorRole string, caseID uint) ([]models.PaymentArrangement, error) {
	kase, err := s.repos.Case.FindByID(ctx, caseID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if !canWorkCase(kase, actorID, actorRole) {
		return nil, ErrUnauthorized
	}
	return s.repos.Arrangement.FindByCase(ctx, caseID)
}
