package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/autocredit/cartera-api/internal/models"
	"github.com/autocredit/cartera-api/internal/repository"
	"github.com/autocredit/cartera-api/pkg/logger"
)

// OriginationService owns the deal intake side: converting leads, keeping
// credit terms, and materializing a won opportunity into a client, a frozen
// contract and its amortization schedule.
type OriginationService struct {
	db       *gorm.DB
	repos    *repository.Repositories
	auditSvc *AuditService
}

// NewOriginationService creates a new origination service
func NewOriginationService(db *gorm.DB, repos *repository.Repositories, auditSvc *AuditService) *OriginationService {
	return &OriginationService{
		db:       db,
		repos:    repos,
		auditSvc: auditSvc,
	}
}

// ConvertLead opens an opportunity in the first pipeline stage for a lead
// that has not been converted yet.
func (s *OriginationService) ConvertLead(ctx context.Context, actorID, leadID uint) (*models.Opportunity, error) {
	lead, err := s.repos.Lead.FindByID(ctx, leadID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if lead.IsConverted() {
		return nil, ErrDuplicate
	}

	firstStage, err := s.repos.Stage.FindFirst(ctx)
	if err != nil {
		return nil, mapNotFound(err)
	}

	ownerID := actorID
	if lead.OwnerID != nil {
		ownerID = *lead.OwnerID
	}

	opp := &models.Opportunity{
		LeadID:  lead.ID,
		StageID: firstStage.ID,
		OwnerID: ownerID,
		Status:  models.OpportunityStatusOpen,
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepos := repository.NewRepositories(tx)
		if err := txRepos.Opportunity.Create(ctx, opp); err != nil {
			return err
		}
		if err := txRepos.Stage.CreateTransition(ctx, &models.StageTransition{
			OpportunityID: opp.ID,
			ToStageID:     firstStage.ID,
			MovedByID:     actorID,
		}); err != nil {
			return err
		}
		return txRepos.Lead.MarkConverted(ctx, lead.ID, now)
	})
	if err != nil {
		return nil, wrapInfra(err)
	}

	s.auditSvc.Log(ctx, actorID, "convert_lead", "opportunity", opp.ID,
		fmt.Sprintf("lead %d convertido", lead.ID))
	logger.Info("Lead converted", "lead_id", lead.ID, "opportunity_id", opp.ID)
	return opp, nil
}

// TermsInput carries a partial update of the credit terms. Nil fields keep
// their current value.
type TermsInput struct {
	VehicleID        *uint
	VehiclePrice     *decimal.Decimal
	DownPayment      *decimal.Decimal
	MonthlyRate      *decimal.Decimal
	TermMonths       *int
	PayDay           *int
	StartDate        *time.Time
	MonthlyInsurance *decimal.Decimal
	MonthlyGPS       *decimal.Decimal
}

// UpdateTerms edits the credit terms of an open opportunity. Only the owner
// or an admin may touch a deal; terms freeze once it is won.
func (s *OriginationService) UpdateTerms(ctx context.Context, actorID uint, actorRole string, oppID uint, input TermsInput) (*models.Opportunity, error) {
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

	if input.VehicleID != nil {
		if _, err := s.repos.Vehicle.FindByID(ctx, *input.VehicleID); err != nil {
			return nil, mapNotFound(err)
		}
		opp.VehicleID = input.VehicleID
	}
	if input.VehiclePrice != nil {
		opp.VehiclePrice = decimal.NewNullDecimal(*input.VehiclePrice)
	}
	if input.DownPayment != nil {
		opp.DownPayment = decimal.NewNullDecimal(*input.DownPayment)
	}
	if input.MonthlyRate != nil {
		opp.MonthlyRate = decimal.NewNullDecimal(*input.MonthlyRate)
	}
	if input.TermMonths != nil {
		opp.TermMonths = input.TermMonths
	}
	if input.PayDay != nil {
		opp.PayDay = input.PayDay
	}
	if input.StartDate != nil {
		opp.StartDate = input.StartDate
	}
	if input.MonthlyInsurance != nil {
		opp.MonthlyInsurance = decimal.NewNullDecimal(*input.MonthlyInsurance)
	}
	if input.MonthlyGPS != nil {
		opp.MonthlyGPS = decimal.NewNullDecimal(*input.MonthlyGPS)
	}

	if err := validateTermRanges(opp); err != nil {
		return nil, err
	}

	if err := s.repos.Opportunity.Update(ctx, opp); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, "update_terms", "opportunity", opp.ID, "términos de crédito actualizados")
	return opp, nil
}

// ValidateReadyToClose checks that every field needed to write a contract is
// present, reporting all the gaps in one error.
func (s *OriginationService) ValidateReadyToClose(opp *models.Opportunity) error {
	var missing []string

	if opp.VehicleID == nil {
		missing = append(missing, "vehículo")
	}
	if !opp.VehiclePrice.Valid || !opp.VehiclePrice.Decimal.IsPositive() {
		missing = append(missing, "precio del vehículo")
	}
	if !opp.DownPayment.Valid {
		missing = append(missing, "prima")
	}
	if !opp.MonthlyRate.Valid {
		missing = append(missing, "tasa mensual")
	}
	if opp.TermMonths == nil || *opp.TermMonths <= 0 {
		missing = append(missing, "plazo en meses")
	}
	if opp.PayDay == nil || *opp.PayDay < 1 || *opp.PayDay > 31 {
		missing = append(missing, "día de pago")
	}
	if opp.StartDate == nil {
		missing = append(missing, "fecha de inicio")
	}

	if len(missing) > 0 {
		return NewValidationError(missing...)
	}

	if opp.DownPayment.Decimal.GreaterThanOrEqual(opp.VehiclePrice.Decimal) {
		return NewValidationError("prima menor al precio del vehículo")
	}
	if opp.MonthlyRate.Decimal.IsNegative() {
		return NewValidationError("tasa mensual no negativa")
	}
	return nil
}

// PreviewSchedule builds the amortization table for the current terms
// without touching the database.
func (s *OriginationService) PreviewSchedule(ctx context.Context, actorID uint, actorRole string, oppID uint) ([]ScheduleRow, error) {
	opp, err := s.repos.Opportunity.FindByID(ctx, oppID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if actorRole != models.RoleAdmin && actorRole != models.RoleAnalyst && opp.OwnerID != actorID {
		return nil, ErrUnauthorized
	}
	if err := s.ValidateReadyToClose(opp); err != nil {
		return nil, err
	}
	return BuildSchedule(s.scheduleTerms(opp)), nil
}

// MaterializeByID closes a deal directly: the owner or an admin can turn it
// into a contract without walking the remaining pipeline stages.
func (s *OriginationService) MaterializeByID(ctx context.Context, actorID uint, actorRole string, oppID uint) (*models.FinancingContract, error) {
	opp, err := s.repos.Opportunity.FindByID(ctx, oppID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if actorRole != models.RoleAdmin && opp.OwnerID != actorID {
		return nil, ErrUnauthorized
	}
	return s.Materialize(ctx, actorID, opp)
}

// Materialize turns an opportunity into client, contract and installments in
// one transaction, flipping the deal to won. Calling it again for the same
// opportunity returns the existing contract instead of duplicating anything.
func (s *OriginationService) Materialize(ctx context.Context, actorID uint, opp *models.Opportunity) (*models.FinancingContract, error) {
	if existing, err := s.repos.Contract.FindByOpportunity(ctx, opp.ID); err == nil {
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := s.ValidateReadyToClose(opp); err != nil {
		return nil, err
	}

	var contract *models.FinancingContract
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		contract, txErr = s.materializeIn(ctx, tx, opp)
		return txErr
	})
	if err != nil {
		// A concurrent materializer may have won the unique index race.
		if existing, ferr := s.repos.Contract.FindByOpportunity(ctx, opp.ID); ferr == nil {
			return existing, nil
		}
		return nil, wrapInfra(err)
	}

	s.auditSvc.Log(ctx, actorID, "materialize", "contract", contract.ID,
		fmt.Sprintf("contrato %s emitido por oportunidad %d", contract.GUID, opp.ID))
	logger.Info("Contract materialized",
		"contract_id", contract.ID,
		"opportunity_id", opp.ID,
		"term_months", contract.TermMonths)
	return contract, nil
}

// materializeIn writes client, contract and installments and flips the deal
// to won inside the given transaction. The pipeline service reuses it so a
// terminal stage move and the materialization commit or roll back together.
func (s *OriginationService) materializeIn(ctx context.Context, tx *gorm.DB, opp *models.Opportunity) (*models.FinancingContract, error) {
	txRepos := repository.NewRepositories(tx)

	lead, err := txRepos.Lead.FindByID(ctx, opp.LeadID)
	if err != nil {
		return nil, mapNotFound(err)
	}

	now := time.Now()
	terms := s.scheduleTerms(opp)
	schedule := BuildSchedule(terms)

	client := &models.Client{
		OpportunityID: opp.ID,
		FullName:      lead.FullName,
		Email:         lead.Email,
		Phone:         lead.Phone,
	}
	if err := txRepos.Client.Create(ctx, client); err != nil {
		return nil, err
	}

	fixedCharges := terms.MonthlyInsurance.Add(terms.MonthlyGPS)
	contract := &models.FinancingContract{
		OpportunityID:    opp.ID,
		ClientID:         client.ID,
		VehicleID:        *opp.VehicleID,
		VehiclePrice:     opp.VehiclePrice.Decimal,
		DownPayment:      opp.DownPayment.Decimal,
		FinancedAmount:   terms.Principal,
		MonthlyRate:      opp.MonthlyRate.Decimal,
		TermMonths:       *opp.TermMonths,
		PayDay:           *opp.PayDay,
		StartDate:        terms.StartDate,
		MaturityDate:     terms.StartDate.AddDate(0, *opp.TermMonths, 0),
		MonthlyInsurance: terms.MonthlyInsurance,
		MonthlyGPS:       terms.MonthlyGPS,
		MonthlyPayment:   MonthlyPayment(terms.Principal, terms.MonthlyRate, terms.TermMonths, fixedCharges),
		Status:           models.ContractStatusActive,
		SignedAt:         now,
	}
	if err := txRepos.Contract.Create(ctx, contract); err != nil {
		return nil, err
	}

	// The synthetic disbursement row is disclosure only and never persisted.
	installments := make([]models.Installment, 0, len(schedule)-1)
	for _, row := range schedule {
		if row.Sequence == 0 {
			continue
		}
		installments = append(installments, models.Installment{
			ContractID:     contract.ID,
			Sequence:       row.Sequence,
			DueDate:        row.DueDate,
			AmountDue:      row.AmountDue,
			Principal:      row.Principal,
			Interest:       row.Interest,
			Insurance:      row.Insurance,
			GPS:            row.GPS,
			ClosingBalance: row.ClosingBalance,
			Status:         models.InstallmentStatusPending,
			Bucket:         models.BucketCurrent,
		})
	}
	if err := txRepos.Installment.CreateBatch(ctx, installments); err != nil {
		return nil, err
	}

	if err := txRepos.Opportunity.MarkWon(ctx, opp.ID, now); err != nil {
		return nil, err
	}
	opp.Status = models.OpportunityStatusWon
	opp.ActualCloseDate = &now

	return contract, nil
}

func (s *OriginationService) scheduleTerms(opp *models.Opportunity) ScheduleTerms {
	terms := ScheduleTerms{
		Principal:        opp.FinancedAmount(),
		MonthlyRate:      opp.MonthlyRate.Decimal,
		TermMonths:       *opp.TermMonths,
		PayDay:           *opp.PayDay,
		StartDate:        *opp.StartDate,
		MonthlyInsurance: decimal.Zero,
		MonthlyGPS:       decimal.Zero,
	}
	if opp.MonthlyInsurance.Valid {
		terms.MonthlyInsurance = opp.MonthlyInsurance.Decimal
	}
	if opp.MonthlyGPS.Valid {
		terms.MonthlyGPS = opp.MonthlyGPS.Decimal
	}
	return terms
}

// validateTermRanges rejects obviously broken partial inputs early
func validateTermRanges(opp *models.Opportunity) error {
	var bad []string
	if opp.VehiclePrice.Valid && !opp.VehiclePrice.Decimal.IsPositive() {
		bad = append(bad, "precio del vehículo")
	}
	if opp.DownPayment.Valid && opp.DownPayment.Decimal.IsNegative() {
		bad = append(bad, "prima")
	}
	if opp.MonthlyRate.Valid && opp.MonthlyRate.Decimal.IsNegative() {
		bad = append(bad, "tasa mensual")
	}
	if opp.TermMonths != nil && *opp.TermMonths <= 0 {
		bad = append(bad, "plazo en meses")
	}
	if opp.PayDay != nil && (*opp.PayDay < 1 || *opp.PayDay > 31) {
		bad = append(bad, "día de pago")
	}
	if len(bad) > 0 {
		return NewValidationError(bad...)
	}
	return nil
}

// mapNotFound converts gorm's record-not-found into the service sentinel
func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
