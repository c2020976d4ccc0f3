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

// caseUpdateAttempts bounds the optimistic retry loop on concurrent case writes
const caseUpdateAttempts = 3

// DelinquencyService classifies active contracts into delinquency buckets
// and keeps exactly one open collection case per delinquent contract.
type DelinquencyService struct {
	db       *gorm.DB
	repos    *repository.Repositories
	auditSvc *AuditService
}

// NewDelinquencyService creates a new delinquency service
func NewDelinquencyService(db *gorm.DB, repos *repository.Repositories, auditSvc *AuditService) *DelinquencyService {
	return &DelinquencyService{
		db:       db,
		repos:    repos,
		auditSvc: auditSvc,
	}
}

// SweepAll reevaluates every active contract. Closed contracts never
// re-enter collections regardless of their remaining schedule.
func (s *DelinquencyService) SweepAll(ctx context.Context) error {
	ids, err := s.repos.Contract.FindActiveIDs(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	var failed int
	for _, id := range ids {
		if _, err := s.Reevaluate(ctx, id, now); err != nil {
			logger.Error("Delinquency reevaluation failed", "contract_id", id, "error", err)
			failed++
		}
	}

	logger.Info("Delinquency sweep finished", "contracts", len(ids), "failed", failed)
	if failed > 0 {
		return fmt.Errorf("delinquency sweep: %d of %d contracts failed", failed, len(ids))
	}
	return nil
}

// Reevaluate recomputes the bucket of one contract as of the given time and
// opens, updates or cures its collection case accordingly. It returns the
// open case, or nil when the contract is current.
func (s *DelinquencyService) Reevaluate(ctx context.Context, contractID uint, asOf time.Time) (*models.CollectionCase, error) {
	contract, err := s.repos.Contract.FindByID(ctx, contractID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if !contract.IsActive() {
		return nil, nil
	}

	summary, err := s.repos.Installment.OverdueSummary(ctx, contractID, asOf)
	if err != nil {
		return nil, err
	}

	if err := s.rebucketInstallments(ctx, contractID, asOf); err != nil {
		return nil, err
	}

	if summary.Count == 0 {
		return nil, s.cureOpenCase(ctx, contractID)
	}

	days := int(asOf.Sub(summary.OldestDueDate).Hours() / 24)
	bucket := models.BucketForDaysLate(days)

	for attempt := 0; attempt < caseUpdateAttempts; attempt++ {
		kase, err := s.repos.Case.FindOpenByContract(ctx, contractID)
		if err != nil {
			return nil, err
		}

		if kase == nil {
			kase, err = s.openCase(ctx, contract, bucket, days, summary, asOf)
			if err != nil {
				return nil, err
			}
			return kase, nil
		}

		kase.Bucket = bucket
		kase.DaysLate = days
		kase.AmountOverdue = summary.Amount
		kase.OverdueCount = summary.Count

		rows, err := s.repos.Case.UpdateLocked(ctx, kase)
		if err != nil {
			return nil, err
		}
		if rows > 0 {
			return kase, nil
		}
		logger.Warn("Concurrent case update, retrying", "case_id", kase.ID, "attempt", attempt+1)
	}
	return nil, ErrConflict
}

// rebucketInstallments refreshes the per-installment delinquency marks
func (s *DelinquencyService) rebucketInstallments(ctx context.Context, contractID uint, asOf time.Time) error {
	installments, err := s.repos.Installment.FindByContract(ctx, contractID)
	if err != nil {
		return err
	}

	for i := range installments {
		inst := &installments[i]
		if inst.IsPaid() {
			continue
		}
		days := inst.DaysLate(asOf)
		bucket := models.BucketForDaysLate(days)
		if inst.DaysPastDue == days && inst.Bucket == bucket {
			continue
		}
		if err := s.repos.Installment.UpdateDelinquency(ctx, inst.ID, bucket, days); err != nil {
			return err
		}
	}
	return nil
}

// cureOpenCase closes the contract's open case as paid up, if there is one
func (s *DelinquencyService) cureOpenCase(ctx context.Context, contractID uint) error {
	for attempt := 0; attempt < caseUpdateAttempts; attempt++ {
		kase, err := s.repos.Case.FindOpenByContract(ctx, contractID)
		if err != nil {
			return err
		}
		if kase == nil {
			return nil
		}

		fsm := statemachine.NewCaseFSM(kase)
		if err := fsm.Close(ctx, models.CaseCloseReasonCured, time.Now()); err != nil {
			return ErrInvalidState
		}
		kase.Bucket = models.BucketCurrent
		kase.DaysLate = 0
		kase.OverdueCount = 0

		rows, err := s.repos.Case.UpdateLocked(ctx, kase)
		if err != nil {
			return err
		}
		if rows > 0 {
			s.auditSvc.Log(ctx, 0, "cure_case", "collection_case", kase.ID,
				fmt.Sprintf("contrato %d al día, caso cerrado", contractID))
			logger.Info("Collection case cured", "case_id", kase.ID, "contract_id", contractID)
			return nil
		}
	}
	return ErrConflict
}

// openCase creates a fresh case and hands it to the collector carrying the
// fewest open cases.
func (s *DelinquencyService) openCase(ctx context.Context, contract *models.FinancingContract, bucket models.DelinquencyBucket, days int, summary *repository.OverdueSummary, asOf time.Time) (*models.CollectionCase, error) {
	kase := &models.CollectionCase{
		ContractID:    contract.ID,
		Bucket:        bucket,
		DaysLate:      days,
		AmountOverdue: summary.Amount,
		OverdueCount:  summary.Count,
		Status:        models.CaseStatusOpen,
		OpenedAt:      asOf,
	}

	if client, err := s.repos.Client.FindByID(ctx, contract.ClientID); err == nil {
		kase.ContactPhone = client.Phone
		kase.ContactEmail = client.Email
		kase.ContactAddress = client.Address
	}

	collectorID, err := s.pickCollector(ctx)
	if err != nil {
		return nil, err
	}
	if collectorID > 0 {
		kase.CollectorID = &collectorID
	}

	if err := s.repos.Case.Create(ctx, kase); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, 0, "open_case", "collection_case", kase.ID,
		fmt.Sprintf("contrato %d en %s, %d cuotas vencidas", contract.ID, bucket, summary.Count))
	logger.Info("Collection case opened",
		"case_id", kase.ID,
		"contract_id", contract.ID,
		"bucket", bucket,
		"days_late", days)
	return kase, nil
}

// pickCollector returns the active collections user with the fewest open
// cases, breaking ties by lowest ID. Zero means nobody is available.
func (s *DelinquencyService) pickCollector(ctx context.Context) (uint, error) {
	collectors, err := s.repos.User.FindActiveCollectors(ctx)
	if err != nil {
		return 0, err
	}
	if len(collectors) == 0 {
		return 0, nil
	}

	counts, err := s.repos.Case.OpenCountsByCollector(ctx)
	if err != nil {
		return 0, err
	}

	best := collectors[0].ID
	bestCount := counts[best]
	for _, c := range collectors[1:] {
		if counts[c.ID] < bestCount {
			best = c.ID
			bestCount = counts[c.ID]
		}
	}
	return best, nil
}
