package services

import (
	"context"
	"fmt"
	"time"

	"github.com/autocredit/cartera-api/internal/models"
	"github.com/autocredit/cartera-api/internal/repository"
	"github.com/autocredit/cartera-api/pkg/logger"
)

// CaseService handles the day-to-day work over collection cases: contact
// logging, assignment and the collector dashboard.
type CaseService struct {
	repos    *repository.Repositories
	auditSvc *AuditService
}

// NewCaseService creates a new case service
func NewCaseService(repos *repository.Repositories, auditSvc *AuditService) *CaseService {
	return &CaseService{
		repos:    repos,
		auditSvc: auditSvc,
	}
}

// canWorkCase allows admins and the assigned collector only
func canWorkCase(kase *models.CollectionCase, actorID uint, actorRole string) bool {
	if actorRole == models.RoleAdmin {
		return true
	}
	if actorRole != models.RoleCollections {
		return false
	}
	return kase.CollectorID != nil && *kase.CollectorID == actorID
}

// Get returns a case with its contract, debtor and collector loaded
func (s *CaseService) Get(ctx context.Context, actorID uint, actorRole string, caseID uint) (*models.CollectionCase, error) {
	kase, err := s.repos.Case.FindByIDWithDetails(ctx, caseID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if !canWorkCase(kase, actorID, actorRole) {
		return nil, ErrUnauthorized
	}
	return kase, nil
}

// List returns cases visible to the actor. Collectors only see their own
// portfolio; admins see everything.
func (s *CaseService) List(ctx context.Context, actorID uint, actorRole string, query *repository.CaseQuery) ([]models.CollectionCase, int64, error) {
	if actorRole != models.RoleAdmin {
		if actorRole != models.RoleCollections {
			return nil, 0, ErrUnauthorized
		}
		query.CollectorID = actorID
	}
	return s.repos.Case.List(ctx, query)
}

// ContactInput carries one collection touch
type ContactInput struct {
	Method      string
	Outcome     string
	Notes       string
	Agreements  string
	ContactedAt time.Time
	FollowUpAt  *time.Time
}

// RecordContact appends a contact log entry to an open case
func (s *CaseService) RecordContact(ctx context.Context, actorID uint, actorRole string, caseID uint, input ContactInput) (*models.ContactLog, error) {
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
	if !models.ValidContactMethod(input.Method) {
		bad = append(bad, "medio de contacto")
	}
	if !models.ValidContactOutcome(input.Outcome) {
		bad = append(bad, "resultado de contacto")
	}
	if len(bad) > 0 {
		return nil, NewValidationError(bad...)
	}

	contactedAt := input.ContactedAt
	if contactedAt.IsZero() {
		contactedAt = time.Now()
	}

	contact := &models.ContactLog{
		CaseID:           kase.ID,
		CollectorID:      actorID,
		Method:           input.Method,
		Outcome:          input.Outcome,
		Notes:            input.Notes,
		Agreements:       input.Agreements,
		ContactedAt:      contactedAt,
		FollowUpRequired: input.FollowUpAt != nil,
		FollowUpAt:       input.FollowUpAt,
	}
	if err := s.repos.Contact.Create(ctx, contact); err != nil {
		return nil, err
	}

	if input.FollowUpAt != nil {
		kase.NextContactAt = input.FollowUpAt
		kase.NextContactMethod = input.Method
		if _, err := s.repos.Case.UpdateLocked(ctx, kase); err != nil {
			return nil, err
		}
	}

	s.auditSvc.Log(ctx, actorID, "record_contact", "collection_case", kase.ID,
		fmt.Sprintf("%s: %s", input.Method, input.Outcome))
	return contact, nil
}

// Contacts returns the contact history of a case, newest first
func (s *CaseService) Contacts(ctx context.Context, actorID uint, actorRole string, caseID uint) ([]models.ContactLog, error) {
	kase, err := s.repos.Case.FindByID(ctx, caseID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if !canWorkCase(kase, actorID, actorRole) {
		return nil, ErrUnauthorized
	}
	return s.repos.Contact.FindByCase(ctx, caseID)
}

// Reassign hands a case to another collector. Admins may assign anyone;
// collectors may only take a case for themselves.
func (s *CaseService) Reassign(ctx context.Context, actorID uint, actorRole string, caseID, collectorID uint) (*models.CollectionCase, error) {
	kase, err := s.repos.Case.FindByID(ctx, caseID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if !kase.IsOpen() {
		return nil, ErrInvalidState
	}

	if actorRole != models.RoleAdmin {
		if actorRole != models.RoleCollections || collectorID != actorID {
			return nil, ErrUnauthorized
		}
	}

	target, err := s.repos.User.FindByID(ctx, collectorID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if !target.CanCollect() {
		return nil, ErrUnauthorized
	}

	if err := s.repos.Case.AssignCollector(ctx, caseID, collectorID); err != nil {
		return nil, err
	}
	kase.CollectorID = &collectorID

	s.auditSvc.Log(ctx, actorID, "reassign_case", "collection_case", kase.ID,
		fmt.Sprintf("caso asignado a usuario %d", collectorID))
	logger.Info("Collection case reassigned", "case_id", kase.ID, "collector_id", collectorID)
	return kase, nil
}

// Dashboard aggregates the working numbers of one collector
type Dashboard struct {
	OpenByBucket        map[models.DelinquencyBucket]int64 `json:"open_by_bucket"`
	ContactsToday       int64                              `json:"contacts_today"`
	ActiveArrangements  int64                              `json:"active_arrangements"`
	RecoveriesInProcess int64                              `json:"recoveries_in_process"`
}

// CollectorDashboard returns the counters for a collector. Admins may look
// at anyone; collectors only at themselves.
func (s *CaseService) CollectorDashboard(ctx context.Context, actorID uint, actorRole string, collectorID uint) (*Dashboard, error) {
	if actorRole != models.RoleAdmin && (actorRole != models.RoleCollections || collectorID != actorID) {
		return nil, ErrUnauthorized
	}

	byBucket, err := s.repos.Case.CountOpenByBucketForCollector(ctx, collectorID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	contacts, err := s.repos.Contact.CountByCollectorSince(ctx, collectorID, startOfDay)
	if err != nil {
		return nil, err
	}

	arrangements, err := s.repos.Arrangement.CountActiveByCollector(ctx, collectorID)
	if err != nil {
		return nil, err
	}

	recoveries, err := s.repos.Recovery.CountInProgressByCollector(ctx, collectorID)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		OpenByBucket:        byBucket,
		ContactsToday:       contacts,
		ActiveArrangements:  arrangements,
		RecoveriesInProcess: recoveries,
	}, nil
}
