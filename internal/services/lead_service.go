package services

import (
	"context"

	"github.com/autocredit/cartera-api/internal/models"
	"github.com/autocredit/cartera-api/internal/repository"
)

// LeadService handles prospect intake before any credit work starts
type LeadService struct {
	repos    *repository.Repositories
	auditSvc *AuditService
}

// NewLeadService creates a new lead service
func NewLeadService(repos *repository.Repositories, auditSvc *AuditService) *LeadService {
	return &LeadService{
		repos:    repos,
		auditSvc: auditSvc,
	}
}

// LeadInput carries a new prospect
type LeadInput struct {
	FullName    string
	Email       string
	Phone       string
	Source      string
	Notes       string
	CompanyID   *uint
	CompanyName string
}

// Create registers a lead, creating its company on the fly when only a name
// was provided.
func (s *LeadService) Create(ctx context.Context, actorID uint, input LeadInput) (*models.Lead, error) {
	if input.FullName == "" {
		return nil, NewValidationError("nombre completo")
	}

	lead := &models.Lead{
		FullName: input.FullName,
		Email:    input.Email,
		Phone:    input.Phone,
		Source:   input.Source,
		Notes:    input.Notes,
		OwnerID:  &actorID,
	}

	if input.CompanyID != nil {
		if _, err := s.repos.Lead.FindCompanyByID(ctx, *input.CompanyID); err != nil {
			return nil, mapNotFound(err)
		}
		lead.CompanyID = input.CompanyID
	} else if input.CompanyName != "" {
		company := &models.Company{Name: input.CompanyName}
		if err := s.repos.Lead.CreateCompany(ctx, company); err != nil {
			return nil, err
		}
		lead.CompanyID = &company.ID
	}

	if err := s.repos.Lead.Create(ctx, lead); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, "create_lead", "lead", lead.ID, lead.FullName)
	return lead, nil
}

// Get returns a lead with its company and owner
func (s *LeadService) Get(ctx context.Context, leadID uint) (*models.Lead, error) {
	lead, err := s.repos.Lead.FindByID(ctx, leadID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return lead, nil
}

// List returns leads matching the query
func (s *LeadService) List(ctx context.Context, query *repository.ListQuery) ([]models.Lead, int64, error) {
	return s.repos.Lead.List(ctx, query)
}
