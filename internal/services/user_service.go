package services

import (
	"context"

	"github.com/autocredit/cartera-api/internal/models"
	"github.com/autocredit/cartera-api/internal/repository"
)

// UserService manages operator accounts. Credentials live in the identity
// provider; this side only keeps role and contact data.
type UserService struct {
	repos    *repository.Repositories
	auditSvc *AuditService
}

// NewUserService creates a new user service
func NewUserService(repos *repository.Repositories, auditSvc *AuditService) *UserService {
	return &UserService{
		repos:    repos,
		auditSvc: auditSvc,
	}
}

// UserInput carries a new operator account
type UserInput struct {
	Email    string
	FullName string
	Phone    string
	Role     string
}

// Create registers an operator. Admin only.
func (s *UserService) Create(ctx context.Context, actorID uint, actorRole string, input UserInput) (*models.User, error) {
	if actorRole != models.RoleAdmin {
		return nil, ErrUnauthorized
	}

	var bad []string
	if input.Email == "" {
		bad = append(bad, "correo")
	}
	if input.FullName == "" {
		bad = append(bad, "nombre completo")
	}
	switch input.Role {
	case models.RoleAdmin, models.RoleSales, models.RoleAnalyst, models.RoleCollections:
	default:
		bad = append(bad, "rol")
	}
	if len(bad) > 0 {
		return nil, NewValidationError(bad...)
	}

	user := &models.User{
		Email:    input.Email,
		FullName: input.FullName,
		Phone:    input.Phone,
		Role:     input.Role,
		Status:   models.UserStatusActive,
	}
	if err := s.repos.User.Create(ctx, user); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, "create_user", "user", user.ID, user.Email)
	return user, nil
}

// Get returns one operator
func (s *UserService) Get(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.repos.User.FindByID(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return user, nil
}

// List returns operators matching the query
func (s *UserService) List(ctx context.Context, query *repository.ListQuery) ([]models.User, int64, error) {
	return s.repos.User.List(ctx, query)
}
