package services

import (
	"context"

	"github.com/autocredit/cartera-api/internal/models"
	"github.com/autocredit/cartera-api/internal/repository"
	"github.com/autocredit/cartera-api/pkg/logger"
)

type AuditService struct {
	auditRepo repository.AuditRepository
}

func NewAuditService(auditRepo repository.AuditRepository) *AuditService {
	return &AuditService{auditRepo: auditRepo}
}

// Log records an audit entry. Audit failures are logged but never abort the
// business operation that triggered them.
func (s *AuditService) Log(ctx context.Context, userID uint, action, entity string, entityID uint, details string) {
	entry := &models.AuditLog{
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Details:  details,
	}
	if userID > 0 {
		entry.UserID = &userID
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		logger.Error("Failed to write audit entry", "action", action, "entity", entity, "error", err)
	}
}

// List retrieves audit logs with filters
func (s *AuditService) List(ctx context.Context, query *repository.ListQuery) ([]models.AuditLog, int64, error) {
	return s.auditRepo.List(ctx, query)
}
