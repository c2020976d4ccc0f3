package repository

import (
	"context"

	"github.com/autocredit/cartera-api/internal/models"
	"gorm.io/gorm"
)

// AuditRepository defines the interface for audit log data access
type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, query *ListQuery) ([]models.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditRepository) List(ctx context.Context, query *ListQuery) ([]models.AuditLog, int64, error) {
	var entries []models.AuditLog
	var total int64

	db := r.db.WithContext(ctx).Model(&models.AuditLog{})

	if action, ok := query.Filters["action"]; ok && action != "" {
		db = db.Where("action = ?", action)
	}
	if entity, ok := query.Filters["entity"]; ok && entity != "" {
		db = db.Where("entity = ?", entity)
	}
	if entityID, ok := query.Filters["entity_id"]; ok && entityID != "" {
		db = db.Where("entity_id = ?", entityID)
	}
	if userID, ok := query.Filters["user_id"]; ok && userID != "" {
		db = db.Where("user_id = ?", userID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("User").
		Order("created_at DESC").
		Offset(query.Offset()).
		Limit(query.Limit()).
		Find(&entries).Error
	return entries, total, err
}
