package repository

import (
	"context"
	"time"

	"github.com/autocredit/cartera-api/internal/models"
	"gorm.io/gorm"
)

// ContactLogRepository defines the interface for contact log data access
type ContactLogRepository interface {
	Create(ctx context.Context, contact *models.ContactLog) error
	FindByCase(ctx context.Context, caseID uint) ([]models.ContactLog, error)
	CountByCollectorSince(ctx context.Context, collectorID uint, since time.Time) (int64, error)
}

type contactLogRepository struct {
	db *gorm.DB
}

// NewContactLogRepository creates a new contact log repository
func NewContactLogRepository(db *gorm.DB) ContactLogRepository {
	return &contactLogRepository{db: db}
}

func (r *contactLogRepository) Create(ctx context.Context, contact *models.ContactLog) error {
	return r.db.WithContext(ctx).Create(contact).Error
}

func (r *contactLogRepository) FindByCase(ctx context.Context, caseID uint) ([]models.ContactLog, error) {
	var contacts []models.ContactLog
	err := r.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Preload("Collector").
		Order("contacted_at DESC").
		Find(&contacts).Error
	return contacts, err
}

func (r *contactLogRepository) CountByCollectorSince(ctx context.Context, collectorID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ContactLog{}).
		Where("collector_id = ? AND contacted_at >= ?", collectorID, since).
		Count(&count).Error
	return count, err
}
