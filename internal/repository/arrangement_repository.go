package repository

import (
	"context"
	"errors"

	"github.com/autocredit/cartera-api/internal/models"
	"gorm.io/gorm"
)

// PaymentArrangementRepository defines the interface for payment arrangement data access
type PaymentArrangementRepository interface {
	FindByID(ctx context.Context, id uint) (*models.PaymentArrangement, error)
	// FindActiveByCase returns nil when the case has no arrangement in force.
	FindActiveByCase(ctx context.Context, caseID uint) (*models.PaymentArrangement, error)
	FindByCase(ctx context.Context, caseID uint) ([]models.PaymentArrangement, error)
	Create(ctx context.Context, arr *models.PaymentArrangement) error
	Update(ctx context.Context, arr *models.PaymentArrangement) error
	CountActiveByCollector(ctx context.Context, collectorID uint) (int64, error)
}

type paymentArrangementRepository struct {
	db *gorm.DB
}

// NewPaymentArrangementRepository creates a new payment arrangement repository
func NewPaymentArrangementRepository(db *gorm.DB) PaymentArrangementRepository {
	return &paymentArrangementRepository{db: db}
}

func (r *paymentArrangementRepository) FindByID(ctx context.Context, id uint) (*models.PaymentArrangement, error) {
	var arr models.PaymentArrangement
	err := r.db.WithContext(ctx).First(&arr, id).Error
	if err != nil {
		return nil, err
	}
	return &arr, nil
}

func (r *paymentArrangementRepository) FindActiveByCase(ctx context.Context, caseID uint) (*models.PaymentArrangement, error) {
	var arr models.PaymentArrangement
	err := r.db.WithContext(ctx).
		Where("case_id = ? AND active = ?", caseID, true).
		First(&arr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &arr, nil
}

func (r *paymentArrangementRepository) FindByCase(ctx context.Context, caseID uint) ([]models.PaymentArrangement, error) {
	var arrs []models.PaymentArrangement
	err := r.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("created_at DESC").
		Find(&arrs).Error
	return arrs, err
}

func (r *paymentArrangementRepository) Create(ctx context.Context, arr *models.PaymentArrangement) error {
	return r.db.WithContext(ctx).Create(arr).Error
}

func (r *paymentArrangementRepository) Update(ctx context.Context, arr *models.PaymentArrangement) error {
	return r.db.WithContext(ctx).Save(arr).Error
}

func (r *paymentArrangementRepository) CountActiveByCollector(ctx context.Context, collectorID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PaymentArrangement{}).
		Joins("JOIN collection_cases ON collection_cases.id = payment_arrangements.case_id").
		Where("payment_arrangements.active = ? AND collection_cases.collector_id = ?", true, collectorID).
		Count(&count).Error
	return count, err
}
