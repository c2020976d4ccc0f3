package repository

import (
	"context"
	"errors"

	"github.com/autocredit/cartera-api/internal/models"
	"gorm.io/gorm"
)

// VehicleRecoveryRepository defines the interface for vehicle recovery data access
type VehicleRecoveryRepository interface {
	FindByID(ctx context.Context, id uint) (*models.VehicleRecovery, error)
	// FindInProgressByCase returns nil when no repossession is underway.
	FindInProgressByCase(ctx context.Context, caseID uint) (*models.VehicleRecovery, error)
	FindByCase(ctx context.Context, caseID uint) ([]models.VehicleRecovery, error)
	Create(ctx context.Context, rec *models.VehicleRecovery) error
	Update(ctx context.Context, rec *models.VehicleRecovery) error
	CountInProgressByCollector(ctx context.Context, collectorID uint) (int64, error)
}

type vehicleRecoveryRepository struct {
	db *gorm.DB
}

// NewVehicleRecoveryRepository creates a new vehicle recovery repository
func NewVehicleRecoveryRepository(db *gorm.DB) VehicleRecoveryRepository {
	return &vehicleRecoveryRepository{db: db}
}

func (r *vehicleRecoveryRepository) FindByID(ctx context.Context, id uint) (*models.VehicleRecovery, error) {
	var rec models.VehicleRecovery
	err := r.db.WithContext(ctx).First(&rec, id).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *vehicleRecoveryRepository) FindInProgressByCase(ctx context.Context, caseID uint) (*models.VehicleRecovery, error) {
	var rec models.VehicleRecovery
	err := r.db.WithContext(ctx).
		Where("case_id = ? AND status = ?", caseID, models.RecoveryStatusInProgress).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *vehicleRecoveryRepository) FindByCase(ctx context.Context, caseID uint) ([]models.VehicleRecovery, error) {
	var recs []models.VehicleRecovery
	err := r.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("started_at DESC").
		Find(&recs).Error
	return recs, err
}

func (r *vehicleRecoveryRepository) Create(ctx context.Context, rec *models.VehicleRecovery) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *vehicleRecoveryRepository) Update(ctx context.Context, rec *models.VehicleRecovery) error {
	return r.db.WithContext(ctx).Save(rec).Error
}

func (r *vehicleRecoveryRepository) CountInProgressByCollector(ctx context.Context, collectorID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.VehicleRecovery{}).
		Where("opened_by_id = ? AND status = ?", collectorID, models.RecoveryStatusInProgress).
		Count(&count).Error
	return count, err
}
