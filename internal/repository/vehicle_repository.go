package repository

import (
	"context"

	"github.com/autocredit/cartera-api/internal/models"
	"gorm.io/gorm"
)

// VehicleRepository defines the interface for vehicle data access
type VehicleRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Vehicle, error)
	Create(ctx context.Context, vehicle *models.Vehicle) error
	Update(ctx context.Context, vehicle *models.Vehicle) error
	List(ctx context.Context, query *ListQuery) ([]models.Vehicle, int64, error)
}

type vehicleRepository struct {
	db *gorm.DB
}

// NewVehicleRepository creates a new vehicle repository
func NewVehicleRepository(db *gorm.DB) VehicleRepository {
	return &vehicleRepository{db: db}
}

func (r *vehicleRepository) FindByID(ctx context.Context, id uint) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := r.db.WithContext(ctx).First(&vehicle, id).Error
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func (r *vehicleRepository) Create(ctx context.Context, vehicle *models.Vehicle) error {
	return r.db.WithContext(ctx).Create(vehicle).Error
}

func (r *vehicleRepository) Update(ctx context.Context, vehicle *models.Vehicle) error {
	return r.db.WithContext(ctx).Save(vehicle).Error
}

func (r *vehicleRepository) List(ctx context.Context, query *ListQuery) ([]models.Vehicle, int64, error) {
	var vehicles []models.Vehicle
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Vehicle{})

	if query.Search != "" {
		like := "%" + query.Search + "%"
		db = db.Where("brand LIKE ? OR model LIKE ? OR plate LIKE ? OR vin LIKE ?", like, like, like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("brand ASC, model ASC").
		Offset(query.Offset()).
		Limit(query.Limit()).
		Find(&vehicles).Error
	return vehicles, total, err
}
