package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/autocredit/cartera-api/internal/models"
	"github.com/autocredit/cartera-api/internal/repository"
)

// VehicleService manages the financed units catalog
type VehicleService struct {
	repos    *repository.Repositories
	auditSvc *AuditService
}

// NewVehicleService creates a new vehicle service
func NewVehicleService(repos *repository.Repositories, auditSvc *AuditService) *VehicleService {
	return &VehicleService{
		repos:    repos,
		auditSvc: auditSvc,
	}
}

// VehicleInput carries a new or updated unit
type VehicleInput struct {
	Brand     string
	Model     string
	Year      int
	Plate     string
	VIN       string
	Color     string
	ListPrice decimal.Decimal
	HasGPS    bool
}

// Create registers a vehicle
func (s *VehicleService) Create(ctx context.Context, actorID uint, input VehicleInput) (*models.Vehicle, error) {
	var missing []string
	if input.Brand == "" {
		missing = append(missing, "marca")
	}
	if input.Model == "" {
		missing = append(missing, "modelo")
	}
	if len(missing) > 0 {
		return nil, NewValidationError(missing...)
	}

	vehicle := &models.Vehicle{
		Brand:     input.Brand,
		Model:     input.Model,
		Year:      input.Year,
		Plate:     input.Plate,
		VIN:       input.VIN,
		Color:     input.Color,
		ListPrice: input.ListPrice,
		HasGPS:    input.HasGPS,
	}
	if err := s.repos.Vehicle.Create(ctx, vehicle); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, "create_vehicle", "vehicle", vehicle.ID, vehicle.Label())
	return vehicle, nil
}

// Get returns one vehicle
func (s *VehicleService) Get(ctx context.Context, vehicleID uint) (*models.Vehicle, error) {
	vehicle, err := s.repos.Vehicle.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return vehicle, nil
}

// List returns vehicles matching the query
func (s *VehicleService) List(ctx context.Context, query *repository.ListQuery) ([]models.Vehicle, int64, error) {
	return s.repos.Vehicle.List(ctx, query)
}
