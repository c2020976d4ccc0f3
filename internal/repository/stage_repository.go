package repository

import (
	"context"

	"github.com/autocredit/cartera-api/internal/models"
	"gorm.io/gorm"
)

// StageRepository defines the interface for pipeline stage data access
type StageRepository interface {
	FindByID(ctx context.Context, id uint) (*models.SalesStage, error)
	FindFirst(ctx context.Context) (*models.SalesStage, error)
	FindNext(ctx context.Context, afterOrder int) (*models.SalesStage, error)
	FindAnalysis(ctx context.Context) (*models.SalesStage, error)
	ListOrdered(ctx context.Context) ([]models.SalesStage, error)
	CreateTransition(ctx context.Context, tr *models.StageTransition) error
	TransitionsByOpportunity(ctx context.Context, opportunityID uint) ([]models.StageTransition, error)
}

type stageRepository struct {
	db *gorm.DB
}

// NewStageRepository creates a new stage repository
func NewStageRepository(db *gorm.DB) StageRepository {
	return &stageRepository{db: db}
}

func (r *stageRepository) FindByID(ctx context.Context, id uint) (*models.SalesStage, error) {
	var stage models.SalesStage
	err := r.db.WithContext(ctx).First(&stage, id).Error
	if err != nil {
		return nil, err
	}
	return &stage, nil
}

func (r *stageRepository) FindFirst(ctx context.Context) (*models.SalesStage, error) {
	var stage models.SalesStage
	err := r.db.WithContext(ctx).
		Order("stage_order ASC").
		First(&stage).Error
	if err != nil {
		return nil, err
	}
	return &stage, nil
}

func (r *stageRepository) FindNext(ctx context.Context, afterOrder int) (*models.SalesStage, error) {
	var stage models.SalesStage
	err := r.db.WithContext(ctx).
		Where("stage_order > ?", afterOrder).
		Order("stage_order ASC").
		First(&stage).Error
	if err != nil {
		return nil, err
	}
	return &stage, nil
}

func (r *stageRepository) FindAnalysis(ctx context.Context) (*models.SalesStage, error) {
	var stage models.SalesStage
	err := r.db.WithContext(ctx).
		Where("is_analysis = ?", true).
		First(&stage).Error
	if err != nil {
		return nil, err
	}
	return &stage, nil
}

func (r *stageRepository) ListOrdered(ctx context.Context) ([]models.SalesStage, error) {
	var stages []models.SalesStage
	err := r.db.WithContext(ctx).
		Order("stage_order ASC").
		Find(&stages).Error
	return stages, err
}

func (r *stageRepository) CreateTransition(ctx context.Context, tr *models.StageTransition) error {
	return r.db.WithContext(ctx).Create(tr).Error
}

func (r *stageRepository) TransitionsByOpportunity(ctx context.Context, opportunityID uint) ([]models.StageTransition, error) {
	var transitions []models.StageTransition
	err := r.db.WithContext(ctx).
		Where("opportunity_id = ?", opportunityID).
		Preload("FromStage").
		Preload("ToStage").
		Preload("MovedBy").
		Order("created_at ASC").
		Find(&transitions).Error
	return transitions, err
}
