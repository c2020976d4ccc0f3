package repository

import (
	"context"
	"time"

	"github.com/autocredit/cartera-api/internal/models"
	"gorm.io/gorm"
)

// OpportunityRepository defines the interface for opportunity data access
type OpportunityRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Opportunity, error)
	FindByIDWithDetails(ctx context.Context, id uint) (*models.Opportunity, error)
	Create(ctx context.Context, opp *models.Opportunity) error
	Update(ctx context.Context, opp *models.Opportunity) error
	// MoveStage performs a compare-and-swap on stage and lock version. It
	// returns the number of rows updated; zero means a concurrent writer won.
	MoveStage(ctx context.Context, id, fromStageID, toStageID, lockVersion uint, status string) (int64, error)
	SetAnalysisApproved(ctx context.Context, id uint, approved bool) error
	// MarkWon flips the deal to won and stamps the actual close date
	MarkWon(ctx context.Context, id uint, closedAt time.Time) error
	List(ctx context.Context, query *OpportunityQuery) ([]models.Opportunity, int64, error)
}

// OpportunityQuery extends ListQuery with opportunity-specific filters
type OpportunityQuery struct {
	*ListQuery
	OwnerID uint
	IsAdmin bool
	StageID uint
	Status  string
}

type opportunityRepository struct {
	db *gorm.DB
}

// NewOpportunityRepository creates a new opportunity repository
func NewOpportunityRepository(db *gorm.DB) OpportunityRepository {
	return &opportunityRepository{db: db}
}

func (r *opportunityRepository) FindByID(ctx context.Context, id uint) (*models.Opportunity, error) {
	var opp models.Opportunity
	err := r.db.WithContext(ctx).First(&opp, id).Error
	if err != nil {
		return nil, err
	}
	return &opp, nil
}

func (r *opportunityRepository) FindByIDWithDetails(ctx context.Context, id uint) (*models.Opportunity, error) {
	var opp models.Opportunity
	err := r.db.WithContext(ctx).
		Preload("Lead.Company").
		Preload("Stage").
		Preload("Owner").
		Preload("Vehicle").
		First(&opp, id).Error
	if err != nil {
		return nil, err
	}
	return &opp, nil
}

func (r *opportunityRepository) Create(ctx context.Context, opp *models.Opportunity) error {
	return r.db.WithContext(ctx).Create(opp).Error
}

func (r *opportunityRepository) Update(ctx context.Context, opp *models.Opportunity) error {
	return r.db.WithContext(ctx).Save(opp).Error
}

func (r *opportunityRepository) MoveStage(ctx context.Context, id, fromStageID, toStageID, lockVersion uint, status string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Opportunity{}).
		Where("id = ? AND stage_id = ? AND lock_version = ?", id, fromStageID, lockVersion).
		Updates(map[string]interface{}{
			"stage_id":     toStageID,
			"status":       status,
			"lock_version": gorm.Expr("lock_version + 1"),
		})
	return res.RowsAffected, res.Error
}

func (r *opportunityRepository) SetAnalysisApproved(ctx context.Context, id uint, approved bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Opportunity{}).
		Where("id = ?", id).
		Update("analysis_approved", approved).Error
}

func (r *opportunityRepository) MarkWon(ctx context.Context, id uint, closedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Opportunity{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":            models.OpportunityStatusWon,
			"actual_close_date": closedAt,
		}).Error
}

func (r *opportunityRepository) List(ctx context.Context, query *OpportunityQuery) ([]models.Opportunity, int64, error) {
	var opps []models.Opportunity
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Opportunity{})

	// Sales agents only see their own deals
	if !query.IsAdmin && query.OwnerID > 0 {
		db = db.Where("owner_id = ?", query.OwnerID)
	}
	if query.StageID > 0 {
		db = db.Where("stage_id = ?", query.StageID)
	}
	if query.Status != "" {
		db = db.Where("status = ?", query.Status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("Lead").
		Preload("Stage").
		Preload("Vehicle").
		Order("updated_at DESC").
		Offset(query.Offset()).
		Limit(query.Limit()).
		Find(&opps).Error
	return opps, total, err
}
