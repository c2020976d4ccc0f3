package repository

import (
	"context"
	"time"

	"github.com/autocredit/cartera-api/internal/models"
	"gorm.io/gorm"
)

// LeadRepository defines the interface for lead and company data access
type LeadRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Lead, error)
	Create(ctx context.Context, lead *models.Lead) error
	Update(ctx context.Context, lead *models.Lead) error
	MarkConverted(ctx context.Context, id uint, at time.Time) error
	List(ctx context.Context, query *ListQuery) ([]models.Lead, int64, error)
	CreateCompany(ctx context.Context, company *models.Company) error
	FindCompanyByID(ctx context.Context, id uint) (*models.Company, error)
}

type leadRepository struct {
	db *gorm.DB
}

// NewLeadRepository creates a new lead repository
func NewLeadRepository(db *gorm.DB) LeadRepository {
	return &leadRepository{db: db}
}

func (r *leadRepository) FindByID(ctx context.Context, id uint) (*models.Lead, error) {
	var lead models.Lead
	err := r.db.WithContext(ctx).
		Preload("Company").
		Preload("Owner").
		First(&lead, id).Error
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *leadRepository) Create(ctx context.Context, lead *models.Lead) error {
	return r.db.WithContext(ctx).Create(lead).Error
}

func (r *leadRepository) Update(ctx context.Context, lead *models.Lead) error {
	return r.db.WithContext(ctx).Save(lead).Error
}

func (r *leadRepository) MarkConverted(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Lead{}).
		Where("id = ?", id).
		Update("converted_at", at).Error
}

func (r *leadRepository) List(ctx context.Context, query *ListQuery) ([]models.Lead, int64, error) {
	var leads []models.Lead
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Lead{})

	if query.Search != "" {
		like := "%" + query.Search + "%"
		db = db.Where("full_name LIKE ? OR email LIKE ? OR phone LIKE ?", like, like, like)
	}
	if owner, ok := query.Filters["owner_id"]; ok && owner != "" {
		db = db.Where("owner_id = ?", owner)
	}
	if converted, ok := query.Filters["converted"]; ok {
		if converted == "true" {
			db = db.Where("converted_at IS NOT NULL")
		} else if converted == "false" {
			db = db.Where("converted_at IS NULL")
		}
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("Company").
		Order("created_at DESC").
		Offset(query.Offset()).
		Limit(query.Limit()).
		Find(&leads).Error
	return leads, total, err
}

func (r *leadRepository) CreateCompany(ctx context.Context, company *models.Company) error {
	return r.db.WithContext(ctx).Create(company).Error
}

func (r *leadRepository) FindCompanyByID(ctx context.Context, id uint) (*models.Company, error) {
	var company models.Company
	err := r.db.WithContext(ctx).First(&company, id).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}
