package repository

import (
	"context"
	"time"

	"github.com/autocredit/cartera-api/internal/models"
	"gorm.io/gorm"
)

// ContractRepository defines the interface for financing contract data access
type ContractRepository interface {
	FindByID(ctx context.Context, id uint) (*models.FinancingContract, error)
	FindByGUID(ctx context.Context, guid string) (*models.FinancingContract, error)
	FindByIDWithDetails(ctx context.Context, id uint) (*models.FinancingContract, error)
	FindByOpportunity(ctx context.Context, opportunityID uint) (*models.FinancingContract, error)
	Create(ctx context.Context, contract *models.FinancingContract) error
	Update(ctx context.Context, contract *models.FinancingContract) error
	UpdateStatus(ctx context.Context, id uint, status string, closedAt *time.Time) error
	List(ctx context.Context, query *ContractQuery) ([]models.FinancingContract, int64, error)
	FindActiveIDs(ctx context.Context) ([]uint, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
	// CountActivePaidUp counts active contracts with no unpaid installment left.
	CountActivePaidUp(ctx context.Context) (int64, error)
}

// ContractQuery extends ListQuery with contract-specific filters
type ContractQuery struct {
	*ListQuery
	Status   string
	ClientID uint
}

type contractRepository struct {
	db *gorm.DB
}

// NewContractRepository creates a new contract repository
func NewContractRepository(db *gorm.DB) ContractRepository {
	return &contractRepository{db: db}
}

func (r *contractRepository) FindByID(ctx context.Context, id uint) (*models.FinancingContract, error) {
	var contract models.FinancingContract
	err := r.db.WithContext(ctx).First(&contract, id).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *contractRepository) FindByGUID(ctx context.Context, guid string) (*models.FinancingContract, error) {
	var contract models.FinancingContract
	err := r.db.WithContext(ctx).
		Where("guid = ?", guid).
		First(&contract).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *contractRepository) FindByIDWithDetails(ctx context.Context, id uint) (*models.FinancingContract, error) {
	var contract models.FinancingContract
	err := r.db.WithContext(ctx).
		Joins("Client").
		Joins("Vehicle").
		First(&contract, id).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *contractRepository) FindByOpportunity(ctx context.Context, opportunityID uint) (*models.FinancingContract, error) {
	var contract models.FinancingContract
	err := r.db.WithContext(ctx).
		Where("opportunity_id = ?", opportunityID).
		First(&contract).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *contractRepository) Create(ctx context.Context, contract *models.FinancingContract) error {
	return r.db.WithContext(ctx).Create(contract).Error
}

func (r *contractRepository) Update(ctx context.Context, contract *models.FinancingContract) error {
	return r.db.WithContext(ctx).Save(contract).Error
}

func (r *contractRepository) UpdateStatus(ctx context.Context, id uint, status string, closedAt *time.Time) error {
	updates := map[string]interface{}{"status": status}
	if closedAt != nil {
		updates["closed_at"] = *closedAt
	}
	return r.db.WithContext(ctx).
		Model(&models.FinancingContract{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *contractRepository) List(ctx context.Context, query *ContractQuery) ([]models.FinancingContract, int64, error) {
	var contracts []models.FinancingContract
	var total int64

	db := r.db.WithContext(ctx).Model(&models.FinancingContract{})

	if query.Status != "" {
		db = db.Where("status = ?", query.Status)
	}
	if query.ClientID > 0 {
		db = db.Where("client_id = ?", query.ClientID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("Client").
		Preload("Vehicle").
		Order("signed_at DESC").
		Offset(query.Offset()).
		Limit(query.Limit()).
		Find(&contracts).Error
	return contracts, total, err
}

func (r *contractRepository) FindActiveIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.FinancingContract{}).
		Where("status = ?", models.ContractStatusActive).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *contractRepository) CountActivePaidUp(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.FinancingContract{}).
		Where("status = ?", models.ContractStatusActive).
		Where("NOT EXISTS (SELECT 1 FROM installments i WHERE i.contract_id = financing_contracts.id AND i.status = ?)", models.InstallmentStatusPending).
		Count(&total).Error
	return total, err
}

func (r *contractRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Total  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.FinancingContract{}).
		Select("status, COUNT(*) as total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}
