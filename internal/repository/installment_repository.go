package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/autocredit/cartera-api/internal/models"
)

// InstallmentRepository defines the interface for installment data access
type InstallmentRepository interface {
	CreateBatch(ctx context.Context, installments []models.Installment) error
	FindByContract(ctx context.Context, contractID uint) ([]models.Installment, error)
	FindBySequence(ctx context.Context, contractID uint, sequence int) (*models.Installment, error)
	// OldestUnpaid returns the unpaid installment with the earliest due
	// date. Nil when everything is paid.
	OldestUnpaid(ctx context.Context, contractID uint) (*models.Installment, error)
	OverdueSummary(ctx context.Context, contractID uint, asOf time.Time) (*OverdueSummary, error)
	MarkPaid(ctx context.Context, id uint, amount decimal.Decimal, at time.Time) error
	CountUnpaid(ctx context.Context, contractID uint) (int64, error)
	UpdateDelinquency(ctx context.Context, id uint, bucket models.DelinquencyBucket, daysPastDue int) error
}

// OverdueSummary aggregates the unpaid past-due installments of one contract
type OverdueSummary struct {
	Count         int
	Amount        decimal.Decimal
	OldestDueDate time.Time
}

type installmentRepository struct {
	db *gorm.DB
}

// NewInstallmentRepository creates a new installment repository
func NewInstallmentRepository(db *gorm.DB) InstallmentRepository {
	return &installmentRepository{db: db}
}

func (r *installmentRepository) CreateBatch(ctx context.Context, installments []models.Installment) error {
	if len(installments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&installments).Error
}

func (r *installmentRepository) FindByContract(ctx context.Context, contractID uint) ([]models.Installment, error) {
	var installments []models.Installment
	err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("sequence ASC").
		Find(&installments).Error
	return installments, err
}

func (r *installmentRepository) FindBySequence(ctx context.Context, contractID uint, sequence int) (*models.Installment, error) {
	var installment models.Installment
	err := r.db.WithContext(ctx).
		Where("contract_id = ? AND sequence = ?", contractID, sequence).
		First(&installment).Error
	if err != nil {
		return nil, err
	}
	return &installment, nil
}

func (r *installmentRepository) OldestUnpaid(ctx context.Context, contractID uint) (*models.Installment, error) {
	var installment models.Installment
	err := r.db.WithContext(ctx).
		Where("contract_id = ? AND status = ?", contractID, models.InstallmentStatusPending).
		Order("due_date ASC").
		First(&installment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &installment, nil
}

func (r *installmentRepository) OverdueSummary(ctx context.Context, contractID uint, asOf time.Time) (*OverdueSummary, error) {
	var installments []models.Installment
	err := r.db.WithContext(ctx).
		Where("contract_id = ? AND status = ? AND due_date < ?",
			contractID, models.InstallmentStatusPending, asOf).
		Order("due_date ASC").
		Find(&installments).Error
	if err != nil {
		return nil, err
	}

	summary := &OverdueSummary{Amount: decimal.Zero}
	for i, inst := range installments {
		if i == 0 {
			summary.OldestDueDate = inst.DueDate
		}
		summary.Count++
		summary.Amount = summary.Amount.Add(inst.AmountDue)
	}
	return summary, nil
}

func (r *installmentRepository) MarkPaid(ctx context.Context, id uint, amount decimal.Decimal, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Installment{}).
		Where("id = ? AND status = ?", id, models.InstallmentStatusPending).
		Updates(map[string]interface{}{
			"status":      models.InstallmentStatusPaid,
			"paid_amount": amount,
			"paid_at":     at,
		}).Error
}

func (r *installmentRepository) CountUnpaid(ctx context.Context, contractID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Installment{}).
		Where("contract_id = ? AND status = ?", contractID, models.InstallmentStatusPending).
		Count(&count).Error
	return count, err
}

func (r *installmentRepository) UpdateDelinquency(ctx context.Context, id uint, bucket models.DelinquencyBucket, daysPastDue int) error {
	return r.db.WithContext(ctx).
		Model(&models.Installment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"bucket":        bucket,
			"days_past_due": daysPastDue,
		}).Error
}
