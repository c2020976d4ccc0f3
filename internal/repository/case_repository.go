package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/autocredit/cartera-api/internal/models"
)

// CollectionCaseRepository defines the interface for collection case data access
type CollectionCaseRepository interface {
	FindByID(ctx context.Context, id uint) (*models.CollectionCase, error)
	FindByIDWithDetails(ctx context.Context, id uint) (*models.CollectionCase, error)
	// FindOpenByContract returns nil when the contract has no open case.
	FindOpenByContract(ctx context.Context, contractID uint) (*models.CollectionCase, error)
	Create(ctx context.Context, kase *models.CollectionCase) error
	// UpdateLocked saves bucket, amounts and status guarded by the lock
	// version. Zero rows affected means a concurrent writer won.
	UpdateLocked(ctx context.Context, kase *models.CollectionCase) (int64, error)
	AssignCollector(ctx context.Context, id uint, collectorID uint) error
	List(ctx context.Context, query *CaseQuery) ([]models.CollectionCase, int64, error)
	OpenCountsByCollector(ctx context.Context) (map[uint]int64, error)
	OpenBucketStats(ctx context.Context) (map[models.DelinquencyBucket]BucketStat, error)
	CountOpenByBucketForCollector(ctx context.Context, collectorID uint) (map[models.DelinquencyBucket]int64, error)
}

// BucketStat aggregates the open cases of one delinquency bucket
type BucketStat struct {
	Count  int64
	Amount decimal.Decimal
}

// CaseQuery extends ListQuery with collection-specific filters
type CaseQuery struct {
	*ListQuery
	CollectorID uint
	Bucket      string
	Status      string
}

type collectionCaseRepository struct {
	db *gorm.DB
}

// NewCollectionCaseRepository creates a new collection case repository
func NewCollectionCaseRepository(db *gorm.DB) CollectionCaseRepository {
	return &collectionCaseRepository{db: db}
}

func (r *collectionCaseRepository) FindByID(ctx context.Context, id uint) (*models.CollectionCase, error) {
	var kase models.CollectionCase
	err := r.db.WithContext(ctx).First(&kase, id).Error
	if err != nil {
		return nil, err
	}
	return &kase, nil
}

func (r *collectionCaseRepository) FindByIDWithDetails(ctx context.Context, id uint) (*models.CollectionCase, error) {
	var kase models.CollectionCase
	err := r.db.WithContext(ctx).
		Preload("Contract.Client").
		Preload("Contract.Vehicle").
		Preload("Collector").
		First(&kase, id).Error
	if err != nil {
		return nil, err
	}
	return &kase, nil
}

func (r *collectionCaseRepository) FindOpenByContract(ctx context.Context, contractID uint) (*models.CollectionCase, error) {
	var kase models.CollectionCase
	err := r.db.WithContext(ctx).
		Where("contract_id = ? AND status = ?", contractID, models.CaseStatusOpen).
		First(&kase).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &kase, nil
}

func (r *collectionCaseRepository) Create(ctx context.Context, kase *models.CollectionCase) error {
	return r.db.WithContext(ctx).Create(kase).Error
}

func (r *collectionCaseRepository) UpdateLocked(ctx context.Context, kase *models.CollectionCase) (int64, error) {
	updates := map[string]interface{}{
		"bucket":         kase.Bucket,
		"days_late":      kase.DaysLate,
		"amount_overdue": kase.AmountOverdue,
		"overdue_count":  kase.OverdueCount,
		"status":         kase.Status,
		"close_reason":   kase.CloseReason,
		"collector_id":   kase.CollectorID,
		"lock_version":   gorm.Expr("lock_version + 1"),
	}
	if kase.NextContactAt != nil {
		updates["next_contact_at"] = *kase.NextContactAt
		updates["next_contact_method"] = kase.NextContactMethod
	}
	if kase.ClosedAt != nil {
		updates["closed_at"] = *kase.ClosedAt
	}
	res := r.db.WithContext(ctx).
		Model(&models.CollectionCase{}).
		Where("id = ? AND lock_version = ?", kase.ID, kase.LockVersion).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *collectionCaseRepository) AssignCollector(ctx context.Context, id uint, collectorID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.CollectionCase{}).
		Where("id = ?", id).
		Update("collector_id", collectorID).Error
}

func (r *collectionCaseRepository) List(ctx context.Context, query *CaseQuery) ([]models.CollectionCase, int64, error) {
	var cases []models.CollectionCase
	var total int64

	db := r.db.WithContext(ctx).Model(&models.CollectionCase{})

	if query.CollectorID > 0 {
		db = db.Where("collector_id = ?", query.CollectorID)
	}
	if query.Bucket != "" {
		db = db.Where("bucket = ?", query.Bucket)
	}
	if query.Status != "" {
		db = db.Where("status = ?", query.Status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("Contract.Client").
		Preload("Collector").
		Order("days_late DESC").
		Offset(query.Offset()).
		Limit(query.Limit()).
		Find(&cases).Error
	return cases, total, err
}

func (r *collectionCaseRepository) OpenCountsByCollector(ctx context.Context) (map[uint]int64, error) {
	type row struct {
		CollectorID uint
		Total       int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.CollectionCase{}).
		Select("collector_id, COUNT(*) as total").
		Where("status = ? AND collector_id IS NOT NULL", models.CaseStatusOpen).
		Group("collector_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[uint]int64, len(rows))
	for _, r := range rows {
		counts[r.CollectorID] = r.Total
	}
	return counts, nil
}

func (r *collectionCaseRepository) OpenBucketStats(ctx context.Context) (map[models.DelinquencyBucket]BucketStat, error) {
	return r.openBucketStats(ctx, 0)
}

func (r *collectionCaseRepository) CountOpenByBucketForCollector(ctx context.Context, collectorID uint) (map[models.DelinquencyBucket]int64, error) {
	stats, err := r.openBucketStats(ctx, collectorID)
	if err != nil {
		return nil, err
	}
	counts := make(map[models.DelinquencyBucket]int64, len(stats))
	for bucket, stat := range stats {
		counts[bucket] = stat.Count
	}
	return counts, nil
}

func (r *collectionCaseRepository) openBucketStats(ctx context.Context, collectorID uint) (map[models.DelinquencyBucket]BucketStat, error) {
	type row struct {
		Bucket string
		Total  int64
		Amount decimal.Decimal
	}
	db := r.db.WithContext(ctx).
		Model(&models.CollectionCase{}).
		Select("bucket, COUNT(*) as total, COALESCE(SUM(amount_overdue), 0) as amount").
		Where("status = ?", models.CaseStatusOpen)
	if collectorID > 0 {
		db = db.Where("collector_id = ?", collectorID)
	}
	var rows []row
	if err := db.Group("bucket").Scan(&rows).Error; err != nil {
		return nil, err
	}
	stats := make(map[models.DelinquencyBucket]BucketStat, len(rows))
	for _, r := range rows {
		stats[models.DelinquencyBucket(r.Bucket)] = BucketStat{Count: r.Total, Amount: r.Amount}
	}
	return stats, nil
}
