package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/autocredit/cartera-api/internal/models"
	"github.com/autocredit/cartera-api/internal/repository"
)

// Funnel segment labels beyond the delinquency buckets
const (
	FunnelPaid          = "pagado"
	FunnelUncollectible = "incobrable"
	FunnelCompleted     = "completado"
)

// funnelOrder fixes the presentation order of the portfolio funnel
var funnelOrder = []string{
	string(models.BucketCurrent),
	string(models.Bucket30),
	string(models.Bucket60),
	string(models.Bucket90),
	string(models.Bucket120),
	string(models.Bucket120Plus),
	FunnelPaid,
	FunnelUncollectible,
	FunnelCompleted,
}

// FunnelSnapshot is the portfolio distribution at one instant
type FunnelSnapshot struct {
	TakenAt  time.Time                  `json:"taken_at"`
	Segments map[string]int64           `json:"segments"`
	Amounts  map[string]decimal.Decimal `json:"amounts"`
}

// Rows returns the segments in presentation order
func (f *FunnelSnapshot) Rows() []FunnelRow {
	rows := make([]FunnelRow, 0, len(funnelOrder))
	for _, name := range funnelOrder {
		rows = append(rows, FunnelRow{
			Segment: name,
			Count:   f.Segments[name],
			Amount:  f.Amounts[name],
		})
	}
	return rows
}

// FunnelRow is one segment of the funnel. Amount carries the overdue
// total of the segment's open cases, zero for segments without cases.
type FunnelRow struct {
	Segment string          `json:"segment"`
	Count   int64           `json:"count"`
	Amount  decimal.Decimal `json:"amount"`
}

// FunnelService aggregates the whole portfolio into a delinquency funnel.
// Every contract lands in exactly one segment: completed contracts win over
// everything, written-off and repossessed ones count as uncollectible,
// active contracts with nothing left to pay are paid up, the rest follow
// their open case and default to current.
type FunnelService struct {
	repos *repository.Repositories
}

// NewFunnelService creates a new funnel service
func NewFunnelService(repos *repository.Repositories) *FunnelService {
	return &FunnelService{repos: repos}
}

// Snapshot computes the current funnel
func (s *FunnelService) Snapshot(ctx context.Context) (*FunnelSnapshot, error) {
	statusCounts, err := s.repos.Contract.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	bucketStats, err := s.repos.Case.OpenBucketStats(ctx)
	if err != nil {
		return nil, err
	}

	paidUp, err := s.repos.Contract.CountActivePaidUp(ctx)
	if err != nil {
		return nil, err
	}

	segments := make(map[string]int64, len(funnelOrder))
	amounts := make(map[string]decimal.Decimal, len(funnelOrder))
	for _, name := range funnelOrder {
		segments[name] = 0
		amounts[name] = decimal.Zero
	}

	segments[FunnelCompleted] = statusCounts[models.ContractStatusCompleted]
	segments[FunnelUncollectible] = statusCounts[models.ContractStatusChargedOff] +
		statusCounts[models.ContractStatusRecovered]
	segments[FunnelPaid] = paidUp

	// Active contracts without an open case and with installments still
	// pending are current.
	current := statusCounts[models.ContractStatusActive] - paidUp
	for bucket, stat := range bucketStats {
		if bucket == models.BucketCurrent {
			amounts[string(bucket)] = amounts[string(bucket)].Add(stat.Amount)
			continue
		}
		segments[string(bucket)] += stat.Count
		amounts[string(bucket)] = amounts[string(bucket)].Add(stat.Amount)
		current -= stat.Count
	}
	if current < 0 {
		current = 0
	}
	segments[string(models.BucketCurrent)] += current

	return &FunnelSnapshot{
		TakenAt:  time.Now(),
		Segments: segments,
		Amounts:  amounts,
	}, nil
}
