package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/collectra/collectra-api/internal/domain/enum"
	domainRepo "github.com/collectra/collectra-api/internal/domain/repository"
)

type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(db *gorm.DB) domainRepo.AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) CountContractsByStatus(ctx context.Context) (map[enum.ContractStatus]int64, error) {
	var rows []struct {
		Status enum.ContractStatus
		Count  int64
	}

	err := r.db.WithContext(ctx).Raw(`
		SELECT status, COUNT(*) as count
		FROM contracts
		WHERE deleted_at IS NULL
		GROUP BY status
	`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[enum.ContractStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *analyticsRepository) TotalOutstanding(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(outstanding_amount), 0)
		FROM contracts
		WHERE deleted_at IS NULL AND status = ?
	`, enum.ContractStatusActive).Scan(&total).Error

	return total, err
}

func (r *analyticsRepository) CollectedBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	// Reversals subtract from the collected total
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(CASE WHEN is_reversal THEN -amount_amount ELSE amount_amount END), 0)
		FROM payments
		WHERE deleted_at IS NULL AND payment_date >= ? AND payment_date <= ?
	`, from, to).Scan(&total).Error

	return total, err
}

func (r *analyticsRepository) CountOverdueInstallments(ctx context.Context, asOf time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*)
		FROM installments
		WHERE due_date < ? AND status IN (?, ?, ?)
	`, asOf,
		enum.InstallmentStatusPending,
		enum.InstallmentStatusPartiallyPaid,
		enum.InstallmentStatusOverdue,
	).Scan(&count).Error

	return count, err
}
