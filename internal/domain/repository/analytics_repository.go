package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/collectra/collectra-api/internal/domain/enum"
)

// AnalyticsRepository provides aggregate portfolio queries for the dashboard
type AnalyticsRepository interface {
	CountContractsByStatus(ctx context.Context) (map[enum.ContractStatus]int64, error)
	TotalOutstanding(ctx context.Context) (decimal.Decimal, error)
	CollectedBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	CountOverdueInstallments(ctx context.Context, asOf time.Time) (int64, error)
}
