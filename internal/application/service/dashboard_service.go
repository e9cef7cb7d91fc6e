package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/collectra/collectra-api/internal/domain/repository"
	"github.com/collectra/collectra-api/pkg/clock"
)

// DashboardService aggregates portfolio figures for the dashboard
type DashboardService struct {
	analyticsRepo repository.AnalyticsRepository
	ledgerService *LedgerService
	clk           clock.Clock
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	analyticsRepo repository.AnalyticsRepository,
	ledgerService *LedgerService,
	clk clock.Clock,
) *DashboardService {
	return &DashboardService{
		analyticsRepo: analyticsRepo,
		ledgerService: ledgerService,
		clk:           clk,
	}
}

// DashboardStats summarizes the collection portfolio
type DashboardStats struct {
	ContractsByStatus   map[string]int64    `json:"contracts_by_status"`
	TotalOutstanding    decimal.Decimal     `json:"total_outstanding"`
	CollectedToday      decimal.Decimal     `json:"collected_today"`
	CollectedThisMonth  decimal.Decimal     `json:"collected_this_month"`
	OverdueInstallments int64               `json:"overdue_installments"`
	TrialBalance        *TrialBalanceResult `json:"trial_balance"`
}

// GetStats builds the dashboard summary
func (s *DashboardService) GetStats(ctx context.Context) (*DashboardStats, error) {
	now := s.clk.Now()

	byStatus, err := s.analyticsRepo.CountContractsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	contractsByStatus := make(map[string]int64, len(byStatus))
	for status, count := range byStatus {
		contractsByStatus[status.String()] = count
	}

	outstanding, err := s.analyticsRepo.TotalOutstanding(ctx)
	if err != nil {
		return nil, err
	}

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	collectedToday, err := s.analyticsRepo.CollectedBetween(ctx, startOfDay, now)
	if err != nil {
		return nil, err
	}

	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	collectedThisMonth, err := s.analyticsRepo.CollectedBetween(ctx, startOfMonth, now)
	if err != nil {
		return nil, err
	}

	overdueCount, err := s.analyticsRepo.CountOverdueInstallments(ctx, now)
	if err != nil {
		return nil, err
	}

	trialBalance, err := s.ledgerService.TrialBalance(ctx, now)
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		ContractsByStatus:   contractsByStatus,
		TotalOutstanding:    outstanding,
		CollectedToday:      collectedToday,
		CollectedThisMonth:  collectedThisMonth,
		OverdueInstallments: overdueCount,
		TrialBalance:        trialBalance,
	}, nil
}

// CollectionTrendPoint is one day of the collection trend
type CollectionTrendPoint struct {
	Date      time.Time       `json:"date"`
	Collected decimal.Decimal `json:"collected"`
}

// GetCollectionTrend returns the daily collected amounts for the last N days
func (s *DashboardService) GetCollectionTrend(ctx context.Context, days int) ([]CollectionTrendPoint, error) {
	if days < 1 {
		days = 7
	}
	now := s.clk.Now()

	points := make([]CollectionTrendPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := now.AddDate(0, 0, -i)
		startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
		endOfDay := startOfDay.Add(24 * time.Hour)

		collected, err := s.analyticsRepo.CollectedBetween(ctx, startOfDay, endOfDay)
		if err != nil {
			return nil, err
		}

		points = append(points, CollectionTrendPoint{
			Date:      startOfDay,
			Collected: collected,
		})
	}

	return points, nil
}
