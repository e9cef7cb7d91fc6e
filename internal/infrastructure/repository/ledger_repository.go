package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/collectra/collectra-api/internal/domain/entity"
	domainRepo "github.com/collectra/collectra-api/internal/domain/repository"
)

type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *gorm.DB) domainRepo.LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Create(ctx context.Context, entry *entity.LedgerEntry) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Create(entry).Error
}

func (r *ledgerRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.LedgerEntry, error) {
	var entry entity.LedgerEntry
	err := dbFromContext(ctx, r.db).WithContext(ctx).First(&entry, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &entry, err
}

func (r *ledgerRepository) GetByContractID(ctx context.Context, contractID uuid.UUID) ([]entity.LedgerEntry, error) {
	var entries []entity.LedgerEntry
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("contract_id = ? AND archived = false", contractID).
		Order("transaction_date ASC, created_at ASC").
		Find(&entries).Error
	return entries, err
}

func (r *ledgerRepository) GetByDateRange(ctx context.Context, from, to time.Time) ([]entity.LedgerEntry, error) {
	var entries []entity.LedgerEntry
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("transaction_date >= ? AND transaction_date <= ? AND archived = false", from, to).
		Order("transaction_date ASC, created_at ASC").
		Find(&entries).Error
	return entries, err
}

func (r *ledgerRepository) GetUpTo(ctx context.Context, asOf time.Time) ([]entity.LedgerEntry, error) {
	var entries []entity.LedgerEntry
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("transaction_date <= ? AND archived = false", asOf).
		Order("transaction_date ASC, created_at ASC").
		Find(&entries).Error
	return entries, err
}

func (r *ledgerRepository) List(ctx context.Context, params *domainRepo.LedgerFilterParams) ([]entity.LedgerEntry, int64, error) {
	var entries []entity.LedgerEntry
	var total int64

	query := dbFromContext(ctx, r.db).WithContext(ctx).Model(&entity.LedgerEntry{})

	if !params.IncludeArchived {
		query = query.Where("archived = false")
	}

	if params.ContractID != nil {
		query = query.Where("contract_id = ?", *params.ContractID)
	}

	if params.CustomerID != nil {
		query = query.Where("customer_id = ?", *params.CustomerID)
	}

	if params.StartDate != nil {
		query = query.Where("transaction_date >= ?", *params.StartDate)
	}

	if params.EndDate != nil {
		query = query.Where("transaction_date <= ?", *params.EndDate)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Order("transaction_date DESC, created_at DESC").
		Find(&entries).Error

	return entries, total, err
}

func (r *ledgerRepository) SumDebitsCredits(ctx context.Context, filter *domainRepo.LedgerSumFilter) (decimal.Decimal, decimal.Decimal, error) {
	var sums struct {
		Debit  decimal.Decimal
		Credit decimal.Decimal
	}

	query := dbFromContext(ctx, r.db).WithContext(ctx).Model(&entity.LedgerEntry{}).
		Where("archived = false")

	if filter != nil {
		if filter.ContractID != nil {
			query = query.Where("contract_id = ?", *filter.ContractID)
		}
		if filter.CustomerID != nil {
			query = query.Where("customer_id = ?", *filter.CustomerID)
		}
		if filter.From != nil {
			query = query.Where("transaction_date >= ?", *filter.From)
		}
		if filter.To != nil {
			query = query.Where("transaction_date <= ?", *filter.To)
		}
	}

	err := query.
		Select("COALESCE(SUM(debit_amount), 0) AS debit, COALESCE(SUM(credit_amount), 0) AS credit").
		Scan(&sums).Error
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return sums.Debit, sums.Credit, nil
}

func (r *ledgerRepository) Archive(ctx context.Context, id uuid.UUID) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Model(&entity.LedgerEntry{}).
		Where("id = ?", id).
		Update("archived", true).Error
}
