package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/collectra/collectra-api/internal/domain/entity"
	"github.com/collectra/collectra-api/pkg/pagination"
)

// LedgerRepository defines the interface for ledger entry data operations.
// Entries are append-only; the only mutation is the archive flag.
type LedgerRepository interface {
	Create(ctx context.Context, entry *entity.LedgerEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.LedgerEntry, error)
	GetByContractID(ctx context.Context, contractID uuid.UUID) ([]entity.LedgerEntry, error)
	GetByDateRange(ctx context.Context, from, to time.Time) ([]entity.LedgerEntry, error)
	// GetUpTo returns all non-archived entries dated on or before asOf.
	GetUpTo(ctx context.Context, asOf time.Time) ([]entity.LedgerEntry, error)
	List(ctx context.Context, params *LedgerFilterParams) ([]entity.LedgerEntry, int64, error)
	// SumDebitsCredits totals debit and credit amounts over matching
	// entries; nil filters match everything.
	SumDebitsCredits(ctx context.Context, filter *LedgerSumFilter) (debit, credit decimal.Decimal, err error)
	Archive(ctx context.Context, id uuid.UUID) error
}

// LedgerFilterParams contains filtering parameters for ledger queries
type LedgerFilterParams struct {
	Pagination      *pagination.PaginationParams
	ContractID      *uuid.UUID
	CustomerID      *uuid.UUID
	StartDate       *time.Time
	EndDate         *time.Time
	IncludeArchived bool
}

// LedgerSumFilter narrows the debit/credit aggregation
type LedgerSumFilter struct {
	ContractID *uuid.UUID
	CustomerID *uuid.UUID
	From       *time.Time
	To         *time.Time
}
