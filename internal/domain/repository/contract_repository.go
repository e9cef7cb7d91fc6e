package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/collectra/collectra-api/internal/domain/entity"
	"github.com/collectra/collectra-api/internal/domain/enum"
	"github.com/collectra/collectra-api/pkg/pagination"
)

// ContractRepository defines the interface for contract data operations
type ContractRepository interface {
	Create(ctx context.Context, contract *entity.Contract) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Contract, error)
	GetWithInstallments(ctx context.Context, id uuid.UUID) (*entity.Contract, error)
	GetByContractNumber(ctx context.Context, contractNumber string) (*entity.Contract, error)
	Update(ctx context.Context, contract *entity.Contract) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params *ContractFilterParams) ([]entity.Contract, int64, error)
}

// ContractFilterParams contains filtering parameters for contract queries
type ContractFilterParams struct {
	Pagination *pagination.PaginationParams
	Search     string
	Status     *enum.ContractStatus
	CustomerID *uuid.UUID
	StartDate  *time.Time
	EndDate    *time.Time
}

// InstallmentRepository defines the interface for installment data operations
type InstallmentRepository interface {
	CreateBatch(ctx context.Context, installments []entity.Installment) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Installment, error)
	GetByContractID(ctx context.Context, contractID uuid.UUID) ([]entity.Installment, error)
	// GetUnpaidByContractID returns installments that still accept payment,
	// ordered by ascending due date.
	GetUnpaidByContractID(ctx context.Context, contractID uuid.UUID) ([]entity.Installment, error)
	GetOverdue(ctx context.Context, asOf time.Time) ([]entity.Installment, error)
	Update(ctx context.Context, installment *entity.Installment) error
}
