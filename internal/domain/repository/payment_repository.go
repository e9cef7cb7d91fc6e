package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/collectra/collectra-api/internal/domain/entity"
	"github.com/collectra/collectra-api/pkg/pagination"
)

// PaymentRepository defines the interface for payment data operations.
// Payments are append-only: there is no update or delete.
type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
	GetByContractID(ctx context.Context, contractID uuid.UUID) ([]entity.Payment, error)
	GetByDateRange(ctx context.Context, from, to time.Time) ([]entity.Payment, error)
	GetReversalOf(ctx context.Context, paymentID uuid.UUID) (*entity.Payment, error)
	List(ctx context.Context, params *PaymentFilterParams) ([]entity.Payment, int64, error)
}

// PaymentFilterParams contains filtering parameters for payment queries
type PaymentFilterParams struct {
	Pagination *pagination.PaginationParams
	ContractID *uuid.UUID
	StaffID    *uuid.UUID
	IsReversal *bool
	StartDate  *time.Time
	EndDate    *time.Time
}

// ReceiptRepository defines the interface for receipt data operations
type ReceiptRepository interface {
	Create(ctx context.Context, receipt *entity.Receipt) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Receipt, error)
	GetByPaymentID(ctx context.Context, paymentID uuid.UUID) (*entity.Receipt, error)
	GetByReceiptNumber(ctx context.Context, receiptNumber string) (*entity.Receipt, error)
}
