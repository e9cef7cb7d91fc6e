package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/collectra/collectra-api/internal/domain/entity"
	domainRepo "github.com/collectra/collectra-api/internal/domain/repository"
)

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) domainRepo.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Create(payment).Error
}

func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	var payment entity.Payment
	err := dbFromContext(ctx, r.db).WithContext(ctx).First(&payment, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &payment, err
}

func (r *paymentRepository) GetByContractID(ctx context.Context, contractID uuid.UUID) ([]entity.Payment, error) {
	var payments []entity.Payment
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("payment_date ASC, created_at ASC").
		Find(&payments).Error
	return payments, err
}

func (r *paymentRepository) GetByDateRange(ctx context.Context, from, to time.Time) ([]entity.Payment, error) {
	var payments []entity.Payment
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("payment_date >= ? AND payment_date <= ?", from, to).
		Order("payment_date ASC").
		Find(&payments).Error
	return payments, err
}

func (r *paymentRepository) GetReversalOf(ctx context.Context, paymentID uuid.UUID) (*entity.Payment, error) {
	var payment entity.Payment
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		First(&payment, "reversed_payment_id = ?", paymentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &payment, err
}

func (r *paymentRepository) List(ctx context.Context, params *domainRepo.PaymentFilterParams) ([]entity.Payment, int64, error) {
	var payments []entity.Payment
	var total int64

	query := dbFromContext(ctx, r.db).WithContext(ctx).Model(&entity.Payment{})

	if params.ContractID != nil {
		query = query.Where("contract_id = ?", *params.ContractID)
	}

	if params.StaffID != nil {
		query = query.Where("staff_id = ?", *params.StaffID)
	}

	if params.IsReversal != nil {
		query = query.Where("is_reversal = ?", *params.IsReversal)
	}

	if params.StartDate != nil {
		query = query.Where("payment_date >= ?", *params.StartDate)
	}

	if params.EndDate != nil {
		query = query.Where("payment_date <= ?", *params.EndDate)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Order("payment_date DESC, created_at DESC").
		Find(&payments).Error

	return payments, total, err
}

type receiptRepository struct {
	db *gorm.DB
}

// NewReceiptRepository creates a new receipt repository
func NewReceiptRepository(db *gorm.DB) domainRepo.ReceiptRepository {
	return &receiptRepository{db: db}
}

func (r *receiptRepository) Create(ctx context.Context, receipt *entity.Receipt) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Create(receipt).Error
}

func (r *receiptRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Receipt, error) {
	var receipt entity.Receipt
	err := dbFromContext(ctx, r.db).WithContext(ctx).First(&receipt, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &receipt, err
}

func (r *receiptRepository) GetByPaymentID(ctx context.Context, paymentID uuid.UUID) (*entity.Receipt, error) {
	var receipt entity.Receipt
	err := dbFromContext(ctx, r.db).WithContext(ctx).First(&receipt, "payment_id = ?", paymentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &receipt, err
}

func (r *receiptRepository) GetByReceiptNumber(ctx context.Context, receiptNumber string) (*entity.Receipt, error) {
	var receipt entity.Receipt
	err := dbFromContext(ctx, r.db).WithContext(ctx).First(&receipt, "receipt_number = ?", receiptNumber).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &receipt, err
}
