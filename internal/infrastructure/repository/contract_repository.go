package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/collectra/collectra-api/internal/domain/entity"
	"github.com/collectra/collectra-api/internal/domain/enum"
	domainRepo "github.com/collectra/collectra-api/internal/domain/repository"
)

type contractRepository struct {
	db *gorm.DB
}

// NewContractRepository creates a new contract repository
func NewContractRepository(db *gorm.DB) domainRepo.ContractRepository {
	return &contractRepository{db: db}
}

func (r *contractRepository) Create(ctx context.Context, contract *entity.Contract) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Create(contract).Error
}

func (r *contractRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Contract, error) {
	var contract entity.Contract
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Preload("Customer").
		First(&contract, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &contract, err
}

func (r *contractRepository) GetWithInstallments(ctx context.Context, id uuid.UUID) (*entity.Contract, error) {
	var contract entity.Contract
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Preload("Customer").
		Preload("Installments", func(db *gorm.DB) *gorm.DB {
			return db.Order("installment_number ASC")
		}).
		First(&contract, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &contract, err
}

func (r *contractRepository) GetByContractNumber(ctx context.Context, contractNumber string) (*entity.Contract, error) {
	var contract entity.Contract
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		First(&contract, "contract_number = ?", contractNumber).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &contract, err
}

func (r *contractRepository) Update(ctx context.Context, contract *entity.Contract) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Save(contract).Error
}

func (r *contractRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Delete(&entity.Contract{}, "id = ?", id).Error
}

func (r *contractRepository) List(ctx context.Context, params *domainRepo.ContractFilterParams) ([]entity.Contract, int64, error) {
	var contracts []entity.Contract
	var total int64

	query := dbFromContext(ctx, r.db).WithContext(ctx).Model(&entity.Contract{})

	if params.Search != "" {
		query = query.Where("contract_number ILIKE ?", "%"+params.Search+"%")
	}

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	if params.CustomerID != nil {
		query = query.Where("customer_id = ?", *params.CustomerID)
	}

	if params.StartDate != nil {
		query = query.Where("start_date >= ?", *params.StartDate)
	}

	if params.EndDate != nil {
		query = query.Where("start_date <= ?", *params.EndDate)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Preload("Customer").
		Order("created_at DESC").
		Find(&contracts).Error

	return contracts, total, err
}

type installmentRepository struct {
	db *gorm.DB
}

// NewInstallmentRepository creates a new installment repository
func NewInstallmentRepository(db *gorm.DB) domainRepo.InstallmentRepository {
	return &installmentRepository{db: db}
}

func (r *installmentRepository) CreateBatch(ctx context.Context, installments []entity.Installment) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Create(&installments).Error
}

func (r *installmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Installment, error) {
	var installment entity.Installment
	err := dbFromContext(ctx, r.db).WithContext(ctx).First(&installment, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &installment, err
}

func (r *installmentRepository) GetByContractID(ctx context.Context, contractID uuid.UUID) ([]entity.Installment, error) {
	var installments []entity.Installment
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("installment_number ASC").
		Find(&installments).Error
	return installments, err
}

func (r *installmentRepository) GetUnpaidByContractID(ctx context.Context, contractID uuid.UUID) ([]entity.Installment, error) {
	var installments []entity.Installment
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("contract_id = ? AND status IN ?", contractID, []enum.InstallmentStatus{
			enum.InstallmentStatusPending,
			enum.InstallmentStatusPartiallyPaid,
			enum.InstallmentStatusOverdue,
		}).
		Order("due_date ASC").
		Find(&installments).Error
	return installments, err
}

func (r *installmentRepository) GetOverdue(ctx context.Context, asOf time.Time) ([]entity.Installment, error) {
	var installments []entity.Installment
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("due_date < ? AND status IN ?", asOf, []enum.InstallmentStatus{
			enum.InstallmentStatusPending,
			enum.InstallmentStatusPartiallyPaid,
		}).
		Order("due_date ASC").
		Find(&installments).Error
	return installments, err
}

func (r *installmentRepository) Update(ctx context.Context, installment *entity.Installment) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Save(installment).Error
}
