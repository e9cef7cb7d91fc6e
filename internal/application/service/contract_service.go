package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/collectra/collectra-api/internal/domain/entity"
	"github.com/collectra/collectra-api/internal/domain/enum"
	"github.com/collectra/collectra-api/internal/domain/repository"
	"github.com/collectra/collectra-api/internal/domain/valueobject"
	"github.com/collectra/collectra-api/pkg/apperror"
	"github.com/collectra/collectra-api/pkg/clock"
	"github.com/collectra/collectra-api/pkg/utils"
)

// ContractService handles contract lifecycle and schedule operations
type ContractService struct {
	contractRepo    repository.ContractRepository
	installmentRepo repository.InstallmentRepository
	customerRepo    repository.CustomerRepository
	paymentRepo     repository.PaymentRepository
	ledgerService   *LedgerService
	txManager       repository.TransactionManager
	clk             clock.Clock
}

// NewContractService creates a new contract service
func NewContractService(
	contractRepo repository.ContractRepository,
	installmentRepo repository.InstallmentRepository,
	customerRepo repository.CustomerRepository,
	paymentRepo repository.PaymentRepository,
	ledgerService *LedgerService,
	txManager repository.TransactionManager,
	clk clock.Clock,
) *ContractService {
	return &ContractService{
		contractRepo:    contractRepo,
		installmentRepo: installmentRepo,
		customerRepo:    customerRepo,
		paymentRepo:     paymentRepo,
		ledgerService:   ledgerService,
		txManager:       txManager,
		clk:             clk,
	}
}

// CreateContractInput carries the inputs for creating a contract
type CreateContractInput struct {
	CustomerID           uuid.UUID
	StaffID              *uuid.UUID
	TotalAmount          valueobject.Money
	StartDate            time.Time
	NumberOfInstallments int
	InterestRate         decimal.Decimal
	GracePeriodDays      int
	Notes                *string
}

// CreateContract creates a contract in Draft. The installment schedule is
// generated later, on activation.
func (s *ContractService) CreateContract(ctx context.Context, input *CreateContractInput) (*entity.Contract, error) {
	if !input.TotalAmount.IsPositive() {
		return nil, apperror.NewBadRequestError("Contract total amount must be positive")
	}
	if input.NumberOfInstallments < 1 {
		return nil, apperror.NewBadRequestError("Number of installments must be at least 1")
	}

	customer, err := s.customerRepo.GetByID(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}

	contract := &entity.Contract{
		ID:                   uuid.New(),
		ContractNumber:       utils.GenerateContractNumber(),
		CustomerID:           input.CustomerID,
		StaffID:              input.StaffID,
		TotalAmount:          input.TotalAmount,
		OutstandingAmount:    input.TotalAmount,
		StartDate:            input.StartDate,
		Status:               enum.ContractStatusDraft,
		NumberOfInstallments: input.NumberOfInstallments,
		InterestRate:         input.InterestRate,
		GracePeriodDays:      input.GracePeriodDays,
		Notes:                input.Notes,
	}

	if err := s.contractRepo.Create(ctx, contract); err != nil {
		return nil, err
	}
	return contract, nil
}

// GetContract returns a contract with its schedule
func (s *ContractService) GetContract(ctx context.Context, id uuid.UUID) (*entity.Contract, error) {
	contract, err := s.contractRepo.GetWithInstallments(ctx, id)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, apperror.NewNotFoundError("Contract")
	}
	return contract, nil
}

// ListContracts returns a filtered page of contracts
func (s *ContractService) ListContracts(ctx context.Context, params *repository.ContractFilterParams) ([]entity.Contract, int64, error) {
	return s.contractRepo.List(ctx, params)
}

// Activate moves a Draft contract to Active and generates its installment
// schedule. Generation runs at most once; the schedule and the status change
// commit together.
func (s *ContractService) Activate(ctx context.Context, id uuid.UUID) (*entity.Contract, error) {
	var contract *entity.Contract

	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		contract, err = s.contractRepo.GetWithInstallments(ctx, id)
		if err != nil {
			return err
		}
		if contract == nil {
			return apperror.NewNotFoundError("Contract")
		}

		if err := contract.Activate(); err != nil {
			return err
		}

		if !contract.HasInstallments() {
			if err := contract.GenerateInstallments(); err != nil {
				return err
			}
			if err := s.installmentRepo.CreateBatch(ctx, contract.Installments); err != nil {
				return err
			}
		}

		return s.contractRepo.Update(ctx, contract)
	})
	if err != nil {
		return nil, err
	}

	return contract, nil
}

// Suspend moves an Active contract to Suspended
func (s *ContractService) Suspend(ctx context.Context, id uuid.UUID) (*entity.Contract, error) {
	return s.applyTransition(ctx, id, func(c *entity.Contract) error {
		return c.Suspend()
	})
}

// Resume moves a Suspended contract back to Active
func (s *ContractService) Resume(ctx context.Context, id uuid.UUID) (*entity.Contract, error) {
	return s.applyTransition(ctx, id, func(c *entity.Contract) error {
		return c.Resume()
	})
}

// Complete closes a contract once every installment is settled
func (s *ContractService) Complete(ctx context.Context, id uuid.UUID) (*entity.Contract, error) {
	return s.applyTransition(ctx, id, func(c *entity.Contract) error {
		return c.Complete(s.clk.Now())
	})
}

// Cancel terminates a contract
func (s *ContractService) Cancel(ctx context.Context, id uuid.UUID) (*entity.Contract, error) {
	return s.applyTransition(ctx, id, func(c *entity.Contract) error {
		return c.Cancel(s.clk.Now())
	})
}

// MarkDefaulted flags an Active contract as defaulted
func (s *ContractService) MarkDefaulted(ctx context.Context, id uuid.UUID) (*entity.Contract, error) {
	return s.applyTransition(ctx, id, func(c *entity.Contract) error {
		return c.MarkDefaulted()
	})
}

func (s *ContractService) applyTransition(ctx context.Context, id uuid.UUID, fn func(*entity.Contract) error) (*entity.Contract, error) {
	contract, err := s.contractRepo.GetWithInstallments(ctx, id)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, apperror.NewNotFoundError("Contract")
	}

	if err := fn(contract); err != nil {
		return nil, err
	}

	if err := s.contractRepo.Update(ctx, contract); err != nil {
		return nil, err
	}
	return contract, nil
}

// WaiveInstallment forgives an installment without payment and refreshes the
// contract balance
func (s *ContractService) WaiveInstallment(ctx context.Context, contractID, installmentID uuid.UUID) (*entity.Installment, error) {
	return s.applyInstallmentChange(ctx, contractID, installmentID, func(i *entity.Installment) error {
		return i.Waive()
	})
}

// UnwaiveInstallment lifts a waiver, returning the installment to Pending
func (s *ContractService) UnwaiveInstallment(ctx context.Context, contractID, installmentID uuid.UUID) (*entity.Installment, error) {
	return s.applyInstallmentChange(ctx, contractID, installmentID, func(i *entity.Installment) error {
		return i.Unwaive()
	})
}

func (s *ContractService) applyInstallmentChange(ctx context.Context, contractID, installmentID uuid.UUID, fn func(*entity.Installment) error) (*entity.Installment, error) {
	var installment *entity.Installment

	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		contract, err := s.contractRepo.GetWithInstallments(ctx, contractID)
		if err != nil {
			return err
		}
		if contract == nil {
			return apperror.NewNotFoundError("Contract")
		}

		installment = findInstallment(contract, installmentID)
		if installment == nil {
			return apperror.NewNotFoundError("Installment")
		}

		if err := fn(installment); err != nil {
			return err
		}
		if err := s.installmentRepo.Update(ctx, installment); err != nil {
			return err
		}

		contract.RefreshOutstanding()
		return s.contractRepo.Update(ctx, contract)
	})
	if err != nil {
		return nil, err
	}

	return installment, nil
}

// MarkOverdue sweeps all unpaid installments past their due date into
// Overdue and returns how many were flipped. Intended to run on a schedule.
func (s *ContractService) MarkOverdue(ctx context.Context) (int, error) {
	asOf := s.clk.Now()

	overdue, err := s.installmentRepo.GetOverdue(ctx, asOf)
	if err != nil {
		return 0, err
	}

	count := 0
	for i := range overdue {
		installment := &overdue[i]
		if err := installment.MarkOverdue(asOf); err != nil {
			continue
		}
		if err := s.installmentRepo.Update(ctx, installment); err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}

// LedgerConsistencyResult compares the installment-derived outstanding
// balance against the ledger's view of the contract
type LedgerConsistencyResult struct {
	ContractID         uuid.UUID       `json:"contract_id"`
	Outstanding        decimal.Decimal `json:"outstanding"`
	TotalPaid          decimal.Decimal `json:"total_paid"`
	LedgerCashReceived decimal.Decimal `json:"ledger_cash_received"`
	Difference         decimal.Decimal `json:"difference"`
	Consistent         bool            `json:"consistent"`
}

// CheckLedgerConsistency cross-checks the schedule against the book: the
// amount paid per the installment schedule should match the cash debits
// recorded for the contract (net of reversal credits). The two are derived
// independently, so this is a real audit check rather than a tautology.
func (s *ContractService) CheckLedgerConsistency(ctx context.Context, contractID uuid.UUID) (*LedgerConsistencyResult, error) {
	contract, err := s.contractRepo.GetWithInstallments(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, apperror.NewNotFoundError("Contract")
	}

	totalPaid := decimal.Zero
	for i := range contract.Installments {
		totalPaid = totalPaid.Add(contract.Installments[i].PaidAmount.Amount)
	}

	entries, err := s.ledgerService.GetByContract(ctx, contractID)
	if err != nil {
		return nil, err
	}

	payments, err := s.paymentRepo.GetByContractID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	reversals := make(map[uuid.UUID]bool, len(payments))
	for i := range payments {
		reversals[payments[i].ID] = payments[i].IsReversal
	}

	// Each posting pair has one cash leg and one receivable leg carrying
	// the same contract reference, so Σdebit-Σcredit over the contract nets
	// to zero. The cash position is rebuilt from the legs instead: a normal
	// payment's cash leg is its debit entry, a reversal's cash leg is its
	// credit entry.
	cashReceived := decimal.Zero
	for i := range entries {
		e := &entries[i]
		if e.ReferenceType != enum.ReferenceTypePayment || e.ReferenceID == nil {
			continue
		}
		isReversal, known := reversals[*e.ReferenceID]
		if !known {
			continue
		}
		if !isReversal && e.IsDebit() {
			cashReceived = cashReceived.Add(e.DebitAmount.Amount)
		}
		if isReversal && e.IsCredit() {
			cashReceived = cashReceived.Sub(e.CreditAmount.Amount)
		}
	}
	diff := totalPaid.Sub(cashReceived)

	return &LedgerConsistencyResult{
		ContractID:         contractID,
		Outstanding:        contract.ComputeOutstanding().Amount,
		TotalPaid:          totalPaid,
		LedgerCashReceived: cashReceived,
		Difference:         diff,
		Consistent:         diff.Abs().LessThanOrEqual(balanceTolerance),
	}, nil
}

// DeleteContract soft-deletes a Draft contract. Contracts with financial
// history are never deleted.
func (s *ContractService) DeleteContract(ctx context.Context, id uuid.UUID) error {
	contract, err := s.contractRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if contract == nil {
		return apperror.NewNotFoundError("Contract")
	}
	if contract.Status != enum.ContractStatusDraft {
		return apperror.NewInvalidStateError("Only draft contracts can be deleted")
	}
	return s.contractRepo.Delete(ctx, id)
}
