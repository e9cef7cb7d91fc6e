package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/collectra/collectra-api/internal/domain/entity"
	"github.com/collectra/collectra-api/internal/domain/enum"
	"github.com/collectra/collectra-api/internal/domain/repository"
	"github.com/collectra/collectra-api/internal/domain/valueobject"
	"github.com/collectra/collectra-api/pkg/apperror"
	"github.com/collectra/collectra-api/pkg/clock"
)

const (
	// maxReceiptNumberRetries bounds the receipt-number collision retry loop
	maxReceiptNumberRetries = 5
	// maxReferenceLength caps derived reference numbers; truncation keeps
	// the installment-number suffix intact.
	maxReferenceLength = 100
)

// PaymentService orchestrates the atomic payment workflow: payment record,
// installment allocation, receipt, ledger pair and contract balance are
// written as one transaction. Any failure rolls back every write.
type PaymentService struct {
	contractRepo    repository.ContractRepository
	installmentRepo repository.InstallmentRepository
	paymentRepo     repository.PaymentRepository
	receiptRepo     repository.ReceiptRepository
	userRepo        repository.UserRepository
	ledgerService   *LedgerService
	txManager       repository.TransactionManager
	clk             clock.Clock
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	contractRepo repository.ContractRepository,
	installmentRepo repository.InstallmentRepository,
	paymentRepo repository.PaymentRepository,
	receiptRepo repository.ReceiptRepository,
	userRepo repository.UserRepository,
	ledgerService *LedgerService,
	txManager repository.TransactionManager,
	clk clock.Clock,
) *PaymentService {
	return &PaymentService{
		contractRepo:    contractRepo,
		installmentRepo: installmentRepo,
		paymentRepo:     paymentRepo,
		receiptRepo:     receiptRepo,
		userRepo:        userRepo,
		ledgerService:   ledgerService,
		txManager:       txManager,
		clk:             clk,
	}
}

// ProcessPaymentInput carries the inputs for a single-installment payment
type ProcessPaymentInput struct {
	ContractID      uuid.UUID
	InstallmentID   uuid.UUID
	Amount          valueobject.Money
	PaymentDate     time.Time
	Method          enum.PaymentMethod
	StaffID         uuid.UUID
	ReferenceNumber *string
	Notes           *string
}

// PaymentResult carries everything written by one payment workflow
type PaymentResult struct {
	Payment       *entity.Payment      `json:"payment"`
	Installment   *entity.Installment  `json:"installment"`
	Receipt       *entity.Receipt      `json:"receipt,omitempty"`
	LedgerEntries []entity.LedgerEntry `json:"ledger_entries"`
	Contract      *entity.Contract     `json:"contract"`
}

// ProcessPayment records a payment against one installment. The whole
// workflow runs in a single transaction: validation, payment record,
// installment allocation, receipt issue, balanced ledger pair and the
// contract balance refresh commit together or not at all.
func (s *PaymentService) ProcessPayment(ctx context.Context, input *ProcessPaymentInput) (*PaymentResult, error) {
	var result *PaymentResult

	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		contract, err := s.contractRepo.GetWithInstallments(ctx, input.ContractID)
		if err != nil {
			return err
		}
		if contract == nil {
			return apperror.NewNotFoundError("Contract")
		}
		if contract.Status != enum.ContractStatusActive {
			return apperror.NewInvalidStateError("Payments can only be recorded against active contracts")
		}

		if input.PaymentDate.After(s.clk.Now()) {
			return apperror.NewInvalidStateError("Payment date cannot be in the future")
		}

		// A staff reference is mandatory for financial accountability
		staff, err := s.userRepo.GetByID(ctx, input.StaffID)
		if err != nil {
			return err
		}
		if staff == nil {
			return apperror.NewInvalidStateError("Payment requires a valid staff reference")
		}

		installment := findInstallment(contract, input.InstallmentID)
		if installment == nil {
			return apperror.NewNotFoundError("Installment")
		}

		remaining := installment.Remaining()
		cmp, err := input.Amount.Cmp(remaining)
		if err != nil {
			return apperror.NewBadRequestError(err.Error())
		}
		if cmp > 0 {
			return apperror.NewInvalidStateError(
				fmt.Sprintf("Payment of %s exceeds the remaining %s on installment %d",
					input.Amount, remaining, installment.InstallmentNumber))
		}

		payment, err := entity.NewPayment(contract.ID, installment.ID, input.StaffID,
			input.Amount, input.PaymentDate, input.Method, input.ReferenceNumber, input.Notes)
		if err != nil {
			return err
		}
		if err := s.paymentRepo.Create(ctx, payment); err != nil {
			return err
		}

		if err := installment.ApplyPayment(payment.Amount, payment.PaymentDate); err != nil {
			return err
		}
		if err := s.installmentRepo.Update(ctx, installment); err != nil {
			return err
		}

		receipt, err := s.issueReceipt(ctx, payment, contract.CustomerID)
		if err != nil {
			return err
		}

		entries, err := s.ledgerService.PostPaymentPair(ctx, &PaymentPostingInput{
			Payment:  payment,
			Contract: contract,
		})
		if err != nil {
			return err
		}

		contract.RefreshOutstanding()
		if err := s.contractRepo.Update(ctx, contract); err != nil {
			return err
		}

		result = &PaymentResult{
			Payment:       payment,
			Installment:   installment,
			Receipt:       receipt,
			LedgerEntries: entries,
			Contract:      contract,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ProcessPartialPaymentInput carries the inputs for a lump-sum payment
// spread across a contract's unpaid installments
type ProcessPartialPaymentInput struct {
	ContractID      uuid.UUID
	Amount          valueobject.Money
	PaymentDate     time.Time
	Method          enum.PaymentMethod
	StaffID         uuid.UUID
	ReferenceNumber *string
	Notes           *string
}

// ProcessPartialPayment allocates a lump sum across the contract's unpaid
// installments in ascending due-date order, paying each installment's
// remaining amount (or what is left of the sum) in turn. Excess beyond the
// total outstanding is simply not allocated. Each per-installment payment is
// a full ProcessPayment run; everything commits in one transaction.
func (s *PaymentService) ProcessPartialPayment(ctx context.Context, input *ProcessPartialPaymentInput) ([]PaymentResult, error) {
	if !input.Amount.IsPositive() {
		return nil, apperror.NewBadRequestError("Payment amount must be positive")
	}

	var results []PaymentResult
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		unpaid, err := s.installmentRepo.GetUnpaidByContractID(ctx, input.ContractID)
		if err != nil {
			return err
		}
		if len(unpaid) == 0 {
			return apperror.NewInvalidStateError("Contract has no unpaid installments")
		}

		remaining := input.Amount
		for i := range unpaid {
			if !remaining.IsPositive() {
				break
			}

			installment := &unpaid[i]
			slice, err := remaining.Min(installment.Remaining())
			if err != nil {
				return apperror.NewBadRequestError(err.Error())
			}
			if !slice.IsPositive() {
				continue
			}

			ref := deriveReference(input.ReferenceNumber, installment.InstallmentNumber)
			result, err := s.ProcessPayment(ctx, &ProcessPaymentInput{
				ContractID:      input.ContractID,
				InstallmentID:   installment.ID,
				Amount:          slice,
				PaymentDate:     input.PaymentDate,
				Method:          input.Method,
				StaffID:         input.StaffID,
				ReferenceNumber: ref,
				Notes:           input.Notes,
			})
			if err != nil {
				return err
			}

			results = append(results, *result)
			remaining, err = remaining.Sub(slice)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return results, nil
}

// ReversePayment cancels a payment's financial and schedule effects without
// touching the original record: a new payment flagged as a reversal is
// created, the installment allocation is rolled back, a debit/credit-swapped
// ledger pair is posted and the contract balance is refreshed, all in one
// transaction. No receipt is issued for a reversal.
func (s *PaymentService) ReversePayment(ctx context.Context, paymentID, staffID uuid.UUID, reason string) (*PaymentResult, error) {
	var result *PaymentResult

	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		original, err := s.paymentRepo.GetByID(ctx, paymentID)
		if err != nil {
			return err
		}
		if original == nil {
			return apperror.NewNotFoundError("Payment")
		}

		existing, err := s.paymentRepo.GetReversalOf(ctx, original.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperror.NewInvalidStateError("Payment has already been reversed")
		}

		staff, err := s.userRepo.GetByID(ctx, staffID)
		if err != nil {
			return err
		}
		if staff == nil {
			return apperror.NewInvalidStateError("Reversal requires a valid staff reference")
		}

		contract, err := s.contractRepo.GetWithInstallments(ctx, original.ContractID)
		if err != nil {
			return err
		}
		if contract == nil {
			return apperror.NewNotFoundError("Contract")
		}

		installment := findInstallment(contract, original.InstallmentID)
		if installment == nil {
			return apperror.NewNotFoundError("Installment")
		}

		reversal, err := original.NewReversal(staffID, reason, s.clk.Now())
		if err != nil {
			return err
		}
		if err := s.paymentRepo.Create(ctx, reversal); err != nil {
			return err
		}

		if err := installment.Revert(original.Amount); err != nil {
			return err
		}
		if err := s.installmentRepo.Update(ctx, installment); err != nil {
			return err
		}

		entries, err := s.ledgerService.PostPaymentPair(ctx, &PaymentPostingInput{
			Payment:  reversal,
			Contract: contract,
			Reversed: true,
		})
		if err != nil {
			return err
		}

		contract.RefreshOutstanding()
		if err := s.contractRepo.Update(ctx, contract); err != nil {
			return err
		}

		result = &PaymentResult{
			Payment:       reversal,
			Installment:   installment,
			LedgerEntries: entries,
			Contract:      contract,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GetPayment returns a payment by ID
func (s *PaymentService) GetPayment(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, apperror.NewNotFoundError("Payment")
	}
	return payment, nil
}

// ListPayments returns a filtered page of payments
func (s *PaymentService) ListPayments(ctx context.Context, params *repository.PaymentFilterParams) ([]entity.Payment, int64, error) {
	return s.paymentRepo.List(ctx, params)
}

// GetReceiptForPayment returns the receipt issued for a payment, or NotFound
// when none exists (reversals never have one)
func (s *PaymentService) GetReceiptForPayment(ctx context.Context, paymentID uuid.UUID) (*entity.Receipt, error) {
	receipt, err := s.receiptRepo.GetByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, apperror.NewNotFoundError("Receipt")
	}
	return receipt, nil
}

// issueReceipt issues the receipt for a payment. Idempotent: an existing
// receipt for the payment is returned unchanged. Reversal payments never get
// a receipt.
func (s *PaymentService) issueReceipt(ctx context.Context, payment *entity.Payment, customerID uuid.UUID) (*entity.Receipt, error) {
	if payment.IsReversal {
		return nil, nil
	}

	existing, err := s.receiptRepo.GetByPaymentID(ctx, payment.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	number, err := s.uniqueReceiptNumber(ctx)
	if err != nil {
		return nil, err
	}

	receipt := &entity.Receipt{
		ID:            uuid.New(),
		ReceiptNumber: number,
		PaymentID:     payment.ID,
		CustomerID:    customerID,
		Amount:        payment.Amount,
		IssueDate:     s.clk.Now(),
		StaffID:       payment.StaffID,
	}
	if err := s.receiptRepo.Create(ctx, receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// uniqueReceiptNumber generates a timestamp-plus-random receipt number,
// retrying a bounded number of times on collision before falling back to a
// deterministic timestamp-only number.
func (s *PaymentService) uniqueReceiptNumber(ctx context.Context) (string, error) {
	now := s.clk.Now()

	for attempt := 0; attempt < maxReceiptNumberRetries; attempt++ {
		candidate := fmt.Sprintf("RCP-%s-%04d", now.Format("20060102150405"), rand.Intn(10000))
		existing, err := s.receiptRepo.GetByReceiptNumber(ctx, candidate)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return candidate, nil
		}
	}

	// Deterministic fallback: nanosecond timestamp, no random component
	return fmt.Sprintf("RCP-%d", now.UnixNano()), nil
}

// deriveReference builds the per-installment reference for a partial payment
// run: base reference plus "-{installmentNumber}". The result is truncated to
// the maximum reference length with the suffix preserved. Truncation counts
// runes so a multi-byte base reference is never cut mid-character.
func deriveReference(base *string, installmentNumber int) *string {
	suffix := fmt.Sprintf("-%d", installmentNumber)

	var ref string
	if base != nil && *base != "" {
		ref = *base + suffix
	} else {
		ref = fmt.Sprintf("PMT%s", suffix)
	}

	if runes := []rune(ref); len(runes) > maxReferenceLength {
		keep := maxReferenceLength - len(suffix)
		ref = string(runes[:keep]) + suffix
	}
	return &ref
}

// findInstallment locates an installment inside a loaded contract so the
// same object is mutated, updated and reflected in the contract's balance
func findInstallment(contract *entity.Contract, installmentID uuid.UUID) *entity.Installment {
	for i := range contract.Installments {
		if contract.Installments[i].ID == installmentID {
			return &contract.Installments[i]
		}
	}
	return nil
}
