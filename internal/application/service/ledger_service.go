package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/collectra/collectra-api/internal/config"
	"github.com/collectra/collectra-api/internal/domain/entity"
	"github.com/collectra/collectra-api/internal/domain/enum"
	"github.com/collectra/collectra-api/internal/domain/repository"
	"github.com/collectra/collectra-api/internal/domain/valueobject"
	"github.com/collectra/collectra-api/pkg/apperror"
	"github.com/collectra/collectra-api/pkg/clock"
)

// balanceTolerance is the currency-unit tolerance for trial balance and
// reconciliation checks. It absorbs rounding noise, not business allowances.
var balanceTolerance = decimal.New(1, -2) // 0.01

// LedgerService handles double-entry posting, trial balance, reconciliation
// and integrity checks
type LedgerService struct {
	ledgerRepo   repository.LedgerRepository
	paymentRepo  repository.PaymentRepository
	contractRepo repository.ContractRepository
	customerRepo repository.CustomerRepository
	txManager    repository.TransactionManager
	cfg          config.LedgerConfig
	clk          clock.Clock
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	ledgerRepo repository.LedgerRepository,
	paymentRepo repository.PaymentRepository,
	contractRepo repository.ContractRepository,
	customerRepo repository.CustomerRepository,
	txManager repository.TransactionManager,
	cfg config.LedgerConfig,
	clk clock.Clock,
) *LedgerService {
	return &LedgerService{
		ledgerRepo:   ledgerRepo,
		paymentRepo:  paymentRepo,
		contractRepo: contractRepo,
		customerRepo: customerRepo,
		txManager:    txManager,
		cfg:          cfg,
		clk:          clk,
	}
}

// PaymentPostingInput carries the references for a payment-triggered posting
type PaymentPostingInput struct {
	Payment  *entity.Payment
	Contract *entity.Contract
	// Reversed swaps the debit and credit sides so the pair offsets an
	// earlier posting exactly.
	Reversed bool
}

// PostPaymentPair posts the balanced pair of entries for a payment: a debit
// against the cash account and a credit against the contract's receivable,
// both carrying the payment's amount and currency. A reversed posting swaps
// the two sides.
func (s *LedgerService) PostPaymentPair(ctx context.Context, input *PaymentPostingInput) ([]entity.LedgerEntry, error) {
	p := input.Payment
	c := input.Contract

	prior, err := s.AccountBalance(ctx, nil, &c.ID)
	if err != nil {
		return nil, err
	}

	zero := valueobject.Zero(p.Amount.Currency)
	cashDesc := fmt.Sprintf("Payment received on %s (%s)", c.ContractNumber, s.cfg.CashAccount)
	receivableDesc := fmt.Sprintf("Payment received on %s (%s)", c.ContractNumber, s.cfg.ReceivableAccount)
	if input.Reversed {
		cashDesc = fmt.Sprintf("Payment reversal on %s (%s)", c.ContractNumber, s.cfg.CashAccount)
		receivableDesc = fmt.Sprintf("Payment reversal on %s (%s)", c.ContractNumber, s.cfg.ReceivableAccount)
	}

	firstDebit, firstCredit := p.Amount, zero
	secondDebit, secondCredit := zero, p.Amount
	if input.Reversed {
		// Reversal: credit cash, debit the receivable
		firstDebit, firstCredit = zero, p.Amount
		secondDebit, secondCredit = p.Amount, zero
	}

	afterFirst := prior.Add(firstDebit.Amount).Sub(firstCredit.Amount)
	afterSecond := afterFirst.Add(secondDebit.Amount).Sub(secondCredit.Amount)

	first, err := entity.NewLedgerEntry(entity.LedgerEntryParams{
		TransactionDate: p.PaymentDate,
		Description:     cashDesc,
		Debit:           firstDebit,
		Credit:          firstCredit,
		Balance:         valueobject.New(afterFirst, p.Amount.Currency),
		ReferenceType:   enum.ReferenceTypePayment,
		ReferenceID:     &p.ID,
		ContractID:      &c.ID,
		CustomerID:      &c.CustomerID,
		StaffID:         &p.StaffID,
	})
	if err != nil {
		return nil, err
	}

	second, err := entity.NewLedgerEntry(entity.LedgerEntryParams{
		TransactionDate: p.PaymentDate,
		Description:     receivableDesc,
		Debit:           secondDebit,
		Credit:          secondCredit,
		Balance:         valueobject.New(afterSecond, p.Amount.Currency),
		ReferenceType:   enum.ReferenceTypePayment,
		ReferenceID:     &p.ID,
		ContractID:      &c.ID,
		CustomerID:      &c.CustomerID,
		StaffID:         &p.StaffID,
	})
	if err != nil {
		return nil, err
	}

	if err := s.ledgerRepo.Create(ctx, first); err != nil {
		return nil, err
	}
	if err := s.ledgerRepo.Create(ctx, second); err != nil {
		return nil, err
	}

	return []entity.LedgerEntry{*first, *second}, nil
}

// JournalEntryInput carries the inputs for a manual journal entry
type JournalEntryInput struct {
	TransactionDate time.Time
	Description     string
	Debit           valueobject.Money
	Credit          valueobject.Money
	ContractID      *uuid.UUID
	CustomerID      *uuid.UUID
	StaffID         *uuid.UUID
}

// PostJournalEntry posts a manual adjustment as one debit entry and one
// credit entry of equal amounts. An unequal pair is rejected.
func (s *LedgerService) PostJournalEntry(ctx context.Context, input *JournalEntryInput) ([]entity.LedgerEntry, error) {
	if !input.Debit.Equal(input.Credit) {
		return nil, apperror.NewInvalidStateError("Journal entry debit and credit amounts must be equal")
	}
	if !input.Debit.IsPositive() {
		return nil, apperror.NewBadRequestError("Journal entry amount must be positive")
	}

	var entries []entity.LedgerEntry
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		prior, err := s.AccountBalance(ctx, input.CustomerID, input.ContractID)
		if err != nil {
			return err
		}

		zero := valueobject.Zero(input.Debit.Currency)
		debitEntry, err := entity.NewLedgerEntry(entity.LedgerEntryParams{
			TransactionDate: input.TransactionDate,
			Description:     input.Description,
			Debit:           input.Debit,
			Credit:          zero,
			Balance:         valueobject.New(prior.Add(input.Debit.Amount), input.Debit.Currency),
			ReferenceType:   enum.ReferenceTypeSystem,
			ContractID:      input.ContractID,
			CustomerID:      input.CustomerID,
			StaffID:         input.StaffID,
		})
		if err != nil {
			return err
		}

		creditEntry, err := entity.NewLedgerEntry(entity.LedgerEntryParams{
			TransactionDate: input.TransactionDate,
			Description:     input.Description,
			Debit:           zero,
			Credit:          input.Credit,
			Balance:         valueobject.New(prior, input.Credit.Currency),
			ReferenceType:   enum.ReferenceTypeSystem,
			ContractID:      input.ContractID,
			CustomerID:      input.CustomerID,
			StaffID:         input.StaffID,
		})
		if err != nil {
			return err
		}

		if err := s.ledgerRepo.Create(ctx, debitEntry); err != nil {
			return err
		}
		if err := s.ledgerRepo.Create(ctx, creditEntry); err != nil {
			return err
		}

		entries = []entity.LedgerEntry{*debitEntry, *creditEntry}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// AccountBalance returns total debits minus total credits over entries
// matching the given customer and/or contract; both nil means the whole book.
func (s *LedgerService) AccountBalance(ctx context.Context, customerID, contractID *uuid.UUID) (decimal.Decimal, error) {
	debit, credit, err := s.ledgerRepo.SumDebitsCredits(ctx, &repository.LedgerSumFilter{
		ContractID: contractID,
		CustomerID: customerID,
	})
	if err != nil {
		return decimal.Zero, err
	}
	return debit.Sub(credit), nil
}

// TrialBalanceResult summarizes the book as of a date
type TrialBalanceResult struct {
	AsOf        time.Time       `json:"as_of"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`
	Difference  decimal.Decimal `json:"difference"`
	IsBalanced  bool            `json:"is_balanced"`
}

// TrialBalance sums debits and credits over all entries up to asOf. The book
// is balanced when the absolute difference is within the 0.01 tolerance.
func (s *LedgerService) TrialBalance(ctx context.Context, asOf time.Time) (*TrialBalanceResult, error) {
	debit, credit, err := s.ledgerRepo.SumDebitsCredits(ctx, &repository.LedgerSumFilter{To: &asOf})
	if err != nil {
		return nil, err
	}

	diff := debit.Sub(credit)
	return &TrialBalanceResult{
		AsOf:        asOf,
		TotalDebit:  debit,
		TotalCredit: credit,
		Difference:  diff,
		IsBalanced:  diff.Abs().LessThanOrEqual(balanceTolerance),
	}, nil
}

// Reconcile checks the debit/credit difference over a date range and, when it
// exceeds the tolerance, posts a single balancing entry of the exact
// difference: a credit when debits exceed credits, a debit otherwise. The
// correction is an auditable System entry, never a silent adjustment. It is
// dated at the end of the range so the range itself becomes balanced and a
// re-run over the same range posts nothing. Returns nil when the range is
// already balanced.
func (s *LedgerService) Reconcile(ctx context.Context, from, to time.Time) (*entity.LedgerEntry, error) {
	var posted *entity.LedgerEntry

	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		debit, credit, err := s.ledgerRepo.SumDebitsCredits(ctx, &repository.LedgerSumFilter{From: &from, To: &to})
		if err != nil {
			return err
		}

		diff := debit.Sub(credit)
		if diff.Abs().LessThanOrEqual(balanceTolerance) {
			return nil
		}

		currency := s.cfg.DefaultCurrency
		zero := valueobject.Zero(currency)
		amount := valueobject.New(diff.Abs(), currency)

		params := entity.LedgerEntryParams{
			TransactionDate: to,
			Description: fmt.Sprintf("Reconciliation balancing entry for %s to %s",
				from.Format("2006-01-02"), to.Format("2006-01-02")),
			ReferenceType: enum.ReferenceTypeSystem,
		}
		if diff.IsPositive() {
			// Debits exceed credits: balance with a credit
			params.Debit = zero
			params.Credit = amount
			params.Balance = zero
		} else {
			params.Debit = amount
			params.Credit = zero
			params.Balance = zero
		}

		entry, err := entity.NewLedgerEntry(params)
		if err != nil {
			return err
		}
		if err := s.ledgerRepo.Create(ctx, entry); err != nil {
			return err
		}

		posted = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	return posted, nil
}

// DailyImbalance reports one calendar date whose entries do not balance
type DailyImbalance struct {
	Date        time.Time       `json:"date"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`
	Difference  decimal.Decimal `json:"difference"`
}

// UnbalancedEntries groups all entries up to now by calendar date and reports
// the dates whose debit/credit sums differ by more than the tolerance. This
// is an audit view; nothing is corrected.
func (s *LedgerService) UnbalancedEntries(ctx context.Context) ([]DailyImbalance, error) {
	entries, err := s.ledgerRepo.GetUpTo(ctx, s.clk.Now())
	if err != nil {
		return nil, err
	}

	type sums struct {
		debit  decimal.Decimal
		credit decimal.Decimal
	}
	byDate := make(map[time.Time]*sums)
	var order []time.Time

	for i := range entries {
		d := entries[i].TransactionDate
		day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		group, ok := byDate[day]
		if !ok {
			group = &sums{debit: decimal.Zero, credit: decimal.Zero}
			byDate[day] = group
			order = append(order, day)
		}
		group.debit = group.debit.Add(entries[i].DebitAmount.Amount)
		group.credit = group.credit.Add(entries[i].CreditAmount.Amount)
	}

	var result []DailyImbalance
	for _, day := range order {
		group := byDate[day]
		diff := group.debit.Sub(group.credit)
		if diff.Abs().GreaterThan(balanceTolerance) {
			result = append(result, DailyImbalance{
				Date:        day,
				TotalDebit:  group.debit,
				TotalCredit: group.credit,
				Difference:  diff,
			})
		}
	}

	return result, nil
}

// ValidateEntryIntegrity confirms that an entry's reference ID resolves to an
// existing record of the referenced type. System entries are internal
// adjustments with no backing record and are exempt.
func (s *LedgerService) ValidateEntryIntegrity(ctx context.Context, entryID uuid.UUID) error {
	entry, err := s.ledgerRepo.GetByID(ctx, entryID)
	if err != nil {
		return err
	}
	if entry == nil {
		return apperror.NewNotFoundError("Ledger entry")
	}

	if entry.ReferenceType == enum.ReferenceTypeSystem {
		return nil
	}

	if entry.ReferenceID == nil {
		return apperror.NewInvalidStateError("Ledger entry has no reference ID")
	}

	switch entry.ReferenceType {
	case enum.ReferenceTypePayment:
		payment, err := s.paymentRepo.GetByID(ctx, *entry.ReferenceID)
		if err != nil {
			return err
		}
		if payment == nil {
			return apperror.NewInvalidStateError("Ledger entry references a missing payment")
		}
	case enum.ReferenceTypeContract:
		contract, err := s.contractRepo.GetByID(ctx, *entry.ReferenceID)
		if err != nil {
			return err
		}
		if contract == nil {
			return apperror.NewInvalidStateError("Ledger entry references a missing contract")
		}
	case enum.ReferenceTypeCustomer:
		customer, err := s.customerRepo.GetByID(ctx, *entry.ReferenceID)
		if err != nil {
			return err
		}
		if customer == nil {
			return apperror.NewInvalidStateError("Ledger entry references a missing customer")
		}
	default:
		return apperror.NewBadRequestError("Unknown ledger reference type")
	}

	return nil
}

// ListEntries returns a filtered page of ledger entries
func (s *LedgerService) ListEntries(ctx context.Context, params *repository.LedgerFilterParams) ([]entity.LedgerEntry, int64, error) {
	return s.ledgerRepo.List(ctx, params)
}

// GetByContract returns the non-archived entries for a contract in
// chronological order
func (s *LedgerService) GetByContract(ctx context.Context, contractID uuid.UUID) ([]entity.LedgerEntry, error) {
	return s.ledgerRepo.GetByContractID(ctx, contractID)
}

// ArchiveEntry flags an entry as archived so it drops out of balances and
// reports. The record itself is never deleted.
func (s *LedgerService) ArchiveEntry(ctx context.Context, id uuid.UUID) error {
	entry, err := s.ledgerRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if entry == nil {
		return apperror.NewNotFoundError("Ledger entry")
	}
	return s.ledgerRepo.Archive(ctx, id)
}
