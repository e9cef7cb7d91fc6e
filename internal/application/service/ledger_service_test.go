package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collectra/collectra-api/internal/domain/entity"
	"github.com/collectra/collectra-api/internal/domain/enum"
	"github.com/collectra/collectra-api/internal/domain/valueobject"
	"github.com/collectra/collectra-api/pkg/apperror"
)

// seedEntry stores a raw ledger entry, bypassing the posting services.
func seedEntry(f *fixture, date time.Time, debit, credit string, refType enum.ReferenceType, refID *uuid.UUID) entity.LedgerEntry {
	d, _ := decimal.NewFromString(debit)
	c, _ := decimal.NewFromString(credit)
	e := entity.LedgerEntry{
		ID:              uuid.New(),
		TransactionDate: date,
		Description:     "seeded",
		DebitAmount:     valueobject.New(d, "KES"),
		CreditAmount:    valueobject.New(c, "KES"),
		Balance:         valueobject.Zero("KES"),
		ReferenceType:   refType,
		ReferenceID:     refID,
	}
	f.store.entries = append(f.store.entries, e)
	return e
}

func TestPostJournalEntry(t *testing.T) {
	ctx := context.Background()

	t.Run("balanced pair is posted", func(t *testing.T) {
		f := newFixture()
		amount := kes(t, "50.00")

		entries, err := f.ledgerService.PostJournalEntry(ctx, &JournalEntryInput{
			TransactionDate: f.now,
			Description:     "Opening adjustment",
			Debit:           amount,
			Credit:          amount,
		})
		require.NoError(t, err)
		require.Len(t, entries, 2)

		assert.True(t, entries[0].IsDebit())
		assert.True(t, entries[1].IsCredit())
		assert.Equal(t, enum.ReferenceTypeSystem, entries[0].ReferenceType)
		assert.Equal(t, enum.ReferenceTypeSystem, entries[1].ReferenceType)

		// Running balance: up by the debit, back down after the credit
		assert.True(t, entries[0].Balance.Amount.Equal(decimal.NewFromInt(50)))
		assert.True(t, entries[1].Balance.Amount.Equal(decimal.Zero))

		tb, err := f.ledgerService.TrialBalance(ctx, f.now)
		require.NoError(t, err)
		assert.True(t, tb.IsBalanced)
	})

	t.Run("unequal pair rejected", func(t *testing.T) {
		f := newFixture()
		_, err := f.ledgerService.PostJournalEntry(ctx, &JournalEntryInput{
			TransactionDate: f.now,
			Description:     "skewed",
			Debit:           kes(t, "50.00"),
			Credit:          kes(t, "49.00"),
		})
		require.Error(t, err)
		assert.True(t, apperror.IsInvalidState(err))
		assert.Empty(t, f.store.entries)
	})

	t.Run("non-positive amount rejected", func(t *testing.T) {
		f := newFixture()
		_, err := f.ledgerService.PostJournalEntry(ctx, &JournalEntryInput{
			TransactionDate: f.now,
			Description:     "zero",
			Debit:           kes(t, "0.00"),
			Credit:          kes(t, "0.00"),
		})
		require.Error(t, err)
	})
}

func TestTrialBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("empty book is balanced", func(t *testing.T) {
		f := newFixture()
		tb, err := f.ledgerService.TrialBalance(ctx, f.now)
		require.NoError(t, err)
		assert.True(t, tb.IsBalanced)
		assert.True(t, tb.TotalDebit.IsZero())
		assert.True(t, tb.TotalCredit.IsZero())
	})

	t.Run("skew beyond tolerance flagged", func(t *testing.T) {
		f := newFixture()
		seedEntry(f, f.now.AddDate(0, 0, -1), "100.00", "0.00", enum.ReferenceTypeSystem, nil)
		seedEntry(f, f.now.AddDate(0, 0, -1), "0.00", "99.50", enum.ReferenceTypeSystem, nil)

		tb, err := f.ledgerService.TrialBalance(ctx, f.now)
		require.NoError(t, err)
		assert.False(t, tb.IsBalanced)
		assert.True(t, tb.Difference.Equal(decimal.NewFromFloat(0.50)))
	})

	t.Run("one cent skew tolerated", func(t *testing.T) {
		f := newFixture()
		seedEntry(f, f.now.AddDate(0, 0, -1), "100.00", "0.00", enum.ReferenceTypeSystem, nil)
		seedEntry(f, f.now.AddDate(0, 0, -1), "0.00", "99.99", enum.ReferenceTypeSystem, nil)

		tb, err := f.ledgerService.TrialBalance(ctx, f.now)
		require.NoError(t, err)
		assert.True(t, tb.IsBalanced)
	})

	t.Run("entries after as-of excluded", func(t *testing.T) {
		f := newFixture()
		seedEntry(f, f.now.AddDate(0, 0, 5), "500.00", "0.00", enum.ReferenceTypeSystem, nil)

		tb, err := f.ledgerService.TrialBalance(ctx, f.now)
		require.NoError(t, err)
		assert.True(t, tb.TotalDebit.IsZero())
	})
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	t.Run("excess debit balanced with a credit", func(t *testing.T) {
		f := newFixture()
		seedEntry(f, f.now.AddDate(0, 0, -1), "5.00", "0.00", enum.ReferenceTypeSystem, nil)

		entry, err := f.ledgerService.Reconcile(ctx, from, to)
		require.NoError(t, err)
		require.NotNil(t, entry)

		assert.True(t, entry.IsCredit())
		assert.True(t, entry.CreditAmount.Equal(kes(t, "5.00")))
		assert.Equal(t, enum.ReferenceTypeSystem, entry.ReferenceType)
	})

	t.Run("excess credit balanced with a debit", func(t *testing.T) {
		f := newFixture()
		seedEntry(f, f.now.AddDate(0, 0, -1), "0.00", "7.25", enum.ReferenceTypeSystem, nil)

		entry, err := f.ledgerService.Reconcile(ctx, from, to)
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.True(t, entry.IsDebit())
		assert.True(t, entry.DebitAmount.Equal(kes(t, "7.25")))
	})

	t.Run("historical range stays balanced after correction", func(t *testing.T) {
		f := newFixture()
		// Skew a month that lies entirely before the clock (2025-06-15)
		mayFrom := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
		mayTo := time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC)
		seedEntry(f, time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC), "5.00", "0.00", enum.ReferenceTypeSystem, nil)

		entry, err := f.ledgerService.Reconcile(ctx, mayFrom, mayTo)
		require.NoError(t, err)
		require.NotNil(t, entry)

		// The correction is dated inside the range, not at the clock
		assert.True(t, entry.TransactionDate.Equal(mayTo))
		assert.True(t, entry.CreditAmount.Equal(kes(t, "5.00")))

		// A re-run over the same range finds it balanced and posts nothing
		again, err := f.ledgerService.Reconcile(ctx, mayFrom, mayTo)
		require.NoError(t, err)
		assert.Nil(t, again)
		assert.Len(t, f.store.entries, 2)
	})

	t.Run("balanced range posts nothing", func(t *testing.T) {
		f := newFixture()
		seedEntry(f, f.now.AddDate(0, 0, -1), "10.00", "0.00", enum.ReferenceTypeSystem, nil)
		seedEntry(f, f.now.AddDate(0, 0, -1), "0.00", "10.00", enum.ReferenceTypeSystem, nil)

		entry, err := f.ledgerService.Reconcile(ctx, from, to)
		require.NoError(t, err)
		assert.Nil(t, entry)
		assert.Len(t, f.store.entries, 2)
	})
}

func TestUnbalancedEntries(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	balancedDay := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	skewedDay := time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)

	seedEntry(f, balancedDay, "100.00", "0.00", enum.ReferenceTypeSystem, nil)
	seedEntry(f, balancedDay, "0.00", "100.00", enum.ReferenceTypeSystem, nil)
	seedEntry(f, skewedDay, "40.00", "0.00", enum.ReferenceTypeSystem, nil)
	seedEntry(f, skewedDay, "0.00", "25.00", enum.ReferenceTypeSystem, nil)

	imbalances, err := f.ledgerService.UnbalancedEntries(ctx)
	require.NoError(t, err)
	require.Len(t, imbalances, 1)

	assert.Equal(t, time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC), imbalances[0].Date)
	assert.True(t, imbalances[0].Difference.Equal(decimal.NewFromInt(15)))
}

func TestValidateEntryIntegrity(t *testing.T) {
	ctx := context.Background()

	t.Run("payment reference resolves", func(t *testing.T) {
		f := newFixture()
		staffID := f.seedStaff()
		contract := f.seedActiveContract("1000.00", 3)

		result, err := f.paymentService.ProcessPayment(ctx, &ProcessPaymentInput{
			ContractID:    contract.ID,
			InstallmentID: contract.Installments[0].ID,
			Amount:        kes(t, "100.00"),
			PaymentDate:   f.now,
			Method:        enum.PaymentMethodCash,
			StaffID:       staffID,
		})
		require.NoError(t, err)

		for _, e := range result.LedgerEntries {
			assert.NoError(t, f.ledgerService.ValidateEntryIntegrity(ctx, e.ID))
		}
	})

	t.Run("dangling payment reference flagged", func(t *testing.T) {
		f := newFixture()
		missing := uuid.New()
		e := seedEntry(f, f.now, "10.00", "0.00", enum.ReferenceTypePayment, &missing)

		err := f.ledgerService.ValidateEntryIntegrity(ctx, e.ID)
		require.Error(t, err)
		assert.True(t, apperror.IsInvalidState(err))
	})

	t.Run("missing reference id flagged", func(t *testing.T) {
		f := newFixture()
		e := seedEntry(f, f.now, "10.00", "0.00", enum.ReferenceTypePayment, nil)

		err := f.ledgerService.ValidateEntryIntegrity(ctx, e.ID)
		require.Error(t, err)
		assert.True(t, apperror.IsInvalidState(err))
	})

	t.Run("system entries exempt", func(t *testing.T) {
		f := newFixture()
		e := seedEntry(f, f.now, "10.00", "0.00", enum.ReferenceTypeSystem, nil)
		assert.NoError(t, f.ledgerService.ValidateEntryIntegrity(ctx, e.ID))
	})

	t.Run("unknown entry not found", func(t *testing.T) {
		f := newFixture()
		err := f.ledgerService.ValidateEntryIntegrity(ctx, uuid.New())
		require.Error(t, err)
		assert.True(t, apperror.IsNotFound(err))
	})
}

func TestArchiveEntry(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	e := seedEntry(f, f.now, "100.00", "0.00", enum.ReferenceTypeSystem, nil)
	seedEntry(f, f.now, "0.00", "100.00", enum.ReferenceTypeSystem, nil)

	require.NoError(t, f.ledgerService.ArchiveEntry(ctx, e.ID))

	// Archived entries drop out of sums
	tb, err := f.ledgerService.TrialBalance(ctx, f.now)
	require.NoError(t, err)
	assert.True(t, tb.TotalDebit.IsZero())
	assert.True(t, tb.TotalCredit.Equal(decimal.NewFromInt(100)))

	t.Run("archiving unknown entry not found", func(t *testing.T) {
		err := f.ledgerService.ArchiveEntry(ctx, uuid.New())
		require.Error(t, err)
		assert.True(t, apperror.IsNotFound(err))
	})
}

func TestAccountBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	staffID := f.seedStaff()
	contract := f.seedActiveContract("1000.00", 3)
	other := f.seedActiveContract("500.00", 1)

	_, err := f.paymentService.ProcessPayment(ctx, &ProcessPaymentInput{
		ContractID:    contract.ID,
		InstallmentID: contract.Installments[0].ID,
		Amount:        kes(t, "333.33"),
		PaymentDate:   f.now,
		Method:        enum.PaymentMethodCash,
		StaffID:       staffID,
	})
	require.NoError(t, err)

	// A posting pair nets to zero per contract
	balance, err := f.ledgerService.AccountBalance(ctx, nil, &contract.ID)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	balance, err = f.ledgerService.AccountBalance(ctx, nil, &other.ID)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}
