package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collectra/collectra-api/internal/domain/enum"
	"github.com/collectra/collectra-api/internal/domain/valueobject"
)

func TestNewLedgerEntry(t *testing.T) {
	now := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	refID := uuid.New()

	base := LedgerEntryParams{
		TransactionDate: now,
		Description:     "Payment received",
		Debit:           money(t, "500.00"),
		Credit:          money(t, "0.00"),
		Balance:         money(t, "500.00"),
		ReferenceType:   enum.ReferenceTypePayment,
		ReferenceID:     &refID,
	}

	t.Run("valid debit entry", func(t *testing.T) {
		e, err := NewLedgerEntry(base)
		require.NoError(t, err)
		assert.True(t, e.IsDebit())
		assert.False(t, e.IsCredit())
		assert.NotEqual(t, uuid.Nil, e.ID)
	})

	t.Run("valid credit entry", func(t *testing.T) {
		p := base
		p.Debit = money(t, "0.00")
		p.Credit = money(t, "500.00")
		e, err := NewLedgerEntry(p)
		require.NoError(t, err)
		assert.True(t, e.IsCredit())
	})

	t.Run("both sides positive rejected", func(t *testing.T) {
		p := base
		p.Credit = money(t, "500.00")
		_, err := NewLedgerEntry(p)
		assert.Error(t, err)
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		p := base
		p.Debit = money(t, "-1.00")
		_, err := NewLedgerEntry(p)
		assert.Error(t, err)
	})

	t.Run("mixed currencies rejected", func(t *testing.T) {
		p := base
		p.Credit = valueobject.Zero("USD")
		_, err := NewLedgerEntry(p)
		assert.Error(t, err)
	})

	t.Run("invalid reference type rejected", func(t *testing.T) {
		p := base
		p.ReferenceType = enum.ReferenceType("unknown")
		_, err := NewLedgerEntry(p)
		assert.Error(t, err)
	})
}
