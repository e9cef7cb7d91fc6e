package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyArithmetic(t *testing.T) {
	a := New(decimal.NewFromFloat(333.33), "KES")
	b := New(decimal.NewFromFloat(333.34), "KES")

	t.Run("add", func(t *testing.T) {
		sum, err := a.Add(b)
		require.NoError(t, err)
		assert.True(t, sum.Amount.Equal(decimal.NewFromFloat(666.67)))
		assert.Equal(t, "KES", sum.Currency)
	})

	t.Run("sub", func(t *testing.T) {
		diff, err := b.Sub(a)
		require.NoError(t, err)
		assert.True(t, diff.Amount.Equal(decimal.NewFromFloat(0.01)))
	})

	t.Run("sub below zero is allowed", func(t *testing.T) {
		diff, err := a.Sub(b)
		require.NoError(t, err)
		assert.True(t, diff.IsNegative())
	})

	t.Run("cmp", func(t *testing.T) {
		cmp, err := a.Cmp(b)
		require.NoError(t, err)
		assert.Equal(t, -1, cmp)

		cmp, err = a.Cmp(a)
		require.NoError(t, err)
		assert.Equal(t, 0, cmp)
	})

	t.Run("min", func(t *testing.T) {
		m, err := a.Min(b)
		require.NoError(t, err)
		assert.True(t, m.Equal(a))
	})
}

func TestMoneyCurrencyMismatch(t *testing.T) {
	kes := New(decimal.NewFromInt(100), "KES")
	usd := New(decimal.NewFromInt(100), "USD")

	_, err := kes.Add(usd)
	require.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = kes.Sub(usd)
	require.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = kes.Cmp(usd)
	require.ErrorIs(t, err, ErrCurrencyMismatch)

	assert.False(t, kes.Equal(usd))
}

func TestMoneyNoFloatDrift(t *testing.T) {
	// 0.1 + 0.2 must be exactly 0.3
	a, err := NewFromString("0.1", "KES")
	require.NoError(t, err)
	b, err := NewFromString("0.2", "KES")
	require.NoError(t, err)

	sum, err := a.Add(b)
	require.NoError(t, err)

	expected, err := NewFromString("0.3", "KES")
	require.NoError(t, err)
	assert.True(t, sum.Equal(expected))
}

func TestMoneyPredicates(t *testing.T) {
	assert.True(t, Zero("KES").IsZero())
	assert.True(t, New(decimal.NewFromInt(1), "KES").IsPositive())
	assert.True(t, New(decimal.NewFromInt(-1), "KES").IsNegative())
	assert.Equal(t, "1000.50 KES", New(decimal.NewFromFloat(1000.5), "KES").String())
}

func TestNewFromString(t *testing.T) {
	m, err := NewFromString("1000.00", "KES")
	require.NoError(t, err)
	assert.True(t, m.Amount.Equal(decimal.NewFromInt(1000)))

	_, err = NewFromString("not-a-number", "KES")
	assert.Error(t, err)
}
