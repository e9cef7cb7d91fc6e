package valueobject

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrCurrencyMismatch is returned when arithmetic or comparison is attempted
// between two Money values of different currencies. There is no implicit
// conversion anywhere in the system.
var ErrCurrencyMismatch = errors.New("currency mismatch")

// Money is a currency-tagged decimal amount. Values are immutable: every
// operation returns a new Money. It is persisted as an embedded struct
// (decimal amount column + currency column).
type Money struct {
	Amount   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	Currency string          `gorm:"size:3;not null" json:"currency"`
}

// New creates a Money value
func New(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, Currency: currency}
}

// NewFromString creates a Money value from a decimal string such as "1000.00"
func NewFromString(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return Money{Amount: d, Currency: currency}, nil
}

// Zero returns the zero value for a currency
func Zero(currency string) Money {
	return Money{Amount: decimal.Zero, Currency: currency}
}

func (m Money) sameCurrency(other Money) error {
	if m.Currency != other.Currency {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return nil
}

// Add returns m + other; fails if currencies differ
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

// Sub returns m - other; fails if currencies differ
func (m Money) Sub(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}, nil
}

// Cmp compares m against other: -1 if m < other, 0 if equal, 1 if m > other.
// Fails if currencies differ.
func (m Money) Cmp(other Money) (int, error) {
	if err := m.sameCurrency(other); err != nil {
		return 0, err
	}
	return m.Amount.Cmp(other.Amount), nil
}

// Min returns the smaller of m and other; fails if currencies differ
func (m Money) Min(other Money) (Money, error) {
	cmp, err := m.Cmp(other)
	if err != nil {
		return Money{}, err
	}
	if cmp <= 0 {
		return m, nil
	}
	return other, nil
}

// Equal reports equality by (amount, currency)
func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

// IsZero reports whether the amount is exactly zero
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// IsPositive reports whether the amount is strictly greater than zero
func (m Money) IsPositive() bool {
	return m.Amount.IsPositive()
}

// IsNegative reports whether the amount is strictly less than zero
func (m Money) IsNegative() bool {
	return m.Amount.IsNegative()
}

func (m Money) String() string {
	return m.Amount.StringFixed(2) + " " + m.Currency
}
