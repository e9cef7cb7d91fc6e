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

func newTestInstallment(amount string) *Installment {
	m, _ := valueobject.NewFromString(amount, "KES")
	return &Installment{
		ID:                uuid.New(),
		ContractID:        uuid.New(),
		InstallmentNumber: 1,
		DueDate:           time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		Amount:            m,
		PaidAmount:        valueobject.Zero("KES"),
		Status:            enum.InstallmentStatusPending,
	}
}

func money(t *testing.T, s string) valueobject.Money {
	t.Helper()
	m, err := valueobject.NewFromString(s, "KES")
	require.NoError(t, err)
	return m
}

func TestApplyPayment(t *testing.T) {
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	t.Run("full payment settles", func(t *testing.T) {
		inst := newTestInstallment("333.33")
		require.NoError(t, inst.ApplyPayment(money(t, "333.33"), now))

		assert.Equal(t, enum.InstallmentStatusPaid, inst.Status)
		assert.True(t, inst.PaidAmount.Equal(inst.Amount))
		require.NotNil(t, inst.PaidDate)
		assert.Equal(t, now, *inst.PaidDate)
		assert.True(t, inst.Remaining().IsZero())
	})

	t.Run("partial payment", func(t *testing.T) {
		inst := newTestInstallment("333.33")
		require.NoError(t, inst.ApplyPayment(money(t, "100.00"), now))

		assert.Equal(t, enum.InstallmentStatusPartiallyPaid, inst.Status)
		assert.True(t, inst.Remaining().Equal(money(t, "233.33")))
		assert.Nil(t, inst.PaidDate)
	})

	t.Run("two partials complete the installment", func(t *testing.T) {
		inst := newTestInstallment("333.33")
		require.NoError(t, inst.ApplyPayment(money(t, "100.00"), now))
		require.NoError(t, inst.ApplyPayment(money(t, "233.33"), now))

		assert.Equal(t, enum.InstallmentStatusPaid, inst.Status)
		assert.True(t, inst.PaidAmount.Equal(inst.Amount))
	})

	t.Run("paid rejects further payments", func(t *testing.T) {
		inst := newTestInstallment("100.00")
		require.NoError(t, inst.ApplyPayment(money(t, "100.00"), now))
		assert.Error(t, inst.ApplyPayment(money(t, "1.00"), now))
	})

	t.Run("waived rejects payments", func(t *testing.T) {
		inst := newTestInstallment("100.00")
		require.NoError(t, inst.Waive())
		assert.Error(t, inst.ApplyPayment(money(t, "1.00"), now))
	})

	t.Run("non-positive amount rejected", func(t *testing.T) {
		inst := newTestInstallment("100.00")
		assert.Error(t, inst.ApplyPayment(money(t, "0.00"), now))
		assert.Error(t, inst.ApplyPayment(money(t, "-5.00"), now))
	})
}

func TestRevert(t *testing.T) {
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	t.Run("full reversal back to pending", func(t *testing.T) {
		inst := newTestInstallment("100.00")
		require.NoError(t, inst.ApplyPayment(money(t, "100.00"), now))
		require.NoError(t, inst.Revert(money(t, "100.00")))

		assert.Equal(t, enum.InstallmentStatusPending, inst.Status)
		assert.True(t, inst.PaidAmount.IsZero())
		assert.Nil(t, inst.PaidDate)
	})

	t.Run("partial reversal leaves partially paid", func(t *testing.T) {
		inst := newTestInstallment("100.00")
		require.NoError(t, inst.ApplyPayment(money(t, "100.00"), now))
		require.NoError(t, inst.Revert(money(t, "40.00")))

		assert.Equal(t, enum.InstallmentStatusPartiallyPaid, inst.Status)
		assert.True(t, inst.PaidAmount.Equal(money(t, "60.00")))
	})

	t.Run("over-reversal floors at zero", func(t *testing.T) {
		inst := newTestInstallment("100.00")
		require.NoError(t, inst.ApplyPayment(money(t, "30.00"), now))
		require.NoError(t, inst.Revert(money(t, "50.00")))

		assert.True(t, inst.PaidAmount.IsZero())
		assert.Equal(t, enum.InstallmentStatusPending, inst.Status)
	})

	t.Run("waived keeps its override", func(t *testing.T) {
		inst := newTestInstallment("100.00")
		require.NoError(t, inst.ApplyPayment(money(t, "30.00"), now))
		require.NoError(t, inst.Waive())
		require.NoError(t, inst.Revert(money(t, "30.00")))

		assert.Equal(t, enum.InstallmentStatusWaived, inst.Status)
		assert.True(t, inst.PaidAmount.IsZero())
	})
}

func TestWaive(t *testing.T) {
	t.Run("waive and unwaive", func(t *testing.T) {
		inst := newTestInstallment("100.00")
		require.NoError(t, inst.Waive())
		assert.Equal(t, enum.InstallmentStatusWaived, inst.Status)

		require.NoError(t, inst.Unwaive())
		assert.Equal(t, enum.InstallmentStatusPending, inst.Status)
	})

	t.Run("paid cannot be waived", func(t *testing.T) {
		now := time.Now()
		inst := newTestInstallment("100.00")
		require.NoError(t, inst.ApplyPayment(money(t, "100.00"), now))
		assert.Error(t, inst.Waive())
	})

	t.Run("unwaive requires waived", func(t *testing.T) {
		inst := newTestInstallment("100.00")
		assert.Error(t, inst.Unwaive())
	})
}

func TestOverdue(t *testing.T) {
	inst := newTestInstallment("100.00")
	before := inst.DueDate.AddDate(0, 0, -1)
	after := inst.DueDate.AddDate(0, 0, 10)

	assert.False(t, inst.IsOverdue(before))
	assert.True(t, inst.IsOverdue(after))
	assert.Equal(t, 0, inst.OverdueDays(before))
	assert.Equal(t, 10, inst.OverdueDays(after))

	require.NoError(t, inst.MarkOverdue(after))
	assert.Equal(t, enum.InstallmentStatusOverdue, inst.Status)

	t.Run("paid is never overdue", func(t *testing.T) {
		paid := newTestInstallment("100.00")
		require.NoError(t, paid.ApplyPayment(money(t, "100.00"), after))
		assert.False(t, paid.IsOverdue(after))
		assert.Error(t, paid.MarkOverdue(after))
	})
}
