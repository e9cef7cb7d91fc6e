package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collectra/collectra-api/internal/domain/enum"
	"github.com/collectra/collectra-api/pkg/apperror"
)

func TestCreateContract(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a draft without a schedule", func(t *testing.T) {
		f := newFixture()
		customerID := f.seedCustomer()

		contract, err := f.contractService.CreateContract(ctx, &CreateContractInput{
			CustomerID:           customerID,
			TotalAmount:          kes(t, "1000.00"),
			StartDate:            time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
			NumberOfInstallments: 3,
			InterestRate:         decimal.Zero,
		})
		require.NoError(t, err)

		assert.Equal(t, enum.ContractStatusDraft, contract.Status)
		assert.NotEmpty(t, contract.ContractNumber)
		assert.True(t, contract.OutstandingAmount.Equal(contract.TotalAmount))
		assert.Empty(t, contract.Installments)
	})

	t.Run("unknown customer rejected", func(t *testing.T) {
		f := newFixture()
		_, err := f.contractService.CreateContract(ctx, &CreateContractInput{
			CustomerID:           uuid.New(),
			TotalAmount:          kes(t, "1000.00"),
			StartDate:            time.Now(),
			NumberOfInstallments: 3,
		})
		require.Error(t, err)
		assert.True(t, apperror.IsNotFound(err))
	})

	t.Run("non-positive amount rejected", func(t *testing.T) {
		f := newFixture()
		customerID := f.seedCustomer()
		_, err := f.contractService.CreateContract(ctx, &CreateContractInput{
			CustomerID:           customerID,
			TotalAmount:          kes(t, "0.00"),
			StartDate:            time.Now(),
			NumberOfInstallments: 3,
		})
		require.Error(t, err)
	})

	t.Run("zero installments rejected", func(t *testing.T) {
		f := newFixture()
		customerID := f.seedCustomer()
		_, err := f.contractService.CreateContract(ctx, &CreateContractInput{
			CustomerID:           customerID,
			TotalAmount:          kes(t, "1000.00"),
			StartDate:            time.Now(),
			NumberOfInstallments: 0,
		})
		require.Error(t, err)
	})
}

func TestActivate(t *testing.T) {
	ctx := context.Background()

	t.Run("activation generates the schedule once", func(t *testing.T) {
		f := newFixture()
		customerID := f.seedCustomer()

		draft, err := f.contractService.CreateContract(ctx, &CreateContractInput{
			CustomerID:           customerID,
			TotalAmount:          kes(t, "1000.00"),
			StartDate:            time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
			NumberOfInstallments: 3,
		})
		require.NoError(t, err)

		active, err := f.contractService.Activate(ctx, draft.ID)
		require.NoError(t, err)
		assert.Equal(t, enum.ContractStatusActive, active.Status)
		require.Len(t, active.Installments, 3)
		assert.Len(t, f.store.installments, 3)

		// A second activation must fail, and the schedule stays intact
		_, err = f.contractService.Activate(ctx, draft.ID)
		require.Error(t, err)
		assert.Len(t, f.store.installments, 3)
	})

	t.Run("unknown contract not found", func(t *testing.T) {
		f := newFixture()
		_, err := f.contractService.Activate(ctx, uuid.New())
		require.Error(t, err)
		assert.True(t, apperror.IsNotFound(err))
	})
}

func TestContractLifecycleOperations(t *testing.T) {
	ctx := context.Background()

	t.Run("suspend and resume", func(t *testing.T) {
		f := newFixture()
		contract := f.seedActiveContract("1000.00", 3)

		suspended, err := f.contractService.Suspend(ctx, contract.ID)
		require.NoError(t, err)
		assert.Equal(t, enum.ContractStatusSuspended, suspended.Status)

		resumed, err := f.contractService.Resume(ctx, contract.ID)
		require.NoError(t, err)
		assert.Equal(t, enum.ContractStatusActive, resumed.Status)
	})

	t.Run("complete with pending installments rejected", func(t *testing.T) {
		f := newFixture()
		contract := f.seedActiveContract("1000.00", 3)

		_, err := f.contractService.Complete(ctx, contract.ID)
		require.Error(t, err)
		assert.True(t, apperror.IsInvalidState(err))
	})

	t.Run("complete after full settlement", func(t *testing.T) {
		f := newFixture()
		staffID := f.seedStaff()
		contract := f.seedActiveContract("1000.00", 2)

		for _, inst := range contract.Installments {
			_, err := f.paymentService.ProcessPayment(ctx, &ProcessPaymentInput{
				ContractID:    contract.ID,
				InstallmentID: inst.ID,
				Amount:        inst.Amount,
				PaymentDate:   f.now,
				Method:        enum.PaymentMethodCash,
				StaffID:       staffID,
			})
			require.NoError(t, err)
		}

		completed, err := f.contractService.Complete(ctx, contract.ID)
		require.NoError(t, err)
		assert.Equal(t, enum.ContractStatusCompleted, completed.Status)
		require.NotNil(t, completed.EndDate)
		assert.Equal(t, f.now, *completed.EndDate)
	})

	t.Run("mark defaulted", func(t *testing.T) {
		f := newFixture()
		contract := f.seedActiveContract("1000.00", 3)

		defaulted, err := f.contractService.MarkDefaulted(ctx, contract.ID)
		require.NoError(t, err)
		assert.Equal(t, enum.ContractStatusDefaulted, defaulted.Status)
	})
}

func TestWaiveInstallment(t *testing.T) {
	ctx := context.Background()

	t.Run("waiver settles the installment and shrinks the balance", func(t *testing.T) {
		f := newFixture()
		contract := f.seedActiveContract("1000.00", 2)

		waived, err := f.contractService.WaiveInstallment(ctx, contract.ID, contract.Installments[0].ID)
		require.NoError(t, err)
		assert.Equal(t, enum.InstallmentStatusWaived, waived.Status)

		// The forgiven installment drops out of the outstanding balance
		stored := f.store.contracts[contract.ID]
		assert.True(t, stored.OutstandingAmount.Equal(kes(t, "500.00")))
	})

	t.Run("waiving everything allows completion", func(t *testing.T) {
		f := newFixture()
		contract := f.seedActiveContract("1000.00", 2)

		for _, inst := range contract.Installments {
			_, err := f.contractService.WaiveInstallment(ctx, contract.ID, inst.ID)
			require.NoError(t, err)
		}

		completed, err := f.contractService.Complete(ctx, contract.ID)
		require.NoError(t, err)
		assert.Equal(t, enum.ContractStatusCompleted, completed.Status)
	})

	t.Run("unwaive restores pending", func(t *testing.T) {
		f := newFixture()
		contract := f.seedActiveContract("1000.00", 2)

		_, err := f.contractService.WaiveInstallment(ctx, contract.ID, contract.Installments[0].ID)
		require.NoError(t, err)

		restored, err := f.contractService.UnwaiveInstallment(ctx, contract.ID, contract.Installments[0].ID)
		require.NoError(t, err)
		assert.Equal(t, enum.InstallmentStatusPending, restored.Status)
	})

	t.Run("unknown installment not found", func(t *testing.T) {
		f := newFixture()
		contract := f.seedActiveContract("1000.00", 2)

		_, err := f.contractService.WaiveInstallment(ctx, contract.ID, uuid.New())
		require.Error(t, err)
		assert.True(t, apperror.IsNotFound(err))
	})
}

func TestMarkOverdueSweep(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	// Schedule starts Jan 15, so with the clock at Jun 15 the first few
	// installments are past due.
	f.seedActiveContract("1000.00", 3)

	count, err := f.contractService.MarkOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	for _, inst := range f.store.installments {
		assert.Equal(t, enum.InstallmentStatusOverdue, inst.Status)
	}

	// A second sweep finds nothing left to flip
	count, err = f.contractService.MarkOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCheckLedgerConsistency(t *testing.T) {
	ctx := context.Background()

	t.Run("schedule and ledger agree after payments", func(t *testing.T) {
		f := newFixture()
		staffID := f.seedStaff()
		contract := f.seedActiveContract("1000.00", 3)

		_, err := f.paymentService.ProcessPayment(ctx, &ProcessPaymentInput{
			ContractID:    contract.ID,
			InstallmentID: contract.Installments[0].ID,
			Amount:        kes(t, "333.33"),
			PaymentDate:   f.now,
			Method:        enum.PaymentMethodCash,
			StaffID:       staffID,
		})
		require.NoError(t, err)

		result, err := f.contractService.CheckLedgerConsistency(ctx, contract.ID)
		require.NoError(t, err)

		assert.True(t, result.Consistent)
		assert.True(t, result.TotalPaid.Equal(decimal.NewFromFloat(333.33)))
		assert.True(t, result.LedgerCashReceived.Equal(decimal.NewFromFloat(333.33)))
		assert.True(t, result.Outstanding.Equal(decimal.NewFromFloat(666.67)))
	})

	t.Run("still consistent after a reversal", func(t *testing.T) {
		f := newFixture()
		staffID := f.seedStaff()
		contract := f.seedActiveContract("1000.00", 3)

		paid, err := f.paymentService.ProcessPayment(ctx, &ProcessPaymentInput{
			ContractID:    contract.ID,
			InstallmentID: contract.Installments[0].ID,
			Amount:        kes(t, "333.33"),
			PaymentDate:   f.now,
			Method:        enum.PaymentMethodCash,
			StaffID:       staffID,
		})
		require.NoError(t, err)

		_, err = f.paymentService.ReversePayment(ctx, paid.Payment.ID, staffID, "undo")
		require.NoError(t, err)

		result, err := f.contractService.CheckLedgerConsistency(ctx, contract.ID)
		require.NoError(t, err)
		assert.True(t, result.Consistent)
		assert.True(t, result.TotalPaid.IsZero())
		assert.True(t, result.LedgerCashReceived.IsZero())
	})

	t.Run("tampered schedule detected", func(t *testing.T) {
		f := newFixture()
		staffID := f.seedStaff()
		contract := f.seedActiveContract("1000.00", 3)

		_, err := f.paymentService.ProcessPayment(ctx, &ProcessPaymentInput{
			ContractID:    contract.ID,
			InstallmentID: contract.Installments[0].ID,
			Amount:        kes(t, "333.33"),
			PaymentDate:   f.now,
			Method:        enum.PaymentMethodCash,
			StaffID:       staffID,
		})
		require.NoError(t, err)

		// Inflate the recorded paid amount behind the ledger's back
		inst := f.store.installments[contract.Installments[1].ID]
		inst.PaidAmount = kes(t, "200.00")
		f.store.installments[inst.ID] = inst

		result, err := f.contractService.CheckLedgerConsistency(ctx, contract.ID)
		require.NoError(t, err)
		assert.False(t, result.Consistent)
		assert.True(t, result.Difference.Equal(decimal.NewFromInt(200)))
	})
}

func TestDeleteContract(t *testing.T) {
	ctx := context.Background()

	t.Run("draft can be deleted", func(t *testing.T) {
		f := newFixture()
		customerID := f.seedCustomer()

		draft, err := f.contractService.CreateContract(ctx, &CreateContractInput{
			CustomerID:           customerID,
			TotalAmount:          kes(t, "1000.00"),
			StartDate:            time.Now(),
			NumberOfInstallments: 2,
		})
		require.NoError(t, err)

		require.NoError(t, f.contractService.DeleteContract(ctx, draft.ID))
		assert.NotContains(t, f.store.contracts, draft.ID)
	})

	t.Run("active cannot be deleted", func(t *testing.T) {
		f := newFixture()
		contract := f.seedActiveContract("1000.00", 2)

		err := f.contractService.DeleteContract(ctx, contract.ID)
		require.Error(t, err)
		assert.True(t, apperror.IsInvalidState(err))
	})
}
