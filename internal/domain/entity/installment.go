package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/collectra/collectra-api/internal/domain/enum"
	"github.com/collectra/collectra-api/internal/domain/valueobject"
	"github.com/collectra/collectra-api/pkg/apperror"
)

// Installment is one scheduled repayment unit of a contract. PaidAmount and
// Status only change through the allocation methods below; Status is derived
// from PaidAmount vs Amount, except for Waived which is an explicit override.
type Installment struct {
	ID                uuid.UUID              `gorm:"type:uuid;primary_key" json:"id"`
	ContractID        uuid.UUID              `gorm:"type:uuid;not null;index" json:"contract_id"`
	InstallmentNumber int                    `gorm:"not null" json:"installment_number"`
	DueDate           time.Time              `gorm:"type:date;not null;index" json:"due_date"`
	Amount            valueobject.Money      `gorm:"embedded;embeddedPrefix:amount_" json:"amount"`
	PaidAmount        valueobject.Money      `gorm:"embedded;embeddedPrefix:paid_" json:"paid_amount"`
	Status            enum.InstallmentStatus `gorm:"default:0;index" json:"status"`
	PaidDate          *time.Time             `gorm:"type:date" json:"paid_date,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
	DeletedAt         gorm.DeletedAt         `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new installment
func (i *Installment) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Installment model
func (Installment) TableName() string {
	return "installments"
}

func (i *Installment) transition(to enum.InstallmentStatus) error {
	if i.Status == to {
		return nil
	}
	if !i.Status.CanTransition(to) {
		return apperror.NewInvalidStateError(
			fmt.Sprintf("Cannot transition installment from %s to %s", i.Status, to))
	}
	i.Status = to
	return nil
}

// Remaining returns the unpaid portion of the installment, never negative
func (i *Installment) Remaining() valueobject.Money {
	remaining, err := i.Amount.Sub(i.PaidAmount)
	if err != nil || remaining.IsNegative() {
		return valueobject.Zero(i.Amount.Currency)
	}
	return remaining
}

// ApplyPayment allocates a payment of p to the installment: full settlement
// when the running total reaches the installment amount (PaidAmount is capped
// there), partial otherwise. Paid and Waived installments reject payments.
func (i *Installment) ApplyPayment(p valueobject.Money, paidAt time.Time) error {
	if i.Status.IsSettled() {
		return apperror.NewInvalidStateError("Installment is already settled")
	}
	if !p.IsPositive() {
		return apperror.NewBadRequestError("Payment amount must be positive")
	}
	newPaid, err := i.PaidAmount.Add(p)
	if err != nil {
		return apperror.NewBadRequestError(err.Error())
	}

	cmp, err := newPaid.Cmp(i.Amount)
	if err != nil {
		return apperror.NewBadRequestError(err.Error())
	}
	if cmp >= 0 {
		if err := i.transition(enum.InstallmentStatusPaid); err != nil {
			return err
		}
		// Cap so PaidAmount never exceeds Amount even when the caller
		// over-allocates.
		i.PaidAmount, _ = newPaid.Min(i.Amount)
		i.PaidDate = &paidAt
		return nil
	}

	if err := i.transition(enum.InstallmentStatusPartiallyPaid); err != nil {
		return err
	}
	i.PaidAmount = newPaid
	return nil
}

// Revert rolls back a reversed payment of p: PaidAmount is reduced (floored
// at zero) and the status is recomputed purely from the new PaidAmount. A
// Waived installment keeps its override.
func (i *Installment) Revert(p valueobject.Money) error {
	newPaid, err := i.PaidAmount.Sub(p)
	if err != nil {
		return apperror.NewBadRequestError(err.Error())
	}
	if newPaid.IsNegative() {
		newPaid = valueobject.Zero(i.PaidAmount.Currency)
	}
	i.PaidAmount = newPaid

	if i.Status == enum.InstallmentStatusWaived {
		return nil
	}

	target := enum.InstallmentStatusPending
	if newPaid.IsPositive() {
		target = enum.InstallmentStatusPartiallyPaid
	}
	if err := i.transition(target); err != nil {
		return err
	}
	i.PaidDate = nil
	return nil
}

// Waive forgives the installment without payment
func (i *Installment) Waive() error {
	return i.transition(enum.InstallmentStatusWaived)
}

// Unwaive lifts the waiver, returning the installment to Pending
func (i *Installment) Unwaive() error {
	if i.Status != enum.InstallmentStatusWaived {
		return apperror.NewInvalidStateError("Only waived installments can be unwaived")
	}
	return i.transition(enum.InstallmentStatusPending)
}

// MarkOverdue flips an unpaid installment past its due date to Overdue
func (i *Installment) MarkOverdue(asOf time.Time) error {
	if !i.IsOverdue(asOf) {
		return apperror.NewInvalidStateError("Installment is not overdue")
	}
	return i.transition(enum.InstallmentStatusOverdue)
}

// IsOverdue reports whether the installment is unpaid and past due as of the
// given date
func (i *Installment) IsOverdue(asOf time.Time) bool {
	switch i.Status {
	case enum.InstallmentStatusPending, enum.InstallmentStatusPartiallyPaid, enum.InstallmentStatusOverdue:
		return i.DueDate.Before(asOf)
	}
	return false
}

// OverdueDays returns the number of days past due, zero when not overdue
func (i *Installment) OverdueDays(asOf time.Time) int {
	if !i.IsOverdue(asOf) {
		return 0
	}
	return int(asOf.Sub(i.DueDate).Hours() / 24)
}
