package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/collectra/collectra-api/internal/domain/enum"
	"github.com/collectra/collectra-api/internal/domain/valueobject"
	"github.com/collectra/collectra-api/pkg/apperror"
)

// Contract is the aggregate root for a collection agreement. It owns the
// installment schedule and the payments recorded against it. Status changes
// and installment generation go through the methods below, which enforce the
// transition table and the generate-at-most-once rule.
type Contract struct {
	ID                   uuid.UUID           `gorm:"type:uuid;primary_key" json:"id"`
	ContractNumber       string              `gorm:"size:100;unique;not null" json:"contract_number"`
	CustomerID           uuid.UUID           `gorm:"type:uuid;not null;index" json:"customer_id"`
	StaffID              *uuid.UUID          `gorm:"type:uuid;index" json:"staff_id,omitempty"`
	TotalAmount          valueobject.Money   `gorm:"embedded;embeddedPrefix:total_" json:"total_amount"`
	OutstandingAmount    valueobject.Money   `gorm:"embedded;embeddedPrefix:outstanding_" json:"outstanding_amount"`
	StartDate            time.Time           `gorm:"type:date;not null" json:"start_date"`
	EndDate              *time.Time          `gorm:"type:date" json:"end_date,omitempty"`
	Status               enum.ContractStatus `gorm:"default:0;index" json:"status"`
	NumberOfInstallments int                 `gorm:"not null" json:"number_of_installments"`

	// Administrative terms; not part of the financial invariants.
	InterestRate    decimal.Decimal `gorm:"type:decimal(7,4);default:0" json:"interest_rate"`
	GracePeriodDays int             `gorm:"default:0" json:"grace_period_days"`
	Notes           *string         `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Customer     *Customer     `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Installments []Installment `gorm:"foreignKey:ContractID" json:"installments,omitempty"`
	Payments     []Payment     `gorm:"foreignKey:ContractID" json:"-"`
}

// BeforeCreate generates a UUID before creating a new contract
func (c *Contract) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Contract model
func (Contract) TableName() string {
	return "contracts"
}

func (c *Contract) transition(to enum.ContractStatus) error {
	if !c.Status.CanTransition(to) {
		return apperror.NewInvalidStateError(
			fmt.Sprintf("Cannot transition contract from %s to %s", c.Status, to))
	}
	c.Status = to
	return nil
}

// Activate moves a Draft contract to Active
func (c *Contract) Activate() error {
	if c.Status != enum.ContractStatusDraft {
		return apperror.NewInvalidStateError("Only draft contracts can be activated")
	}
	return c.transition(enum.ContractStatusActive)
}

// Suspend moves an Active contract to Suspended
func (c *Contract) Suspend() error {
	if c.Status != enum.ContractStatusActive {
		return apperror.NewInvalidStateError("Only active contracts can be suspended")
	}
	return c.transition(enum.ContractStatusSuspended)
}

// Resume moves a Suspended contract back to Active
func (c *Contract) Resume() error {
	if c.Status != enum.ContractStatusSuspended {
		return apperror.NewInvalidStateError("Only suspended contracts can be resumed")
	}
	return c.transition(enum.ContractStatusActive)
}

// Complete closes the contract once every installment is Paid or Waived
func (c *Contract) Complete(now time.Time) error {
	if !c.AllInstallmentsSettled() {
		return apperror.NewInvalidStateError("Contract has unsettled installments")
	}
	if err := c.transition(enum.ContractStatusCompleted); err != nil {
		return err
	}
	c.EndDate = &now
	return nil
}

// Cancel terminates the contract; disallowed once Completed or Cancelled
func (c *Contract) Cancel(now time.Time) error {
	if err := c.transition(enum.ContractStatusCancelled); err != nil {
		return err
	}
	c.EndDate = &now
	return nil
}

// MarkDefaulted flags an Active contract as defaulted
func (c *Contract) MarkDefaulted() error {
	if c.Status != enum.ContractStatusActive {
		return apperror.NewInvalidStateError("Only active contracts can be marked defaulted")
	}
	return c.transition(enum.ContractStatusDefaulted)
}

// HasInstallments reports whether the schedule has already been generated
func (c *Contract) HasInstallments() bool {
	return len(c.Installments) > 0
}

// AllInstallmentsSettled reports whether every installment is Paid or Waived.
// A contract without a schedule is never settled.
func (c *Contract) AllInstallmentsSettled() bool {
	if !c.HasInstallments() {
		return false
	}
	for i := range c.Installments {
		if !c.Installments[i].Status.IsSettled() {
			return false
		}
	}
	return true
}

// GenerateInstallments divides TotalAmount into NumberOfInstallments equal
// shares, due monthly from StartDate. Runs at most once per contract. Every
// installment except the last carries the truncated per-installment share;
// the last carries the residual so the schedule sums to TotalAmount exactly.
func (c *Contract) GenerateInstallments() error {
	if c.HasInstallments() {
		return apperror.NewInvalidStateError("Installments have already been generated for this contract")
	}
	if c.NumberOfInstallments < 1 {
		return apperror.NewBadRequestError("Number of installments must be at least 1")
	}
	if !c.TotalAmount.IsPositive() {
		return apperror.NewBadRequestError("Contract total amount must be positive")
	}

	n := int64(c.NumberOfInstallments)
	share := c.TotalAmount.Amount.Div(decimal.NewFromInt(n)).RoundDown(2)
	allocated := decimal.Zero

	installments := make([]Installment, 0, c.NumberOfInstallments)
	for i := 1; i <= c.NumberOfInstallments; i++ {
		amount := share
		if i == c.NumberOfInstallments {
			amount = c.TotalAmount.Amount.Sub(allocated)
		}
		allocated = allocated.Add(amount)

		installments = append(installments, Installment{
			ContractID:        c.ID,
			InstallmentNumber: i,
			DueDate:           c.StartDate.AddDate(0, i, 0),
			Amount:            valueobject.New(amount, c.TotalAmount.Currency),
			PaidAmount:        valueobject.Zero(c.TotalAmount.Currency),
			Status:            enum.InstallmentStatusPending,
		})
	}

	c.Installments = installments
	c.OutstandingAmount = c.TotalAmount
	return nil
}

// ComputeOutstanding returns the amount still owed: TotalAmount when no
// schedule exists, otherwise the schedule total minus what has been paid,
// never below zero. Waived installments are forgiven and drop out entirely.
func (c *Contract) ComputeOutstanding() valueobject.Money {
	if !c.HasInstallments() {
		return c.TotalAmount
	}
	total := decimal.Zero
	paid := decimal.Zero
	for i := range c.Installments {
		if c.Installments[i].Status == enum.InstallmentStatusWaived {
			continue
		}
		total = total.Add(c.Installments[i].Amount.Amount)
		paid = paid.Add(c.Installments[i].PaidAmount.Amount)
	}
	outstanding := total.Sub(paid)
	if outstanding.IsNegative() {
		outstanding = decimal.Zero
	}
	return valueobject.New(outstanding, c.TotalAmount.Currency)
}

// RefreshOutstanding recomputes and stores the derived outstanding balance
func (c *Contract) RefreshOutstanding() {
	c.OutstandingAmount = c.ComputeOutstanding()
}
