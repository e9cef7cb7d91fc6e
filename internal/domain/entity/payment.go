package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/collectra/collectra-api/internal/domain/enum"
	"github.com/collectra/collectra-api/internal/domain/valueobject"
	"github.com/collectra/collectra-api/pkg/apperror"
)

// ReversalReferencePrefix marks the reference number of a reversal payment
const ReversalReferencePrefix = "REV-"

// Payment is an immutable financial event. A correction never mutates an
// existing payment; it is a new payment with IsReversal set, which drives
// offsetting ledger entries and the installment rollback.
type Payment struct {
	ID              uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	ContractID      uuid.UUID          `gorm:"type:uuid;not null;index" json:"contract_id"`
	InstallmentID   uuid.UUID          `gorm:"type:uuid;not null;index" json:"installment_id"`
	Amount          valueobject.Money  `gorm:"embedded;embeddedPrefix:amount_" json:"amount"`
	PaymentDate     time.Time          `gorm:"not null;index" json:"payment_date"`
	Method          enum.PaymentMethod `gorm:"size:30;not null" json:"method"`
	StaffID         uuid.UUID          `gorm:"type:uuid;not null;index" json:"staff_id"`
	ReferenceNumber *string            `gorm:"size:100" json:"reference_number,omitempty"`
	Notes           *string            `gorm:"type:text" json:"notes,omitempty"`
	IsReversal      bool               `gorm:"default:false;index" json:"is_reversal"`
	// ReversedPaymentID links a reversal to the payment it offsets. At most
	// one reversal may reference a given payment.
	ReversedPaymentID *uuid.UUID `gorm:"type:uuid;index" json:"reversed_payment_id,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	DeletedAt       gorm.DeletedAt     `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new payment
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}

// NewPayment constructs a validated payment record
func NewPayment(contractID, installmentID, staffID uuid.UUID, amount valueobject.Money,
	paymentDate time.Time, method enum.PaymentMethod, referenceNumber, notes *string) (*Payment, error) {
	if !amount.IsPositive() {
		return nil, apperror.NewBadRequestError("Payment amount must be positive")
	}
	if !method.Valid() {
		return nil, apperror.NewBadRequestError("Invalid payment method")
	}
	if staffID == uuid.Nil {
		return nil, apperror.NewInvalidStateError("Payment requires a staff reference")
	}
	return &Payment{
		ID:              uuid.New(),
		ContractID:      contractID,
		InstallmentID:   installmentID,
		Amount:          amount,
		PaymentDate:     paymentDate,
		Method:          method,
		StaffID:         staffID,
		ReferenceNumber: referenceNumber,
		Notes:           notes,
	}, nil
}

// NewReversal builds the offsetting payment for p: same contract,
// installment, amount and method, flagged as a reversal with a REV- prefixed
// reference. The original payment is left untouched.
func (p *Payment) NewReversal(staffID uuid.UUID, reason string, now time.Time) (*Payment, error) {
	if p.IsReversal {
		return nil, apperror.NewInvalidStateError("Cannot reverse a reversal payment")
	}
	ref := ReversalReferencePrefix + p.ID.String()[:8]
	if p.ReferenceNumber != nil && *p.ReferenceNumber != "" {
		ref = ReversalReferencePrefix + *p.ReferenceNumber
	}
	notes := reason
	originalID := p.ID
	return &Payment{
		ID:                uuid.New(),
		ContractID:        p.ContractID,
		InstallmentID:     p.InstallmentID,
		Amount:            p.Amount,
		PaymentDate:       now,
		Method:            p.Method,
		StaffID:           staffID,
		ReferenceNumber:   &ref,
		Notes:             &notes,
		IsReversal:        true,
		ReversedPaymentID: &originalID,
	}, nil
}
