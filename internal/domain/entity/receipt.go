package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/collectra/collectra-api/internal/domain/valueobject"
)

// Receipt is the customer-facing proof of payment. At most one receipt
// exists per payment; reversal payments never get one.
type Receipt struct {
	ID            uuid.UUID         `gorm:"type:uuid;primary_key" json:"id"`
	ReceiptNumber string            `gorm:"size:100;unique;not null" json:"receipt_number"`
	PaymentID     uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex" json:"payment_id"`
	CustomerID    uuid.UUID         `gorm:"type:uuid;not null;index" json:"customer_id"`
	Amount        valueobject.Money `gorm:"embedded;embeddedPrefix:amount_" json:"amount"`
	IssueDate     time.Time         `gorm:"not null" json:"issue_date"`
	StaffID       uuid.UUID         `gorm:"type:uuid;not null" json:"staff_id"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	DeletedAt     gorm.DeletedAt    `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new receipt
func (r *Receipt) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Receipt model
func (Receipt) TableName() string {
	return "receipts"
}
