package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/collectra/collectra-api/internal/domain/enum"
	"github.com/collectra/collectra-api/internal/domain/valueobject"
	"github.com/collectra/collectra-api/pkg/apperror"
)

// LedgerEntry is one line of the double-entry book. An entry is either a
// debit entry or a credit entry, never both; debit, credit and balance all
// carry the same currency. Entries are append-only: corrections are new
// offsetting entries, never updates.
type LedgerEntry struct {
	ID              uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	TransactionDate time.Time          `gorm:"not null;index" json:"transaction_date"`
	Description     string             `gorm:"size:500;not null" json:"description"`
	DebitAmount     valueobject.Money  `gorm:"embedded;embeddedPrefix:debit_" json:"debit_amount"`
	CreditAmount    valueobject.Money  `gorm:"embedded;embeddedPrefix:credit_" json:"credit_amount"`
	Balance         valueobject.Money  `gorm:"embedded;embeddedPrefix:balance_" json:"balance"`
	ReferenceType   enum.ReferenceType `gorm:"size:30;not null;index" json:"reference_type"`
	ReferenceID     *uuid.UUID         `gorm:"type:uuid;index" json:"reference_id,omitempty"`
	ContractID      *uuid.UUID         `gorm:"type:uuid;index" json:"contract_id,omitempty"`
	CustomerID      *uuid.UUID         `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	StaffID         *uuid.UUID         `gorm:"type:uuid" json:"staff_id,omitempty"`
	Archived        bool               `gorm:"default:false;index" json:"archived"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new ledger entry
func (e *LedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the LedgerEntry model
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// LedgerEntryParams carries the inputs for NewLedgerEntry
type LedgerEntryParams struct {
	TransactionDate time.Time
	Description     string
	Debit           valueobject.Money
	Credit          valueobject.Money
	Balance         valueobject.Money
	ReferenceType   enum.ReferenceType
	ReferenceID     *uuid.UUID
	ContractID      *uuid.UUID
	CustomerID      *uuid.UUID
	StaffID         *uuid.UUID
}

// NewLedgerEntry constructs a validated entry. It rejects entries where
// debit and credit are both positive, where any amount is negative, or where
// the debit, credit and balance currencies differ.
func NewLedgerEntry(p LedgerEntryParams) (*LedgerEntry, error) {
	if p.Debit.Currency != p.Credit.Currency || p.Debit.Currency != p.Balance.Currency {
		return nil, apperror.NewBadRequestError("Ledger entry debit, credit and balance must share one currency")
	}
	if p.Debit.IsNegative() || p.Credit.IsNegative() {
		return nil, apperror.NewBadRequestError("Ledger entry amounts cannot be negative")
	}
	if p.Debit.IsPositive() && p.Credit.IsPositive() {
		return nil, apperror.NewBadRequestError("Ledger entry cannot carry both a debit and a credit")
	}
	if !p.ReferenceType.Valid() {
		return nil, apperror.NewBadRequestError("Invalid ledger reference type")
	}
	return &LedgerEntry{
		ID:              uuid.New(),
		TransactionDate: p.TransactionDate,
		Description:     p.Description,
		DebitAmount:     p.Debit,
		CreditAmount:    p.Credit,
		Balance:         p.Balance,
		ReferenceType:   p.ReferenceType,
		ReferenceID:     p.ReferenceID,
		ContractID:      p.ContractID,
		CustomerID:      p.CustomerID,
		StaffID:         p.StaffID,
	}, nil
}

// IsDebit reports whether the entry carries a positive debit
func (e *LedgerEntry) IsDebit() bool {
	return e.DebitAmount.IsPositive()
}

// IsCredit reports whether the entry carries a positive credit
func (e *LedgerEntry) IsCredit() bool {
	return e.CreditAmount.IsPositive()
}
