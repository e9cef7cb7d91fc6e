package request

import "time"

// LoginRequest is the login payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest is the staff registration payload
type RegisterRequest struct {
	FirstName string  `json:"first_name" binding:"required"`
	LastName  string  `json:"last_name" binding:"required"`
	Email     string  `json:"email" binding:"required,email"`
	Password  string  `json:"password" binding:"required,min=8"`
	Phone     *string `json:"phone"`
}

// RefreshTokenRequest is the token refresh payload
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ChangePasswordRequest is the password change payload
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

// CustomerRequest is the create/update customer payload
type CustomerRequest struct {
	Name         string  `json:"name" binding:"required"`
	Email        *string `json:"email"`
	Phone        *string `json:"phone"`
	NationalID   *string `json:"national_id"`
	Address      *string `json:"address"`
	EmployerName *string `json:"employer_name"`
	Notes        *string `json:"notes"`
}

// CreateContractRequest is the create contract payload. Amounts travel as
// decimal strings so no precision is lost in transit.
type CreateContractRequest struct {
	CustomerID           string    `json:"customer_id" binding:"required,uuid"`
	StaffID              *string   `json:"staff_id" binding:"omitempty,uuid"`
	TotalAmount          string    `json:"total_amount" binding:"required"`
	Currency             string    `json:"currency"`
	StartDate            time.Time `json:"start_date" binding:"required"`
	NumberOfInstallments int       `json:"number_of_installments" binding:"required,min=1"`
	InterestRate         string    `json:"interest_rate"`
	GracePeriodDays      int       `json:"grace_period_days"`
	Notes                *string   `json:"notes"`
}

// ProcessPaymentRequest is the single-installment payment payload
type ProcessPaymentRequest struct {
	ContractID      string    `json:"contract_id" binding:"required,uuid"`
	InstallmentID   string    `json:"installment_id" binding:"required,uuid"`
	Amount          string    `json:"amount" binding:"required"`
	Currency        string    `json:"currency"`
	PaymentDate     time.Time `json:"payment_date" binding:"required"`
	Method          string    `json:"method" binding:"required"`
	ReferenceNumber *string   `json:"reference_number"`
	Notes           *string   `json:"notes"`
}

// PartialPaymentRequest is the lump-sum payment payload
type PartialPaymentRequest struct {
	ContractID      string    `json:"contract_id" binding:"required,uuid"`
	Amount          string    `json:"amount" binding:"required"`
	Currency        string    `json:"currency"`
	PaymentDate     time.Time `json:"payment_date" binding:"required"`
	Method          string    `json:"method" binding:"required"`
	ReferenceNumber *string   `json:"reference_number"`
	Notes           *string   `json:"notes"`
}

// ReversePaymentRequest is the payment reversal payload
type ReversePaymentRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// JournalEntryRequest is the manual journal entry payload
type JournalEntryRequest struct {
	TransactionDate time.Time `json:"transaction_date" binding:"required"`
	Description     string    `json:"description" binding:"required"`
	Amount          string    `json:"amount" binding:"required"`
	Currency        string    `json:"currency"`
	ContractID      *string   `json:"contract_id" binding:"omitempty,uuid"`
	CustomerID      *string   `json:"customer_id" binding:"omitempty,uuid"`
}

// ReconcileRequest is the reconciliation payload
type ReconcileRequest struct {
	From time.Time `json:"from" binding:"required"`
	To   time.Time `json:"to" binding:"required"`
}
