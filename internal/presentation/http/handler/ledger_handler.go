package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/collectra/collectra-api/internal/application/service"
	"github.com/collectra/collectra-api/internal/domain/repository"
	"github.com/collectra/collectra-api/internal/domain/valueobject"
	"github.com/collectra/collectra-api/internal/presentation/http/dto/request"
	"github.com/collectra/collectra-api/internal/presentation/http/dto/response"
	"github.com/collectra/collectra-api/pkg/pagination"
)

// LedgerHandler handles ledger-related HTTP requests
type LedgerHandler struct {
	ledgerService   *service.LedgerService
	defaultCurrency string
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(ledgerService *service.LedgerService, defaultCurrency string) *LedgerHandler {
	return &LedgerHandler{
		ledgerService:   ledgerService,
		defaultCurrency: defaultCurrency,
	}
}

// List handles listing ledger entries
func (h *LedgerHandler) List(c *gin.Context) {
	params := &repository.LedgerFilterParams{
		Pagination:      parsePagination(c),
		IncludeArchived: c.Query("include_archived") == "true",
	}

	if contractIDStr := c.Query("contract_id"); contractIDStr != "" {
		contractID, err := uuid.Parse(contractIDStr)
		if err != nil {
			response.BadRequest(c, "Invalid contract ID")
			return
		}
		params.ContractID = &contractID
	}

	if customerIDStr := c.Query("customer_id"); customerIDStr != "" {
		customerID, err := uuid.Parse(customerIDStr)
		if err != nil {
			response.BadRequest(c, "Invalid customer ID")
			return
		}
		params.CustomerID = &customerID
	}

	if fromStr := c.Query("from"); fromStr != "" {
		from, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			response.BadRequest(c, "Invalid from date")
			return
		}
		params.StartDate = &from
	}

	if toStr := c.Query("to"); toStr != "" {
		to, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			response.BadRequest(c, "Invalid to date")
			return
		}
		params.EndDate = &to
	}

	entries, total, err := h.ledgerService.ListEntries(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	result := pagination.NewPaginatedResult(entries,
		pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total))
	response.SuccessWithPagination(c, 200, "Ledger entries retrieved successfully", result)
}

// GetByContract handles listing a contract's ledger entries
func (h *LedgerHandler) GetByContract(c *gin.Context) {
	contractID, ok := parseUUIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid contract ID")
		return
	}

	entries, err := h.ledgerService.GetByContract(c.Request.Context(), contractID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Ledger entries retrieved successfully", entries)
}

// Balance handles the net ledger position for a contract or customer
func (h *LedgerHandler) Balance(c *gin.Context) {
	var contractID, customerID *uuid.UUID

	if contractIDStr := c.Query("contract_id"); contractIDStr != "" {
		id, err := uuid.Parse(contractIDStr)
		if err != nil {
			response.BadRequest(c, "Invalid contract ID")
			return
		}
		contractID = &id
	}
	if customerIDStr := c.Query("customer_id"); customerIDStr != "" {
		id, err := uuid.Parse(customerIDStr)
		if err != nil {
			response.BadRequest(c, "Invalid customer ID")
			return
		}
		customerID = &id
	}

	balance, err := h.ledgerService.AccountBalance(c.Request.Context(), customerID, contractID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Account balance computed successfully", gin.H{
		"balance":  balance,
		"currency": h.defaultCurrency,
	})
}

// PostJournalEntry handles a manual balanced adjustment
func (h *LedgerHandler) PostJournalEntry(c *gin.Context) {
	staffID := GetUserID(c)
	if staffID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req request.JournalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = h.defaultCurrency
	}
	amount, err := valueobject.NewFromString(req.Amount, currency)
	if err != nil {
		response.BadRequest(c, "Invalid amount")
		return
	}

	input := &service.JournalEntryInput{
		TransactionDate: req.TransactionDate,
		Description:     req.Description,
		Debit:           amount,
		Credit:          amount,
		StaffID:         staffID,
	}

	if req.ContractID != nil {
		contractID, err := uuid.Parse(*req.ContractID)
		if err != nil {
			response.BadRequest(c, "Invalid contract ID")
			return
		}
		input.ContractID = &contractID
	}
	if req.CustomerID != nil {
		customerID, err := uuid.Parse(*req.CustomerID)
		if err != nil {
			response.BadRequest(c, "Invalid customer ID")
			return
		}
		input.CustomerID = &customerID
	}

	entries, err := h.ledgerService.PostJournalEntry(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Journal entry posted successfully", entries)
}

// TrialBalance handles the trial balance report
func (h *LedgerHandler) TrialBalance(c *gin.Context) {
	asOf := time.Now()
	if asOfStr := c.Query("as_of"); asOfStr != "" {
		parsed, err := time.Parse("2006-01-02", asOfStr)
		if err != nil {
			response.BadRequest(c, "Invalid as_of date")
			return
		}
		// Include the whole day
		asOf = parsed.Add(24*time.Hour - time.Nanosecond)
	}

	result, err := h.ledgerService.TrialBalance(c.Request.Context(), asOf)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Trial balance computed successfully", result)
}

// Reconcile handles posting a balancing adjustment for a period
func (h *LedgerHandler) Reconcile(c *gin.Context) {
	var req request.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	entry, err := h.ledgerService.Reconcile(c.Request.Context(), req.From, req.To)
	if err != nil {
		response.Error(c, err)
		return
	}

	if entry == nil {
		response.OK(c, "Ledger already balanced for period", nil)
		return
	}

	response.Created(c, "Balancing entry posted successfully", entry)
}

// Unbalanced handles reporting days whose entries do not balance
func (h *LedgerHandler) Unbalanced(c *gin.Context) {
	imbalances, err := h.ledgerService.UnbalancedEntries(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Unbalanced days retrieved successfully", imbalances)
}

// ValidateIntegrity handles checking one entry's reference linkage
func (h *LedgerHandler) ValidateIntegrity(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid ledger entry ID")
		return
	}

	if err := h.ledgerService.ValidateEntryIntegrity(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Ledger entry is valid", gin.H{"valid": true})
}

// Archive handles archiving a ledger entry
func (h *LedgerHandler) Archive(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid ledger entry ID")
		return
	}

	if err := h.ledgerService.ArchiveEntry(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Ledger entry archived successfully", nil)
}
