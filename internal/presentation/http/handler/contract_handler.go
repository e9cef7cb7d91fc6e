package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/collectra/collectra-api/internal/application/service"
	"github.com/collectra/collectra-api/internal/domain/entity"
	"github.com/collectra/collectra-api/internal/domain/enum"
	"github.com/collectra/collectra-api/internal/domain/repository"
	"github.com/collectra/collectra-api/internal/domain/valueobject"
	"github.com/collectra/collectra-api/internal/presentation/http/dto/request"
	"github.com/collectra/collectra-api/internal/presentation/http/dto/response"
	"github.com/collectra/collectra-api/pkg/pagination"
)

// ContractHandler handles contract-related HTTP requests
type ContractHandler struct {
	contractService *service.ContractService
	defaultCurrency string
}

// NewContractHandler creates a new contract handler
func NewContractHandler(contractService *service.ContractService, defaultCurrency string) *ContractHandler {
	return &ContractHandler{
		contractService: contractService,
		defaultCurrency: defaultCurrency,
	}
}

// List handles listing contracts
func (h *ContractHandler) List(c *gin.Context) {
	params := &repository.ContractFilterParams{
		Pagination: parsePagination(c),
		Search:     c.Query("search"),
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status, err := enum.ParseContractStatus(statusStr)
		if err != nil {
			response.BadRequest(c, "Invalid contract status")
			return
		}
		params.Status = &status
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

	contracts, total, err := h.contractService.ListContracts(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	result := pagination.NewPaginatedResult(contracts,
		pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total))
	response.SuccessWithPagination(c, 200, "Contracts retrieved successfully", result)
}

// Get handles fetching one contract with its schedule
func (h *ContractHandler) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid contract ID")
		return
	}

	contract, err := h.contractService.GetContract(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Contract retrieved successfully", contract)
}

// Create handles creating a contract
func (h *ContractHandler) Create(c *gin.Context) {
	var req request.CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		response.BadRequest(c, "Invalid customer ID")
		return
	}

	var staffID *uuid.UUID
	if req.StaffID != nil {
		id, err := uuid.Parse(*req.StaffID)
		if err != nil {
			response.BadRequest(c, "Invalid staff ID")
			return
		}
		staffID = &id
	}

	currency := req.Currency
	if currency == "" {
		currency = h.defaultCurrency
	}

	totalAmount, err := valueobject.NewFromString(req.TotalAmount, currency)
	if err != nil {
		response.BadRequest(c, "Invalid total amount")
		return
	}

	interestRate := decimal.Zero
	if req.InterestRate != "" {
		interestRate, err = decimal.NewFromString(req.InterestRate)
		if err != nil {
			response.BadRequest(c, "Invalid interest rate")
			return
		}
	}

	contract, err := h.contractService.CreateContract(c.Request.Context(), &service.CreateContractInput{
		CustomerID:           customerID,
		StaffID:              staffID,
		TotalAmount:          totalAmount,
		StartDate:            req.StartDate,
		NumberOfInstallments: req.NumberOfInstallments,
		InterestRate:         interestRate,
		GracePeriodDays:      req.GracePeriodDays,
		Notes:                req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Contract created successfully", contract)
}

// Activate handles contract activation and schedule generation
func (h *ContractHandler) Activate(c *gin.Context) {
	h.lifecycle(c, h.contractService.Activate, "Contract activated successfully")
}

// Suspend handles contract suspension
func (h *ContractHandler) Suspend(c *gin.Context) {
	h.lifecycle(c, h.contractService.Suspend, "Contract suspended successfully")
}

// Resume handles resuming a suspended contract
func (h *ContractHandler) Resume(c *gin.Context) {
	h.lifecycle(c, h.contractService.Resume, "Contract resumed successfully")
}

// Complete handles closing a fully settled contract
func (h *ContractHandler) Complete(c *gin.Context) {
	h.lifecycle(c, h.contractService.Complete, "Contract completed successfully")
}

// Cancel handles contract cancellation
func (h *ContractHandler) Cancel(c *gin.Context) {
	h.lifecycle(c, h.contractService.Cancel, "Contract cancelled successfully")
}

// MarkDefaulted handles flagging a contract as defaulted
func (h *ContractHandler) MarkDefaulted(c *gin.Context) {
	h.lifecycle(c, h.contractService.MarkDefaulted, "Contract marked as defaulted")
}

func (h *ContractHandler) lifecycle(c *gin.Context, fn func(ctx context.Context, id uuid.UUID) (*entity.Contract, error), message string) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid contract ID")
		return
	}

	contract, err := fn(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, message, contract)
}

// WaiveInstallment handles forgiving an installment
func (h *ContractHandler) WaiveInstallment(c *gin.Context) {
	contractID, ok := parseUUIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid contract ID")
		return
	}
	installmentID, ok := parseUUIDParam(c, "installmentId")
	if !ok {
		response.BadRequest(c, "Invalid installment ID")
		return
	}

	installment, err := h.contractService.WaiveInstallment(c.Request.Context(), contractID, installmentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Installment waived successfully", installment)
}

// UnwaiveInstallment handles lifting an installment waiver
func (h *ContractHandler) UnwaiveInstallment(c *gin.Context) {
	contractID, ok := parseUUIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid contract ID")
		return
	}
	installmentID, ok := parseUUIDParam(c, "installmentId")
	if !ok {
		response.BadRequest(c, "Invalid installment ID")
		return
	}

	installment, err := h.contractService.UnwaiveInstallment(c.Request.Context(), contractID, installmentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Installment waiver lifted successfully", installment)
}

// MarkOverdue handles the overdue sweep across all contracts
func (h *ContractHandler) MarkOverdue(c *gin.Context) {
	count, err := h.contractService.MarkOverdue(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Overdue sweep completed", gin.H{"marked": count})
}

// CheckConsistency handles the schedule-vs-ledger cross-check
func (h *ContractHandler) CheckConsistency(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid contract ID")
		return
	}

	result, err := h.contractService.CheckLedgerConsistency(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Consistency check completed", result)
}

// Delete handles deleting a draft contract
func (h *ContractHandler) Delete(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid contract ID")
		return
	}

	if err := h.contractService.DeleteContract(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
