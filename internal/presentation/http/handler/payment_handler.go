package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/collectra/collectra-api/internal/application/service"
	"github.com/collectra/collectra-api/internal/domain/enum"
	"github.com/collectra/collectra-api/internal/domain/repository"
	"github.com/collectra/collectra-api/internal/domain/valueobject"
	"github.com/collectra/collectra-api/internal/presentation/http/dto/request"
	"github.com/collectra/collectra-api/internal/presentation/http/dto/response"
	"github.com/collectra/collectra-api/pkg/pagination"
)

// PaymentHandler handles payment-related HTTP requests
type PaymentHandler struct {
	paymentService  *service.PaymentService
	defaultCurrency string
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *service.PaymentService, defaultCurrency string) *PaymentHandler {
	return &PaymentHandler{
		paymentService:  paymentService,
		defaultCurrency: defaultCurrency,
	}
}

// Process handles recording a payment against one installment
func (h *PaymentHandler) Process(c *gin.Context) {
	staffID := GetUserID(c)
	if staffID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req request.ProcessPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	contractID, err := uuid.Parse(req.ContractID)
	if err != nil {
		response.BadRequest(c, "Invalid contract ID")
		return
	}
	installmentID, err := uuid.Parse(req.InstallmentID)
	if err != nil {
		response.BadRequest(c, "Invalid installment ID")
		return
	}

	amount, ok := h.parseAmount(c, req.Amount, req.Currency)
	if !ok {
		return
	}
	method, ok := parseMethod(c, req.Method)
	if !ok {
		return
	}

	result, err := h.paymentService.ProcessPayment(c.Request.Context(), &service.ProcessPaymentInput{
		ContractID:      contractID,
		InstallmentID:   installmentID,
		Amount:          amount,
		PaymentDate:     req.PaymentDate,
		Method:          method,
		StaffID:         *staffID,
		ReferenceNumber: req.ReferenceNumber,
		Notes:           req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Payment recorded successfully", result)
}

// ProcessPartial handles a lump sum allocated across unpaid installments
func (h *PaymentHandler) ProcessPartial(c *gin.Context) {
	staffID := GetUserID(c)
	if staffID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req request.PartialPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	contractID, err := uuid.Parse(req.ContractID)
	if err != nil {
		response.BadRequest(c, "Invalid contract ID")
		return
	}

	amount, ok := h.parseAmount(c, req.Amount, req.Currency)
	if !ok {
		return
	}
	method, ok := parseMethod(c, req.Method)
	if !ok {
		return
	}

	results, err := h.paymentService.ProcessPartialPayment(c.Request.Context(), &service.ProcessPartialPaymentInput{
		ContractID:      contractID,
		Amount:          amount,
		PaymentDate:     req.PaymentDate,
		Method:          method,
		StaffID:         *staffID,
		ReferenceNumber: req.ReferenceNumber,
		Notes:           req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Payment allocated successfully", results)
}

// Reverse handles reversing a previously recorded payment
func (h *PaymentHandler) Reverse(c *gin.Context) {
	staffID := GetUserID(c)
	if staffID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	paymentID, ok := parseUUIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid payment ID")
		return
	}

	var req request.ReversePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.paymentService.ReversePayment(c.Request.Context(), paymentID, *staffID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Payment reversed successfully", result)
}

// List handles listing payments
func (h *PaymentHandler) List(c *gin.Context) {
	params := &repository.PaymentFilterParams{
		Pagination: parsePagination(c),
	}

	if contractIDStr := c.Query("contract_id"); contractIDStr != "" {
		contractID, err := uuid.Parse(contractIDStr)
		if err != nil {
			response.BadRequest(c, "Invalid contract ID")
			return
		}
		params.ContractID = &contractID
	}

	if staffIDStr := c.Query("staff_id"); staffIDStr != "" {
		staffID, err := uuid.Parse(staffIDStr)
		if err != nil {
			response.BadRequest(c, "Invalid staff ID")
			return
		}
		params.StaffID = &staffID
	}

	if reversalStr := c.Query("is_reversal"); reversalStr != "" {
		isReversal := reversalStr == "true"
		params.IsReversal = &isReversal
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

	payments, total, err := h.paymentService.ListPayments(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	result := pagination.NewPaginatedResult(payments,
		pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total))
	response.SuccessWithPagination(c, 200, "Payments retrieved successfully", result)
}

// Get handles fetching one payment
func (h *PaymentHandler) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid payment ID")
		return
	}

	payment, err := h.paymentService.GetPayment(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payment retrieved successfully", payment)
}

// GetReceipt handles fetching the receipt for a payment
func (h *PaymentHandler) GetReceipt(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid payment ID")
		return
	}

	receipt, err := h.paymentService.GetReceiptForPayment(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Receipt retrieved successfully", receipt)
}

func (h *PaymentHandler) parseAmount(c *gin.Context, raw, currency string) (valueobject.Money, bool) {
	if currency == "" {
		currency = h.defaultCurrency
	}
	amount, err := valueobject.NewFromString(raw, currency)
	if err != nil {
		response.BadRequest(c, "Invalid amount")
		return valueobject.Money{}, false
	}
	return amount, true
}

func parseMethod(c *gin.Context, raw string) (enum.PaymentMethod, bool) {
	method := enum.PaymentMethod(raw)
	if !method.Valid() {
		response.BadRequest(c, "Invalid payment method")
		return "", false
	}
	return method, true
}
