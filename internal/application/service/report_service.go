package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/collectra/collectra-api/internal/domain/repository"
	"github.com/collectra/collectra-api/pkg/apperror"
)

// ReportService renders ledger and schedule exports plus receipt documents
type ReportService struct {
	contractRepo repository.ContractRepository
	paymentRepo  repository.PaymentRepository
	receiptRepo  repository.ReceiptRepository
	customerRepo repository.CustomerRepository
	ledgerRepo   repository.LedgerRepository
}

// NewReportService creates a new report service
func NewReportService(
	contractRepo repository.ContractRepository,
	paymentRepo repository.PaymentRepository,
	receiptRepo repository.ReceiptRepository,
	customerRepo repository.CustomerRepository,
	ledgerRepo repository.LedgerRepository,
) *ReportService {
	return &ReportService{
		contractRepo: contractRepo,
		paymentRepo:  paymentRepo,
		receiptRepo:  receiptRepo,
		customerRepo: customerRepo,
		ledgerRepo:   ledgerRepo,
	}
}

// BuildLedgerXLSX renders the ledger entries for a date range as a workbook
func (s *ReportService) BuildLedgerXLSX(ctx context.Context, from, to time.Time) ([]byte, error) {
	entries, err := s.ledgerRepo.GetByDateRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := "ledger"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Date", "Description", "Debit", "Credit", "Balance", "Currency", "Reference Type"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i := range entries {
		e := &entries[i]
		row := i + 2
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), e.TransactionDate.Format("2006-01-02"))
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), e.Description)
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), e.DebitAmount.Amount.StringFixed(2))
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), e.CreditAmount.Amount.StringFixed(2))
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), e.Balance.Amount.StringFixed(2))
		_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), e.DebitAmount.Currency)
		_ = f.SetCellValue(sheet, fmt.Sprintf("G%d", row), string(e.ReferenceType))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildScheduleXLSX renders a contract's installment schedule as a workbook
func (s *ReportService) BuildScheduleXLSX(ctx context.Context, contractID uuid.UUID) ([]byte, error) {
	contract, err := s.contractRepo.GetWithInstallments(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, apperror.NewNotFoundError("Contract")
	}

	f := excelize.NewFile()
	sheet := "schedule"
	f.SetSheetName("Sheet1", sheet)

	_ = f.SetCellValue(sheet, "A1", "Contract")
	_ = f.SetCellValue(sheet, "B1", contract.ContractNumber)
	_ = f.SetCellValue(sheet, "A2", "Total")
	_ = f.SetCellValue(sheet, "B2", contract.TotalAmount.String())
	_ = f.SetCellValue(sheet, "A3", "Outstanding")
	_ = f.SetCellValue(sheet, "B3", contract.OutstandingAmount.String())

	headers := []string{"#", "Due Date", "Amount", "Paid", "Status", "Paid Date"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 5)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i := range contract.Installments {
		inst := &contract.Installments[i]
		row := i + 6
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), inst.InstallmentNumber)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), inst.DueDate.Format("2006-01-02"))
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), inst.Amount.Amount.StringFixed(2))
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), inst.PaidAmount.Amount.StringFixed(2))
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), inst.Status.String())
		if inst.PaidDate != nil {
			_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), inst.PaidDate.Format("2006-01-02"))
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildReceiptPDF renders a receipt as a printable PDF
func (s *ReportService) BuildReceiptPDF(ctx context.Context, receiptID uuid.UUID) ([]byte, error) {
	receipt, err := s.receiptRepo.GetByID(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, apperror.NewNotFoundError("Receipt")
	}

	payment, err := s.paymentRepo.GetByID(ctx, receipt.PaymentID)
	if err != nil {
		return nil, err
	}
	customer, err := s.customerRepo.GetByID(ctx, receipt.CustomerID)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "B", 14)
	pdf.AddPage()

	pdf.Cell(0, 8, "Payment Receipt")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Receipt No: %s", receipt.ReceiptNumber))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Issue Date: %s", receipt.IssueDate.Format("2006-01-02")))
	pdf.Ln(5)
	if customer != nil {
		pdf.Cell(0, 6, fmt.Sprintf("Received From: %s", customer.Name))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Amount: %s", receipt.Amount.String()))
	pdf.Ln(5)
	if payment != nil {
		pdf.Cell(0, 6, fmt.Sprintf("Payment Method: %s", string(payment.Method)))
		pdf.Ln(5)
		pdf.Cell(0, 6, fmt.Sprintf("Payment Date: %s", payment.PaymentDate.Format("2006-01-02")))
		pdf.Ln(5)
		if payment.ReferenceNumber != nil {
			pdf.Cell(0, 6, fmt.Sprintf("Reference: %s", *payment.ReferenceNumber))
			pdf.Ln(5)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
