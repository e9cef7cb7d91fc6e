package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/collectra/collectra-api/internal/application/service"
	"github.com/collectra/collectra-api/internal/presentation/http/dto/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler handles report download HTTP requests
type ReportHandler struct {
	reportService *service.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// LedgerExport handles downloading the ledger as a spreadsheet
func (h *ReportHandler) LedgerExport(c *gin.Context) {
	from, ok := parseDateQuery(c, "from")
	if !ok {
		return
	}
	to, ok := parseDateQuery(c, "to")
	if !ok {
		return
	}
	// Include the whole end day
	to = to.Add(24*time.Hour - time.Nanosecond)

	data, err := h.reportService.BuildLedgerXLSX(c.Request.Context(), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("ledger-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(200, xlsxContentType, data)
}

// ScheduleExport handles downloading a contract's schedule as a spreadsheet
func (h *ReportHandler) ScheduleExport(c *gin.Context) {
	contractID, ok := parseUUIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid contract ID")
		return
	}

	data, err := h.reportService.BuildScheduleXLSX(c.Request.Context(), contractID)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("schedule-%s.xlsx", contractID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(200, xlsxContentType, data)
}

// ReceiptPDF handles downloading a receipt as a PDF
func (h *ReportHandler) ReceiptPDF(c *gin.Context) {
	receiptID, ok := parseUUIDParam(c, "id")
	if !ok {
		response.BadRequest(c, "Invalid receipt ID")
		return
	}

	data, err := h.reportService.BuildReceiptPDF(c.Request.Context(), receiptID)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("receipt-%s.pdf", receiptID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(200, "application/pdf", data)
}

func parseDateQuery(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		response.BadRequest(c, fmt.Sprintf("%s date is required", name))
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		response.BadRequest(c, fmt.Sprintf("Invalid %s date", name))
		return time.Time{}, false
	}
	return t, true
}
