package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/collectra/collectra-api/internal/application/service"
	"github.com/collectra/collectra-api/internal/presentation/http/dto/response"
)

// DashboardHandler handles dashboard HTTP requests
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// Stats handles the portfolio overview
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.dashboardService.GetStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Dashboard stats retrieved successfully", stats)
}

// CollectionTrend handles the daily collection series
func (h *DashboardHandler) CollectionTrend(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days < 1 || days > 365 {
		response.BadRequest(c, "Invalid days parameter")
		return
	}

	trend, err := h.dashboardService.GetCollectionTrend(c.Request.Context(), days)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Collection trend retrieved successfully", trend)
}
