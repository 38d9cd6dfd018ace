package handlers

import (
	"net/http"

	"recanto_verde_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// AnalyticsHandler serves the dashboard figures.
type AnalyticsHandler struct {
	analyticsService services.AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(as services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: as}
}

func (h *AnalyticsHandler) GetSummary(c *gin.Context) {
	summary, err := h.analyticsService.GetDashboardSummary(c.Request.Context())
	if err != nil {
		respondServiceError(c, "GetSummary: Error from analyticsService.GetDashboardSummary", err, "Failed to build summary.")
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *AnalyticsHandler) GetWaiterRanking(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	ranking, err := h.analyticsService.GetWaiterRanking(c.Request.Context(), limit)
	if err != nil {
		respondServiceError(c, "GetWaiterRanking: Error from analyticsService.GetWaiterRanking", err, "Failed to fetch waiter ranking.")
		return
	}
	c.JSON(http.StatusOK, ranking)
}

func (h *AnalyticsHandler) GetPopularItems(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	items, err := h.analyticsService.GetPopularItems(c.Request.Context(), limit)
	if err != nil {
		respondServiceError(c, "GetPopularItems: Error from analyticsService.GetPopularItems", err, "Failed to fetch popular items.")
		return
	}
	c.JSON(http.StatusOK, items)
}
