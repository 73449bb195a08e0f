package handler

import (
	"github.com/gin-gonic/gin"

	"invox/internal/service"
)

// StatsHandler handles analytics endpoints.
type StatsHandler struct {
	statsService service.StatsService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(statsService service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// GetAnalytics handles GET /api/v1/analytics
// @Summary Pipeline analytics
// @Description Record counts by status and average overall confidence
// @Tags analytics
// @Produce json
// @Success 200 {object} APIResponse{data=service.Analytics} "Analytics"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Security BearerAuth
// @Router /analytics [get]
func (h *StatsHandler) GetAnalytics(c *gin.Context) {
	if _, ok := callerIdentity(c); !ok {
		return
	}

	analytics, err := h.statsService.GetAnalytics(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, analytics)
}
