package monitoring

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type MonitoringController struct {
	monitoringService *MonitoringService
}

func (c *MonitoringController) RegisterRoutes(router *gin.RouterGroup) {
	// Admin-only routes, role enforcement handled in main.go
	monitoringRoutes := router.Group("/monitoring")

	monitoringRoutes.GET("/events", c.GetSecurityEvents)
	monitoringRoutes.GET("/events/summary", c.GetSecurityEventsSummary)
}

// GetSecurityEvents
// @Summary Get security events (ADMIN only)
// @Description Retrieve authentication and rate limiting events recorded by the API key middleware
// @Tags monitoring
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Limit number of results" default(100)
// @Param offset query int false "Offset for pagination" default(0)
// @Param kind query string false "Filter by event kind"
// @Param keyId query string false "Filter by API key ID"
// @Param beforeDate query string false "Filter events created before this date (RFC3339 format)" format(date-time)
// @Success 200 {object} GetSecurityEventsResponse
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /monitoring/events [get]
func (c *MonitoringController) GetSecurityEvents(ctx *gin.Context) {
	request := &GetSecurityEventsRequest{}
	if err := ctx.ShouldBindQuery(request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	response, err := c.monitoringService.GetEvents(request)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve security events"})
		return
	}

	ctx.JSON(http.StatusOK, response)
}

// GetSecurityEventsSummary
// @Summary Get security event counters (ADMIN only)
// @Description Retrieve aggregate counts per security event kind
// @Tags monitoring
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SecurityEventSummaryResponse
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /monitoring/events/summary [get]
func (c *MonitoringController) GetSecurityEventsSummary(ctx *gin.Context) {
	response, err := c.monitoringService.GetSummary()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve event counters"})
		return
	}

	ctx.JSON(http.StatusOK, response)
}
