package system_healthcheck

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthcheckController struct {
	healthcheckService *HealthcheckService
}

func (c *HealthcheckController) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/health", c.GetHealth)
}

// GetHealth
// @Summary Service health report
// @Description Reports database and cache connectivity plus host resource usage
// @Tags system
// @Produce json
// @Success 200 {object} HealthcheckResponse
// @Failure 503 {object} HealthcheckResponse
// @Router /health [get]
func (c *HealthcheckController) GetHealth(ctx *gin.Context) {
	response := c.healthcheckService.CheckHealth()

	httpStatus := http.StatusOK
	if !response.IsHealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	ctx.JSON(httpStatus, response)
}
