package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.ApiService/health"
	logger "github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.Logger"
)

// HealthController exposes the service health endpoint
type HealthController struct {
	checker *health.HealthChecker
	logger  *logger.Logger
}

// NewHealthController creates a new health controller
func NewHealthController(checker *health.HealthChecker, logger *logger.Logger) *HealthController {
	return &HealthController{
		checker: checker,
		logger:  logger.WithComponent("health"),
	}
}

// RegisterRoutes registers the health routes with Gin
func (c *HealthController) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", c.GetHealth)
}

// GetHealth reports store connectivity
func (c *HealthController) GetHealth(ctx *gin.Context) {
	status := c.checker.GetHealthStatus(ctx)

	code := http.StatusOK
	if status["status"] != "ok" {
		code = http.StatusServiceUnavailable
	}

	ctx.JSON(code, status)
}
