package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Conversly/whatsapp-assistant/internal/utils"
)

// ReadinessCheck reports whether one dependency can serve traffic.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type HealthController struct {
	checks []ReadinessCheck
}

func NewHealthController(checks ...ReadinessCheck) *HealthController {
	return &HealthController{checks: checks}
}

// HealthCheck godoc
// @Summary Check application health
// @Description Check if the application and its dependencies are healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthController) HealthCheck(c *gin.Context) {
	components, ok := h.run(c.Request.Context())
	status, code := "healthy", http.StatusOK
	if !ok {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC(),
	})
}

// Liveness godoc
// @Summary Liveness probe
// @Description Check if the application is alive
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/live [get]
func (h *HealthController) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
	})
}

// Readiness godoc
// @Summary Readiness probe
// @Description Check if the application is ready to serve traffic
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/ready [get]
func (h *HealthController) Readiness(c *gin.Context) {
	components, ok := h.run(c.Request.Context())
	status, code := "ready", http.StatusOK
	if !ok {
		status, code = "not ready", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC(),
	})
}

func (h *HealthController) run(parent context.Context) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(parent, 5*time.Second)
	defer cancel()

	ok := true
	components := make(map[string]string, len(h.checks))
	for _, chk := range h.checks {
		if err := chk.Check(ctx); err != nil {
			utils.Zlog.Error("Readiness check failed", zap.String("component", chk.Name), zap.Error(err))
			components[chk.Name] = "down"
			ok = false
			continue
		}
		components[chk.Name] = "up"
	}
	return components, ok
}
