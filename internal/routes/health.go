package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Conversly/whatsapp-assistant/internal/config"
	"github.com/Conversly/whatsapp-assistant/internal/controllers"
)

// SetupHealthRoutes configures health check and status endpoints
func SetupHealthRoutes(router *gin.Engine, cfg *config.Config, checks ...controllers.ReadinessCheck) {
	healthController := controllers.NewHealthController(checks...)
	systemController := controllers.NewSystemController(cfg)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": cfg.ServiceName,
			"endpoints": []string{
				"POST /process_message",
				"POST /chat",
				"POST /generate_marketing",
				"POST /summarize_pdf",
			},
		})
	})

	router.GET("/health", healthController.HealthCheck)
	router.GET("/health/live", healthController.Liveness)
	router.GET("/health/ready", healthController.Readiness)
	router.GET("/api/v1/status", systemController.Status)
}
