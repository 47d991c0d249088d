package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Conversly/whatsapp-assistant/internal/config"
)

type SystemController struct {
	cfg *config.Config
}

func NewSystemController(cfg *config.Config) *SystemController {
	return &SystemController{cfg: cfg}
}

// Status godoc
// @Summary Get system status
// @Description Service identity and the active LLM provider settings. Never includes credentials.
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/status [get]
func (s *SystemController) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":     s.cfg.ServiceName,
		"version":     s.cfg.ServiceVersion,
		"environment": s.cfg.Environment,
		"llm": gin.H{
			"provider":         s.cfg.LLM.Provider,
			"models":           s.cfg.LLM.Models,
			"marketing_models": s.cfg.LLM.MarketingModels,
			"chat_models":      s.cfg.LLM.ChatModels,
			"api_keys":         len(s.cfg.LLM.APIKeys),
		},
		"whatsapp_enabled":  s.cfg.WhatsApp.Enabled(),
		"telemetry_enabled": s.cfg.OTel.Enabled(),
		"timestamp":         time.Now().UTC(),
	})
}
