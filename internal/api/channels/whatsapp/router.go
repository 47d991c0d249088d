package whatsapp

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Conversly/whatsapp-assistant/internal/config"
	"github.com/Conversly/whatsapp-assistant/internal/utils"
)

// RegisterRoutes registers the WhatsApp webhook endpoints. Meta sends GET for
// verification and POST for messages.
func RegisterRoutes(router gin.IRouter, cfg config.WhatsAppConfig, svc *Service) {
	ctrl := NewController(cfg, svc)

	whatsapp := router.Group("/whatsapp")
	{
		whatsapp.GET("/webhook", ctrl.VerifyWebhook)
		whatsapp.POST("/webhook", ctrl.Webhook)
	}

	utils.Zlog.Info("WhatsApp routes registered",
		zap.String("phone_number_id", cfg.PhoneNumberID),
		zap.Bool("signature_check", cfg.AppSecret != ""))
}
