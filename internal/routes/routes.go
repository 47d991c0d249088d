package routes

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Conversly/whatsapp-assistant/internal/api/assistant"
	"github.com/Conversly/whatsapp-assistant/internal/api/channels"
	"github.com/Conversly/whatsapp-assistant/internal/api/channels/whatsapp"
	"github.com/Conversly/whatsapp-assistant/internal/api/document"
	apimarketing "github.com/Conversly/whatsapp-assistant/internal/api/marketing"
	"github.com/Conversly/whatsapp-assistant/internal/config"
	"github.com/Conversly/whatsapp-assistant/internal/controllers"
	"github.com/Conversly/whatsapp-assistant/internal/llm"
	"github.com/Conversly/whatsapp-assistant/internal/marketing"
	"github.com/Conversly/whatsapp-assistant/internal/middleware"
)

// Dependencies are the long-lived services built in main.
type Dependencies struct {
	Pipeline   channels.Pipeline
	Generator  llm.Generator
	Marketing  *marketing.Generator
	Summarizer document.Summarizer
	// WhatsApp is nil when the channel is not configured.
	WhatsApp *whatsapp.Service
	Checks   []controllers.ReadinessCheck
}

// SetupRoutes configures all application routes
func SetupRoutes(router *gin.Engine, deps *Dependencies, cfg *config.Config) {
	// otelgin opens the span first so recovery and access logs see it
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	SetupHealthRoutes(router, cfg, deps.Checks...)
	assistant.RegisterRoutes(router, deps.Pipeline, deps.Generator, cfg.LLM.ChatModels)
	apimarketing.RegisterRoutes(router, deps.Marketing)
	document.RegisterRoutes(router, deps.Summarizer)
	if deps.WhatsApp != nil {
		whatsapp.RegisterRoutes(router, cfg.WhatsApp, deps.WhatsApp)
	}
	Setup404Handler(router)
}
