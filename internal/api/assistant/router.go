package assistant

import (
	"github.com/gin-gonic/gin"

	"github.com/Conversly/whatsapp-assistant/internal/api/channels"
	"github.com/Conversly/whatsapp-assistant/internal/llm"
)

// RegisterRoutes registers /process_message and /chat at the root level
func RegisterRoutes(router gin.IRouter, pipeline channels.Pipeline, gen llm.Generator, chatModels []string) {
	ctrl := NewController(NewService(pipeline, gen, chatModels))
	router.POST("/process_message", ctrl.ProcessMessage)
	router.POST("/chat", ctrl.Chat)
}
