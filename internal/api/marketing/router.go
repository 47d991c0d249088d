package marketing

import (
	"github.com/gin-gonic/gin"

	copywriter "github.com/Conversly/whatsapp-assistant/internal/marketing"
)

func RegisterRoutes(router gin.IRouter, gen *copywriter.Generator) {
	ctrl := NewController(NewService(gen))
	router.POST("/generate_marketing", ctrl.GenerateMarketing)
}
