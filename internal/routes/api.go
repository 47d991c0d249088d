package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Conversly/whatsapp-assistant/internal/types"
)

// Setup404Handler configures the 404 handler
func Setup404Handler(router *gin.Engine) {
	router.NoRoute(func(c *gin.Context) {
		body := types.NewError(types.ErrNotFound, "The requested resource was not found")
		c.JSON(http.StatusNotFound, gin.H{
			"status":    body.Status,
			"error":     body.Error,
			"message":   body.Message,
			"path":      c.Request.URL.Path,
			"timestamp": body.Timestamp,
		})
	})
}
