package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Conversly/whatsapp-assistant/internal/utils"
)

// Recovery turns a handler panic into a generic 500 JSON error.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				utils.Zlog.Error("panic recovered",
					zap.Any("error", err),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.String("request_id", GetRequestID(c)),
					zap.Stack("stack"))

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"status":    "error",
					"error":     "internal_error",
					"message":   "internal server error",
					"timestamp": time.Now().UTC(),
				})
			}
		}()
		c.Next()
	}
}
