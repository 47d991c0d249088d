package document

import "github.com/gin-gonic/gin"

func RegisterRoutes(router gin.IRouter, summarizer Summarizer) {
	ctrl := NewController(NewService(summarizer))
	router.POST("/summarize_pdf", ctrl.SummarizePDF)
}
