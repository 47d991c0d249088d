package document

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	docs "github.com/Conversly/whatsapp-assistant/internal/document"
	"github.com/Conversly/whatsapp-assistant/internal/middleware"
	"github.com/Conversly/whatsapp-assistant/internal/types"
	"github.com/Conversly/whatsapp-assistant/internal/utils"
)

type Controller struct {
	svc *Service
}

func NewController(svc *Service) *Controller {
	return &Controller{svc: svc}
}

// SummarizePDF accepts a multipart "file" upload or a JSON {"url": ...}.
// POST /summarize_pdf
func (c *Controller) SummarizePDF(ctx *gin.Context) {
	var (
		res *Response
		err error
	)

	if strings.HasPrefix(ctx.ContentType(), "multipart/") {
		fh, ferr := ctx.FormFile("file")
		if ferr != nil {
			ctx.JSON(http.StatusBadRequest, types.NewError(types.ErrBadRequest, "multipart field \"file\" is required"))
			return
		}
		if fh.Size > docs.MaxDocumentSize {
			ctx.JSON(http.StatusRequestEntityTooLarge, types.NewError(types.ErrBadRequest, "file exceeds the maximum document size"))
			return
		}
		f, ferr := fh.Open()
		if ferr != nil {
			ctx.JSON(http.StatusBadRequest, types.NewError(types.ErrBadRequest, ferr.Error()))
			return
		}
		defer f.Close()
		res, err = c.svc.FromUpload(ctx.Request.Context(), f, fh.Filename)
	} else {
		var req URLRequest
		if berr := ctx.ShouldBindJSON(&req); berr != nil {
			utils.Zlog.Warn("invalid /summarize_pdf payload", zap.Error(berr))
			ctx.JSON(http.StatusBadRequest, types.NewError(types.ErrBadRequest, berr.Error()))
			return
		}
		res, err = c.svc.FromURL(ctx.Request.Context(), req.URL)
	}

	switch {
	case errors.Is(err, docs.ErrInvalidURL):
		ctx.JSON(http.StatusBadRequest, types.NewError(types.ErrBadRequest, err.Error()))
		return
	case err != nil:
		utils.Zlog.Warn("document summary failed",
			zap.String("request_id", middleware.GetRequestID(ctx)),
			zap.Error(err))
		ctx.JSON(http.StatusUnprocessableEntity, types.NewError(types.ErrUnprocessable, err.Error()))
		return
	}

	res.BaseResponse = types.Success(middleware.GetRequestID(ctx))
	ctx.JSON(http.StatusOK, res)
}
