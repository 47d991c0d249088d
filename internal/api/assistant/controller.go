package assistant

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Conversly/whatsapp-assistant/internal/core"
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

// ProcessMessage runs the message through the three stage pipeline.
// POST /process_message
func (c *Controller) ProcessMessage(ctx *gin.Context) {
	var req Request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Zlog.Warn("invalid /process_message payload", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, types.NewError(types.ErrBadRequest, err.Error()))
		return
	}

	result, err := c.svc.Process(ctx.Request.Context(), req.Message)
	if errors.Is(err, core.ErrEmptyMessage) {
		ctx.JSON(http.StatusBadRequest, types.NewError(types.ErrBadRequest, err.Error()))
		return
	}
	if err != nil {
		utils.Zlog.Error("pipeline execution failed",
			zap.String("request_id", middleware.GetRequestID(ctx)),
			zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, types.NewError(types.ErrInternal, "failed to process message"))
		return
	}

	ctx.JSON(http.StatusOK, ProcessResponse{
		BaseResponse:   types.Success(middleware.GetRequestID(ctx)),
		Response:       result.Response,
		Degraded:       result.Degraded,
		FallbackStages: result.State.Fallbacks,
	})
}

// Chat answers with a single prompt, skipping the pipeline.
// POST /chat
func (c *Controller) Chat(ctx *gin.Context) {
	var req Request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Zlog.Warn("invalid /chat payload", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, types.NewError(types.ErrBadRequest, err.Error()))
		return
	}

	res, err := c.svc.Chat(ctx.Request.Context(), req.Message)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, types.NewError(types.ErrBadRequest, err.Error()))
		return
	}

	ctx.JSON(http.StatusOK, ChatResponse{
		BaseResponse: types.Success(middleware.GetRequestID(ctx)),
		Response:     res.Text,
		Degraded:     res.FallbackUsed,
		Usage:        types.UsageFrom(res),
	})
}
