package marketing

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

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

// GenerateMarketing
// POST /generate_marketing
func (c *Controller) GenerateMarketing(ctx *gin.Context) {
	var req Request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Zlog.Warn("invalid /generate_marketing payload", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, types.NewError(types.ErrBadRequest, err.Error()))
		return
	}

	res := c.svc.Generate(ctx.Request.Context(), &req)
	res.BaseResponse = types.Success(middleware.GetRequestID(ctx))

	utils.Zlog.Info("Marketing copy generated",
		zap.String("campaign_type", req.CampaignType),
		zap.Int("variations", len(res.ABVariations)),
		zap.Bool("degraded", res.Degraded))

	ctx.JSON(http.StatusOK, res)
}
