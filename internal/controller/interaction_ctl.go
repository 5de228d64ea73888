package controller

import (
	"github.com/gin-gonic/gin"

	"gbp_review_sync/internal/api/dto"
	"gbp_review_sync/internal/service"
)

// InteractionController 评论落地页
type InteractionController struct {
	interactionSvc *service.InteractionService
}

// NewInteractionController 创建落地页控制器
func NewInteractionController(interactionSvc *service.InteractionService) *InteractionController {
	return &InteractionController{interactionSvc: interactionSvc}
}

// PublicBusiness 落地页商家信息
// @Summary 落地页商家信息，同时记录一次扫码
// @Tags Public
// @Param id path string true "商家 ID"
// @Success 200 {object} dto.PublicBusinessResp
// @Failure 404 {object} map[string]interface{} "商家不存在"
// @Router /api/public/businesses/{id} [get]
func (c *InteractionController) PublicBusiness(ctx *gin.Context) {
	business, err := c.interactionSvc.PublicBusiness(ctx.Request.Context(), ctx.Param("id"), ctx.Request.UserAgent())
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "success", dto.ToPublicBusinessResp(business))
}

// Track 上报动作
// @Summary 记录复制评论 / 跳转 Google
// @Tags Public
// @Accept json
// @Param id path string true "商家 ID"
// @Param request body dto.TrackReq true "动作"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{} "动作无效"
// @Router /api/public/businesses/{id}/track [post]
func (c *InteractionController) Track(ctx *gin.Context) {
	var req dto.TrackReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	err := c.interactionSvc.Track(ctx.Request.Context(), ctx.Param("id"), req.Action, req.ReviewContent, ctx.Request.UserAgent())
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "success", nil)
}

// Analytics 落地页统计
// @Summary 扫码 / 复制 / 跳转次数
// @Tags Business
// @Param id path string true "商家 ID"
// @Success 200 {object} service.InteractionStats
// @Router /api/businesses/{id}/analytics [get]
func (c *InteractionController) Analytics(ctx *gin.Context) {
	stats, err := c.interactionSvc.Analytics(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "success", stats)
}
