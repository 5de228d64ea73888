package controller

import (
	"github.com/gin-gonic/gin"

	"gbp_review_sync/internal/api/dto"
	"gbp_review_sync/internal/service"
)

// ReviewController 评论、回复规则与回复日志
type ReviewController struct {
	reviewSvc *service.ReviewService
	ruleSvc   *service.ReplyRuleService
}

// NewReviewController 创建评论控制器
func NewReviewController(reviewSvc *service.ReviewService, ruleSvc *service.ReplyRuleService) *ReviewController {
	return &ReviewController{reviewSvc: reviewSvc, ruleSvc: ruleSvc}
}

// ListReviews 已存评论
// @Summary 已同步评论，最新在前
// @Tags Review
// @Param id path string true "商家 ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} map[string]interface{}
// @Router /api/businesses/{id}/reviews [get]
func (c *ReviewController) ListReviews(ctx *gin.Context) {
	var req dto.PageReq
	if err := ctx.ShouldBindQuery(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	list, total, err := c.reviewSvc.ListReviews(ctx.Request.Context(), ctx.Param("id"), req.Page, req.PageSize)
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "success", gin.H{
		"list":      list,
		"total":     total,
		"page":      req.Page,
		"page_size": req.PageSize,
	})
}

// GetRule 回复规则
// @Summary 获取自动回复规则，未配置时 mode=MANUAL
// @Tags Review
// @Param id path string true "商家 ID"
// @Success 200 {object} dto.ReplyRuleResp
// @Router /api/businesses/{id}/reply-rule [get]
func (c *ReviewController) GetRule(ctx *gin.Context) {
	rule, err := c.ruleSvc.GetRule(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "success", dto.ToReplyRuleResp(rule))
}

// UpdateRule 更新回复规则
// @Summary 更新自动回复规则
// @Tags Review
// @Accept json
// @Param id path string true "商家 ID"
// @Param request body dto.ReplyRuleReq true "规则"
// @Success 200 {object} dto.ReplyRuleResp
// @Router /api/businesses/{id}/reply-rule [put]
func (c *ReviewController) UpdateRule(ctx *gin.Context) {
	var req dto.ReplyRuleReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	rule, err := c.ruleSvc.UpdateRule(ctx.Request.Context(), ctx.Param("id"), &req)
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "规则已更新", dto.ToReplyRuleResp(rule))
}

// ListLogs 回复日志
// @Summary 最近 50 条回复日志
// @Tags Review
// @Param id path string true "商家 ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/businesses/{id}/reply-logs [get]
func (c *ReviewController) ListLogs(ctx *gin.Context) {
	logs, err := c.ruleSvc.ListLogs(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "success", logs)
}

// RefreshStats 重算统计
// @Summary 基于已存评论重算商家统计
// @Tags Review
// @Param id path string true "商家 ID"
// @Success 200 {object} model.BusinessStats
// @Failure 400 {object} map[string]interface{} "未绑定地点"
// @Router /api/businesses/{id}/stats/refresh [post]
func (c *ReviewController) RefreshStats(ctx *gin.Context) {
	stats, err := c.reviewSvc.RefreshStats(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "统计已更新", stats)
}
