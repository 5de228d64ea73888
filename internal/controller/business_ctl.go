package controller

import (
	"github.com/gin-gonic/gin"

	"gbp_review_sync/internal/api/dto"
	"gbp_review_sync/internal/service"
)

// BusinessController 商家与 GBP 绑定
type BusinessController struct {
	businessSvc *service.BusinessService
	authSvc     *service.AuthService
}

// NewBusinessController 创建商家控制器
func NewBusinessController(businessSvc *service.BusinessService, authSvc *service.AuthService) *BusinessController {
	return &BusinessController{businessSvc: businessSvc, authSvc: authSvc}
}

// Register 注册商家
// @Summary 注册商家
// @Tags Business
// @Accept json
// @Produce json
// @Param request body dto.RegisterBusinessReq true "商家信息"
// @Success 200 {object} dto.BusinessResp
// @Failure 409 {object} map[string]interface{} "ID 已存在"
// @Router /api/businesses [post]
func (c *BusinessController) Register(ctx *gin.Context) {
	var req dto.RegisterBusinessReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	business, err := c.businessSvc.Register(ctx.Request.Context(), &req)
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "注册成功", dto.ToBusinessResp(business))
}

// Get 商家详情
// @Summary 商家详情（含统计与授权状态）
// @Tags Business
// @Param id path string true "商家 ID"
// @Success 200 {object} dto.BusinessResp
// @Failure 404 {object} map[string]interface{}
// @Router /api/businesses/{id} [get]
func (c *BusinessController) Get(ctx *gin.Context) {
	business, err := c.businessSvc.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "success", dto.ToBusinessResp(business))
}

// OAuthURL 获取 Google 授权链接
// @Summary 获取 Google 授权链接
// @Description state 10 分钟内有效；前端打开链接完成授权后回调 /api/oauth/google/callback
// @Tags Business
// @Param id path string true "商家 ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/businesses/{id}/oauth/url [get]
func (c *BusinessController) OAuthURL(ctx *gin.Context) {
	url, err := c.authSvc.GenerateAuthURL(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "获取成功", gin.H{"auth_url": url})
}

// ListLocations 列出可选地点
// @Summary 列出业主全部 GBP 账号下的地点
// @Tags Business
// @Param id path string true "商家 ID"
// @Success 200 {object} dto.LocationListResp
// @Failure 401 {object} map[string]interface{} "需要重新授权"
// @Router /api/businesses/{id}/gbp/locations [get]
func (c *BusinessController) ListLocations(ctx *gin.Context) {
	resp, err := c.businessSvc.ListLocations(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "success", resp)
}

// SelectLocation 绑定地点
// @Summary 绑定 GBP 地点
// @Tags Business
// @Accept json
// @Param id path string true "商家 ID"
// @Param request body dto.SelectLocationReq true "locations/{id}"
// @Success 200 {object} dto.BusinessResp
// @Failure 404 {object} map[string]interface{} "地点不存在"
// @Router /api/businesses/{id}/gbp/location [post]
func (c *BusinessController) SelectLocation(ctx *gin.Context) {
	var req dto.SelectLocationReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	business, err := c.businessSvc.SelectLocation(ctx.Request.Context(), ctx.Param("id"), req.LocationName)
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "地点已绑定", dto.ToBusinessResp(business))
}

// SetStatus 启用/停用商家
// @Summary 启用/停用商家（管理员）
// @Tags Admin
// @Accept json
// @Param id path string true "商家 ID"
// @Param request body dto.BusinessStatusReq true "状态"
// @Success 200 {object} map[string]interface{}
// @Router /api/admin/businesses/{id}/status [patch]
func (c *BusinessController) SetStatus(ctx *gin.Context) {
	var req dto.BusinessStatusReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	id := ctx.Param("id")
	if err := c.businessSvc.SetActive(ctx.Request.Context(), id, *req.Active); err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "状态已更新", gin.H{"id": id, "is_active": *req.Active})
}
