package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gbp_review_sync/internal/service"
)

// OAuthController Google 授权回调
type OAuthController struct {
	authSvc *service.AuthService
}

// NewOAuthController 创建授权控制器
func NewOAuthController(s *service.AuthService) *OAuthController {
	return &OAuthController{authSvc: s}
}

// Callback
// @Summary Google 授权回调
// @Description 接收 code 和 state，换取 refresh token 并保存；首次授权补齐默认回复规则
// @Tags OAuth
// @Produce json
// @Param code query string true "授权码"
// @Param state query string true "安全校验码"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{} "拒绝授权/参数错误"
// @Router /api/oauth/google/callback [get]
func (ctrl *OAuthController) Callback(c *gin.Context) {
	if errParam := c.Query("error"); errParam != "" {
		fail(c, http.StatusBadRequest, "用户拒绝了授权: "+errParam)
		return
	}

	code, state := c.Query("code"), c.Query("state")
	if code == "" || state == "" {
		fail(c, http.StatusBadRequest, "缺少必要参数 code 或 state")
		return
	}

	conn, err := ctrl.authSvc.HandleCallback(c.Request.Context(), code, state)
	if err != nil {
		handleError(c, err)
		return
	}

	success(c, "Google 授权成功", gin.H{
		"business_id":  conn.BusinessID,
		"token_status": conn.TokenStatus,
	})
}
