package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gbp_review_sync/internal/service"
	"gbp_review_sync/internal/task"
	"gbp_review_sync/pkg/google"
)

// ==================== 统一响应 ====================

func success(ctx *gin.Context, message string, data interface{}) {
	ctx.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": message,
		"data":    data,
	})
}

func fail(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, gin.H{
		"code":    status,
		"message": message,
	})
}

func badRequest(ctx *gin.Context, err error) {
	fail(ctx, http.StatusBadRequest, "参数错误: "+err.Error())
}

// handleError 业务错误 -> HTTP 状态码
func handleError(ctx *gin.Context, err error) {
	_ = ctx.Error(err)

	switch {
	case errors.Is(err, service.ErrBusinessNotFound),
		errors.Is(err, service.ErrNoAccounts),
		errors.Is(err, service.ErrLocationNotFound):
		fail(ctx, http.StatusNotFound, err.Error())

	case errors.Is(err, service.ErrBusinessExists),
		errors.Is(err, task.ErrPassInProgress):
		fail(ctx, http.StatusConflict, err.Error())

	case errors.Is(err, service.ErrBusinessInactive):
		fail(ctx, http.StatusForbidden, err.Error())

	case errors.Is(err, service.ErrNotConnected),
		errors.Is(err, service.ErrNoLocationSelected),
		errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrNoRefreshToken),
		errors.Is(err, service.ErrInvalidRule),
		errors.Is(err, service.ErrInvalidAction):
		fail(ctx, http.StatusBadRequest, err.Error())

	case errors.Is(err, service.ErrCredentialInvalid):
		// 业主需要重新授权
		ctx.JSON(http.StatusUnauthorized, gin.H{
			"code":    http.StatusUnauthorized,
			"message": err.Error(),
			"data":    gin.H{"needs_reauth": true},
		})

	case errors.Is(err, service.ErrOAuthNotConfigured),
		errors.Is(err, task.ErrTaskDisabled):
		fail(ctx, http.StatusServiceUnavailable, err.Error())

	case isUpstreamError(err):
		fail(ctx, http.StatusBadGateway, err.Error())

	default:
		fail(ctx, http.StatusInternalServerError, err.Error())
	}
}

func isUpstreamError(err error) bool {
	var apiErr *google.APIError
	return errors.As(err, &apiErr) ||
		errors.Is(err, google.ErrPermissionDenied) ||
		errors.Is(err, google.ErrNotFound)
}
