package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ==================== 同步限流中间件 ====================

// SyncRateLimit 按商家 + 同步类型限流
// 处理失败（状态码 >= 400）时释放冷却，业主可立即重试
//
// 使用示例:
//
//	router.POST("/api/businesses/:id/sync",
//	    middleware.SyncRateLimit(middleware.SyncTypeReview, 0),
//	    controller.SyncBusiness,
//	)
func SyncRateLimit(syncType SyncType, interval time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := interval
		if d == 0 {
			d = GetInterval(syncType)
		}

		key := BusinessSyncKey(c.Param("id"), syncType)

		result := GetLimiter().Check(key, d)
		if !result.Allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    http.StatusTooManyRequests,
				"message": formatRetryMessage(result.RetryAfter),
				"data": gin.H{
					"retry_after": retryAfterSeconds(result.RetryAfter),
					"sync_type":   syncType,
				},
			})
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			GetLimiter().Reset(key)
		}
	}
}

// ==================== 辅助函数 ====================

// retryAfterSeconds 向上取整，避免返回 0
func retryAfterSeconds(d time.Duration) int {
	s := int(d / time.Second)
	if d%time.Second > 0 {
		s++
	}
	return s
}

// formatRetryMessage 格式化重试提示信息
func formatRetryMessage(d time.Duration) string {
	seconds := retryAfterSeconds(d)

	if seconds < 60 {
		return fmt.Sprintf("同步冷却中，请 %d 秒后重试", seconds)
	}

	minutes := seconds / 60
	remainingSeconds := seconds % 60

	if remainingSeconds == 0 {
		return fmt.Sprintf("同步冷却中，请 %d 分钟后重试", minutes)
	}

	return fmt.Sprintf("同步冷却中，请 %d 分 %d 秒后重试", minutes, remainingSeconds)
}
