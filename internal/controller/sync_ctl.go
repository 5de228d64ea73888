package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gbp_review_sync/internal/task"
)

// SyncController 同步控制器
type SyncController struct {
	taskManager *task.TaskManager
}

// NewSyncController 创建同步控制器
func NewSyncController(taskManager *task.TaskManager) *SyncController {
	return &SyncController{taskManager: taskManager}
}

// ==================== Handler 实现 ====================

// CronSync 外部调度器触发全量同步
// @Summary 同步全部已授权商家
// @Description 同步执行，完成后返回汇总；需携带 cron 密钥
// @Tags Sync
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{} "密钥错误"
// @Failure 409 {object} map[string]interface{} "上一轮仍在执行"
// @Router /api/cron/sync [post]
func (c *SyncController) CronSync(ctx *gin.Context) {
	// 调用方断开不中止本轮，时长由 pass_timeout 约束
	report, err := c.taskManager.TriggerSyncAll(context.WithoutCancel(ctx.Request.Context()), task.TriggerCron)
	if err != nil {
		_ = ctx.Error(err)
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, task.ErrPassInProgress):
			status = http.StatusConflict
		case errors.Is(err, task.ErrTaskDisabled):
			status = http.StatusServiceUnavailable
		}
		ctx.JSON(status, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status": "Sync Completed",
		"report": report,
	})
}

// SyncBusiness 手动同步单个商家
// @Summary 手动同步单个商家
// @Tags Sync
// @Param id path string true "商家 ID"
// @Success 200 {object} service.SyncResult
// @Failure 401 {object} map[string]interface{} "需要重新授权"
// @Failure 429 {object} map[string]interface{} "限流中"
// @Router /api/businesses/{id}/sync [post]
func (c *SyncController) SyncBusiness(ctx *gin.Context) {
	result, err := c.taskManager.TriggerBusinessSync(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		handleError(ctx, err)
		return
	}
	success(ctx, "同步完成", result)
}

// Status 调度状态
// @Summary 查询调度状态
// @Tags Sync
// @Success 200 {object} map[string]interface{}
// @Router /api/cron/status [get]
func (c *SyncController) Status(ctx *gin.Context) {
	success(ctx, "success", c.taskManager.Status())
}
