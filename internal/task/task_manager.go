package task

import (
	"context"
	"time"

	"go.uber.org/zap"

	"gbp_review_sync/internal/service"
)

// ==================== TaskManager 同步任务管理器 ====================

// TaskManager 统一管理评论同步任务
// 定时调度可关闭，手动触发（cron 端点、业主同步）始终可用
type TaskManager struct {
	reviewTask *ReviewSyncTask
	cfg        TaskManagerConfig
	log        *zap.Logger
}

// TaskManagerConfig 任务管理器配置
type TaskManagerConfig struct {
	Enabled      bool
	Spec         string
	RunOnStart   bool
	InitialDelay time.Duration
	PassTimeout  time.Duration
}

// DefaultConfig 默认配置：每 6 小时一轮
func DefaultConfig() TaskManagerConfig {
	return TaskManagerConfig{
		Enabled:      true,
		Spec:         "0 0 */6 * * *",
		RunOnStart:   true,
		InitialDelay: 30 * time.Second,
		PassTimeout:  30 * time.Minute,
	}
}

// NewTaskManager 创建任务管理器
func NewTaskManager(syncer BusinessSyncer, cfg TaskManagerConfig, log *zap.Logger) *TaskManager {
	if cfg.Spec == "" {
		cfg.Spec = DefaultConfig().Spec
	}
	tm := &TaskManager{cfg: cfg, log: log.Named("task_manager")}
	if syncer != nil {
		tm.reviewTask = NewReviewSyncTask(syncer, cfg.Spec, cfg.PassTimeout, log)
	}
	return tm
}

// ==================== 生命周期管理 ====================

// Start 启动定时调度
func (tm *TaskManager) Start() error {
	if tm.reviewTask == nil || !tm.cfg.Enabled {
		tm.log.Info("定时同步未启用")
		return nil
	}
	return tm.reviewTask.Start(tm.cfg.RunOnStart, tm.cfg.InitialDelay)
}

// Stop 停止调度
func (tm *TaskManager) Stop() {
	if tm.reviewTask == nil || !tm.cfg.Enabled {
		return
	}
	tm.reviewTask.Stop()
}

// ==================== 手动触发接口 ====================

// TriggerSyncAll 同步执行一轮，返回汇总
func (tm *TaskManager) TriggerSyncAll(ctx context.Context, trigger string) (*SyncReport, error) {
	if tm.reviewTask == nil {
		return nil, ErrTaskDisabled
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, tm.reviewTask.passTimeout)
		defer cancel()
	}
	return tm.reviewTask.RunPass(ctx, trigger)
}

// TriggerBusinessSync 立即同步单个商家
func (tm *TaskManager) TriggerBusinessSync(ctx context.Context, businessID string) (*service.SyncResult, error) {
	if tm.reviewTask == nil {
		return nil, ErrTaskDisabled
	}
	return tm.reviewTask.syncOne(ctx, businessID)
}

// ==================== 状态查询 ====================

// Status 获取任务状态
func (tm *TaskManager) Status() map[string]interface{} {
	return map[string]interface{}{
		"review_sync": tm.reviewTask != nil,
		"scheduled":   tm.reviewTask != nil && tm.cfg.Enabled,
		"spec":        tm.cfg.Spec,
	}
}

// ==================== 错误定义 ====================

type TaskError string

func (e TaskError) Error() string { return string(e) }

const (
	ErrTaskDisabled   TaskError = "task is disabled"
	ErrPassInProgress TaskError = "sync pass already in progress"
)
