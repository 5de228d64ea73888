package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"gbp_review_sync/internal/model"
	"gbp_review_sync/internal/monitoring"
	"gbp_review_sync/internal/service"
)

// 触发来源
const (
	TriggerSchedule = "schedule"
	TriggerStartup  = "startup"
	TriggerCron     = "cron_endpoint"
	TriggerManual   = "manual"
)

// BusinessSyncer 单商家同步能力，*service.SyncService 实现
type BusinessSyncer interface {
	ListSyncable(ctx context.Context) ([]model.Business, error)
	SyncBusiness(ctx context.Context, businessID string) (*service.SyncResult, error)
}

// ==================== ReviewSyncTask 评论同步任务 ====================

// ReviewSyncTask 定时遍历全部可同步商家
// 商家逐个处理，单个失败不影响后续商家
type ReviewSyncTask struct {
	syncer      BusinessSyncer
	cron        *cron.Cron
	spec        string
	passTimeout time.Duration
	log         *zap.Logger

	// 同一时刻只跑一轮
	passMu sync.Mutex
}

// NewReviewSyncTask 创建评论同步任务
func NewReviewSyncTask(syncer BusinessSyncer, spec string, passTimeout time.Duration, log *zap.Logger) *ReviewSyncTask {
	if passTimeout <= 0 {
		passTimeout = 30 * time.Minute
	}
	log = log.Named("review_task")
	cl := cronLogger{log.Sugar()}
	return &ReviewSyncTask{
		syncer:      syncer,
		spec:        spec,
		passTimeout: passTimeout,
		log:         log,
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}
}

// SyncReport 一轮同步汇总
type SyncReport struct {
	RunID      string          `json:"run_id"`
	Trigger    string          `json:"trigger"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Total      int             `json:"total"`
	Succeeded  int             `json:"succeeded"`
	Failed     int             `json:"failed"`
	Reviews    int             `json:"reviews"`
	Replies    int             `json:"replies"`
	Errors     []BusinessError `json:"errors,omitempty"`
}

// BusinessError 单商家失败原因
type BusinessError struct {
	BusinessID string `json:"business_id"`
	Error      string `json:"error"`
}

// Start 注册定时任务；runOnStart 时延迟 initialDelay 后先跑一轮
func (t *ReviewSyncTask) Start(runOnStart bool, initialDelay time.Duration) error {
	if runOnStart {
		go func() {
			time.Sleep(initialDelay)
			t.log.Info("执行首次评论同步")
			t.runScheduled(TriggerStartup)
		}()
	}

	if _, err := t.cron.AddFunc(t.spec, func() { t.runScheduled(TriggerSchedule) }); err != nil {
		return fmt.Errorf("注册定时任务失败: %w", err)
	}
	t.cron.Start()
	t.log.Info("评论同步任务已启动", zap.String("spec", t.spec))
	return nil
}

// Stop 停止调度并等待正在执行的任务结束
func (t *ReviewSyncTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	t.log.Info("评论同步任务已停止")
}

func (t *ReviewSyncTask) runScheduled(trigger string) {
	ctx, cancel := context.WithTimeout(context.Background(), t.passTimeout)
	defer cancel()

	if _, err := t.RunPass(ctx, trigger); errors.Is(err, ErrPassInProgress) {
		t.log.Info("上一轮同步尚未结束，跳过本轮", zap.String("trigger", trigger))
	}
}

// RunPass 同步一轮；已有一轮在跑时返回 ErrPassInProgress
func (t *ReviewSyncTask) RunPass(ctx context.Context, trigger string) (*SyncReport, error) {
	if !t.passMu.TryLock() {
		return nil, ErrPassInProgress
	}
	defer t.passMu.Unlock()

	report := &SyncReport{
		RunID:     uuid.NewString(),
		Trigger:   trigger,
		StartedAt: time.Now().UTC(),
	}
	log := t.log.With(zap.String("run_id", report.RunID), zap.String("trigger", trigger))
	monitoring.SyncPassesTotal.WithLabelValues(trigger).Inc()
	defer func() {
		report.FinishedAt = time.Now().UTC()
		monitoring.SyncPassDuration.WithLabelValues(trigger).Observe(report.FinishedAt.Sub(report.StartedAt).Seconds())
	}()

	businesses, err := t.syncer.ListSyncable(ctx)
	if err != nil {
		log.Error("获取商家列表失败", zap.Error(err))
		return report, fmt.Errorf("获取商家列表失败: %w", err)
	}
	report.Total = len(businesses)
	log.Info("开始同步评论", zap.Int("businesses", report.Total))

	for i := range businesses {
		if ctx.Err() != nil {
			log.Warn("同步超时停止", zap.Int("remaining", report.Total-i))
			break
		}
		id := businesses[i].ID

		res, err := t.syncOne(ctx, id)
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, BusinessError{BusinessID: id, Error: err.Error()})
			monitoring.BusinessSyncTotal.WithLabelValues(resultLabel(err)).Inc()
			log.Warn("商家同步失败", zap.String("business_id", id), zap.Error(err))
			continue
		}
		report.Succeeded++
		report.Reviews += res.Fetched
		report.Replies += res.Replied
		monitoring.BusinessSyncTotal.WithLabelValues("success").Inc()
	}

	log.Info("评论同步完成",
		zap.Int("total", report.Total),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("reviews", report.Reviews),
		zap.Int("replies", report.Replies),
	)
	return report, nil
}

// syncOne 单商家 panic 转为错误
func (t *ReviewSyncTask) syncOne(ctx context.Context, businessID string) (res *service.SyncResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return t.syncer.SyncBusiness(ctx, businessID)
}

func resultLabel(err error) string {
	if errors.Is(err, service.ErrCredentialInvalid) {
		return "auth_invalid"
	}
	return "failed"
}

// cronLogger 把 cron 内部日志接到 zap
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
