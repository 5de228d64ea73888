package middleware

import (
	"fmt"
	"sync"
	"time"
)

// ==================== SyncRateLimiter 同步限流器 ====================

// SyncRateLimiter 手动同步限流器
// 防止业主频繁点击同步触发 Google 配额限制
type SyncRateLimiter struct {
	locks sync.Map // key -> *lockEntry
	now   func() time.Time
}

// lockEntry 锁条目
type lockEntry struct {
	lastTime time.Time
	mu       sync.Mutex
}

// NewSyncRateLimiter 创建限流器
func NewSyncRateLimiter() *SyncRateLimiter {
	return &SyncRateLimiter{now: time.Now}
}

// 全局限流器实例
var globalLimiter = NewSyncRateLimiter()

// GetLimiter 获取全局限流器
func GetLimiter() *SyncRateLimiter {
	return globalLimiter
}

// ==================== 限流检查 ====================

// CheckResult 检查结果
type CheckResult struct {
	Allowed    bool          // 是否允许
	RetryAfter time.Duration // 剩余冷却时间
}

// Check 检查并占用
// key: 限流键，如 "business:cafe-42:review"
func (r *SyncRateLimiter) Check(key string, interval time.Duration) CheckResult {
	actual, _ := r.locks.LoadOrStore(key, &lockEntry{})
	entry := actual.(*lockEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := r.now()
	if elapsed := now.Sub(entry.lastTime); elapsed < interval {
		return CheckResult{RetryAfter: interval - elapsed}
	}

	entry.lastTime = now
	return CheckResult{Allowed: true}
}

// Reset 重置指定 key，同步失败时释放冷却
func (r *SyncRateLimiter) Reset(key string) {
	r.locks.Delete(key)
}

// ==================== Key 生成工具 ====================

// SyncType 同步类型
type SyncType string

const SyncTypeReview SyncType = "review"

// BusinessSyncKey 商家级同步 Key
func BusinessSyncKey(businessID string, syncType SyncType) string {
	return fmt.Sprintf("business:%s:%s", businessID, syncType)
}

// ==================== 默认限流间隔 ====================

var (
	intervalsMu sync.RWMutex
	intervals   = map[SyncType]time.Duration{
		SyncTypeReview: time.Minute,
	}
)

// SetInterval 按配置覆盖默认间隔
func SetInterval(syncType SyncType, d time.Duration) {
	intervalsMu.Lock()
	defer intervalsMu.Unlock()
	intervals[syncType] = d
}

// GetInterval 获取同步类型的间隔
func GetInterval(syncType SyncType) time.Duration {
	intervalsMu.RLock()
	defer intervalsMu.RUnlock()
	if interval, ok := intervals[syncType]; ok {
		return interval
	}
	return time.Minute
}
