package model

import (
	"time"
)

// 日志动作
const (
	ReplyActionAuto = "AUTO_REPLY"
)

// 日志状态
const (
	ReplyStatusSuccess = "SUCCESS"
	ReplyStatusFailed  = "FAILED"
	ReplyStatusSkipped = "SKIPPED"
)

// ReplyLog 自动回复审计日志（只追加）
// 每日配额由当天 SUCCESS 记录数推导
type ReplyLog struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	BusinessID string    `gorm:"size:64;index:idx_reply_log_quota,priority:1" json:"business_id"`
	ReviewID   string    `gorm:"size:255;index" json:"review_id"`
	Action     string    `gorm:"size:32;index:idx_reply_log_quota,priority:2" json:"action"`
	Status     string    `gorm:"size:16;index:idx_reply_log_quota,priority:3" json:"status"`
	Message    string    `gorm:"type:text" json:"message"`
	Timestamp  time.Time `gorm:"index:idx_reply_log_quota,priority:4" json:"timestamp"`
}

func (ReplyLog) TableName() string {
	return "reply_logs"
}
