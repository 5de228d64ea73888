package model

import (
	"time"
)

// 顾客在评论落地页上的动作
const (
	InteractionScan           = "SCAN"
	InteractionCopyReview     = "COPY_REVIEW"
	InteractionRedirectGoogle = "REDIRECT_GOOGLE"
)

// InteractionLog 落地页访问/复制/跳转记录（只追加）
type InteractionLog struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	BusinessID    string    `gorm:"size:64;index:idx_interaction_business_action,priority:1" json:"business_id"`
	Action        string    `gorm:"size:32;index:idx_interaction_business_action,priority:2" json:"action"`
	ReviewContent string    `gorm:"type:text" json:"review_content,omitempty"`
	UserAgent     string    `gorm:"size:512" json:"user_agent"`
	Timestamp     time.Time `gorm:"index" json:"timestamp"`
}

func (InteractionLog) TableName() string {
	return "interaction_logs"
}

// TrackableInteraction 落地页可主动上报的动作，SCAN 由服务端记录
func TrackableInteraction(action string) bool {
	return action == InteractionCopyReview || action == InteractionRedirectGoogle
}
