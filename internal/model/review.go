package model

import (
	"time"
)

// DefaultReviewerName 评论者匿名时的显示名
const DefaultReviewerName = "Anonymous"

// Review Google 评论
// 以 ReviewID 去重，只做 upsert，不删除
type Review struct {
	BaseModel
	ReviewID     string     `gorm:"size:255;uniqueIndex;not null" json:"review_id"`
	LocationID   string     `gorm:"size:128;index" json:"location_id"` // locations/{id}
	ReviewerName string     `gorm:"size:255" json:"reviewer_name"`
	StarRating   int        `gorm:"default:0" json:"star_rating"` // 0..5，0 表示未知
	Comment      string     `gorm:"type:text" json:"comment"`
	CreateTime   *time.Time `json:"create_time"`
	UpdateTime   *time.Time `json:"update_time"`

	// --- 回复状态 ---
	HasReply     bool       `gorm:"default:false;index" json:"has_reply"`
	ReplyComment string     `gorm:"type:text" json:"reply_comment"`
	RepliedAt    *time.Time `json:"replied_at"`
}

func (Review) TableName() string {
	return "reviews"
}
