package model

import (
	"time"
)

// ==================== Business 商家 ====================

// Business 接入 Google 评论同步的商家
// ID 为对外暴露的字符串标识（如 "demo-biz"），由注册方指定
type Business struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name     string `gorm:"size:255" json:"name"`
	Category string `gorm:"size:128" json:"category"`
	Location string `gorm:"size:255" json:"location"` // 门店编码 / 地址摘要
	IsActive bool   `gorm:"default:true;index" json:"is_active"`

	// --- Google 绑定信息 ---
	Connected          bool   `gorm:"default:false" json:"connected"`
	PlaceID            string `gorm:"size:128" json:"place_id"`
	ReviewURL          string `gorm:"size:512" json:"review_url"`
	GoogleLocationID   string `gorm:"size:128;index" json:"google_location_id"` // locations/{id}
	GoogleLocationName string `gorm:"size:255" json:"google_location_name"`

	// --- 评论统计 ---
	Stats BusinessStats `gorm:"embedded;embeddedPrefix:stats_" json:"stats"`

	Connection *GoogleConnection `gorm:"foreignKey:BusinessID;references:ID" json:"connection,omitempty"`
}

func (Business) TableName() string {
	return "businesses"
}

// BusinessStats 评论聚合统计，每次同步后整体重算
type BusinessStats struct {
	TotalReviews  int64      `json:"total_reviews"`
	AverageRating float64    `json:"average_rating"`
	LastUpdated   *time.Time `json:"last_updated"`
}

// HasLocation 是否已选择 GBP 地点
func (b *Business) HasLocation() bool {
	return b.GoogleLocationID != ""
}

// ReviewURLForPlace 生成 Google 写评论链接
func ReviewURLForPlace(placeID string) string {
	if placeID == "" {
		return ""
	}
	return "https://search.google.com/local/writereview?placeid=" + placeID
}
