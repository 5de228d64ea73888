package model

import (
	"time"
)

// Token 状态
const (
	TokenStatusValid   = "valid"
	TokenStatusInvalid = "auth_invalid" // refresh token 被撤销/过期，需要重新授权
)

// GoogleConnection 商家的 Google 账号授权
// 每个商家最多一条，每次 OAuth 授权时覆盖
type GoogleConnection struct {
	BaseModel
	BusinessID      string     `gorm:"size:64;uniqueIndex;not null" json:"business_id"`
	RefreshToken    string     `gorm:"type:text" json:"-"`
	GoogleAccountID string     `gorm:"size:128" json:"google_account_id"` // accounts/{id}，发现流程会修正
	AccountName     string     `gorm:"size:255" json:"account_name"`
	TokenStatus     string     `gorm:"size:32;default:valid" json:"token_status"`
	LastError       string     `gorm:"size:1024" json:"last_error,omitempty"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at"`
}

func (GoogleConnection) TableName() string {
	return "google_connections"
}

// NeedsReauth 是否需要业主重新授权
func (c *GoogleConnection) NeedsReauth() bool {
	return c.TokenStatus == TokenStatusInvalid
}
