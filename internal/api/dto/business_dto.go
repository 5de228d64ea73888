package dto

import (
	"time"

	"gbp_review_sync/internal/model"
	"gbp_review_sync/pkg/google"
)

// ================== Business DTO ==================

// RegisterBusinessReq 注册商家
type RegisterBusinessReq struct {
	ID       string `json:"id" binding:"required,max=64,excludesall=/ "`
	Name     string `json:"name" binding:"required,max=255"`
	Category string `json:"category" binding:"max=128"`
	Location string `json:"location" binding:"max=255"`
}

// BusinessStatusReq 启用/停用
type BusinessStatusReq struct {
	Active *bool `json:"active" binding:"required"`
}

// BusinessResp 商家详情
type BusinessResp struct {
	ID                 string              `json:"id"`
	Name               string              `json:"name"`
	Category           string              `json:"category"`
	Location           string              `json:"location"`
	IsActive           bool                `json:"is_active"`
	Connected          bool                `json:"connected"`
	PlaceID            string              `json:"place_id"`
	ReviewURL          string              `json:"review_url"`
	GoogleLocationID   string              `json:"google_location_id"`
	GoogleLocationName string              `json:"google_location_name"`
	Stats              model.BusinessStats `json:"stats"`

	// 授权信息
	GoogleConnected bool       `json:"google_connected"`
	GoogleAccountID string     `json:"google_account_id,omitempty"`
	TokenStatus     string     `json:"token_status,omitempty"`
	NeedsReauth     bool       `json:"needs_reauth"`
	LastAuthError   string     `json:"last_auth_error,omitempty"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToBusinessResp 转换响应，不包含 refresh token
func ToBusinessResp(b *model.Business) BusinessResp {
	resp := BusinessResp{
		ID:                 b.ID,
		Name:               b.Name,
		Category:           b.Category,
		Location:           b.Location,
		IsActive:           b.IsActive,
		Connected:          b.Connected,
		PlaceID:            b.PlaceID,
		ReviewURL:          b.ReviewURL,
		GoogleLocationID:   b.GoogleLocationID,
		GoogleLocationName: b.GoogleLocationName,
		Stats:              b.Stats,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
	if c := b.Connection; c != nil && c.RefreshToken != "" {
		resp.GoogleConnected = true
		resp.GoogleAccountID = c.GoogleAccountID
		resp.TokenStatus = c.TokenStatus
		resp.NeedsReauth = c.NeedsReauth()
		resp.LastAuthError = c.LastError
		resp.LastRefreshedAt = c.LastRefreshedAt
	}
	return resp
}

// ================== Landing Page DTO ==================

// PublicBusinessResp 落地页公开信息
type PublicBusinessResp struct {
	Name      string `json:"name"`
	Category  string `json:"category"`
	Location  string `json:"location"`
	PlaceID   string `json:"place_id"`
	ReviewURL string `json:"review_url"`
}

// ToPublicBusinessResp 只暴露落地页需要的字段
func ToPublicBusinessResp(b *model.Business) PublicBusinessResp {
	return PublicBusinessResp{
		Name:      b.Name,
		Category:  b.Category,
		Location:  b.Location,
		PlaceID:   b.PlaceID,
		ReviewURL: b.ReviewURL,
	}
}

// TrackReq 落地页动作上报
type TrackReq struct {
	Action        string `json:"action" binding:"required,oneof=COPY_REVIEW REDIRECT_GOOGLE"`
	ReviewContent string `json:"review_content" binding:"max=5000"`
}

// ================== GBP Location DTO ==================

// SelectLocationReq 选择地点
type SelectLocationReq struct {
	LocationName string `json:"location_name" binding:"required,startswith=locations/"`
}

// LocationItem 可选地点
type LocationItem struct {
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	AccountName string   `json:"account_name"`
	StoreCode   string   `json:"store_code"`
	PlaceID     string   `json:"place_id"`
	Address     string   `json:"address"`
	Categories  []string `json:"categories"`
}

// LocationListResp 地点列表
type LocationListResp struct {
	Locations      []LocationItem `json:"locations"`
	FailedAccounts []string       `json:"failed_accounts,omitempty"`
}

// ToLocationItem 远端地点 -> 列表项
func ToLocationItem(l *google.Location) LocationItem {
	return LocationItem{
		Name:        l.Name,
		Title:       l.Title,
		AccountName: l.AccountName,
		StoreCode:   l.StoreCode,
		PlaceID:     l.Metadata.PlaceID,
		Address:     l.FormattedAddress(),
		Categories:  l.CategoryNames(),
	}
}

// ================== Review / Rule DTO ==================

// PageReq 分页
type PageReq struct {
	Page     int `form:"page,default=1" binding:"min=1"`
	PageSize int `form:"page_size,default=20" binding:"min=1,max=100"`
}

// ReplyRuleReq 更新回复规则
type ReplyRuleReq struct {
	MinStars   int    `json:"min_stars" binding:"min=1,max=5"`
	MaxStars   int    `json:"max_stars" binding:"min=1,max=5,gtefield=MinStars"`
	Mode       string `json:"mode" binding:"required,oneof=AUTO SUGGEST MANUAL"`
	DailyLimit int    `json:"daily_limit" binding:"min=0,max=1000"`
	Enabled    *bool  `json:"enabled" binding:"required"`
}

// ReplyRuleResp 回复规则；未配置时只返回 mode=MANUAL
type ReplyRuleResp struct {
	Configured bool   `json:"configured"`
	LocationID string `json:"location_id,omitempty"`
	MinStars   int    `json:"min_stars,omitempty"`
	MaxStars   int    `json:"max_stars,omitempty"`
	Mode       string `json:"mode"`
	DailyLimit int    `json:"daily_limit"`
	Enabled    bool   `json:"enabled"`
}

// ToReplyRuleResp 规则 -> 响应
func ToReplyRuleResp(r *model.ReplyRule) ReplyRuleResp {
	if r == nil {
		return ReplyRuleResp{Mode: model.ReplyModeManual}
	}
	return ReplyRuleResp{
		Configured: true,
		LocationID: r.LocationID,
		MinStars:   r.MinStars,
		MaxStars:   r.MaxStars,
		Mode:       r.Mode,
		DailyLimit: r.DailyLimit,
		Enabled:    r.Enabled,
	}
}
