package model

// 回复模式
const (
	ReplyModeAuto    = "AUTO"
	ReplyModeSuggest = "SUGGEST"
	ReplyModeManual  = "MANUAL"
)

// RuleLocationAll 规则作用于商家全部地点
const RuleLocationAll = "ALL"

// ReplyRule 自动回复规则，每个商家一条
type ReplyRule struct {
	BaseModel
	BusinessID string `gorm:"size:64;uniqueIndex;not null" json:"business_id"`
	LocationID string `gorm:"size:128;default:ALL" json:"location_id"`
	MinStars   int    `json:"min_stars"`
	MaxStars   int    `json:"max_stars"`
	Mode       string `gorm:"size:16;default:AUTO" json:"mode"`
	DailyLimit int    `json:"daily_limit"` // 0 表示当天不自动回复
	Enabled    bool   `json:"enabled"`
}

func (ReplyRule) TableName() string {
	return "reply_rules"
}

// DefaultReplyRule 授权/选点时补齐的默认规则
func DefaultReplyRule(businessID string) *ReplyRule {
	return &ReplyRule{
		BusinessID: businessID,
		LocationID: RuleLocationAll,
		MinStars:   4,
		MaxStars:   5,
		Mode:       ReplyModeAuto,
		DailyLimit: 20,
		Enabled:    true,
	}
}

// Matches 评分是否落在规则区间内
func (r *ReplyRule) Matches(rating int) bool {
	return rating >= r.MinStars && rating <= r.MaxStars
}

// IsAuto 规则是否允许自动回复
func (r *ReplyRule) IsAuto() bool {
	return r.Enabled && r.Mode == ReplyModeAuto
}

// ValidReplyMode 校验模式取值
func ValidReplyMode(mode string) bool {
	switch mode {
	case ReplyModeAuto, ReplyModeSuggest, ReplyModeManual:
		return true
	}
	return false
}
