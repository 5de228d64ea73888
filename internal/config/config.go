package config

import (
	"errors"
	"time"
)

// ErrConfiguration 配置错误
var ErrConfiguration = errors.New("configuration error")

// Config 应用配置
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	Google    GoogleConfig    `mapstructure:"google"`
	AutoReply AutoReplyConfig `mapstructure:"autoreply"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Cron      CronConfig      `mapstructure:"cron"`
	Sync      SyncConfig      `mapstructure:"sync"`
}

// ServerConfig HTTP 服务
type ServerConfig struct {
	Port            string        `mapstructure:"port" validate:"required,numeric"`
	Mode            string        `mapstructure:"mode" validate:"oneof=debug release test"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=1s"`
}

// DatabaseConfig 数据库
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver" validate:"oneof=postgres sqlite"`
	DSN             string        `mapstructure:"dsn" validate:"required"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"min=1"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level" validate:"oneof=silent error warn info"`
}

// LogConfig 日志
type LogConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	File       string `mapstructure:"file"`
	JSON       bool   `mapstructure:"json"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// GoogleConfig OAuth 客户端与 GBP API 地址
type GoogleConfig struct {
	ClientID       string        `mapstructure:"client_id"`
	ClientSecret   string        `mapstructure:"client_secret"`
	RedirectURL    string        `mapstructure:"redirect_url"`
	AuthURL        string        `mapstructure:"auth_url" validate:"required,url"`
	TokenURL       string        `mapstructure:"token_url" validate:"required,url"`
	AccountsBase   string        `mapstructure:"accounts_base_url" validate:"required,url"`
	InfoBase       string        `mapstructure:"info_base_url" validate:"required,url"`
	ReviewsBase    string        `mapstructure:"reviews_base_url" validate:"required,url"`
	Timeout        time.Duration `mapstructure:"timeout" validate:"min=1s,max=5m"`
	LocationPage   int           `mapstructure:"location_page_size" validate:"min=1,max=100"`
	ReviewPage     int           `mapstructure:"review_page_size" validate:"min=1,max=50"`
	MaxReviewPages int           `mapstructure:"max_review_pages" validate:"min=1"`
	Concurrency    int           `mapstructure:"discovery_concurrency" validate:"min=1,max=32"`
}

// AutoReplyConfig 自动回复
type AutoReplyConfig struct {
	Timezone  string        `mapstructure:"timezone" validate:"required"`
	PostDelay time.Duration `mapstructure:"post_delay" validate:"min=0"`
	DraftOnly bool          `mapstructure:"draft_only"`
}

// SchedulerConfig 定时同步
type SchedulerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Spec         string        `mapstructure:"spec" validate:"required"`
	RunOnStart   bool          `mapstructure:"run_on_start"`
	InitialDelay time.Duration `mapstructure:"initial_delay" validate:"min=0"`
	PassTimeout  time.Duration `mapstructure:"pass_timeout" validate:"min=1s"`
}

// AuthConfig 业主鉴权
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// CronConfig 外部触发
type CronConfig struct {
	Secret string `mapstructure:"secret"`
}

// SyncConfig 手动同步
type SyncConfig struct {
	ManualCooldown time.Duration `mapstructure:"manual_cooldown" validate:"min=0"`
}

// Location 解析自动回复所用时区
func (c AutoReplyConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// OAuthEnabled 是否配置了 Google OAuth 客户端
func (c GoogleConfig) OAuthEnabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}
