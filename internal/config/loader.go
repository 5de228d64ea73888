package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，如 GBP_GOOGLE_CLIENT_ID
const EnvPrefix = "GBP"

// Load 加载配置
// 优先级：环境变量 > config.yaml > 默认值
// configPath 为空时在当前目录查找 config.yaml（允许不存在）
func Load(configPath string) (*Config, error) {
	// .env 仅用于本地开发
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: failed to load .env: %v", ErrConfiguration, err)
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: failed to read config file: %v", ErrConfiguration, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return cfg, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if _, err := c.AutoReply.Location(); err != nil {
		return fmt.Errorf("autoreply.timezone: %v", err)
	}
	return nil
}

// setDefaults 默认值
// 所有键都需要注册默认值，AutomaticEnv 才能在 Unmarshal 时覆盖
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "host=localhost user=postgres password=postgres dbname=gbp_review_sync port=5432 sslmode=disable TimeZone=UTC")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "logs/app.log")
	v.SetDefault("log.json", false)
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)

	v.SetDefault("google.client_id", "")
	v.SetDefault("google.client_secret", "")
	v.SetDefault("google.redirect_url", "http://localhost:8080/api/oauth/google/callback")
	v.SetDefault("google.auth_url", "https://accounts.google.com/o/oauth2/auth")
	v.SetDefault("google.token_url", "https://oauth2.googleapis.com/token")
	v.SetDefault("google.accounts_base_url", "https://mybusinessaccountmanagement.googleapis.com")
	v.SetDefault("google.info_base_url", "https://mybusinessbusinessinformation.googleapis.com")
	v.SetDefault("google.reviews_base_url", "https://mybusiness.googleapis.com")
	v.SetDefault("google.timeout", 20*time.Second)
	v.SetDefault("google.location_page_size", 100)
	v.SetDefault("google.review_page_size", 50)
	v.SetDefault("google.max_review_pages", 10)
	v.SetDefault("google.discovery_concurrency", 4)

	v.SetDefault("autoreply.timezone", "Local")
	v.SetDefault("autoreply.post_delay", 2*time.Second)
	v.SetDefault("autoreply.draft_only", false)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.spec", "0 0 */6 * * *")
	v.SetDefault("scheduler.run_on_start", true)
	v.SetDefault("scheduler.initial_delay", 30*time.Second)
	v.SetDefault("scheduler.pass_timeout", 30*time.Minute)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "gbp-review-sync")

	v.SetDefault("cron.secret", "")

	v.SetDefault("sync.manual_cooldown", time.Minute)
}
