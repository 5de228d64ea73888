package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gbp_review_sync/internal/config"
	"gbp_review_sync/internal/controller"
	"gbp_review_sync/internal/middleware"
	"gbp_review_sync/internal/model"
	"gbp_review_sync/internal/monitoring"
	"gbp_review_sync/internal/repository"
	"gbp_review_sync/internal/router"
	"gbp_review_sync/internal/service"
	"gbp_review_sync/internal/task"
	"gbp_review_sync/pkg/database"
	"gbp_review_sync/pkg/google"
	"gbp_review_sync/pkg/logger"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load(getEnv("GBP_CONFIG", "config.yaml"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	log := logger.New(logger.Options{
		Level:      cfg.Log.Level,
		FilePath:   cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		JSON:       cfg.Log.JSON,
	})
	defer func() { _ = log.Sync() }()

	// 3. 初始化数据库
	db, err := initDatabase(cfg, log)
	if err != nil {
		log.Fatal("数据库初始化失败", zap.Error(err))
	}

	// 4. 初始化依赖
	deps, err := initDependencies(cfg, db, log)
	if err != nil {
		log.Fatal("依赖初始化失败", zap.Error(err))
	}

	// 5. 启动定时任务
	if err := deps.TaskManager.Start(); err != nil {
		log.Fatal("定时任务启动失败", zap.Error(err))
	}

	// 6. 初始化路由
	gin.SetMode(cfg.Server.Mode)
	r := router.SetupRouter(deps.Controllers, router.Options{
		CronSecret: cfg.Cron.Secret,
		Logger:     log,
	})

	// 7. 启动服务
	startServer(cfg, r, deps, log)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Repos       *Repositories
	Services    *Services
	Controllers *router.Controllers
	TaskManager *task.TaskManager
}

// Repositories 仓库集合
type Repositories struct {
	Business   repository.BusinessRepository
	Connection repository.GoogleConnectionRepository
	Location   repository.GoogleLocationRepository
	Review     repository.ReviewRepository
	ReplyRule  repository.ReplyRuleRepository
	ReplyLog   repository.ReplyLogRepository

	Interaction repository.InteractionLogRepository
}

// Services 服务集合
type Services struct {
	Auth      *service.AuthService
	Discovery *service.DiscoveryService
	Review    *service.ReviewService
	AutoReply *service.AutoReplyService
	Business  *service.BusinessService
	ReplyRule *service.ReplyRuleService
	Sync      *service.SyncService

	Interaction *service.InteractionService
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库
func initDatabase(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	return database.InitDB(database.Options{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	}, log,
		// Business
		&model.Business{}, &model.GoogleConnection{}, &model.GoogleLocation{},
		// Review
		&model.Review{}, &model.ReplyRule{}, &model.ReplyLog{},
		// 落地页
		&model.InteractionLog{},
	)
}

// initDependencies 初始化所有依赖
func initDependencies(cfg *config.Config, db *gorm.DB, log *zap.Logger) (*Dependencies, error) {
	// -------- Repo 层 --------
	repos := initRepositories(db)

	// -------- Google 客户端 --------
	client := google.NewClient(google.Config{
		AccountsBaseURL:  cfg.Google.AccountsBase,
		InfoBaseURL:      cfg.Google.InfoBase,
		ReviewsBaseURL:   cfg.Google.ReviewsBase,
		Timeout:          cfg.Google.Timeout,
		LocationPageSize: cfg.Google.LocationPage,
		ReviewPageSize:   cfg.Google.ReviewPage,
		MaxReviewPages:   cfg.Google.MaxReviewPages,
	})
	client.SetObserver(monitoring.ObserveGoogleCall)

	if !cfg.Google.OAuthEnabled() {
		log.Warn("未配置 Google OAuth 客户端，授权接口不可用")
	}

	tz, err := cfg.AutoReply.Location()
	if err != nil {
		return nil, fmt.Errorf("%w: autoreply.timezone: %v", config.ErrConfiguration, err)
	}

	// -------- 业务服务 --------
	services := &Services{}
	services.Auth = service.NewAuthService(service.OAuthConfig{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.RedirectURL,
		AuthURL:      cfg.Google.AuthURL,
		TokenURL:     cfg.Google.TokenURL,
		Timeout:      cfg.Google.Timeout,
	}, repos.Connection, repos.Business, repos.ReplyRule, log)
	services.Discovery = service.NewDiscoveryService(client, cfg.Google.Concurrency, log)
	services.Review = service.NewReviewService(client, repos.Review, repos.Business, log)
	services.AutoReply = service.NewAutoReplyService(client, repos.ReplyRule, repos.ReplyLog, repos.Review,
		service.AutoReplyConfig{
			Location:  tz,
			PostDelay: cfg.AutoReply.PostDelay,
			DraftOnly: cfg.AutoReply.DraftOnly,
		}, log)
	services.Business = service.NewBusinessService(repos.Business, repos.Connection, repos.Location,
		repos.ReplyRule, services.Auth, services.Discovery, log)
	services.ReplyRule = service.NewReplyRuleService(repos.Business, repos.ReplyRule, repos.ReplyLog)
	services.Interaction = service.NewInteractionService(repos.Business, repos.Interaction, log)
	services.Sync = service.NewSyncService(repos.Business, repos.Connection, repos.Location,
		services.Auth, services.Discovery, services.Review, services.AutoReply, log)

	// -------- 定时任务 --------
	taskManager := task.NewTaskManager(services.Sync, task.TaskManagerConfig{
		Enabled:      cfg.Scheduler.Enabled,
		Spec:         cfg.Scheduler.Spec,
		RunOnStart:   cfg.Scheduler.RunOnStart,
		InitialDelay: cfg.Scheduler.InitialDelay,
		PassTimeout:  cfg.Scheduler.PassTimeout,
	}, log)

	// -------- 中间件 --------
	initMiddleware(cfg, log)

	return &Dependencies{
		DB:          db,
		Repos:       repos,
		Services:    services,
		Controllers: initControllers(services, taskManager),
		TaskManager: taskManager,
	}, nil
}

// initRepositories 初始化所有仓库
func initRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Business:   repository.NewBusinessRepository(db),
		Connection: repository.NewGoogleConnectionRepository(db),
		Location:   repository.NewGoogleLocationRepository(db),
		Review:     repository.NewReviewRepository(db),
		ReplyRule:  repository.NewReplyRuleRepository(db),
		ReplyLog:   repository.NewReplyLogRepository(db),

		Interaction: repository.NewInteractionLogRepository(db),
	}
}

// initMiddleware 鉴权与限流配置
func initMiddleware(cfg *config.Config, log *zap.Logger) {
	jwtCfg := middleware.DefaultJWTConfig()
	jwtCfg.SecretKey = cfg.Auth.JWTSecret
	if cfg.Auth.Issuer != "" {
		jwtCfg.Issuer = cfg.Auth.Issuer
	}
	middleware.SetJWTConfig(jwtCfg)
	if !middleware.AuthEnabled() {
		log.Warn("未配置 auth.jwt_secret，业主鉴权已关闭（仅限开发环境）")
	}
	if cfg.Cron.Secret == "" {
		log.Warn("未配置 cron.secret，/api/cron/sync 无需鉴权")
	}

	middleware.SetInterval(middleware.SyncTypeReview, cfg.Sync.ManualCooldown)
}

// initControllers 初始化所有控制器
func initControllers(svc *Services, tm *task.TaskManager) *router.Controllers {
	return &router.Controllers{
		Business: controller.NewBusinessController(svc.Business, svc.Auth),
		OAuth:    controller.NewOAuthController(svc.Auth),
		Sync:     controller.NewSyncController(tm),
		Review:   controller.NewReviewController(svc.Review, svc.ReplyRule),

		Interaction: controller.NewInteractionController(svc.Interaction),
	}
}

// ==================== 服务启动 ====================

// startServer 启动服务并等待退出信号
func startServer(cfg *config.Config, r *gin.Engine, deps *Dependencies, log *zap.Logger) {
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 异步启动服务
	go func() {
		log.Info("服务启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("服务启动失败", zap.Error(err))
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("服务强制关闭", zap.Error(err))
	}

	// 等待进行中的同步结束
	deps.TaskManager.Stop()

	if sqlDB, err := deps.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("服务已退出")
}

// ==================== 工具函数 ====================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
