package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "gbp_review_sync/docs"
	"gbp_review_sync/internal/controller"
	"gbp_review_sync/internal/middleware"
	"gbp_review_sync/internal/monitoring"
)

// Controllers 路由依赖的控制器
type Controllers struct {
	Business    *controller.BusinessController
	OAuth       *controller.OAuthController
	Sync        *controller.SyncController
	Review      *controller.ReviewController
	Interaction *controller.InteractionController
}

// Options 路由选项
type Options struct {
	CronSecret string
	Logger     *zap.Logger
}

// SetupRouter 创建 gin 引擎并注册所有路由
func SetupRouter(ctl *Controllers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if opts.Logger != nil {
		r.Use(middleware.RequestLogger(opts.Logger))
	}
	r.Use(monitoring.GinMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(monitoring.MetricsHandler()))

	// 访问 /swagger/index.html 查看接口文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	InitRoutes(r, ctl, opts)
	return r
}

// InitRoutes 注册业务路由
func InitRoutes(r *gin.Engine, ctl *Controllers, opts Options) {
	api := r.Group("/api")
	{
		// 外部调度器
		cronGroup := api.Group("/cron", middleware.CronSecret(opts.CronSecret))
		{
			// GET|POST /api/cron/sync
			cronGroup.GET("/sync", ctl.Sync.CronSync)
			cronGroup.POST("/sync", ctl.Sync.CronSync)
			cronGroup.GET("/status", ctl.Sync.Status)
		}

		// Google 回调，由 state 校验
		api.GET("/oauth/google/callback", ctl.OAuth.Callback)

		api.POST("/businesses", ctl.Business.Register)

		// 评论落地页，无需登录
		public := api.Group("/public/businesses/:id")
		{
			public.GET("", ctl.Interaction.PublicBusiness)
			public.POST("/track", ctl.Interaction.Track)
		}

		// 业主接口
		owner := api.Group("/businesses/:id", middleware.JWTAuth(), middleware.RequireOwner("id"))
		{
			owner.GET("", ctl.Business.Get)
			owner.GET("/oauth/url", ctl.Business.OAuthURL)
			owner.GET("/gbp/locations", ctl.Business.ListLocations)
			owner.POST("/gbp/location", ctl.Business.SelectLocation)
			owner.POST("/sync", middleware.SyncRateLimit(middleware.SyncTypeReview, 0), ctl.Sync.SyncBusiness)

			owner.GET("/reviews", ctl.Review.ListReviews)
			owner.GET("/reply-rule", ctl.Review.GetRule)
			owner.PUT("/reply-rule", ctl.Review.UpdateRule)
			owner.GET("/reply-logs", ctl.Review.ListLogs)
			owner.POST("/stats/refresh", ctl.Review.RefreshStats)
			owner.GET("/analytics", ctl.Interaction.Analytics)
		}

		// 管理员
		admin := api.Group("/admin", middleware.JWTAuth(), middleware.RequireRole(middleware.RoleAdmin))
		{
			admin.PATCH("/businesses/:id/status", ctl.Business.SetStatus)
		}
	}
}
