package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SyncPassesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gbp_sync_passes_total",
		Help: "Total number of sync passes by trigger.",
	}, []string{"trigger"})

	SyncPassDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gbp_sync_pass_duration_seconds",
		Help:    "Duration of full sync passes.",
		Buckets: []float64{1, 5, 15, 30, 60, 180, 600, 1800},
	}, []string{"trigger"})

	BusinessSyncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gbp_business_sync_total",
		Help: "Per-business sync outcomes.",
	}, []string{"result"})

	ReviewsUpsertedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gbp_reviews_upserted_total",
		Help: "Total number of reviews written by the reconciler.",
	})

	AutoRepliesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gbp_auto_replies_total",
		Help: "Auto-reply attempts by status.",
	}, []string{"status"})

	InteractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gbp_landing_interactions_total",
		Help: "Landing page interactions by action.",
	}, []string{"action"})

	GoogleAPICallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gbp_google_api_calls_total",
		Help: "Google API calls by operation and HTTP status (0 = transport failure).",
	}, []string{"op", "code"})

	GoogleAPIDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "gbp_google_api_call_duration_seconds",
		Help: "Duration of Google API calls.",
	}, []string{"op"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "http_request_duration_seconds",
		Help: "Duration of HTTP requests.",
	}, []string{"path"})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"path", "method", "code"})
)

// ObserveGoogleCall 记录一次 Google API 调用，签名与 google.Observer 一致
func ObserveGoogleCall(op string, status int, elapsed time.Duration) {
	GoogleAPICallsTotal.WithLabelValues(op, strconv.Itoa(status)).Inc()
	GoogleAPIDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// GinMiddleware HTTP 请求指标
// path 使用路由模板，避免把商家 ID 打进标签
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(path, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	}
}

// MetricsHandler /metrics
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
