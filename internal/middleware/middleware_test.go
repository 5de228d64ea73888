package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ==================== 限流器 ====================

func TestSyncRateLimiter_Check(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewSyncRateLimiter()
	l.now = func() time.Time { return now }

	key := BusinessSyncKey("cafe", SyncTypeReview)
	assert.Equal(t, "business:cafe:review", key)

	assert.True(t, l.Check(key, time.Minute).Allowed)

	now = now.Add(20 * time.Second)
	res := l.Check(key, time.Minute)
	assert.False(t, res.Allowed)
	assert.Equal(t, 40*time.Second, res.RetryAfter)

	now = now.Add(40 * time.Second)
	assert.True(t, l.Check(key, time.Minute).Allowed)

	l.Reset(key)
	assert.True(t, l.Check(key, time.Minute).Allowed)
}

func TestFormatRetryMessage(t *testing.T) {
	assert.Equal(t, "同步冷却中，请 30 秒后重试", formatRetryMessage(30*time.Second))
	assert.Equal(t, "同步冷却中，请 1 秒后重试", formatRetryMessage(200*time.Millisecond))
	assert.Equal(t, "同步冷却中，请 2 分钟后重试", formatRetryMessage(2*time.Minute))
	assert.Equal(t, "同步冷却中，请 1 分 5 秒后重试", formatRetryMessage(65*time.Second))
}

func TestSyncRateLimit_Middleware(t *testing.T) {
	status := http.StatusOK
	r := gin.New()
	r.POST("/b/:id/sync", SyncRateLimit(SyncTypeReview, time.Hour), func(c *gin.Context) {
		c.Status(status)
	})
	t.Cleanup(func() {
		GetLimiter().Reset(BusinessSyncKey("rl-a", SyncTypeReview))
		GetLimiter().Reset(BusinessSyncKey("rl-b", SyncTypeReview))
	})

	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/b/rl-a/sync", "").Code)

	w := serve(r, http.MethodPost, "/b/rl-a/sync", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "retry_after")

	// 其它商家不受影响
	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/b/rl-b/sync", "").Code)

	// 处理失败释放冷却
	GetLimiter().Reset(BusinessSyncKey("rl-a", SyncTypeReview))
	status = http.StatusBadRequest
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPost, "/b/rl-a/sync", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPost, "/b/rl-a/sync", "").Code)
}

func TestSetInterval(t *testing.T) {
	prev := GetInterval(SyncTypeReview)
	t.Cleanup(func() { SetInterval(SyncTypeReview, prev) })

	SetInterval(SyncTypeReview, 5*time.Minute)
	assert.Equal(t, 5*time.Minute, GetInterval(SyncTypeReview))
	assert.Equal(t, time.Minute, GetInterval(SyncType("unknown")))
}

// ==================== JWT ====================

func withSecret(t *testing.T, secret string) {
	prev := GetJWTConfig()
	cfg := DefaultJWTConfig()
	cfg.SecretKey = secret
	SetJWTConfig(cfg)
	t.Cleanup(func() { SetJWTConfig(prev) })
}

func TestParseToken(t *testing.T) {
	withSecret(t, "k1")

	tok, err := GenerateAccessToken("cafe", RoleOwner)
	require.NoError(t, err)

	claims, err := ParseToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "cafe", claims.BusinessID)
	assert.Equal(t, RoleOwner, claims.Role)
	assert.Equal(t, "gbp-review-sync", claims.Issuer)

	withSecret(t, "k2")
	_, err = ParseToken(tok)
	assert.Error(t, err, "密钥变更后旧 token 失效")
}

func TestParseToken_Expired(t *testing.T) {
	withSecret(t, "k1")
	GetJWTConfig().AccessTokenTTL = -time.Minute

	tok, err := GenerateAccessToken("cafe", RoleOwner)
	require.NoError(t, err)
	_, err = ParseToken(tok)
	assert.Error(t, err)
}

func TestRequireOwner(t *testing.T) {
	withSecret(t, "k1")
	r := gin.New()
	r.GET("/b/:id", JWTAuth(), RequireOwner("id"), func(c *gin.Context) {
		c.String(http.StatusOK, GetBusinessID(c))
	})

	owner, _ := GenerateAccessToken("cafe", RoleOwner)
	admin, _ := GenerateAccessToken("", RoleAdmin)
	other, _ := GenerateAccessToken("cafe", "viewer")

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/b/cafe", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/b/cafe", owner).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/b/bar", owner).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/b/bar", admin).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/b/cafe", other).Code)
}

func TestAuthDisabledWithoutSecret(t *testing.T) {
	withSecret(t, "")
	r := gin.New()
	r.GET("/b/:id", JWTAuth(), RequireOwner("id"), RequireRole(RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.False(t, AuthEnabled())
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/b/cafe", "").Code)
}

// ==================== Cron / 请求日志 ====================

func TestCronSecret(t *testing.T) {
	r := gin.New()
	r.GET("/cron", CronSecret("s3cret"), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/cron", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/cron", "nope").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/cron", "s3cret").Code)

	open := gin.New()
	open.GET("/cron", CronSecret(""), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusOK, serve(open, http.MethodGet, "/cron", "").Code)
}

func TestRequestLogger_PropagatesRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()))
	r.GET("/x", func(c *gin.Context) {
		if LoggerFrom(c.Request.Context(), nil) == nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-1", w.Header().Get(HeaderRequestID))

	w = serve(r, http.MethodGet, "/x", "")
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
}
