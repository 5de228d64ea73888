package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gbp_review_sync/internal/model"
	"gbp_review_sync/internal/repository"
	"gbp_review_sync/pkg/google"
)

// ==================== fake Google ====================

// fakeGoogle 模拟 OAuth token 端点与 GBP 接口
type fakeGoogle struct {
	mu sync.Mutex

	tokenStatus    int // 非 0 时 token 端点返回该状态码 + invalid_grant
	accounts       []string
	accountsStatus int
	locations      map[string][]map[string]interface{} // account -> locations
	locationStatus map[string]int                      // account -> 错误状态码
	reviews        map[string][]map[string]interface{} // accounts/x/locations/y -> reviews
	reviewsStatus  int
	replyStatus    int
	locationDelay  map[string]time.Duration // account -> 列地点前等待

	url     string
	replies []string // 已回复的 reviewId
	calls   map[string]int
}

func newFakeGoogle(t *testing.T) (*fakeGoogle, *httptest.Server) {
	f := &fakeGoogle{
		locations:      map[string][]map[string]interface{}{},
		locationStatus: map[string]int{},
		locationDelay:  map[string]time.Duration{},
		reviews:        map[string][]map[string]interface{}{},
		calls:          map[string]int{},
	}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	f.url = srv.URL
	return f, srv
}

func (f *fakeGoogle) serve(w http.ResponseWriter, r *http.Request) {
	// 慢账号在锁外等待，不阻塞其它账号的请求
	f.mu.Lock()
	delay := f.locationDelay[strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/"), "/locations")]
	f.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	switch {
	case path == "/token":
		f.calls["token"]++
		f.serveToken(w, r)

	case path == "/v1/accounts":
		f.calls["accounts"]++
		if f.accountsStatus != 0 {
			writeGoogleError(w, f.accountsStatus)
			return
		}
		list := make([]map[string]string, 0, len(f.accounts))
		for _, a := range f.accounts {
			list = append(list, map[string]string{"name": a})
		}
		writeJSONResp(w, 200, map[string]interface{}{"accounts": list})

	case strings.HasPrefix(path, "/v1/accounts/") && strings.HasSuffix(path, "/locations"):
		account := strings.TrimSuffix(strings.TrimPrefix(path, "/v1/"), "/locations")
		f.calls["locations:"+account]++
		if status := f.locationStatus[account]; status != 0 {
			writeGoogleError(w, status)
			return
		}
		writeJSONResp(w, 200, map[string]interface{}{"locations": f.locations[account]})

	case strings.HasPrefix(path, "/v4/") && strings.HasSuffix(path, "/reviews"):
		key := strings.TrimSuffix(strings.TrimPrefix(path, "/v4/"), "/reviews")
		f.calls["reviews"]++
		if f.reviewsStatus != 0 {
			writeGoogleError(w, f.reviewsStatus)
			return
		}
		writeJSONResp(w, 200, map[string]interface{}{"reviews": f.reviews[key]})

	case strings.HasPrefix(path, "/v4/") && strings.HasSuffix(path, "/reply") && r.Method == http.MethodPut:
		f.calls["reply"]++
		if f.replyStatus != 0 {
			writeGoogleError(w, f.replyStatus)
			return
		}
		parts := strings.Split(path, "/")
		reviewID := parts[len(parts)-2]
		f.replies = append(f.replies, reviewID)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSONResp(w, 200, map[string]string{"comment": body["comment"]})

	default:
		http.NotFound(w, r)
	}
}

func (f *fakeGoogle) serveToken(w http.ResponseWriter, r *http.Request) {
	if f.tokenStatus != 0 {
		writeJSONResp(w, f.tokenStatus, map[string]string{
			"error":             "invalid_grant",
			"error_description": "Token has been expired or revoked.",
		})
		return
	}
	_ = r.ParseForm()
	resp := map[string]interface{}{
		"access_token": "access-123",
		"token_type":   "Bearer",
		"expires_in":   3600,
	}
	if r.Form.Get("grant_type") == "authorization_code" {
		resp["refresh_token"] = "refresh-from-code"
	}
	writeJSONResp(w, 200, resp)
}

func (f *fakeGoogle) callCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeGoogle) repliedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.replies...)
}

func writeJSONResp(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeGoogleError(w http.ResponseWriter, status int) {
	writeJSONResp(w, status, map[string]interface{}{
		"error": map[string]interface{}{"code": status, "message": http.StatusText(status)},
	})
}

func location(name, title, placeID string) map[string]interface{} {
	return map[string]interface{}{
		"name":      name,
		"title":     title,
		"storeCode": "S-1",
		"metadata":  map[string]string{"placeId": placeID},
		"categories": map[string]interface{}{
			"primaryCategory": map[string]string{"displayName": "Cafe"},
		},
	}
}

func review(id, reviewer, rating string) map[string]interface{} {
	return map[string]interface{}{
		"reviewId":   id,
		"reviewer":   map[string]string{"displayName": reviewer},
		"starRating": rating,
		"comment":    "comment " + id,
		"createTime": "2024-05-01T10:00:00Z",
		"updateTime": "2024-05-01T10:00:00Z",
	}
}

// ==================== 测试环境 ====================

type testEnv struct {
	db   *gorm.DB
	fake *fakeGoogle

	businessRepo repository.BusinessRepository
	connRepo     repository.GoogleConnectionRepository
	ruleRepo     repository.ReplyRuleRepository
	logRepo      repository.ReplyLogRepository
	reviewRepo   repository.ReviewRepository

	auth      *AuthService
	discovery *DiscoveryService
	reviews   *ReviewService
	autoReply *AutoReplyService
	sync      *SyncService
	business  *BusinessService
	rules     *ReplyRuleService

	interactions *InteractionService
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&model.Business{}, &model.GoogleConnection{}, &model.GoogleLocation{},
		&model.Review{}, &model.ReplyRule{}, &model.ReplyLog{}, &model.InteractionLog{},
	); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}

	fake, srv := newFakeGoogle(t)
	log := zap.NewNop()

	env := &testEnv{
		db:           db,
		fake:         fake,
		businessRepo: repository.NewBusinessRepository(db),
		connRepo:     repository.NewGoogleConnectionRepository(db),
		ruleRepo:     repository.NewReplyRuleRepository(db),
		logRepo:      repository.NewReplyLogRepository(db),
		reviewRepo:   repository.NewReviewRepository(db),
	}
	locationRepo := repository.NewGoogleLocationRepository(db)

	client := google.NewClient(google.Config{
		AccountsBaseURL: srv.URL,
		InfoBaseURL:     srv.URL,
		ReviewsBaseURL:  srv.URL,
		Timeout:         2 * time.Second,
	})

	env.auth = NewAuthService(OAuthConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/callback",
		AuthURL:      srv.URL + "/auth",
		TokenURL:     srv.URL + "/token",
		Timeout:      2 * time.Second,
	}, env.connRepo, env.businessRepo, env.ruleRepo, log)
	env.discovery = NewDiscoveryService(client, 4, log)
	env.reviews = NewReviewService(client, env.reviewRepo, env.businessRepo, log)
	env.autoReply = NewAutoReplyService(client, env.ruleRepo, env.logRepo, env.reviewRepo,
		AutoReplyConfig{Location: time.UTC}, log)
	env.sync = NewSyncService(env.businessRepo, env.connRepo, locationRepo,
		env.auth, env.discovery, env.reviews, env.autoReply, log)
	env.business = NewBusinessService(env.businessRepo, env.connRepo, locationRepo,
		env.ruleRepo, env.auth, env.discovery, log)
	env.rules = NewReplyRuleService(env.businessRepo, env.ruleRepo, env.logRepo)
	env.interactions = NewInteractionService(env.businessRepo, repository.NewInteractionLogRepository(db), log)
	return env
}

// setNow 固定所有服务的时钟
func (e *testEnv) setNow(now time.Time) {
	clock := func() time.Time { return now }
	e.auth.now = clock
	e.reviews.now = clock
	e.autoReply.now = clock
	e.interactions.now = clock
}

// seedBusiness 已授权、已选点的商家，带默认规则
func (e *testEnv) seedBusiness(t *testing.T, id, locationName, storedAccount string) {
	t.Helper()
	ctx := context.Background()
	if err := e.businessRepo.Create(ctx, &model.Business{
		ID: id, Name: id, IsActive: true, Connected: true, GoogleLocationID: locationName,
	}); err != nil {
		t.Fatalf("创建商家失败: %v", err)
	}
	if err := e.connRepo.Upsert(ctx, &model.GoogleConnection{
		BusinessID: id, RefreshToken: "refresh-" + id, GoogleAccountID: storedAccount, TokenStatus: model.TokenStatusValid,
	}); err != nil {
		t.Fatalf("创建授权失败: %v", err)
	}
	if err := e.ruleRepo.Upsert(ctx, model.DefaultReplyRule(id)); err != nil {
		t.Fatalf("创建规则失败: %v", err)
	}
}

func (e *testEnv) setRule(t *testing.T, id string, mutate func(r *model.ReplyRule)) {
	t.Helper()
	rule := model.DefaultReplyRule(id)
	mutate(rule)
	if err := e.ruleRepo.Upsert(context.Background(), rule); err != nil {
		t.Fatalf("更新规则失败: %v", err)
	}
}

func (e *testEnv) countLogs(t *testing.T, businessID, status string) int64 {
	t.Helper()
	var n int64
	e.db.Model(&model.ReplyLog{}).Where("business_id = ? AND status = ?", businessID, status).Count(&n)
	return n
}
