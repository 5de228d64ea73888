package service

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gbp_review_sync/internal/api/dto"
	"gbp_review_sync/internal/model"
)

// ==================== OAuth ====================

func TestAuth_GenerateAuthURLAndCallback(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.business.Register(ctx, &dto.RegisterBusinessReq{ID: "cafe", Name: "Cafe"})
	require.NoError(t, err)

	raw, err := env.auth.GenerateAuthURL(ctx, "cafe")
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, BusinessManageScope, q.Get("scope"))
	state := q.Get("state")
	require.NotEmpty(t, state)

	conn, err := env.auth.HandleCallback(ctx, "auth-code", state)
	require.NoError(t, err)
	assert.Equal(t, "refresh-from-code", conn.RefreshToken)
	assert.Equal(t, model.TokenStatusValid, conn.TokenStatus)

	rule, err := env.ruleRepo.GetByBusinessID(ctx, "cafe")
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.Equal(t, model.ReplyModeAuto, rule.Mode)
	assert.Equal(t, 20, rule.DailyLimit)

	// state 只能使用一次
	_, err = env.auth.HandleCallback(ctx, "auth-code", state)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestAuth_CallbackKeepsCustomRule(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedBusiness(t, "cafe", testLocation, "accounts/1")
	env.setRule(t, "cafe", func(r *model.ReplyRule) { r.DailyLimit = 3 })

	raw, err := env.auth.GenerateAuthURL(ctx, "cafe")
	require.NoError(t, err)
	u, _ := url.Parse(raw)

	conn, err := env.auth.HandleCallback(ctx, "code", u.Query().Get("state"))
	require.NoError(t, err)
	assert.Equal(t, "accounts/1", conn.GoogleAccountID)

	rule, err := env.ruleRepo.GetByBusinessID(ctx, "cafe")
	require.NoError(t, err)
	assert.Equal(t, 3, rule.DailyLimit)
}

func TestAuth_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.GenerateAuthURL(ctx, "missing")
	assert.ErrorIs(t, err, ErrBusinessNotFound)

	_, err = env.auth.HandleCallback(ctx, "code", "forged")
	assert.ErrorIs(t, err, ErrInvalidState)

	unconfigured := NewAuthService(OAuthConfig{}, env.connRepo, env.businessRepo, env.ruleRepo, zap.NewNop())
	_, err = unconfigured.GenerateAuthURL(ctx, "cafe")
	assert.ErrorIs(t, err, ErrOAuthNotConfigured)

	_, err = env.auth.AccessToken(ctx, &model.GoogleConnection{BusinessID: "cafe"})
	assert.ErrorIs(t, err, ErrCredentialInvalid)
}

func TestAuth_ServerErrorKeepsStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedBusiness(t, "cafe", testLocation, "accounts/1")
	env.fake.tokenStatus = 503

	conn, err := env.connRepo.GetByBusinessID(ctx, "cafe")
	require.NoError(t, err)
	_, err = env.auth.AccessToken(ctx, conn)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCredentialInvalid)

	conn, err = env.connRepo.GetByBusinessID(ctx, "cafe")
	require.NoError(t, err)
	assert.Equal(t, model.TokenStatusValid, conn.TokenStatus)
}

// ==================== 商家 / 地点 ====================

func TestBusiness_RegisterAndGet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b, err := env.business.Register(ctx, &dto.RegisterBusinessReq{ID: " cafe ", Name: "Cafe", Category: "Food"})
	require.NoError(t, err)
	assert.Equal(t, "cafe", b.ID)
	assert.True(t, b.IsActive)
	assert.False(t, b.Connected)

	_, err = env.business.Register(ctx, &dto.RegisterBusinessReq{ID: "cafe", Name: "Again"})
	assert.ErrorIs(t, err, ErrBusinessExists)

	got, err := env.business.Get(ctx, "cafe")
	require.NoError(t, err)
	assert.Equal(t, "Food", got.Category)

	_, err = env.business.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrBusinessNotFound)

	assert.ErrorIs(t, env.business.SetActive(ctx, "missing", false), ErrBusinessNotFound)
	require.NoError(t, env.business.SetActive(ctx, "cafe", false))
	got, _ = env.business.Get(ctx, "cafe")
	assert.False(t, got.IsActive)
}

func TestBusiness_ListLocations(t *testing.T) {
	env := newTestEnv(t)
	env.seedBusiness(t, "cafe", "", "")
	env.fake.accounts = []string{"accounts/1", "accounts/2"}
	env.fake.locationStatus["accounts/1"] = 403
	env.fake.locations["accounts/2"] = []map[string]interface{}{
		location("locations/1", "First", "p1"),
		location("locations/2", "Second", "p2"),
	}

	resp, err := env.business.ListLocations(context.Background(), "cafe")
	require.NoError(t, err)
	require.Len(t, resp.Locations, 2)
	assert.Equal(t, "accounts/2", resp.Locations[0].AccountName)
	assert.Equal(t, []string{"Cafe"}, resp.Locations[1].Categories)
	assert.Equal(t, []string{"accounts/1"}, resp.FailedAccounts)
}

func TestBusiness_ListLocationsRequiresConnection(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.business.Register(context.Background(), &dto.RegisterBusinessReq{ID: "cafe", Name: "Cafe"})
	require.NoError(t, err)

	_, err = env.business.ListLocations(context.Background(), "cafe")
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestBusiness_SelectLocation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.business.Register(ctx, &dto.RegisterBusinessReq{ID: "cafe", Name: "Old name", Location: "Somewhere"})
	require.NoError(t, err)
	require.NoError(t, env.connRepo.Upsert(ctx, &model.GoogleConnection{
		BusinessID: "cafe", RefreshToken: "rt", TokenStatus: model.TokenStatusValid,
	}))

	env.fake.accounts = []string{"accounts/1", "accounts/2"}
	loc := location(testLocation, "Cafe Central", "ChIJ123")
	loc["storeCode"] = ""
	env.fake.locations["accounts/2"] = []map[string]interface{}{loc}

	b, err := env.business.SelectLocation(ctx, "cafe", testLocation)
	require.NoError(t, err)
	assert.True(t, b.Connected)
	assert.Equal(t, "Cafe Central", b.Name)
	assert.Equal(t, "Cafe", b.Category)
	assert.Equal(t, "Somewhere", b.Location, "空门店编码不覆盖原值")
	assert.Equal(t, "ChIJ123", b.PlaceID)
	assert.Equal(t, model.ReviewURLForPlace("ChIJ123"), b.ReviewURL)
	assert.Equal(t, testLocation, b.GoogleLocationID)
	assert.Equal(t, "accounts/2", b.Connection.GoogleAccountID)

	rule, err := env.ruleRepo.GetByBusinessID(ctx, "cafe")
	require.NoError(t, err)
	require.NotNil(t, rule)

	_, err = env.business.SelectLocation(ctx, "cafe", "locations/unknown")
	assert.ErrorIs(t, err, ErrLocationNotFound)
}

// ==================== 规则 / 日志 / 评论列表 ====================

func TestReplyRuleService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.business.Register(ctx, &dto.RegisterBusinessReq{ID: "cafe", Name: "Cafe"})
	require.NoError(t, err)

	rule, err := env.rules.GetRule(ctx, "cafe")
	require.NoError(t, err)
	assert.Nil(t, rule)

	disabled := false
	rule, err = env.rules.UpdateRule(ctx, "cafe", &dto.ReplyRuleReq{
		MinStars: 3, MaxStars: 5, Mode: model.ReplyModeAuto, DailyLimit: 5, Enabled: &disabled,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, rule.MinStars)
	assert.False(t, rule.Enabled)

	_, err = env.rules.UpdateRule(ctx, "cafe", &dto.ReplyRuleReq{MinStars: 5, MaxStars: 2, Mode: model.ReplyModeAuto})
	assert.ErrorIs(t, err, ErrInvalidRule)
	_, err = env.rules.UpdateRule(ctx, "cafe", &dto.ReplyRuleReq{MinStars: 1, MaxStars: 2, Mode: "LOUD"})
	assert.ErrorIs(t, err, ErrInvalidRule)

	_, err = env.rules.GetRule(ctx, "missing")
	assert.ErrorIs(t, err, ErrBusinessNotFound)
	_, err = env.rules.ListLogs(ctx, "missing")
	assert.ErrorIs(t, err, ErrBusinessNotFound)

	for i := 0; i < ReplyLogLimit+5; i++ {
		require.NoError(t, env.logRepo.Create(ctx, &model.ReplyLog{
			BusinessID: "cafe", ReviewID: "r", Action: model.ReplyActionAuto,
			Status: model.ReplyStatusSuccess, Timestamp: time.Now().UTC(),
		}))
	}
	logs, err := env.rules.ListLogs(ctx, "cafe")
	require.NoError(t, err)
	assert.Len(t, logs, ReplyLogLimit)
}

func TestReviewService_ListReviews(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.business.Register(ctx, &dto.RegisterBusinessReq{ID: "bare", Name: "Bare"})
	require.NoError(t, err)

	list, total, err := env.reviews.ListReviews(ctx, "bare", 1, 20)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, total)

	env.seedBusiness(t, "cafe", testLocation, "accounts/1")
	seedReviews(t, env,
		&model.Review{ReviewID: "r1", ReviewerName: "Ann", StarRating: 5},
		&model.Review{ReviewID: "r2", ReviewerName: "Bob", StarRating: 4},
	)
	list, total, err = env.reviews.ListReviews(ctx, "cafe", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 1)

	_, _, err = env.reviews.ListReviews(ctx, "missing", 1, 20)
	assert.ErrorIs(t, err, ErrBusinessNotFound)
}
