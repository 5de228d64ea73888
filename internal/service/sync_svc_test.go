package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gbp_review_sync/internal/model"
	"gbp_review_sync/pkg/google"
)

const testLocation = "locations/900"

func TestSyncBusiness_FollowsLocationToNewAccount(t *testing.T) {
	env := newTestEnv(t)
	env.seedBusiness(t, "cafe", testLocation, "accounts/old")
	env.setRule(t, "cafe", func(r *model.ReplyRule) { r.Mode = model.ReplyModeManual })

	env.fake.accounts = []string{"accounts/1", "accounts/2"}
	env.fake.locations["accounts/1"] = []map[string]interface{}{location("locations/111", "Other", "p-1")}
	env.fake.locations["accounts/2"] = []map[string]interface{}{location(testLocation, "Cafe Central", "p-900")}
	env.fake.reviews["accounts/2/"+testLocation] = []map[string]interface{}{
		review("r1", "Ann", "FIVE"),
		review("r2", "Bob", "THREE"),
	}

	res, err := env.sync.SyncBusiness(context.Background(), "cafe")
	require.NoError(t, err)
	assert.Equal(t, "accounts/2", res.AccountName)
	assert.Equal(t, 2, res.Fetched)
	assert.Equal(t, int64(2), res.Stats.TotalReviews)
	assert.Equal(t, 4.0, res.Stats.AverageRating)

	conn, err := env.connRepo.GetByBusinessID(context.Background(), "cafe")
	require.NoError(t, err)
	assert.Equal(t, "accounts/2", conn.GoogleAccountID)
	assert.Equal(t, model.TokenStatusValid, conn.TokenStatus)
	assert.NotNil(t, conn.LastRefreshedAt)
}

func TestSyncBusiness_SkipsFailingAccount(t *testing.T) {
	env := newTestEnv(t)
	env.seedBusiness(t, "cafe", testLocation, "accounts/1")

	env.fake.accounts = []string{"accounts/1", "accounts/2", "accounts/3"}
	env.fake.locationStatus["accounts/1"] = 403
	env.fake.locationStatus["accounts/2"] = 500
	env.fake.locations["accounts/3"] = []map[string]interface{}{location(testLocation, "Cafe", "p-900")}
	env.fake.reviews["accounts/3/"+testLocation] = []map[string]interface{}{review("r1", "Ann", "FOUR")}

	res, err := env.sync.SyncBusiness(context.Background(), "cafe")
	require.NoError(t, err)
	assert.Equal(t, "accounts/3", res.AccountName)
	assert.Equal(t, 1, res.Saved)
}

func TestSyncBusiness_Preconditions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.businessRepo.Create(ctx, &model.Business{ID: "no-conn", Name: "x", IsActive: true, GoogleLocationID: testLocation}))
	require.NoError(t, env.businessRepo.Create(ctx, &model.Business{ID: "no-loc", Name: "x", IsActive: true}))
	require.NoError(t, env.connRepo.Upsert(ctx, &model.GoogleConnection{BusinessID: "no-loc", RefreshToken: "rt", TokenStatus: model.TokenStatusValid}))
	env.seedBusiness(t, "paused", testLocation, "accounts/1")
	require.NoError(t, env.businessRepo.SetActive(ctx, "paused", false))

	cases := []struct {
		id   string
		want error
	}{
		{"missing", ErrBusinessNotFound},
		{"no-conn", ErrNotConnected},
		{"no-loc", ErrNoLocationSelected},
		{"paused", ErrBusinessInactive},
	}
	for _, tc := range cases {
		t.Run(tc.id, func(t *testing.T) {
			_, err := env.sync.SyncBusiness(ctx, tc.id)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	assert.Equal(t, 0, env.fake.callCount("token"), "前置校验失败时不应刷新 token")
	assert.Equal(t, 0, env.fake.callCount("accounts"))
}

func TestSyncBusiness_InvalidGrantMarksReauth(t *testing.T) {
	env := newTestEnv(t)
	env.seedBusiness(t, "cafe", testLocation, "accounts/1")
	env.fake.tokenStatus = 400

	_, err := env.sync.SyncBusiness(context.Background(), "cafe")
	require.ErrorIs(t, err, ErrCredentialInvalid)

	conn, err := env.connRepo.GetByBusinessID(context.Background(), "cafe")
	require.NoError(t, err)
	assert.Equal(t, model.TokenStatusInvalid, conn.TokenStatus)
	assert.Contains(t, conn.LastError, "invalid_grant")
	assert.True(t, conn.NeedsReauth())

	assert.Equal(t, 0, env.fake.callCount("accounts"))
	var n int64
	env.db.Model(&model.Review{}).Count(&n)
	assert.Zero(t, n)
}

func TestSyncBusiness_AccountsUnauthorizedMarksReauth(t *testing.T) {
	env := newTestEnv(t)
	env.seedBusiness(t, "cafe", testLocation, "accounts/1")
	env.fake.accountsStatus = 401

	_, err := env.sync.SyncBusiness(context.Background(), "cafe")
	require.ErrorIs(t, err, ErrCredentialInvalid)

	conn, _ := env.connRepo.GetByBusinessID(context.Background(), "cafe")
	assert.Equal(t, model.TokenStatusInvalid, conn.TokenStatus)
}

func TestSyncBusiness_DiscoveryErrors(t *testing.T) {
	t.Run("无账号", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedBusiness(t, "cafe", testLocation, "accounts/1")

		_, err := env.sync.SyncBusiness(context.Background(), "cafe")
		assert.ErrorIs(t, err, ErrNoAccounts)
	})

	t.Run("地点不存在", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedBusiness(t, "cafe", testLocation, "accounts/1")
		env.fake.accounts = []string{"accounts/1"}
		env.fake.locations["accounts/1"] = []map[string]interface{}{location("locations/1", "A", "")}

		_, err := env.sync.SyncBusiness(context.Background(), "cafe")
		assert.ErrorIs(t, err, ErrLocationNotFound)
		assert.Equal(t, 0, env.fake.callCount("reviews"))
	})
}

func TestSyncBusiness_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	env.seedBusiness(t, "cafe", testLocation, "accounts/1")
	env.setRule(t, "cafe", func(r *model.ReplyRule) { r.Mode = model.ReplyModeManual })
	env.fake.accounts = []string{"accounts/1"}
	env.fake.locations["accounts/1"] = []map[string]interface{}{location(testLocation, "Cafe", "p")}
	env.fake.reviews["accounts/1/"+testLocation] = []map[string]interface{}{
		review("r1", "Ann", "FIVE"),
		review("r2", "", "STAR_RATING_UNSPECIFIED"),
	}

	first, err := env.sync.SyncBusiness(context.Background(), "cafe")
	require.NoError(t, err)
	second, err := env.sync.SyncBusiness(context.Background(), "cafe")
	require.NoError(t, err)

	assert.Equal(t, first.Stats.TotalReviews, second.Stats.TotalReviews)
	assert.Equal(t, 2.5, second.Stats.AverageRating)

	stored, err := env.reviewRepo.GetByReviewIDs(context.Background(), []string{"r2"})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 0, stored[0].StarRating)
	assert.Equal(t, model.DefaultReviewerName, stored[0].ReviewerName)

	b, err := env.businessRepo.GetByID(context.Background(), "cafe")
	require.NoError(t, err)
	assert.Equal(t, int64(2), b.Stats.TotalReviews)
}

func TestSyncBusiness_StatsCoverAllStoredReviews(t *testing.T) {
	env := newTestEnv(t)
	env.seedBusiness(t, "cafe", testLocation, "accounts/1")
	env.setRule(t, "cafe", func(r *model.ReplyRule) { r.Mode = model.ReplyModeManual })
	require.NoError(t, env.reviewRepo.Upsert(context.Background(), &model.Review{
		ReviewID: "old", LocationID: testLocation, ReviewerName: "Old", StarRating: 1,
	}))

	env.fake.accounts = []string{"accounts/1"}
	env.fake.locations["accounts/1"] = []map[string]interface{}{location(testLocation, "Cafe", "p")}
	env.fake.reviews["accounts/1/"+testLocation] = []map[string]interface{}{
		review("r1", "Ann", "FIVE"),
		review("r2", "Bob", "FOUR"),
	}

	res, err := env.sync.SyncBusiness(context.Background(), "cafe")
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Stats.TotalReviews)
	assert.Equal(t, 3.3, res.Stats.AverageRating)
}

func TestSyncBusiness_AutoReplyQuota(t *testing.T) {
	env := newTestEnv(t)
	env.setNow(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	env.seedBusiness(t, "cafe", testLocation, "accounts/1")
	env.setRule(t, "cafe", func(r *model.ReplyRule) { r.DailyLimit = 2 })

	env.fake.accounts = []string{"accounts/1"}
	env.fake.locations["accounts/1"] = []map[string]interface{}{location(testLocation, "Cafe", "p")}
	var list []map[string]interface{}
	for _, id := range []string{"r1", "r2", "r3", "r4", "r5"} {
		list = append(list, review(id, "Guest", "FIVE"))
	}
	env.fake.reviews["accounts/1/"+testLocation] = list

	res, err := env.sync.SyncBusiness(context.Background(), "cafe")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Replied)
	assert.True(t, res.QuotaReached)

	// 同一天再跑一轮，不再回复
	res, err = env.sync.SyncBusiness(context.Background(), "cafe")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Replied)
	assert.Len(t, env.fake.repliedIDs(), 2)
	assert.Equal(t, int64(2), env.countLogs(t, "cafe", model.ReplyStatusSuccess))

	// 第二天配额重置
	env.setNow(time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC))
	res, err = env.sync.SyncBusiness(context.Background(), "cafe")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Replied)
	assert.Len(t, env.fake.repliedIDs(), 4)
}

func TestSyncBusiness_ConcurrentPassesRespectQuota(t *testing.T) {
	env := newTestEnv(t)
	env.seedBusiness(t, "cafe", testLocation, "accounts/1")
	env.setRule(t, "cafe", func(r *model.ReplyRule) { r.DailyLimit = 1 })

	env.fake.accounts = []string{"accounts/1"}
	env.fake.locations["accounts/1"] = []map[string]interface{}{location(testLocation, "Cafe", "p")}
	env.fake.reviews["accounts/1/"+testLocation] = []map[string]interface{}{
		review("r1", "Ann", "FIVE"),
		review("r2", "Bob", "FIVE"),
		review("r3", "Cid", "FOUR"),
	}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = env.sync.SyncBusiness(context.Background(), "cafe")
		}()
	}
	wg.Wait()

	assert.Len(t, env.fake.repliedIDs(), 1)
	assert.Equal(t, int64(1), env.countLogs(t, "cafe", model.ReplyStatusSuccess))
}

func TestSyncService_ListSyncable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedBusiness(t, "a", testLocation, "accounts/1")
	env.seedBusiness(t, "b", "locations/2", "accounts/1")
	require.NoError(t, env.businessRepo.SetActive(ctx, "b", false))
	require.NoError(t, env.businessRepo.Create(ctx, &model.Business{ID: "c", Name: "c", IsActive: true}))

	list, err := env.sync.ListSyncable(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].ID)
}

func TestDiscovery_SlowAccountTimesOut(t *testing.T) {
	env := newTestEnv(t)
	env.fake.accounts = []string{"accounts/1", "accounts/2"}
	env.fake.locationDelay["accounts/1"] = 3 * time.Second
	env.fake.locations["accounts/1"] = []map[string]interface{}{location("locations/9", "Stale", "p1")}
	env.fake.locations["accounts/2"] = []map[string]interface{}{location("locations/9", "Cafe", "p2")}

	client := google.NewClient(google.Config{
		AccountsBaseURL: env.fake.url,
		InfoBaseURL:     env.fake.url,
		ReviewsBaseURL:  env.fake.url,
		Timeout:         300 * time.Millisecond,
	})
	discovery := NewDiscoveryService(client, 4, zap.NewNop())

	start := time.Now()
	found, err := discovery.Discover(context.Background(), "token", "locations/9")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	assert.Equal(t, "accounts/2", found.AccountName)
	assert.Equal(t, "Cafe", found.Location.Title)
	require.Len(t, found.Failures, 1)
	assert.Equal(t, "accounts/1", found.Failures[0].AccountName)
}

func TestSyncBusiness_ReplyUnauthorizedMarksReauth(t *testing.T) {
	env := newTestEnv(t)
	env.seedBusiness(t, "cafe", testLocation, "accounts/1")
	env.fake.accounts = []string{"accounts/1"}
	env.fake.locations["accounts/1"] = []map[string]interface{}{location(testLocation, "Cafe", "p")}
	env.fake.reviews["accounts/1/"+testLocation] = []map[string]interface{}{
		review("r1", "Ann", "FIVE"), review("r2", "Bob", "FIVE"), review("r3", "Cid", "FIVE"),
	}
	env.fake.replyStatus = 401

	res, err := env.sync.SyncBusiness(context.Background(), "cafe")
	require.ErrorIs(t, err, ErrCredentialInvalid)
	require.NotNil(t, res)
	assert.Equal(t, 1, res.ReplyFailed)

	// 第一条 401 后不再尝试
	assert.Equal(t, 1, env.fake.callCount("reply"))
	assert.Equal(t, int64(1), env.countLogs(t, "cafe", model.ReplyStatusFailed))

	conn, err := env.connRepo.GetByBusinessID(context.Background(), "cafe")
	require.NoError(t, err)
	assert.Equal(t, model.TokenStatusInvalid, conn.TokenStatus)
}
