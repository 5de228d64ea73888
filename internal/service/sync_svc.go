package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gbp_review_sync/internal/model"
	"gbp_review_sync/internal/repository"
)

// ==================== SyncService 单商家同步 ====================

// SyncService 串联 刷新 token -> 发现地点 -> 拉取对账 -> 自动回复
type SyncService struct {
	businessRepo repository.BusinessRepository
	connRepo     repository.GoogleConnectionRepository
	locationRepo repository.GoogleLocationRepository
	auth         *AuthService
	discovery    *DiscoveryService
	reviews      *ReviewService
	autoReply    *AutoReplyService
	log          *zap.Logger
}

// NewSyncService 创建同步服务
func NewSyncService(
	businessRepo repository.BusinessRepository,
	connRepo repository.GoogleConnectionRepository,
	locationRepo repository.GoogleLocationRepository,
	auth *AuthService,
	discovery *DiscoveryService,
	reviews *ReviewService,
	autoReply *AutoReplyService,
	log *zap.Logger,
) *SyncService {
	return &SyncService{
		businessRepo: businessRepo,
		connRepo:     connRepo,
		locationRepo: locationRepo,
		auth:         auth,
		discovery:    discovery,
		reviews:      reviews,
		autoReply:    autoReply,
		log:          log.Named("sync"),
	}
}

// SyncResult 单商家同步结果
type SyncResult struct {
	BusinessID   string              `json:"business_id"`
	AccountName  string              `json:"account_name"`
	LocationName string              `json:"location_name"`
	Fetched      int                 `json:"fetched"`
	Saved        int                 `json:"saved"`
	Replied      int                 `json:"replied"`
	ReplyFailed  int                 `json:"reply_failed"`
	QuotaReached bool                `json:"quota_reached"`
	Stats        model.BusinessStats `json:"stats"`
}

// SyncBusiness 同步单个商家
// 前置校验全部通过前不发起任何外部调用
func (s *SyncService) SyncBusiness(ctx context.Context, businessID string) (*SyncResult, error) {
	// 1. 前置校验
	business, err := s.businessRepo.GetByID(ctx, businessID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBusinessNotFound
	}
	if err != nil {
		return nil, err
	}
	if !business.IsActive {
		return nil, ErrBusinessInactive
	}
	conn := business.Connection
	if conn == nil || conn.RefreshToken == "" {
		return nil, ErrNotConnected
	}
	if !business.HasLocation() {
		return nil, ErrNoLocationSelected
	}

	// 2. 刷新 access token
	token, err := s.auth.AccessToken(ctx, conn)
	if err != nil {
		return nil, err
	}

	// 3. 定位地点所属账号
	found, err := s.discovery.Discover(ctx, token, business.GoogleLocationID)
	if err != nil {
		s.markIfCredential(ctx, businessID, err)
		return nil, err
	}
	if found.AccountName != conn.GoogleAccountID {
		s.log.Info("地点所属账号已变化",
			zap.String("business_id", businessID),
			zap.String("old", conn.GoogleAccountID),
			zap.String("new", found.AccountName),
		)
		if err := s.connRepo.UpdateAccount(ctx, businessID, found.AccountName); err != nil {
			return nil, fmt.Errorf("更新账号失败: %w", err)
		}
	}
	if err := s.locationRepo.Upsert(ctx, ToLocationModel(businessID, found.AccountName, &found.Location)); err != nil {
		s.log.Warn("刷新地点缓存失败", zap.String("business_id", businessID), zap.Error(err))
	}

	// 4. 拉取并对账
	rec, err := s.reviews.FetchAndReconcile(ctx, businessID, token, found.AccountName, found.Location.Name)
	if err != nil {
		s.markIfCredential(ctx, businessID, err)
		return nil, err
	}

	result := &SyncResult{
		BusinessID:   businessID,
		AccountName:  found.AccountName,
		LocationName: found.Location.Name,
		Fetched:      rec.Fetched,
		Saved:        rec.Saved,
		Stats:        rec.Stats,
	}

	// 5. 自动回复
	replies, err := s.autoReply.Process(ctx, ReplyTarget{
		BusinessID:   businessID,
		AccessToken:  token,
		AccountName:  found.AccountName,
		LocationName: found.Location.Name,
	}, rec.Reviews)
	if replies != nil {
		result.Replied = replies.Replied
		result.ReplyFailed = replies.Failed
		result.QuotaReached = replies.QuotaReached
	}
	if err != nil {
		s.markIfCredential(ctx, businessID, err)
		return result, err
	}

	s.log.Info("商家同步完成",
		zap.String("business_id", businessID),
		zap.Int("fetched", result.Fetched),
		zap.Int("replied", result.Replied),
		zap.Int("reply_failed", result.ReplyFailed),
		zap.Float64("average", result.Stats.AverageRating),
	)
	return result, nil
}

// ListSyncable 定时任务使用
func (s *SyncService) ListSyncable(ctx context.Context) ([]model.Business, error) {
	return s.businessRepo.ListSyncable(ctx)
}

func (s *SyncService) markIfCredential(ctx context.Context, businessID string, err error) {
	if errors.Is(err, ErrCredentialInvalid) {
		s.auth.MarkCredentialInvalid(ctx, businessID, err.Error())
	}
}
