package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gbp_review_sync/internal/model"
	"gbp_review_sync/internal/monitoring"
	"gbp_review_sync/internal/repository"
)

// InteractionService 评论落地页：公开信息、动作上报与统计
type InteractionService struct {
	businessRepo    repository.BusinessRepository
	interactionRepo repository.InteractionLogRepository
	now             func() time.Time
	log             *zap.Logger
}

// NewInteractionService 创建落地页服务
func NewInteractionService(businessRepo repository.BusinessRepository, interactionRepo repository.InteractionLogRepository, log *zap.Logger) *InteractionService {
	return &InteractionService{
		businessRepo:    businessRepo,
		interactionRepo: interactionRepo,
		now:             time.Now,
		log:             log.Named("interaction"),
	}
}

// InteractionStats 落地页计数
type InteractionStats struct {
	Scans     int64 `json:"scans"`
	Copies    int64 `json:"copies"`
	Redirects int64 `json:"redirects"`
}

// PublicBusiness 落地页查询商家，同时记一次 SCAN
// 停用商家对外视为不存在；SCAN 写入失败不影响返回
func (s *InteractionService) PublicBusiness(ctx context.Context, businessID, userAgent string) (*model.Business, error) {
	business, err := s.load(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if !business.IsActive {
		return nil, ErrBusinessNotFound
	}

	if err := s.record(ctx, businessID, model.InteractionScan, "", userAgent); err != nil {
		s.log.Warn("记录扫码失败", zap.String("business_id", businessID), zap.Error(err))
	}
	return business, nil
}

// Track 记录落地页动作，只接受 COPY_REVIEW / REDIRECT_GOOGLE
func (s *InteractionService) Track(ctx context.Context, businessID, action, reviewContent, userAgent string) error {
	if !model.TrackableInteraction(action) {
		return ErrInvalidAction
	}
	if _, err := s.load(ctx, businessID); err != nil {
		return err
	}
	if err := s.record(ctx, businessID, action, reviewContent, userAgent); err != nil {
		return fmt.Errorf("记录动作失败: %w", err)
	}
	return nil
}

// Analytics 商家落地页计数
func (s *InteractionService) Analytics(ctx context.Context, businessID string) (*InteractionStats, error) {
	if _, err := s.load(ctx, businessID); err != nil {
		return nil, err
	}
	counts, err := s.interactionRepo.CountByAction(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("统计落地页动作失败: %w", err)
	}
	return &InteractionStats{
		Scans:     counts[model.InteractionScan],
		Copies:    counts[model.InteractionCopyReview],
		Redirects: counts[model.InteractionRedirectGoogle],
	}, nil
}

func (s *InteractionService) load(ctx context.Context, businessID string) (*model.Business, error) {
	business, err := s.businessRepo.GetByID(ctx, businessID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBusinessNotFound
	}
	return business, err
}

func (s *InteractionService) record(ctx context.Context, businessID, action, reviewContent, userAgent string) error {
	if len(userAgent) > 512 {
		userAgent = userAgent[:512]
	}
	err := s.interactionRepo.Create(ctx, &model.InteractionLog{
		BusinessID:    businessID,
		Action:        action,
		ReviewContent: reviewContent,
		UserAgent:     userAgent,
		Timestamp:     s.now().UTC(),
	})
	if err == nil {
		monitoring.InteractionsTotal.WithLabelValues(action).Inc()
	}
	return err
}
