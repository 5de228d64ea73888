package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"gbp_review_sync/internal/api/dto"
	"gbp_review_sync/internal/model"
	"gbp_review_sync/internal/repository"
)

// ReplyLogLimit 日志列表默认条数
const ReplyLogLimit = 50

// ReplyRuleService 回复规则与审计日志
type ReplyRuleService struct {
	businessRepo repository.BusinessRepository
	ruleRepo     repository.ReplyRuleRepository
	logRepo      repository.ReplyLogRepository
}

// NewReplyRuleService 创建规则服务
func NewReplyRuleService(
	businessRepo repository.BusinessRepository,
	ruleRepo repository.ReplyRuleRepository,
	logRepo repository.ReplyLogRepository,
) *ReplyRuleService {
	return &ReplyRuleService{businessRepo: businessRepo, ruleRepo: ruleRepo, logRepo: logRepo}
}

// GetRule 规则不存在时返回 nil
func (s *ReplyRuleService) GetRule(ctx context.Context, businessID string) (*model.ReplyRule, error) {
	if err := s.ensureBusiness(ctx, businessID); err != nil {
		return nil, err
	}
	return s.ruleRepo.GetByBusinessID(ctx, businessID)
}

// UpdateRule 新建或覆盖规则
func (s *ReplyRuleService) UpdateRule(ctx context.Context, businessID string, req *dto.ReplyRuleReq) (*model.ReplyRule, error) {
	if err := s.ensureBusiness(ctx, businessID); err != nil {
		return nil, err
	}
	if req.MinStars < 1 || req.MaxStars > 5 || req.MinStars > req.MaxStars {
		return nil, fmt.Errorf("%w: star range %d-%d", ErrInvalidRule, req.MinStars, req.MaxStars)
	}
	if !model.ValidReplyMode(req.Mode) {
		return nil, fmt.Errorf("%w: mode %q", ErrInvalidRule, req.Mode)
	}
	if req.DailyLimit < 0 {
		return nil, fmt.Errorf("%w: daily_limit must be >= 0", ErrInvalidRule)
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	rule := &model.ReplyRule{
		BusinessID: businessID,
		LocationID: model.RuleLocationAll,
		MinStars:   req.MinStars,
		MaxStars:   req.MaxStars,
		Mode:       req.Mode,
		DailyLimit: req.DailyLimit,
		Enabled:    enabled,
	}
	if err := s.ruleRepo.Upsert(ctx, rule); err != nil {
		return nil, fmt.Errorf("保存回复规则失败: %w", err)
	}
	return s.ruleRepo.GetByBusinessID(ctx, businessID)
}

// ListLogs 最近的回复日志，最新在前
func (s *ReplyRuleService) ListLogs(ctx context.Context, businessID string) ([]model.ReplyLog, error) {
	if err := s.ensureBusiness(ctx, businessID); err != nil {
		return nil, err
	}
	return s.logRepo.ListRecent(ctx, businessID, ReplyLogLimit)
}

func (s *ReplyRuleService) ensureBusiness(ctx context.Context, businessID string) error {
	_, err := s.businessRepo.GetByID(ctx, businessID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrBusinessNotFound
	}
	return err
}
