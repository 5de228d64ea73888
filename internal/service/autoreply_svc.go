package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"gbp_review_sync/internal/model"
	"gbp_review_sync/internal/monitoring"
	"gbp_review_sync/internal/repository"
	"gbp_review_sync/pkg/google"
)

// AutoReplyConfig 自动回复配置
type AutoReplyConfig struct {
	Location  *time.Location // 计算"当天"所用时区
	PostDelay time.Duration  // 每条回复前等待
	DraftOnly bool           // 只写本地，不调用 Google
}

// ==================== AutoReplyService 自动回复 ====================

// AutoReplyService 按规则对未回复评论自动回复，受每日配额限制
// 配额由当天 SUCCESS 日志条数推导，进程重启不丢失
type AutoReplyService struct {
	api        GBPAPI
	ruleRepo   repository.ReplyRuleRepository
	logRepo    repository.ReplyLogRepository
	reviewRepo repository.ReviewRepository
	cfg        AutoReplyConfig
	now        func() time.Time
	log        *zap.Logger

	// 同一商家的 计数 -> 发布 -> 记日志 串行执行
	locks sync.Map // businessID -> *sync.Mutex
}

// NewAutoReplyService 创建自动回复服务
func NewAutoReplyService(
	api GBPAPI,
	ruleRepo repository.ReplyRuleRepository,
	logRepo repository.ReplyLogRepository,
	reviewRepo repository.ReviewRepository,
	cfg AutoReplyConfig,
	log *zap.Logger,
) *AutoReplyService {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &AutoReplyService{
		api:        api,
		ruleRepo:   ruleRepo,
		logRepo:    logRepo,
		reviewRepo: reviewRepo,
		cfg:        cfg,
		now:        time.Now,
		log:        log.Named("autoreply"),
	}
}

// ReplyTarget 回复所需的远端定位信息
type ReplyTarget struct {
	BusinessID   string
	AccessToken  string
	AccountName  string
	LocationName string
}

// AutoReplyResult 单次处理结果
type AutoReplyResult struct {
	Replied      int  `json:"replied"`
	Failed       int  `json:"failed"`
	OutOfRange   int  `json:"out_of_range"`
	QuotaReached bool `json:"quota_reached"`
}

// ReplyText 按星级生成固定模板回复
func ReplyText(reviewerName string, rating int) string {
	if rating >= 4 {
		return fmt.Sprintf("Thank you %s for the great rating! We are glad you had a positive experience.", reviewerName)
	}
	return fmt.Sprintf("Thank you for your feedback %s. We strive to improve every day.", reviewerName)
}

// Process 处理一批已对账评论
// 规则缺失/停用/非 AUTO 时静默跳过，不写日志
func (s *AutoReplyService) Process(ctx context.Context, target ReplyTarget, reviews []model.Review) (*AutoReplyResult, error) {
	result := &AutoReplyResult{}

	rule, err := s.ruleRepo.GetByBusinessID(ctx, target.BusinessID)
	if err != nil {
		return nil, fmt.Errorf("读取回复规则失败: %w", err)
	}
	if rule == nil || !rule.IsAuto() {
		return result, nil
	}

	mu := s.lockFor(target.BusinessID)
	mu.Lock()
	defer mu.Unlock()

	for i := range reviews {
		rv := &reviews[i]
		if rv.HasReply {
			continue
		}
		if !rule.Matches(rv.StarRating) {
			result.OutOfRange++
			continue
		}
		// 并发的另一轮可能刚回复过
		if replied, err := s.alreadyReplied(ctx, rv.ReviewID); err != nil {
			return result, err
		} else if replied {
			continue
		}

		used, err := s.logRepo.CountSince(ctx, target.BusinessID, model.ReplyActionAuto, model.ReplyStatusSuccess, s.startOfDay())
		if err != nil {
			return result, fmt.Errorf("统计当日回复数失败: %w", err)
		}
		if used >= int64(rule.DailyLimit) {
			result.QuotaReached = true
			continue
		}

		if err := s.replyOne(ctx, target, rv, result); err != nil {
			return result, err
		}
	}

	if result.QuotaReached {
		s.log.Info("已达每日回复上限",
			zap.String("business_id", target.BusinessID),
			zap.Int("daily_limit", rule.DailyLimit),
		)
	}
	return result, nil
}

// replyOne 发布单条回复并记日志
// 远端失败记 FAILED，评论保持未回复，下轮重试
func (s *AutoReplyService) replyOne(ctx context.Context, target ReplyTarget, rv *model.Review, result *AutoReplyResult) error {
	text := ReplyText(rv.ReviewerName, rv.StarRating)

	if s.cfg.PostDelay > 0 {
		select {
		case <-time.After(s.cfg.PostDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	prefix := "Replied: "
	if s.cfg.DraftOnly {
		prefix = "Drafted: "
	} else if _, err := s.api.UpdateReply(ctx, target.AccessToken, target.AccountName, target.LocationName, rv.ReviewID, text); err != nil {
		s.log.Warn("发布回复失败", zap.String("review_id", rv.ReviewID), zap.Error(err))
		result.Failed++
		monitoring.AutoRepliesTotal.WithLabelValues(model.ReplyStatusFailed).Inc()
		if logErr := s.writeLog(ctx, target.BusinessID, rv.ReviewID, model.ReplyStatusFailed, err.Error()); logErr != nil {
			return logErr
		}
		// token 已失效，本轮剩余评论不再尝试
		if errors.Is(err, google.ErrUnauthorized) {
			return fmt.Errorf("%w: %v", ErrCredentialInvalid, err)
		}
		return nil
	}

	now := s.now().UTC()
	if _, err := s.reviewRepo.MarkReplied(ctx, rv.ReviewID, text, now); err != nil {
		// 远端已成功，日志仍需记 SUCCESS 以保证配额正确
		s.log.Error("更新本地评论回复状态失败", zap.String("review_id", rv.ReviewID), zap.Error(err))
	}
	rv.HasReply = true
	rv.ReplyComment = text
	rv.RepliedAt = &now

	result.Replied++
	monitoring.AutoRepliesTotal.WithLabelValues(model.ReplyStatusSuccess).Inc()
	return s.writeLog(ctx, target.BusinessID, rv.ReviewID, model.ReplyStatusSuccess, prefix+text)
}

func (s *AutoReplyService) writeLog(ctx context.Context, businessID, reviewID, status, message string) error {
	entry := &model.ReplyLog{
		BusinessID: businessID,
		ReviewID:   reviewID,
		Action:     model.ReplyActionAuto,
		Status:     status,
		Message:    message,
		Timestamp:  s.now().UTC(),
	}
	if err := s.logRepo.Create(ctx, entry); err != nil {
		return fmt.Errorf("写入回复日志失败: %w", err)
	}
	return nil
}

func (s *AutoReplyService) alreadyReplied(ctx context.Context, reviewID string) (bool, error) {
	fresh, err := s.reviewRepo.GetByReviewIDs(ctx, []string{reviewID})
	if err != nil {
		return false, fmt.Errorf("读取评论状态失败: %w", err)
	}
	return len(fresh) == 1 && fresh[0].HasReply, nil
}

// startOfDay 配置时区下当天 0 点
func (s *AutoReplyService) startOfDay() time.Time {
	n := s.now().In(s.cfg.Location)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, s.cfg.Location)
}

func (s *AutoReplyService) lockFor(businessID string) *sync.Mutex {
	actual, _ := s.locks.LoadOrStore(businessID, &sync.Mutex{})
	return actual.(*sync.Mutex)
}
