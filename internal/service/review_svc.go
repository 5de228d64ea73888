package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gbp_review_sync/internal/model"
	"gbp_review_sync/internal/monitoring"
	"gbp_review_sync/internal/repository"
	"gbp_review_sync/pkg/google"
)

// ReviewService 拉取远端评论并与本地对账
type ReviewService struct {
	api          GBPAPI
	reviewRepo   repository.ReviewRepository
	businessRepo repository.BusinessRepository
	now          func() time.Time
	log          *zap.Logger
}

// NewReviewService 创建评论服务
func NewReviewService(api GBPAPI, reviewRepo repository.ReviewRepository, businessRepo repository.BusinessRepository, log *zap.Logger) *ReviewService {
	return &ReviewService{
		api:          api,
		reviewRepo:   reviewRepo,
		businessRepo: businessRepo,
		now:          time.Now,
		log:          log.Named("review"),
	}
}

// ReconcileResult 对账结果
type ReconcileResult struct {
	Fetched int                 `json:"fetched"`
	Saved   int                 `json:"saved"`
	Stats   model.BusinessStats `json:"stats"`

	// Reviews 本批评论写库后的本地状态，供自动回复使用
	Reviews []model.Review `json:"-"`
}

// FetchAndReconcile 拉取地点评论并写库
func (s *ReviewService) FetchAndReconcile(ctx context.Context, businessID, accessToken, accountName, locationName string) (*ReconcileResult, error) {
	remote, err := s.api.ListReviews(ctx, accessToken, accountName, locationName)
	if err != nil {
		if errors.Is(err, google.ErrUnauthorized) {
			return nil, fmt.Errorf("%w: %v", ErrCredentialInvalid, err)
		}
		return nil, fmt.Errorf("拉取评论失败: %w", err)
	}
	return s.Reconcile(ctx, businessID, locationName, remote)
}

// Reconcile 按 reviewId upsert，再基于全部已存评论重算统计
// 重复执行结果一致
func (s *ReviewService) Reconcile(ctx context.Context, businessID, locationID string, remote []google.Review) (*ReconcileResult, error) {
	result := &ReconcileResult{Fetched: len(remote)}

	ids := make([]string, 0, len(remote))
	for i := range remote {
		rv := toReviewModel(&remote[i], locationID)
		if rv.ReviewID == "" {
			s.log.Warn("评论缺少 reviewId，跳过", zap.String("name", remote[i].Name))
			continue
		}
		if err := s.reviewRepo.Upsert(ctx, rv); err != nil {
			return nil, fmt.Errorf("保存评论 %s 失败: %w", rv.ReviewID, err)
		}
		ids = append(ids, rv.ReviewID)
		result.Saved++
	}
	monitoring.ReviewsUpsertedTotal.Add(float64(result.Saved))

	stored, err := s.reviewRepo.GetByReviewIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	// 保持远端顺序
	byID := make(map[string]model.Review, len(stored))
	for _, rv := range stored {
		byID[rv.ReviewID] = rv
	}
	for _, id := range ids {
		if rv, ok := byID[id]; ok {
			result.Reviews = append(result.Reviews, rv)
		}
	}

	stats, err := s.RecomputeStats(ctx, businessID, locationID)
	if err != nil {
		return nil, err
	}
	result.Stats = *stats
	return result, nil
}

// RecomputeStats 统计覆盖该地点全部已存评论，平均分保留一位小数
func (s *ReviewService) RecomputeStats(ctx context.Context, businessID, locationID string) (*model.BusinessStats, error) {
	agg, err := s.reviewRepo.StatsByLocation(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("统计评论失败: %w", err)
	}

	now := s.now().UTC()
	stats := model.BusinessStats{
		TotalReviews:  agg.Total,
		AverageRating: math.Round(agg.Average*10) / 10,
		LastUpdated:   &now,
	}
	if err := s.businessRepo.UpdateStats(ctx, businessID, stats); err != nil {
		return nil, fmt.Errorf("更新商家统计失败: %w", err)
	}
	return &stats, nil
}

// RefreshStats 手动重算商家统计，不访问 Google
func (s *ReviewService) RefreshStats(ctx context.Context, businessID string) (*model.BusinessStats, error) {
	business, err := s.businessRepo.GetByID(ctx, businessID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBusinessNotFound
	}
	if err != nil {
		return nil, err
	}
	if !business.HasLocation() {
		return nil, ErrNoLocationSelected
	}
	return s.RecomputeStats(ctx, businessID, business.GoogleLocationID)
}

// ListReviews 商家已存评论，最新在前
func (s *ReviewService) ListReviews(ctx context.Context, businessID string, page, pageSize int) ([]model.Review, int64, error) {
	business, err := s.businessRepo.GetByID(ctx, businessID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, ErrBusinessNotFound
	}
	if err != nil {
		return nil, 0, err
	}
	if !business.HasLocation() {
		return []model.Review{}, 0, nil
	}
	return s.reviewRepo.ListByLocation(ctx, business.GoogleLocationID, page, pageSize)
}

// toReviewModel 远端评论 -> 本地模型
// 远端无回复时 HasReply=false，仓储不会覆盖本地回复字段
func toReviewModel(rv *google.Review, locationID string) *model.Review {
	name := rv.Reviewer.DisplayName
	if name == "" {
		name = model.DefaultReviewerName
	}

	out := &model.Review{
		ReviewID:     rv.ReviewID,
		LocationID:   locationID,
		ReviewerName: name,
		StarRating:   google.ParseStarRating(rv.StarRating),
		Comment:      rv.Comment,
		CreateTime:   google.ParseTime(rv.CreateTime),
		UpdateTime:   google.ParseTime(rv.UpdateTime),
	}
	if rv.ReviewReply != nil {
		out.HasReply = true
		out.ReplyComment = rv.ReviewReply.Comment
		out.RepliedAt = google.ParseTime(rv.ReviewReply.UpdateTime)
	}
	return out
}
