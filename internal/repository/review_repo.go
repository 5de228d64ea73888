package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gbp_review_sync/internal/model"
)

// ==================== 仓储接口 ====================

// ReviewRepository 评论仓储接口
type ReviewRepository interface {
	// Upsert 按 review_id 写入远端评论
	// review.HasReply=false 时不触碰本地回复字段
	Upsert(ctx context.Context, review *model.Review) error
	GetByReviewIDs(ctx context.Context, reviewIDs []string) ([]model.Review, error)
	ListByLocation(ctx context.Context, locationID string, page, pageSize int) ([]model.Review, int64, error)
	StatsByLocation(ctx context.Context, locationID string) (*ReviewStats, error)

	// MarkReplied 仅在尚未回复时写入回复，返回是否实际更新
	MarkReplied(ctx context.Context, reviewID, comment string, at time.Time) (bool, error)
}

// ReviewStats 评论聚合
type ReviewStats struct {
	Total   int64   `json:"total"`
	Average float64 `json:"average"`
}

// ==================== 仓储实现 ====================

type reviewRepo struct {
	db *gorm.DB
}

// NewReviewRepository 创建评论仓储
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepo{db: db}
}

// 远端权威字段，每次同步都覆盖
var remoteReviewColumns = []string{
	"location_id", "reviewer_name", "star_rating", "comment",
	"create_time", "update_time", "updated_at",
}

func (r *reviewRepo) Upsert(ctx context.Context, review *model.Review) error {
	cols := append([]string{}, remoteReviewColumns...)
	if review.HasReply {
		cols = append(cols, "has_reply")
		if review.ReplyComment != "" {
			cols = append(cols, "reply_comment")
		}
		if review.RepliedAt != nil {
			cols = append(cols, "replied_at")
		}
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "review_id"}},
			DoUpdates: clause.AssignmentColumns(cols),
		}).
		Create(review).Error
}

func (r *reviewRepo) GetByReviewIDs(ctx context.Context, reviewIDs []string) ([]model.Review, error) {
	var list []model.Review
	if len(reviewIDs) == 0 {
		return list, nil
	}
	err := r.db.WithContext(ctx).
		Where("review_id IN ?", reviewIDs).
		Find(&list).Error
	return list, err
}

func (r *reviewRepo) ListByLocation(ctx context.Context, locationID string, page, pageSize int) ([]model.Review, int64, error) {
	var list []model.Review
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Review{}).Where("location_id = ?", locationID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if pageSize <= 0 {
		pageSize = 20
	}
	if page <= 0 {
		page = 1
	}
	err := query.
		Order("create_time DESC").
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&list).Error
	return list, total, err
}

func (r *reviewRepo) StatsByLocation(ctx context.Context, locationID string) (*ReviewStats, error) {
	var stats ReviewStats
	err := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Select("COUNT(*) AS total, COALESCE(AVG(star_rating), 0) AS average").
		Where("location_id = ?", locationID).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *reviewRepo) MarkReplied(ctx context.Context, reviewID, comment string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Where("review_id = ? AND has_reply = ?", reviewID, false).
		Updates(map[string]interface{}{
			"has_reply":     true,
			"reply_comment": comment,
			"replied_at":    at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
