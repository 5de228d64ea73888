package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"gbp_review_sync/internal/model"
)

// ReplyLogRepository 回复审计日志仓储接口
type ReplyLogRepository interface {
	Create(ctx context.Context, log *model.ReplyLog) error
	// CountSince 统计 since 之后指定动作/状态的日志条数
	CountSince(ctx context.Context, businessID, action, status string, since time.Time) (int64, error)
	ListRecent(ctx context.Context, businessID string, limit int) ([]model.ReplyLog, error)
}

type replyLogRepo struct {
	db *gorm.DB
}

// NewReplyLogRepository 创建审计日志仓储
func NewReplyLogRepository(db *gorm.DB) ReplyLogRepository {
	return &replyLogRepo{db: db}
}

func (r *replyLogRepo) Create(ctx context.Context, log *model.ReplyLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *replyLogRepo) CountSince(ctx context.Context, businessID, action, status string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ReplyLog{}).
		Where("business_id = ? AND action = ? AND status = ? AND timestamp >= ?", businessID, action, status, since.UTC()).
		Count(&count).Error
	return count, err
}

func (r *replyLogRepo) ListRecent(ctx context.Context, businessID string, limit int) ([]model.ReplyLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var list []model.ReplyLog
	err := r.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		Order("timestamp DESC").
		Order("id DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}
