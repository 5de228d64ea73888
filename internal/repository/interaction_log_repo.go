package repository

import (
	"context"

	"gorm.io/gorm"

	"gbp_review_sync/internal/model"
)

// InteractionLogRepository 落地页互动日志仓储接口
type InteractionLogRepository interface {
	Create(ctx context.Context, log *model.InteractionLog) error
	// CountByAction 按动作分组计数
	CountByAction(ctx context.Context, businessID string) (map[string]int64, error)
}

type interactionLogRepo struct {
	db *gorm.DB
}

// NewInteractionLogRepository 创建互动日志仓储
func NewInteractionLogRepository(db *gorm.DB) InteractionLogRepository {
	return &interactionLogRepo{db: db}
}

func (r *interactionLogRepo) Create(ctx context.Context, log *model.InteractionLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *interactionLogRepo) CountByAction(ctx context.Context, businessID string) (map[string]int64, error) {
	var rows []struct {
		Action string
		Total  int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.InteractionLog{}).
		Select("action, COUNT(*) AS total").
		Where("business_id = ?", businessID).
		Group("action").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Action] = row.Total
	}
	return counts, nil
}
