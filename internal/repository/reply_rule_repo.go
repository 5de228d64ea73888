package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gbp_review_sync/internal/model"
)

// ReplyRuleRepository 自动回复规则仓储接口
type ReplyRuleRepository interface {
	// GetByBusinessID 不存在时返回 (nil, nil)
	GetByBusinessID(ctx context.Context, businessID string) (*model.ReplyRule, error)
	Upsert(ctx context.Context, rule *model.ReplyRule) error
	// CreateIfAbsent 已存在则保持原样
	CreateIfAbsent(ctx context.Context, rule *model.ReplyRule) error
}

type replyRuleRepo struct {
	db *gorm.DB
}

// NewReplyRuleRepository 创建规则仓储
func NewReplyRuleRepository(db *gorm.DB) ReplyRuleRepository {
	return &replyRuleRepo{db: db}
}

func (r *replyRuleRepo) GetByBusinessID(ctx context.Context, businessID string) (*model.ReplyRule, error) {
	var rule model.ReplyRule
	err := r.db.WithContext(ctx).Where("business_id = ?", businessID).First(&rule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *replyRuleRepo) Upsert(ctx context.Context, rule *model.ReplyRule) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "business_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"location_id", "min_stars", "max_stars", "mode",
				"daily_limit", "enabled", "updated_at",
			}),
		}).
		Create(rule).Error
}

func (r *replyRuleRepo) CreateIfAbsent(ctx context.Context, rule *model.ReplyRule) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "business_id"}},
			DoNothing: true,
		}).
		Create(rule).Error
}
