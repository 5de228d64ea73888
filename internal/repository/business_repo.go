package repository

import (
	"context"

	"gorm.io/gorm"

	"gbp_review_sync/internal/model"
)

// ==================== 仓储接口 ====================

// BusinessRepository 商家仓储接口
type BusinessRepository interface {
	Create(ctx context.Context, business *model.Business) error
	GetByID(ctx context.Context, id string) (*model.Business, error)
	List(ctx context.Context, filter BusinessFilter) ([]model.Business, int64, error)

	// ListSyncable 可参与定时同步的商家：启用、已授权、已选地点
	ListSyncable(ctx context.Context) ([]model.Business, error)

	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	UpdateStats(ctx context.Context, id string, stats model.BusinessStats) error
	SetActive(ctx context.Context, id string, active bool) error
}

// BusinessFilter 列表过滤
type BusinessFilter struct {
	OnlyActive bool
	Page       int
	PageSize   int
}

// ==================== 仓储实现 ====================

type businessRepo struct {
	db *gorm.DB
}

// NewBusinessRepository 创建商家仓储
func NewBusinessRepository(db *gorm.DB) BusinessRepository {
	return &businessRepo{db: db}
}

func (r *businessRepo) Create(ctx context.Context, business *model.Business) error {
	return r.db.WithContext(ctx).Create(business).Error
}

func (r *businessRepo) GetByID(ctx context.Context, id string) (*model.Business, error) {
	var business model.Business
	err := r.db.WithContext(ctx).
		Preload("Connection").
		Where("id = ?", id).
		First(&business).Error
	if err != nil {
		return nil, err
	}
	return &business, nil
}

func (r *businessRepo) List(ctx context.Context, filter BusinessFilter) ([]model.Business, int64, error) {
	var list []model.Business
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Business{})
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	err := query.Preload("Connection").
		Order("created_at ASC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&list).Error
	return list, total, err
}

func (r *businessRepo) ListSyncable(ctx context.Context) ([]model.Business, error) {
	var list []model.Business
	err := r.db.WithContext(ctx).
		Joins("JOIN google_connections gc ON gc.business_id = businesses.id AND gc.deleted_at IS NULL").
		Where("businesses.is_active = ?", true).
		Where("businesses.google_location_id <> ''").
		Where("gc.refresh_token <> ''").
		Preload("Connection").
		Order("businesses.created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *businessRepo) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.Business{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *businessRepo) UpdateStats(ctx context.Context, id string, stats model.BusinessStats) error {
	return r.db.WithContext(ctx).
		Model(&model.Business{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stats_total_reviews":  stats.TotalReviews,
			"stats_average_rating": stats.AverageRating,
			"stats_last_updated":   stats.LastUpdated,
		}).Error
}

func (r *businessRepo) SetActive(ctx context.Context, id string, active bool) error {
	res := r.db.WithContext(ctx).
		Model(&model.Business{}).
		Where("id = ?", id).
		Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
