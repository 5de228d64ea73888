package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gbp_review_sync/internal/model"
)

// GoogleLocationRepository 地点缓存仓储接口
type GoogleLocationRepository interface {
	Upsert(ctx context.Context, loc *model.GoogleLocation) error
	GetByLocationID(ctx context.Context, locationID string) (*model.GoogleLocation, error)
}

type googleLocationRepo struct {
	db *gorm.DB
}

// NewGoogleLocationRepository 创建地点缓存仓储
func NewGoogleLocationRepository(db *gorm.DB) GoogleLocationRepository {
	return &googleLocationRepo{db: db}
}

func (r *googleLocationRepo) Upsert(ctx context.Context, loc *model.GoogleLocation) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "location_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"business_id", "account_id", "title", "address",
				"store_code", "place_id", "categories", "updated_at",
			}),
		}).
		Create(loc).Error
}

func (r *googleLocationRepo) GetByLocationID(ctx context.Context, locationID string) (*model.GoogleLocation, error) {
	var loc model.GoogleLocation
	if err := r.db.WithContext(ctx).Where("location_id = ?", locationID).First(&loc).Error; err != nil {
		return nil, err
	}
	return &loc, nil
}
