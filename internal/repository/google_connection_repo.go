package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gbp_review_sync/internal/model"
)

// GoogleConnectionRepository Google 授权仓储接口
type GoogleConnectionRepository interface {
	// GetByBusinessID 不存在时返回 (nil, nil)
	GetByBusinessID(ctx context.Context, businessID string) (*model.GoogleConnection, error)
	Upsert(ctx context.Context, conn *model.GoogleConnection) error
	UpdateTokenStatus(ctx context.Context, businessID, status, lastError string, refreshedAt *time.Time) error
	UpdateAccount(ctx context.Context, businessID, accountID string) error
}

type googleConnectionRepo struct {
	db *gorm.DB
}

// NewGoogleConnectionRepository 创建授权仓储
func NewGoogleConnectionRepository(db *gorm.DB) GoogleConnectionRepository {
	return &googleConnectionRepo{db: db}
}

func (r *googleConnectionRepo) GetByBusinessID(ctx context.Context, businessID string) (*model.GoogleConnection, error) {
	var conn model.GoogleConnection
	err := r.db.WithContext(ctx).Where("business_id = ?", businessID).First(&conn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

// Upsert 按 business_id 覆盖授权信息
func (r *googleConnectionRepo) Upsert(ctx context.Context, conn *model.GoogleConnection) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "business_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"refresh_token", "google_account_id", "account_name",
				"token_status", "last_error", "updated_at",
			}),
		}).
		Create(conn).Error
}

func (r *googleConnectionRepo) UpdateTokenStatus(ctx context.Context, businessID, status, lastError string, refreshedAt *time.Time) error {
	fields := map[string]interface{}{
		"token_status": status,
		"last_error":   lastError,
	}
	if refreshedAt != nil {
		fields["last_refreshed_at"] = refreshedAt
	}
	return r.db.WithContext(ctx).
		Model(&model.GoogleConnection{}).
		Where("business_id = ?", businessID).
		Updates(fields).Error
}

func (r *googleConnectionRepo) UpdateAccount(ctx context.Context, businessID, accountID string) error {
	return r.db.WithContext(ctx).
		Model(&model.GoogleConnection{}).
		Where("business_id = ?", businessID).
		Update("google_account_id", accountID).Error
}
