package model

import (
	"gorm.io/datatypes"
)

// GoogleLocation 已选择 GBP 地点的本地缓存
type GoogleLocation struct {
	BaseModel
	BusinessID string         `gorm:"size:64;index" json:"business_id"`
	LocationID string         `gorm:"size:128;uniqueIndex" json:"location_id"` // locations/{id}
	AccountID  string         `gorm:"size:128" json:"account_id"`              // accounts/{id}
	Title      string         `gorm:"size:255" json:"title"`
	Address    string         `gorm:"size:512" json:"address"`
	StoreCode  string         `gorm:"size:128" json:"store_code"`
	PlaceID    string         `gorm:"size:128" json:"place_id"`
	Categories datatypes.JSON `json:"categories"`
}

func (GoogleLocation) TableName() string {
	return "google_locations"
}
