package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"gbp_review_sync/internal/api/dto"
	"gbp_review_sync/internal/model"
	"gbp_review_sync/internal/repository"
	"gbp_review_sync/pkg/google"
)

// BusinessService 商家注册、查询与 GBP 地点绑定
type BusinessService struct {
	businessRepo repository.BusinessRepository
	connRepo     repository.GoogleConnectionRepository
	locationRepo repository.GoogleLocationRepository
	ruleRepo     repository.ReplyRuleRepository
	auth         *AuthService
	discovery    *DiscoveryService
	log          *zap.Logger
}

// NewBusinessService 创建商家服务
func NewBusinessService(
	businessRepo repository.BusinessRepository,
	connRepo repository.GoogleConnectionRepository,
	locationRepo repository.GoogleLocationRepository,
	ruleRepo repository.ReplyRuleRepository,
	auth *AuthService,
	discovery *DiscoveryService,
	log *zap.Logger,
) *BusinessService {
	return &BusinessService{
		businessRepo: businessRepo,
		connRepo:     connRepo,
		locationRepo: locationRepo,
		ruleRepo:     ruleRepo,
		auth:         auth,
		discovery:    discovery,
		log:          log.Named("business"),
	}
}

// ==================== 注册 / 查询 ====================

// Register 注册商家
func (s *BusinessService) Register(ctx context.Context, req *dto.RegisterBusinessReq) (*model.Business, error) {
	id := strings.TrimSpace(req.ID)
	if _, err := s.businessRepo.GetByID(ctx, id); err == nil {
		return nil, ErrBusinessExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	business := &model.Business{
		ID:       id,
		Name:     req.Name,
		Category: req.Category,
		Location: req.Location,
		IsActive: true,
	}
	if err := s.businessRepo.Create(ctx, business); err != nil {
		return nil, fmt.Errorf("创建商家失败: %w", err)
	}
	return business, nil
}

// Get 商家详情
func (s *BusinessService) Get(ctx context.Context, id string) (*model.Business, error) {
	business, err := s.businessRepo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBusinessNotFound
	}
	return business, err
}

// SetActive 启用/停用（管理员）
func (s *BusinessService) SetActive(ctx context.Context, id string, active bool) error {
	err := s.businessRepo.SetActive(ctx, id, active)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrBusinessNotFound
	}
	if err == nil {
		s.log.Info("商家状态变更", zap.String("business_id", id), zap.Bool("active", active))
	}
	return err
}

// ==================== GBP 地点 ====================

// ListLocations 列出业主全部账号下的地点，供选择
func (s *BusinessService) ListLocations(ctx context.Context, id string) (*dto.LocationListResp, error) {
	business, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	token, err := s.accessToken(ctx, business)
	if err != nil {
		return nil, err
	}

	locations, failures, err := s.discovery.ListAllLocations(ctx, token)
	if err != nil {
		s.handleCredentialError(ctx, id, err)
		return nil, err
	}

	resp := &dto.LocationListResp{Locations: make([]dto.LocationItem, 0, len(locations))}
	for i := range locations {
		resp.Locations = append(resp.Locations, dto.ToLocationItem(&locations[i]))
	}
	for _, f := range failures {
		resp.FailedAccounts = append(resp.FailedAccounts, f.AccountName)
	}
	return resp, nil
}

// SelectLocation 绑定 GBP 地点
// 回写地点标题、主类目、门店编码、placeId，并补齐默认回复规则
func (s *BusinessService) SelectLocation(ctx context.Context, id, locationName string) (*model.Business, error) {
	business, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	token, err := s.accessToken(ctx, business)
	if err != nil {
		return nil, err
	}

	found, err := s.discovery.Discover(ctx, token, locationName)
	if err != nil {
		s.handleCredentialError(ctx, id, err)
		return nil, err
	}
	loc := &found.Location

	if err := s.connRepo.UpdateAccount(ctx, id, found.AccountName); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"connected":            true,
		"place_id":             loc.Metadata.PlaceID,
		"review_url":           model.ReviewURLForPlace(loc.Metadata.PlaceID),
		"google_location_id":   loc.Name,
		"google_location_name": loc.Title,
	}
	if loc.Title != "" {
		fields["name"] = loc.Title
	}
	if c := loc.PrimaryCategoryName(); c != "" {
		fields["category"] = c
	}
	if loc.StoreCode != "" {
		fields["location"] = loc.StoreCode
	}
	if err := s.businessRepo.UpdateFields(ctx, id, fields); err != nil {
		return nil, fmt.Errorf("更新商家失败: %w", err)
	}

	if err := s.locationRepo.Upsert(ctx, ToLocationModel(id, found.AccountName, loc)); err != nil {
		return nil, fmt.Errorf("缓存地点失败: %w", err)
	}
	if err := s.ruleRepo.CreateIfAbsent(ctx, model.DefaultReplyRule(id)); err != nil {
		return nil, fmt.Errorf("初始化回复规则失败: %w", err)
	}

	s.log.Info("已绑定 GBP 地点",
		zap.String("business_id", id),
		zap.String("location", loc.Name),
		zap.String("account", found.AccountName),
	)
	return s.Get(ctx, id)
}

func (s *BusinessService) accessToken(ctx context.Context, business *model.Business) (string, error) {
	if business.Connection == nil || business.Connection.RefreshToken == "" {
		return "", ErrNotConnected
	}
	return s.auth.AccessToken(ctx, business.Connection)
}

func (s *BusinessService) handleCredentialError(ctx context.Context, businessID string, err error) {
	if errors.Is(err, ErrCredentialInvalid) {
		s.auth.MarkCredentialInvalid(ctx, businessID, err.Error())
	}
}

// ToLocationModel 远端地点 -> 本地缓存
func ToLocationModel(businessID, accountName string, loc *google.Location) *model.GoogleLocation {
	categories, _ := json.Marshal(loc.CategoryNames())
	return &model.GoogleLocation{
		BusinessID: businessID,
		LocationID: loc.Name,
		AccountID:  accountName,
		Title:      loc.Title,
		Address:    loc.FormattedAddress(),
		StoreCode:  loc.StoreCode,
		PlaceID:    loc.Metadata.PlaceID,
		Categories: datatypes.JSON(categories),
	}
}
