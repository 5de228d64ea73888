package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"gbp_review_sync/internal/model"
	"gbp_review_sync/internal/repository"
)

// BusinessManageScope GBP 管理权限
const BusinessManageScope = "https://www.googleapis.com/auth/business.manage"

// OAuthConfig Google OAuth 客户端配置
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string // 为空使用 google.Endpoint
	TokenURL     string
	Timeout      time.Duration
}

// AuthService Google 授权与 access token 刷新
type AuthService struct {
	oauth        *oauth2.Config
	httpClient   *http.Client
	connRepo     repository.GoogleConnectionRepository
	businessRepo repository.BusinessRepository
	ruleRepo     repository.ReplyRuleRepository
	states       *cache.Cache // state -> businessID
	now          func() time.Time
	log          *zap.Logger
}

// NewAuthService 工厂方法
func NewAuthService(
	cfg OAuthConfig,
	connRepo repository.GoogleConnectionRepository,
	businessRepo repository.BusinessRepository,
	ruleRepo repository.ReplyRuleRepository,
	log *zap.Logger,
) *AuthService {
	endpoint := google.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	// Google 同时接受两种方式，固定为表单参数避免探测请求
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	return &AuthService{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{BusinessManageScope},
			Endpoint:     endpoint,
		},
		httpClient:   &http.Client{Timeout: timeout},
		connRepo:     connRepo,
		businessRepo: businessRepo,
		ruleRepo:     ruleRepo,
		// 默认 10 分钟过期，足够完成授权流程
		states: cache.New(10*time.Minute, 20*time.Minute),
		now:    time.Now,
		log:    log.Named("auth"),
	}
}

// ==================== Token 刷新 ====================

// AccessToken 用 refresh token 换取短期 access token
// token 只在内存中使用，不落库、不打印
func (s *AuthService) AccessToken(ctx context.Context, conn *model.GoogleConnection) (string, error) {
	if conn == nil || conn.RefreshToken == "" {
		return "", fmt.Errorf("%w: no refresh token stored", ErrCredentialInvalid)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	tok, err := s.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: conn.RefreshToken}).Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && isCredentialRejection(re) {
			reason := retrieveErrorReason(re)
			s.MarkCredentialInvalid(ctx, conn.BusinessID, reason)
			return "", fmt.Errorf("%w: %s", ErrCredentialInvalid, reason)
		}
		// 网络错误等，不改变授权状态
		return "", fmt.Errorf("刷新 access token 失败: %w", err)
	}

	now := s.now().UTC()
	if conn.TokenStatus != model.TokenStatusValid || conn.LastError != "" {
		s.log.Info("授权恢复有效", zap.String("business_id", conn.BusinessID))
	}
	if err := s.connRepo.UpdateTokenStatus(ctx, conn.BusinessID, model.TokenStatusValid, "", &now); err != nil {
		s.log.Warn("更新授权状态失败", zap.String("business_id", conn.BusinessID), zap.Error(err))
	}
	return tok.AccessToken, nil
}

// MarkCredentialInvalid 标记授权失效，业主需重新授权
func (s *AuthService) MarkCredentialInvalid(ctx context.Context, businessID, reason string) {
	s.log.Warn("Google 授权失效", zap.String("business_id", businessID), zap.String("reason", reason))
	if err := s.connRepo.UpdateTokenStatus(ctx, businessID, model.TokenStatusInvalid, reason, nil); err != nil {
		s.log.Error("更新授权状态失败", zap.String("business_id", businessID), zap.Error(err))
	}
}

// isCredentialRejection invalid_grant 等 4xx 视为凭证失效，5xx 视为临时错误
func isCredentialRejection(re *oauth2.RetrieveError) bool {
	if re.Response == nil {
		return re.ErrorCode != ""
	}
	code := re.Response.StatusCode
	return code == http.StatusBadRequest || code == http.StatusUnauthorized
}

func retrieveErrorReason(re *oauth2.RetrieveError) string {
	switch {
	case re.ErrorCode != "" && re.ErrorDescription != "":
		return re.ErrorCode + ": " + re.ErrorDescription
	case re.ErrorCode != "":
		return re.ErrorCode
	case re.Response != nil:
		return fmt.Sprintf("token endpoint returned HTTP %d", re.Response.StatusCode)
	default:
		return "token endpoint rejected refresh token"
	}
}

// ==================== OAuth 授权 ====================

// GenerateAuthURL 生成授权链接，state 缓存 10 分钟
func (s *AuthService) GenerateAuthURL(ctx context.Context, businessID string) (string, error) {
	if s.oauth.ClientID == "" || s.oauth.ClientSecret == "" {
		return "", ErrOAuthNotConfigured
	}
	if _, err := s.loadBusiness(ctx, businessID); err != nil {
		return "", err
	}

	state := uuid.NewString()
	s.states.Set(state, businessID, cache.DefaultExpiration)

	// offline + consent 才能拿到 refresh token
	return s.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	), nil
}

// HandleCallback 处理 Google 回调 -> 换 Token -> 保存授权
func (s *AuthService) HandleCallback(ctx context.Context, code, state string) (*model.GoogleConnection, error) {
	// 1. 校验 State（用完即焚）
	cached, ok := s.states.Get(state)
	if !ok {
		return nil, ErrInvalidState
	}
	s.states.Delete(state)
	businessID := cached.(string)

	// 2. 换取 Token
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("换取 Token 失败: %w", err)
	}

	existing, err := s.connRepo.GetByBusinessID(ctx, businessID)
	if err != nil {
		return nil, err
	}

	// 3. Google 可能不再下发 refresh token，沿用旧值
	refreshToken := tok.RefreshToken
	if refreshToken == "" && existing != nil {
		refreshToken = existing.RefreshToken
	}
	if refreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	conn := &model.GoogleConnection{
		BusinessID:   businessID,
		RefreshToken: refreshToken,
		TokenStatus:  model.TokenStatusValid,
	}
	if existing != nil {
		conn.GoogleAccountID = existing.GoogleAccountID
		conn.AccountName = existing.AccountName
	}
	if err := s.connRepo.Upsert(ctx, conn); err != nil {
		return nil, fmt.Errorf("保存授权失败: %w", err)
	}

	// 4. 补齐默认回复规则
	if err := s.ruleRepo.CreateIfAbsent(ctx, model.DefaultReplyRule(businessID)); err != nil {
		return nil, fmt.Errorf("初始化回复规则失败: %w", err)
	}

	s.log.Info("Google 授权完成", zap.String("business_id", businessID))
	return conn, nil
}

func (s *AuthService) loadBusiness(ctx context.Context, businessID string) (*model.Business, error) {
	business, err := s.businessRepo.GetByID(ctx, businessID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBusinessNotFound
	}
	return business, err
}
