package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gbp_review_sync/pkg/google"
)

// GBPAPI Google Business Profile 接口，*google.Client 实现
type GBPAPI interface {
	ListAccounts(ctx context.Context, accessToken string) ([]google.Account, error)
	ListLocations(ctx context.Context, accessToken, accountName string) ([]google.Location, error)
	ListReviews(ctx context.Context, accessToken, accountName, locationName string) ([]google.Review, error)
	UpdateReply(ctx context.Context, accessToken, accountName, locationName, reviewID, comment string) (*google.ReviewReply, error)
}

// ==================== DiscoveryService 资源发现 ====================

// DiscoveryService 在账号 -> 地点层级中定位商家记录的地点
// 商家保存的账号 ID 可能已过期，因此每次都遍历全部账号
type DiscoveryService struct {
	api         GBPAPI
	concurrency int
	log         *zap.Logger
}

// NewDiscoveryService 创建发现服务
func NewDiscoveryService(api GBPAPI, concurrency int, log *zap.Logger) *DiscoveryService {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &DiscoveryService{api: api, concurrency: concurrency, log: log.Named("discovery")}
}

// AccountFailure 单个账号列地点失败
type AccountFailure struct {
	AccountName string `json:"account_name"`
	Error       string `json:"error"`
}

// DiscoveryResult 发现结果
type DiscoveryResult struct {
	AccountName      string           `json:"account_name"`
	Location         google.Location  `json:"location"`
	AccountsSearched int              `json:"accounts_searched"`
	Failures         []AccountFailure `json:"failures,omitempty"`
}

// Discover 查找 target（locations/{id}）所属账号
// 按账号列出顺序、地点列出顺序取第一个精确匹配
func (s *DiscoveryService) Discover(ctx context.Context, accessToken, target string) (*DiscoveryResult, error) {
	accounts, perAccount, failures, err := s.collect(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	for i, acc := range accounts {
		for _, loc := range perAccount[i] {
			if loc.Name == target {
				return &DiscoveryResult{
					AccountName:      acc.Name,
					Location:         loc,
					AccountsSearched: len(accounts),
					Failures:         failures,
				}, nil
			}
		}
	}

	return nil, fmt.Errorf("%w: %s (searched %d accounts, %d failed)",
		ErrLocationNotFound, target, len(accounts), len(failures))
}

// ListAllLocations 列出全部账号下的地点，每个地点带所属账号
func (s *DiscoveryService) ListAllLocations(ctx context.Context, accessToken string) ([]google.Location, []AccountFailure, error) {
	_, perAccount, failures, err := s.collect(ctx, accessToken)
	if err != nil {
		return nil, nil, err
	}

	all := make([]google.Location, 0)
	for _, locs := range perAccount {
		all = append(all, locs...)
	}
	return all, failures, nil
}

// collect 列账号并并发列出每个账号的地点
// 单账号失败只记录，不影响其它账号
func (s *DiscoveryService) collect(ctx context.Context, accessToken string) ([]google.Account, [][]google.Location, []AccountFailure, error) {
	accounts, err := s.api.ListAccounts(ctx, accessToken)
	if err != nil {
		if errors.Is(err, google.ErrUnauthorized) {
			return nil, nil, nil, fmt.Errorf("%w: %v", ErrCredentialInvalid, err)
		}
		return nil, nil, nil, fmt.Errorf("列出 GBP 账号失败: %w", err)
	}
	if len(accounts) == 0 {
		return nil, nil, nil, ErrNoAccounts
	}

	perAccount := make([][]google.Location, len(accounts))
	errs := make([]error, len(accounts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, acc := range accounts {
		g.Go(func() error {
			locs, err := s.api.ListLocations(gctx, accessToken, acc.Name)
			if err != nil {
				errs[i] = err
				return nil
			}
			perAccount[i] = locs
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, nil, err
	}

	var failures []AccountFailure
	for i, err := range errs {
		if err == nil {
			continue
		}
		s.log.Warn("列出地点失败，跳过该账号",
			zap.String("account", accounts[i].Name),
			zap.Error(err),
		)
		failures = append(failures, AccountFailure{AccountName: accounts[i].Name, Error: err.Error()})
	}

	return accounts, perAccount, failures, nil
}
