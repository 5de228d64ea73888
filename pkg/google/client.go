package google

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// 默认 API 地址
const (
	DefaultAccountsBaseURL = "https://mybusinessaccountmanagement.googleapis.com"
	DefaultInfoBaseURL     = "https://mybusinessbusinessinformation.googleapis.com"
	DefaultReviewsBaseURL  = "https://mybusiness.googleapis.com"

	locationReadMask = "name,title,storeCode,metadata,categories,storefrontAddress"
)

// Config GBP 客户端配置
type Config struct {
	AccountsBaseURL  string
	InfoBaseURL      string
	ReviewsBaseURL   string
	Timeout          time.Duration // 单次调用超时
	LocationPageSize int
	ReviewPageSize   int
	MaxReviewPages   int
}

// Observer 每次调用结束后回调，status 为 0 表示网络层失败
type Observer func(op string, status int, elapsed time.Duration)

// Client Google Business Profile REST 客户端
// 所有方法都需要调用方传入当次有效的 access token
type Client struct {
	http     *resty.Client
	cfg      Config
	observer Observer
}

// NewClient 创建客户端
func NewClient(cfg Config) *Client {
	if cfg.AccountsBaseURL == "" {
		cfg.AccountsBaseURL = DefaultAccountsBaseURL
	}
	if cfg.InfoBaseURL == "" {
		cfg.InfoBaseURL = DefaultInfoBaseURL
	}
	if cfg.ReviewsBaseURL == "" {
		cfg.ReviewsBaseURL = DefaultReviewsBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.LocationPageSize <= 0 {
		cfg.LocationPageSize = 100
	}
	if cfg.ReviewPageSize <= 0 {
		cfg.ReviewPageSize = 50
	}
	if cfg.MaxReviewPages <= 0 {
		cfg.MaxReviewPages = 10
	}

	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	return &Client{http: httpClient, cfg: cfg}
}

// SetObserver 注入调用观测回调（指标）
func (c *Client) SetObserver(o Observer) {
	c.observer = o
}

// ==================== Accounts ====================

// ListAccounts 列出授权用户可访问的全部账号（自动翻页）
func (c *Client) ListAccounts(ctx context.Context, accessToken string) ([]Account, error) {
	var accounts []Account
	pageToken := ""
	for {
		var out listAccountsResp
		req := c.newRequest(ctx, accessToken).SetResult(&out)
		if pageToken != "" {
			req.SetQueryParam("pageToken", pageToken)
		}
		if err := c.do(req, "GET", c.cfg.AccountsBaseURL+"/v1/accounts", "accounts.list"); err != nil {
			return nil, err
		}
		accounts = append(accounts, out.Accounts...)
		if out.NextPageToken == "" {
			return accounts, nil
		}
		pageToken = out.NextPageToken
	}
}

// ==================== Locations ====================

// ListLocations 列出账号下全部地点（自动翻页）
// accountName 形如 accounts/{id}
func (c *Client) ListLocations(ctx context.Context, accessToken, accountName string) ([]Location, error) {
	var locations []Location
	pageToken := ""
	url := fmt.Sprintf("%s/v1/%s/locations", c.cfg.InfoBaseURL, accountName)
	for {
		var out listLocationsResp
		req := c.newRequest(ctx, accessToken).
			SetQueryParam("readMask", locationReadMask).
			SetQueryParam("pageSize", fmt.Sprint(c.cfg.LocationPageSize)).
			SetResult(&out)
		if pageToken != "" {
			req.SetQueryParam("pageToken", pageToken)
		}
		if err := c.do(req, "GET", url, "locations.list"); err != nil {
			return nil, err
		}
		for i := range out.Locations {
			out.Locations[i].AccountName = accountName
		}
		locations = append(locations, out.Locations...)
		if out.NextPageToken == "" {
			return locations, nil
		}
		pageToken = out.NextPageToken
	}
}

// ==================== Reviews ====================

// ListReviews 拉取地点评论，最多 MaxReviewPages 页
// locationName 形如 locations/{id}
func (c *Client) ListReviews(ctx context.Context, accessToken, accountName, locationName string) ([]Review, error) {
	var reviews []Review
	pageToken := ""
	url := fmt.Sprintf("%s/v4/%s/%s/reviews", c.cfg.ReviewsBaseURL, accountName, locationName)
	for page := 0; page < c.cfg.MaxReviewPages; page++ {
		var out listReviewsResp
		req := c.newRequest(ctx, accessToken).
			SetQueryParam("pageSize", fmt.Sprint(c.cfg.ReviewPageSize)).
			SetResult(&out)
		if pageToken != "" {
			req.SetQueryParam("pageToken", pageToken)
		}
		if err := c.do(req, "GET", url, "reviews.list"); err != nil {
			return nil, err
		}
		reviews = append(reviews, out.Reviews...)
		if out.NextPageToken == "" {
			break
		}
		pageToken = out.NextPageToken
	}
	return reviews, nil
}

// UpdateReply 发布/覆盖评论回复
func (c *Client) UpdateReply(ctx context.Context, accessToken, accountName, locationName, reviewID, comment string) (*ReviewReply, error) {
	var out ReviewReply
	url := fmt.Sprintf("%s/v4/%s/%s/reviews/%s/reply", c.cfg.ReviewsBaseURL, accountName, locationName, reviewID)
	req := c.newRequest(ctx, accessToken).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"comment": comment}).
		SetResult(&out)
	if err := c.do(req, "PUT", url, "reviews.updateReply"); err != nil {
		return nil, err
	}
	return &out, nil
}

// ==================== 内部方法 ====================

func (c *Client) newRequest(ctx context.Context, accessToken string) *resty.Request {
	return c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetError(&errorBody{})
}

// do 发送请求并把非 2xx 响应转换为 *APIError
func (c *Client) do(req *resty.Request, method, url, op string) error {
	start := time.Now()
	resp, err := req.Execute(method, url)
	if err != nil {
		c.observe(op, 0, time.Since(start))
		return fmt.Errorf("google %s: %w", op, err)
	}
	c.observe(op, resp.StatusCode(), time.Since(start))

	if !resp.IsError() {
		return nil
	}

	apiErr := &APIError{Op: op, StatusCode: resp.StatusCode()}
	if body, ok := resp.Error().(*errorBody); ok && body.Error.Message != "" {
		apiErr.Message = body.Error.Message
		apiErr.Status = body.Error.Status
	} else {
		apiErr.Message = strings.TrimSpace(truncate(resp.String(), 256))
	}
	return apiErr
}

func (c *Client) observe(op string, status int, elapsed time.Duration) {
	if c.observer != nil {
		c.observer(op, status, elapsed)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
