package admitad

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/oneinfo/affiliate-backend/internal/config"
	"github.com/oneinfo/affiliate-backend/internal/constants"
	"github.com/oneinfo/affiliate-backend/internal/models"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

var (
	ErrConfigInvalid    = errors.New("admitad config invalid")
	ErrRequestFailed    = errors.New("admitad request failed")
	ErrResponseInvalid  = errors.New("admitad response invalid")
	// ErrActionsTruncated 达到翻页上限仍有剩余转化，返回的列表不完整
	ErrActionsTruncated = errors.New("admitad actions truncated at page limit")
)

const (
	actionsPath     = "/statistics/actions/"
	actionsPageSize = 500
	maxActionPages  = 100
	dateLayout      = "2006-01-02"
)

// Action Admitad 转化记录
type Action struct {
	ActionID   json.Number   `json:"action_id"`
	OrderID    string        `json:"order_id"`
	SubID      string        `json:"subid"`
	SubID1     string        `json:"subid1"`
	Status     string        `json:"status"`
	Payment    models.Money  `json:"payment"`
	Price      *models.Money `json:"price"`
	Amount     *models.Money `json:"amount"`
	Currency   string        `json:"currency"`
	ActionDate string        `json:"action_date"`
	Product    string        `json:"advcampaign_name"`
}

// CartAmount 返回购物车金额，price 优先于 amount
func (a Action) CartAmount() *models.Money {
	if a.Price != nil && a.Price.IsPositive() {
		return a.Price
	}
	if a.Amount != nil && a.Amount.IsPositive() {
		return a.Amount
	}
	return nil
}

type actionsResponse struct {
	Results []Action `json:"results"`
	Meta    struct {
		Count  int `json:"count"`
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
	} `json:"_meta"`
}

// Client Admitad API 客户端，启动时创建一次，令牌由 oauth2 自动缓存与刷新
type Client struct {
	httpClient   *http.Client
	apiBase      string
	baseLink     string
	trackingHost string
	maxPages     int
}

// NewClient 根据配置创建客户端
func NewClient(ctx context.Context, cfg config.AdmitadConfig) (*Client, error) {
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" || strings.TrimSpace(cfg.TokenURL) == "" {
		return nil, ErrConfigInvalid
	}
	timeout := time.Duration(cfg.RequestTimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ccCfg := clientcredentials.Config{
		ClientID:       cfg.ClientID,
		ClientSecret:   cfg.ClientSecret,
		TokenURL:       cfg.TokenURL,
		Scopes:         strings.Fields(cfg.Scopes),
		EndpointParams: url.Values{"client_id": {cfg.ClientID}},
		AuthStyle:      oauth2.AuthStyleInHeader,
	}
	// 令牌请求同样受超时约束
	tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: timeout})
	httpClient := ccCfg.Client(tokenCtx)
	httpClient.Timeout = timeout
	return NewClientWithHTTP(httpClient, cfg), nil
}

// NewClientWithHTTP 使用已鉴权的 http.Client 创建客户端
func NewClientWithHTTP(httpClient *http.Client, cfg config.AdmitadConfig) *Client {
	return &Client{
		httpClient:   httpClient,
		apiBase:      strings.TrimRight(strings.TrimSpace(cfg.APIBase), "/"),
		baseLink:     strings.TrimSpace(cfg.BaseLink),
		trackingHost: strings.ToLower(strings.TrimSpace(cfg.TrackingHost)),
		maxPages:     maxActionPages,
	}
}

// FetchActions 拉取 dateStart 以来的全部转化（自动翻页）。
// 超过翻页上限时返回已拉取部分与 ErrActionsTruncated
func (c *Client) FetchActions(ctx context.Context, dateStart time.Time) ([]Action, error) {
	if c == nil || c.httpClient == nil || c.apiBase == "" {
		return nil, ErrConfigInvalid
	}
	var all []Action
	offset := 0
	for page := 0; page < c.maxPages; page++ {
		resp, err := c.fetchActionsPage(ctx, dateStart, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, resp.Results...)
		offset += len(resp.Results)
		if len(resp.Results) == 0 || offset >= resp.Meta.Count {
			return all, nil
		}
	}
	return all, ErrActionsTruncated
}

func (c *Client) fetchActionsPage(ctx context.Context, dateStart time.Time, offset int) (*actionsResponse, error) {
	query := url.Values{}
	query.Set("date_start", dateStart.UTC().Format(dateLayout))
	query.Set("limit", strconv.Itoa(actionsPageSize))
	query.Set("offset", strconv.Itoa(offset))
	endpoint := c.apiBase + actionsPath + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status=%d body=%s", ErrRequestFailed, resp.StatusCode, truncate(string(body), 256))
	}
	var parsed actionsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	return &parsed, nil
}

// BuildDeeplink 基于基础推广链接拼接落地页与 subid
func (c *Client) BuildDeeplink(landingURL, subID, creatorID string) (string, error) {
	if c == nil || c.baseLink == "" {
		return "", ErrConfigInvalid
	}
	parsed, err := url.Parse(c.baseLink)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}
	query := parsed.Query()
	query.Set("ulp", landingURL)
	query.Set("subid", subID)
	if creatorID != "" {
		query.Set("subid1", creatorID)
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// IsTrackingURL 判断链接是否指向联盟跟踪域名
func (c *Client) IsTrackingURL(raw string) bool {
	if c == nil || c.trackingHost == "" {
		return false
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	return host == c.trackingHost || strings.HasSuffix(host, "."+c.trackingHost)
}

// NormalizeStatus 将 Admitad 状态映射为订单生命周期状态
func NormalizeStatus(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "approved", "approved_but_stalled":
		return constants.OrderStatusApproved
	case "declined", "rejected":
		return constants.OrderStatusDeclined
	case "paid":
		return constants.OrderStatusPaid
	default:
		return constants.OrderStatusPending
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
