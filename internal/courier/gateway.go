package courier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

var (
	ErrConfigInvalid   = errors.New("courier config invalid")
	ErrRequestFailed   = errors.New("courier request failed")
	ErrResponseInvalid = errors.New("courier response invalid")
)

// 配送方式编码（网关侧）
const (
	deliveryCodeHome     = 1
	deliveryCodeStopdesk = 2
)

// 包裹类型编码（网关侧）
const (
	packageCodeRegular  = 0
	packageCodeExchange = 1
)

// Config 快递网关配置
type Config struct {
	BaseURL       string `json:"base_url"`        // 网关地址，如 https://courier.example.com
	APIID         string `json:"api_id"`          // API 账号标识
	APIToken      string `json:"api_token"`       // API Token
	TimeoutMS     int    `json:"timeout_ms"`      // 单次请求超时（毫秒）
	RatePerMinute int    `json:"rate_per_minute"` // 每分钟请求上限
	Burst         int    `json:"burst"`           // 突发额度
}

func (c *Config) normalize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.APIID = strings.TrimSpace(c.APIID)
	c.APIToken = strings.TrimSpace(c.APIToken)
	if c.TimeoutMS <= 0 {
		c.TimeoutMS = 15000
	}
	if c.RatePerMinute <= 0 {
		c.RatePerMinute = 30
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
}

// ValidateConfig 校验配置
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return fmt.Errorf("%w: base_url is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.APIID) == "" {
		return fmt.Errorf("%w: api_id is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.APIToken) == "" {
		return fmt.Errorf("%w: api_token is required", ErrConfigInvalid)
	}
	return nil
}

// PackageRecord 提交包裹的载荷（网关字段命名）
type PackageRecord struct {
	Tracking       string `json:"tracking"`        // 跟踪编号
	TypeLivraison  int    `json:"type_livraison"`  // 配送方式（1=上门 2=网点自提）
	TypeColis      int    `json:"type_colis"`      // 包裹类型（0=普通 1=换货）
	Confirmee      int    `json:"confirmee"`       // 是否已确认（0/1）
	Client         string `json:"client"`          // 收件人姓名
	MobileA        string `json:"mobile_a"`        // 主联系电话
	MobileB        string `json:"mobile_b"`        // 备用联系电话
	Adresse        string `json:"adresse"`         // 收件地址
	IDWilaya       int    `json:"id_wilaya"`       // 省份编号
	Commune        string `json:"commune"`         // 市镇
	Total          string `json:"total"`           // 申报金额（代收款）
	Note           string `json:"note"`            // 备注
	TProduit       string `json:"t_produit"`       // 商品描述
	TypeExpedition string `json:"type_expedition"` // 固定为 package
	ExternalID     string `json:"id_externe"`      // 外部关联ID（内部订单ID）
}

// SubmitResult 提交包裹的响应
type SubmitResult struct {
	Tracking string                 `json:"tracking"`
	Status   string                 `json:"status"`
	Raw      map[string]interface{} `json:"-"`
}

// PackageStatus 网关侧包裹状态
type PackageStatus struct {
	Tracking  string `json:"tracking"`
	Status    string `json:"status"`
	UpdatedAt string `json:"updated_at"`
}

// Pricing 网关报价
type Pricing struct {
	WilayaID    int    `json:"wilaya_id"`
	HomeFee     string `json:"home_fee"`
	StopdeskFee string `json:"stopdesk_fee"`
	ReturnFee   string `json:"return_fee"`
}

// Client 快递网关客户端。无状态，不做重试；限流器由所有调用方共享。
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient 创建网关客户端
func NewClient(cfg Config) (*Client, error) {
	cfg.normalize()
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond},
		// 令牌桶：恒定速率补充，所有出站调用先取令牌
		limiter: rate.NewLimiter(rate.Limit(float64(cfg.RatePerMinute)/60.0), cfg.Burst),
	}, nil
}

// DeliveryTypeCode 配送方式转网关编码
func DeliveryTypeCode(deliveryType string) int {
	if strings.EqualFold(strings.TrimSpace(deliveryType), "stopdesk") {
		return deliveryCodeStopdesk
	}
	return deliveryCodeHome
}

// PackageTypeCode 订单类型转网关编码
func PackageTypeCode(orderType string) int {
	if strings.EqualFold(strings.TrimSpace(orderType), "exchange") {
		return packageCodeExchange
	}
	return packageCodeRegular
}

// Submit 提交包裹。每次恰好发出一个请求，失败原样返回。
func (c *Client) Submit(ctx context.Context, record PackageRecord) (*SubmitResult, error) {
	if strings.TrimSpace(record.Tracking) == "" {
		return nil, fmt.Errorf("%w: tracking is required", ErrConfigInvalid)
	}
	if record.TypeExpedition == "" {
		record.TypeExpedition = "package"
	}

	respBytes, err := c.postJSON(ctx, "/api/v1/packages", record)
	if err != nil {
		return nil, err
	}

	var resp struct {
		StatusCode int    `json:"status_code"`
		Message    string `json:"message"`
		Data       struct {
			Tracking string `json:"tracking"`
			Status   string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("%w: %s", ErrResponseInvalid, resp.Message)
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(respBytes, &raw)

	return &SubmitResult{
		Tracking: resp.Data.Tracking,
		Status:   resp.Data.Status,
		Raw:      raw,
	}, nil
}

// MarkReady 将包裹标记为可发。每次恰好发出一个请求。
func (c *Client) MarkReady(ctx context.Context, trackingID string) error {
	if strings.TrimSpace(trackingID) == "" {
		return fmt.Errorf("%w: tracking is required", ErrConfigInvalid)
	}

	payload := map[string]interface{}{"tracking": trackingID}
	respBytes, err := c.postJSON(ctx, "/api/v1/packages/ready", payload)
	if err != nil {
		return err
	}

	var resp struct {
		StatusCode int    `json:"status_code"`
		Message    string `json:"message"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if resp.StatusCode != 200 {
		return fmt.Errorf("%w: %s", ErrResponseInvalid, resp.Message)
	}
	return nil
}

// ListPackages 拉取网关侧包裹列表（分页）
func (c *Client) ListPackages(ctx context.Context, page int) ([]PackageStatus, error) {
	if page < 1 {
		page = 1
	}
	respBytes, err := c.getJSON(ctx, fmt.Sprintf("/api/v1/packages?page=%d", page))
	if err != nil {
		return nil, err
	}

	var resp struct {
		StatusCode int             `json:"status_code"`
		Message    string          `json:"message"`
		Data       []PackageStatus `json:"data"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("%w: %s", ErrResponseInvalid, resp.Message)
	}
	return resp.Data, nil
}

// GetPricing 查询省份报价
func (c *Client) GetPricing(ctx context.Context, wilayaID int) (*Pricing, error) {
	if wilayaID <= 0 {
		return nil, fmt.Errorf("%w: wilaya id is required", ErrConfigInvalid)
	}
	respBytes, err := c.getJSON(ctx, fmt.Sprintf("/api/v1/pricing/%d", wilayaID))
	if err != nil {
		return nil, err
	}

	var resp struct {
		StatusCode int     `json:"status_code"`
		Message    string  `json:"message"`
		Data       Pricing `json:"data"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("%w: %s", ErrResponseInvalid, resp.Message)
	}
	return &resp.Data, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) getJSON(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Api-Id", c.cfg.APIID)
	req.Header.Set("Api-Token", c.cfg.APIToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: http status %d", ErrRequestFailed, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
