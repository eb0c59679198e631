// Package gateway 是远程商城 REST API 的客户端。
//
// 它负责拼接地址与请求头、对请求做最小间隔节流、短时缓存 GET 响应、
// 把各种形状的响应归一化为 Envelope，并把失败分类为 APIError 或 TransportError。
// 认证失败（401 或 access denied）会清除本地保存的凭证。
package gateway

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MorseWayne/storefront/internal/cache"
	"github.com/MorseWayne/storefront/internal/limiter"
	"github.com/MorseWayne/storefront/internal/storage"
)

const maxResponseBytes = 10 << 20

// Config 客户端配置
type Config struct {
	BaseURL     string
	StorePrefix string
	Timeout     time.Duration
	MinInterval time.Duration
	CacheTTL    time.Duration
	Retry       RetryConfig
}

// Client 远程 API 客户端；一个进程内只需创建一个，通过 Init/Dispose 管理生命周期
type Client struct {
	cfg      Config
	endpoint string
	http     *http.Client
	storage  storage.Storage
	cache    cache.Cache
	throttle *limiter.IntervalLimiter
	metrics  *Metrics
	logger   *zap.Logger

	mu    sync.RWMutex
	token string
}

// Option 客户端选项
type Option func(*Client)

// WithHTTPClient 替换底层 http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithCache 指定响应缓存，默认内存缓存
func WithCache(cc cache.Cache) Option {
	return func(c *Client) { c.cache = cc }
}

// WithMetrics 指定指标收集器
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger 指定日志器
func WithLogger(lg *zap.Logger) Option {
	return func(c *Client) { c.logger = lg }
}

// New 创建客户端；st 用于读写 auth_token 与 user_data
func New(cfg Config, st storage.Storage, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("gateway base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid gateway base URL: %w", err)
	}
	if st == nil {
		return nil, errors.New("gateway storage is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Second
	}
	cfg.Retry = cfg.Retry.withDefaults()

	c := &Client{
		cfg:      cfg,
		endpoint: joinEndpoint(cfg.BaseURL, cfg.StorePrefix),
		storage:  st,
		throttle: limiter.NewIntervalLimiter(cfg.MinInterval),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: cfg.Timeout}
	}
	if c.cache == nil {
		c.cache = cache.NewMemoryCache()
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c, nil
}

func joinEndpoint(base, prefix string) string {
	base = strings.TrimRight(base, "/")
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return base
	}
	return base + "/" + prefix
}

// Init 从存储加载已保存的凭证
func (c *Client) Init(ctx context.Context) error {
	token, err := c.storage.Get(storage.KeyAuthToken)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		c.logger.Warn("failed to load stored credential", zap.Error(err))
	default:
		c.mu.Lock()
		c.token = token
		c.mu.Unlock()
	}

	if err := c.cache.Ping(ctx); err != nil {
		return fmt.Errorf("response cache unavailable: %w", err)
	}
	c.logger.Debug("gateway initialized", zap.String("endpoint", c.endpoint), zap.Bool("authenticated", c.IsAuthenticated()))
	return nil
}

// Dispose 释放响应缓存
func (c *Client) Dispose() error {
	return c.cache.Close()
}

// Endpoint 返回基础地址（含店铺前缀）
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Get 发送 GET 请求，成功的响应在 TTL 内被缓存
func (c *Client) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

// Post 发送 POST 请求
func (c *Client) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, path, nil, body)
}

// Put 发送 PUT 请求
func (c *Client) Put(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPut, path, nil, body)
}

// Delete 发送 DELETE 请求
func (c *Client) Delete(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, path, query, nil)
}

func (c *Client) buildURL(path string, query url.Values) string {
	u := c.endpoint + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	fullURL := c.buildURL(path, query)

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
	}

	token := c.authToken()
	cacheKey := ""
	if method == http.MethodGet {
		cacheKey = responseCacheKey(method, fullURL, payload, token)
		var cached json.RawMessage
		if err := c.cache.Get(ctx, cacheKey, &cached); err == nil {
			c.metrics.cacheHit()
			c.logger.Debug("gateway cache hit", zap.String("url", fullURL))
			return cached, nil
		} else if !errors.Is(err, cache.ErrMiss) {
			c.logger.Warn("gateway cache read failed", zap.String("url", fullURL), zap.Error(err))
		}
		c.metrics.cacheMiss()
	}

	if err := c.throttle.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.metrics.observeRequest(method, 0, time.Since(start))
		c.logger.Warn("gateway request failed", zap.String("method", method), zap.String("url", fullURL), zap.Error(err))
		return nil, &TransportError{Method: method, URL: fullURL, Err: err}
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	c.metrics.observeRequest(method, res.StatusCode, time.Since(start))
	if err != nil {
		return nil, &TransportError{Method: method, URL: fullURL, Err: fmt.Errorf("read body: %w", err)}
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, c.failure(method, fullURL, res.StatusCode, raw)
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("null")
	}
	if cacheKey != "" {
		if err := c.cache.Set(ctx, cacheKey, json.RawMessage(raw), c.cfg.CacheTTL); err != nil {
			c.logger.Warn("gateway cache write failed", zap.String("url", fullURL), zap.Error(err))
		}
	}
	return raw, nil
}

// failure 构造 APIError，认证失败时清除本地凭证
func (c *Client) failure(method, fullURL string, status int, raw []byte) error {
	apiErr := &APIError{
		Status:  status,
		Message: errorMessage(status, raw),
		URL:     fullURL,
		Method:  method,
	}
	if json.Valid(raw) {
		apiErr.ResponseData = json.RawMessage(raw)
	}

	if status == http.StatusUnauthorized || isAccessDenied(apiErr.Message) {
		c.logger.Info("authentication rejected, clearing stored credential",
			zap.String("url", fullURL), zap.Int("status", status))
		c.ClearCredentials()
		c.metrics.invalidated()
	} else {
		c.logger.Debug("gateway request rejected",
			zap.String("method", method), zap.String("url", fullURL),
			zap.Int("status", status), zap.String("message", apiErr.Message))
	}
	return apiErr
}

func bodyReader(payload []byte) io.Reader {
	if payload == nil {
		return nil
	}
	return bytes.NewReader(payload)
}

// responseCacheKey 以 (方法, URL, 请求体) 为键；附带凭证摘要，避免登录态切换后读到他人数据
func responseCacheKey(method, fullURL string, payload []byte, token string) string {
	identity := "anon"
	if token != "" {
		sum := sha256.Sum256([]byte(token))
		identity = hex.EncodeToString(sum[:8])
	}
	return "gw:" + identity + ":" + method + " " + fullURL + " " + string(payload)
}
