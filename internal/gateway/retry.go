package gateway

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// RetryConfig RequestWithRetry 的重试配置
type RetryConfig struct {
	// MaxAttempts 总尝试次数（含第一次）
	MaxAttempts int
	// Backoff 第 n 次失败后等待 n × Backoff
	Backoff time.Duration
}

// DefaultRetryConfig 默认 3 次，线性退避 1s
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 3, Backoff: time.Second}
}

func (r RetryConfig) withDefaults() RetryConfig {
	d := DefaultRetryConfig()
	if r.MaxAttempts <= 0 {
		r.MaxAttempts = d.MaxAttempts
	}
	if r.Backoff < 0 {
		r.Backoff = 0
	} else if r.Backoff == 0 {
		r.Backoff = d.Backoff
	}
	return r
}

// RequestWithRetry 通用请求，HTTP 失败与传输失败都会重试
// 只用于管理类页面的通用请求；其他接口不自动重试
func (c *Client) RequestWithRetry(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.Retry.MaxAttempts; attempt++ {
		raw, err := c.do(ctx, method, path, nil, body)
		if err == nil {
			return raw, nil
		}
		lastErr = err

		if attempt == c.cfg.Retry.MaxAttempts || ctx.Err() != nil {
			break
		}

		wait := time.Duration(attempt) * c.cfg.Retry.Backoff
		c.logger.Debug("retrying gateway request",
			zap.String("method", method), zap.String("path", path),
			zap.Int("attempt", attempt), zap.Duration("backoff", wait), zap.Error(err))
		c.metrics.retried()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}
