// Package limiter 提供请求节流与限流：
// 网关出站请求使用 IntervalLimiter 保证最小间隔，本地 HTTP API 使用 Redis 固定窗口限流。
package limiter

import (
	"context"
	"time"
)

// LimitResult 限流结果
type LimitResult struct {
	Allowed       bool          `json:"allowed"`        // 是否允许通过
	Remaining     int64         `json:"remaining"`      // 剩余配额
	RetryAfter    time.Duration `json:"retry_after"`    // 建议重试时间
	TotalRequests int64         `json:"total_requests"` // 当前窗口内请求数
}

// Limiter 按 key 计数的限流器接口
type Limiter interface {
	// Allow 检查是否允许请求通过
	Allow(ctx context.Context, key string) (*LimitResult, error)

	// AllowN 检查是否允许N个请求通过
	AllowN(ctx context.Context, key string, n int64) (*LimitResult, error)

	// Reset 重置限流状态
	Reset(ctx context.Context, key string) error
}

// Config 限流配置
type Config struct {
	Rate      int64         `json:"rate"`       // 每个窗口允许的请求数
	Window    time.Duration `json:"window"`     // 时间窗口
	KeyPrefix string        `json:"key_prefix"` // Key前缀
}
