// Package cache 提供网关响应缓存抽象，以及内存、Redis 与空实现
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrMiss 键不存在或已过期
var ErrMiss = errors.New("cache miss")

// Cache 定义缓存操作接口，值以 JSON 编码存储
type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
	Close() error
}

// MemoryCache 进程内缓存，过期项在读取时惰性删除
type MemoryCache struct {
	mu   sync.Mutex
	data map[string]memoryCacheItem
	now  func() time.Time
}

type memoryCacheItem struct {
	value      []byte
	expiration time.Time
}

// MemoryOption 内存缓存选项
type MemoryOption func(*MemoryCache)

// WithClock 替换时钟（测试用）
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryCache) {
		m.now = now
	}
}

// NewMemoryCache 创建内存缓存实例
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	m := &MemoryCache{
		data: make(map[string]memoryCacheItem),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get 获取缓存值
func (m *MemoryCache) Get(ctx context.Context, key string, dest any) error {
	m.mu.Lock()
	item, exists := m.data[key]
	if exists && !m.now().Before(item.expiration) {
		delete(m.data, key)
		exists = false
	}
	m.mu.Unlock()

	if !exists {
		return ErrMiss
	}
	if err := json.Unmarshal(item.value, dest); err != nil {
		return fmt.Errorf("decode cached value %s: %w", key, err)
	}
	return nil
}

// Set 设置缓存值
func (m *MemoryCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	m.mu.Lock()
	m.data[key] = memoryCacheItem{
		value:      data,
		expiration: m.now().Add(expiration),
	}
	m.mu.Unlock()
	return nil
}

// Del 删除缓存值
func (m *MemoryCache) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

// Prune 清理所有已过期的项，返回清理数量
func (m *MemoryCache) Prune() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	n := 0
	for k, item := range m.data {
		if !now.Before(item.expiration) {
			delete(m.data, k)
			n++
		}
	}
	return n
}

// Len 当前保存的项数（含未清理的过期项）
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// Ping 检查连接
func (m *MemoryCache) Ping(ctx context.Context) error {
	return nil
}

// Close 关闭缓存
func (m *MemoryCache) Close() error {
	m.mu.Lock()
	m.data = make(map[string]memoryCacheItem)
	m.mu.Unlock()
	return nil
}

// NullCache 空缓存实现（禁用缓存时使用）
type NullCache struct{}

// NewNullCache 创建空缓存实例
func NewNullCache() *NullCache {
	return &NullCache{}
}

func (n *NullCache) Get(ctx context.Context, key string, dest any) error {
	return ErrMiss
}

func (n *NullCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return nil
}

func (n *NullCache) Del(ctx context.Context, keys ...string) error {
	return nil
}

func (n *NullCache) Ping(ctx context.Context) error {
	return nil
}

func (n *NullCache) Close() error {
	return nil
}
