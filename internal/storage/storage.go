// Package storage 提供客户端持久化键值存储（对应浏览器 localStorage 的语义）。
// 所有键在进程内全局共享，写入遵循“最后写入者胜出”。
package storage

import (
	"errors"
	"sync"
)

// 约定的存储键，名称需与界面层保持一致
const (
	KeyCart      = "cart"
	KeyWishlist  = "wishlist"
	KeyAuthToken = "auth_token"
	KeyUserData  = "user_data"
)

var (
	// ErrNotFound 键不存在
	ErrNotFound = errors.New("storage: key not found")
	// ErrCorrupt 存储值无法解码（例如密文被篡改）
	ErrCorrupt = errors.New("storage: value corrupt")
)

// Storage 同步键值存储接口
type Storage interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
}

// Closer 可选的资源释放接口
type Closer interface {
	Close() error
}

// MemoryStorage 进程内存储（用于测试和临时会话）
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStorage 创建内存存储
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string]string)}
}

// Get 读取键值
func (m *MemoryStorage) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set 写入键值
func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
	return nil
}

// Remove 删除键，不存在时不报错
func (m *MemoryStorage) Remove(key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}
