package storage

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// SealedStorage 使用 secretbox 对写入底层存储的值加密
// 适用于 auth_token 等敏感数据落盘的场景
type SealedStorage struct {
	inner Storage
	key   [32]byte
}

// NewSealedStorage 以口令派生的密钥包装底层存储
func NewSealedStorage(inner Storage, secret string) *SealedStorage {
	return &SealedStorage{inner: inner, key: sha256.Sum256([]byte(secret))}
}

// Get 读取并解密
func (s *SealedStorage) Get(key string) (string, error) {
	enc, err := s.inner.Get(key)
	if err != nil {
		return "", err
	}

	raw, err := base64.StdEncoding.DecodeString(enc)
	if err != nil || len(raw) < nonceSize {
		return "", fmt.Errorf("%w: %s", ErrCorrupt, key)
	}

	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrCorrupt, key)
	}
	return string(plain), nil
}

// Set 加密后写入
func (s *SealedStorage) Set(key, value string) error {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(value), &nonce, &s.key)
	return s.inner.Set(key, base64.StdEncoding.EncodeToString(sealed))
}

// Remove 删除键
func (s *SealedStorage) Remove(key string) error {
	return s.inner.Remove(key)
}

// Close 关闭底层存储（如果支持）
func (s *SealedStorage) Close() error {
	if c, ok := s.inner.(Closer); ok {
		return c.Close()
	}
	return nil
}
