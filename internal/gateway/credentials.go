package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/MorseWayne/storefront/internal/domain"
	"github.com/MorseWayne/storefront/internal/storage"
)

// authToken 返回当前凭证：优先内存，其次存储
// 已过期的 JWT 会被清除而不是发送；非 JWT 的不透明令牌原样使用
func (c *Client) authToken() string {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()

	if token == "" {
		stored, err := c.storage.Get(storage.KeyAuthToken)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				c.logger.Warn("failed to read stored credential", zap.Error(err))
			}
			return ""
		}
		token = stored
		c.mu.Lock()
		c.token = token
		c.mu.Unlock()
	}

	if tokenExpired(token, time.Now()) {
		c.logger.Info("stored credential expired, clearing")
		c.ClearCredentials()
		return ""
	}
	return token
}

// tokenExpired 只检查 exp，不校验签名（签名由服务端校验）
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && !now.Before(claims.ExpiresAt.Time)
}

// SetCredentials 保存登录结果到内存与存储
func (c *Client) SetCredentials(token string, user *domain.User) error {
	if token == "" {
		return errors.New("empty auth token")
	}
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()

	if err := c.storage.Set(storage.KeyAuthToken, token); err != nil {
		return fmt.Errorf("store auth token: %w", err)
	}
	if user != nil {
		data, err := json.Marshal(user)
		if err != nil {
			return fmt.Errorf("encode user: %w", err)
		}
		if err := c.storage.Set(storage.KeyUserData, string(data)); err != nil {
			return fmt.Errorf("store user data: %w", err)
		}
	}
	return nil
}

// ClearCredentials 清除内存与存储中的凭证和用户信息
func (c *Client) ClearCredentials() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()

	for _, key := range []string{storage.KeyAuthToken, storage.KeyUserData} {
		if err := c.storage.Remove(key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			c.logger.Warn("failed to clear credential", zap.String("key", key), zap.Error(err))
		}
	}
}

// IsAuthenticated 是否持有未过期的凭证
func (c *Client) IsAuthenticated() bool {
	return c.authToken() != ""
}

// CurrentUser 返回保存的用户信息；未登录时返回 nil
func (c *Client) CurrentUser() (*domain.User, error) {
	raw, err := c.storage.Get(storage.KeyUserData)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var u domain.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("decode stored user: %w", err)
	}
	return &u, nil
}
