package mq

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MorseWayne/storefront/internal/basket"
)

// MessageType 消息类型
type MessageType string

const (
	MessageTypeCartChanged     MessageType = "cart_changed"
	MessageTypeWishlistChanged MessageType = "wishlist_changed"
)

const messageVersion = "1.0"

// BasketMessage 变更事件消息
type BasketMessage struct {
	ID        string             `json:"id"`
	Type      MessageType        `json:"type"`
	Version   string             `json:"version"`
	Timestamp time.Time          `json:"timestamp"`
	Source    string             `json:"source"`
	Data      basket.ChangeEvent `json:"data"`
}

// NewBasketMessage 根据变更事件构造消息
func NewBasketMessage(source string, ev basket.ChangeEvent) *BasketMessage {
	typ := MessageTypeCartChanged
	if ev.Basket == basket.NameWishlist {
		typ = MessageTypeWishlistChanged
	}
	ts := ev.At
	if ts.IsZero() {
		ts = time.Now()
	}
	return &BasketMessage{
		ID:        uuid.NewString(),
		Type:      typ,
		Version:   messageVersion,
		Timestamp: ts,
		Source:    source,
		Data:      ev,
	}
}

// RoutingKey 在基础路由键后追加篮子名和动作，如 basket.changed.cart.add
func (m *BasketMessage) RoutingKey(base string) string {
	return fmt.Sprintf("%s.%s.%s", base, m.Data.Basket, m.Data.Action)
}

// ToJSON 序列化消息
func (m *BasketMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ParseBasketMessage 解析消息
func ParseBasketMessage(data []byte) (*BasketMessage, error) {
	var m BasketMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	return &m, nil
}
