package domain

import (
	"time"
)

// OrderStatus 订单状态
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// CanCancel 判断订单当前状态是否允许取消
func (s OrderStatus) CanCancel() bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed
}

// OrderItem 订单行
type OrderItem struct {
	ProductID string  `json:"productId"`
	VariantID string  `json:"variantId,omitempty"`
	Name      string  `json:"name,omitempty"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// Order 远程订单
type Order struct {
	ID            string      `json:"id"`
	OrderNumber   string      `json:"orderNumber,omitempty"`
	Status        OrderStatus `json:"status"`
	Items         []OrderItem `json:"items"`
	Subtotal      float64     `json:"subtotal,omitempty"`
	Discount      float64     `json:"discount,omitempty"`
	ShippingFee   float64     `json:"shippingFee,omitempty"`
	Total         float64     `json:"total"`
	PaymentMethod string      `json:"paymentMethod,omitempty"`
	AddressID     string      `json:"addressId,omitempty"`
	CreatedAt     *time.Time  `json:"createdAt,omitempty"`
}

// CreateOrderRequest 下单请求
type CreateOrderRequest struct {
	Items         []OrderItem `json:"items"`
	AddressID     string      `json:"addressId"`
	PaymentMethod string      `json:"paymentMethod"` // cod, online
	CouponCode    string      `json:"couponCode,omitempty"`
}

// OrderList 归一化后的订单列表
type OrderList struct {
	Orders      []Order `json:"orders"`
	TotalOrders int     `json:"totalOrders"`
	TotalPages  int     `json:"totalPages"`
	CurrentPage int     `json:"currentPage"`
}

// PaymentConfig 支付配置
type PaymentConfig struct {
	Provider      string `json:"provider,omitempty"`
	KeyID         string `json:"keyId,omitempty"`
	Currency      string `json:"currency"`
	CODEnabled    bool   `json:"codEnabled"`
	OnlineEnabled bool   `json:"onlineEnabled"`
}

// PaymentOrder 支付网关侧创建的支付单
type PaymentOrder struct {
	ID       string  `json:"id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	OrderID  string  `json:"orderId,omitempty"`
}

// PaymentVerification 支付回调校验请求
type PaymentVerification struct {
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
	Signature string `json:"signature"`
}
