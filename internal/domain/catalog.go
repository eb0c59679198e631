package domain

import "time"

// Category 商品分类
type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug,omitempty"`
	Image    string `json:"image,omitempty"`
	ParentID string `json:"parentId,omitempty"`
}

// Offer 促销活动
type Offer struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Banner      string     `json:"banner,omitempty"`
	Discount    float64    `json:"discount,omitempty"`
	ValidUntil  *time.Time `json:"validUntil,omitempty"`
}

// Review 商品评价
type Review struct {
	ID        string     `json:"id"`
	ProductID string     `json:"productId"`
	Rating    int        `json:"rating"`
	Comment   string     `json:"comment,omitempty"`
	Author    string     `json:"author,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Address 收货地址
type Address struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	IsDefault  bool   `json:"isDefault,omitempty"`
}

// CouponResult 优惠券校验结果
type CouponResult struct {
	Code          string  `json:"code"`
	Valid         bool    `json:"valid"`
	Discount      float64 `json:"discount"`
	DiscountType  string  `json:"discountType,omitempty"` // percentage, fixed
	MinOrderValue float64 `json:"minOrderValue,omitempty"`
}

// RemoteCartItem 服务端购物车中的条目
type RemoteCartItem struct {
	ProductID string  `json:"productId"`
	VariantID string  `json:"variantId,omitempty"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price,omitempty"`
}
