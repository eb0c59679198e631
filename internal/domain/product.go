// Package domain 定义商城客户端使用的领域模型。
// 模型字段与远程商城 API 的 JSON 结构保持一致（camelCase）。
package domain

import (
	"encoding/json"
	"time"
)

// Product 表示远程目录中的商品
type Product struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Slug           string     `json:"slug,omitempty"`
	Description    string     `json:"description,omitempty"`
	Images         []string   `json:"images,omitempty"`
	Price          float64    `json:"price"`
	OriginalPrice  *float64   `json:"originalPrice,omitempty"`
	Stock          int        `json:"stock"`
	TrackInventory bool       `json:"trackInventory,omitempty"`
	AllowBackorder bool       `json:"allowBackorder,omitempty"`
	Category       string     `json:"category,omitempty"`
	Brand          string     `json:"brand,omitempty"`
	Rating         float64    `json:"rating,omitempty"`
	IsActive       *bool      `json:"isActive,omitempty"`
	Variants       []Variant  `json:"variants,omitempty"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
}

// UnmarshalJSON 兼容部分接口只返回 _id 的情况
func (p *Product) UnmarshalJSON(data []byte) error {
	type alias Product
	aux := struct {
		*alias
		MongoID string `json:"_id"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = aux.MongoID
	}
	return nil
}

// Thumbnail 返回第一张图片，没有图片时返回空串
func (p *Product) Thumbnail() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// FindVariant 根据ID查找规格，不存在时返回nil
func (p *Product) FindVariant(id string) *Variant {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i]
		}
	}
	return nil
}

// HasVariants 判断商品是否需要选择规格
func (p *Product) HasVariants() bool {
	return len(p.Variants) > 0
}

// Variant 表示商品的一个可购买规格（尺码/颜色组合）
// 规格不会单独使用，总是依附于父商品
type Variant struct {
	ID            string            `json:"id"`
	Name          string            `json:"name,omitempty"`
	SKU           string            `json:"sku,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	Price         *float64          `json:"price,omitempty"`
	OriginalPrice *float64          `json:"originalPrice,omitempty"`
	Stock         *int              `json:"stock,omitempty"`
}

// UnmarshalJSON 兼容 _id
func (v *Variant) UnmarshalJSON(data []byte) error {
	type alias Variant
	aux := struct {
		*alias
		MongoID string `json:"_id"`
	}{alias: (*alias)(v)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if v.ID == "" {
		v.ID = aux.MongoID
	}
	return nil
}

// ProductQuery 商品列表查询参数
type ProductQuery struct {
	Page      int    // 页码，从1开始
	Limit     int    // 每页大小
	Category  string // 分类过滤
	Search    string // 关键词
	SortBy    string // price, createdAt, name
	SortOrder string // asc, desc
	MinPrice  *float64
	MaxPrice  *float64
	Featured  bool
}

// ProductList 归一化后的商品列表
type ProductList struct {
	Products      []Product `json:"products"`
	TotalProducts int       `json:"totalProducts"`
	TotalPages    int       `json:"totalPages"`
	CurrentPage   int       `json:"currentPage"`
}
