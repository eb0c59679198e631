// Package basket 实现客户端购物车与心愿单的状态机。
//
// 状态只能通过 Reduce 中的四种操作变更（添加、删除、改数量、清空），
// 每次变更后合计金额与件数都从行集合重新计算，不做增量修补。
package basket

import (
	"github.com/MorseWayne/storefront/internal/domain"
)

// LineKey 行的有效身份：(商品ID, 规格ID或空)
// 同一商品的不同规格（或有/无规格）是不同的行，永远不会合并
type LineKey struct {
	ProductID string
	VariantID string
}

// Line 购物车/心愿单中的一行
// 价格、原价、库存在构造时就已按“规格覆盖商品”规则解析完毕，读取处不再回退
type Line struct {
	ProductID     string            `json:"productId"`
	VariantID     string            `json:"variantId,omitempty"`
	Name          string            `json:"name"`
	Slug          string            `json:"slug,omitempty"`
	Image         string            `json:"image,omitempty"`
	VariantName   string            `json:"variantName,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	Price         float64           `json:"price"`
	OriginalPrice *float64          `json:"originalPrice,omitempty"`
	Stock         *int              `json:"stock,omitempty"`
	Quantity      int               `json:"quantity"`
}

// NewLine 根据商品与可选规格构造行
func NewLine(product domain.Product, variant *domain.Variant, quantity int) Line {
	line := Line{
		ProductID:     product.ID,
		Name:          product.Name,
		Slug:          product.Slug,
		Image:         product.Thumbnail(),
		Price:         product.Price,
		OriginalPrice: cloneFloat(product.OriginalPrice),
		Stock:         intPtr(product.Stock),
		Quantity:      quantity,
	}

	if variant != nil {
		line.VariantID = variant.ID
		line.VariantName = variant.Name
		line.Attributes = cloneAttrs(variant.Attributes)
		if variant.Price != nil {
			line.Price = *variant.Price
		}
		if variant.OriginalPrice != nil {
			line.OriginalPrice = cloneFloat(variant.OriginalPrice)
		}
		if variant.Stock != nil {
			line.Stock = intPtr(*variant.Stock)
		}
	}

	return line
}

// Key 返回行的有效身份
func (l Line) Key() LineKey {
	return LineKey{ProductID: l.ProductID, VariantID: l.VariantID}
}

// Subtotal 行小计
func (l Line) Subtotal() float64 {
	return lineAmount(l).InexactFloat64()
}

// IsDiscounted 原价高于现价时视为折扣商品
func (l Line) IsDiscounted() bool {
	return l.OriginalPrice != nil && *l.OriginalPrice > l.Price
}

// InStock 行是否还有库存（未知库存视为有货）
func (l Line) InStock() bool {
	return l.Stock == nil || *l.Stock > 0
}

func (l Line) clone() Line {
	c := l
	c.OriginalPrice = cloneFloat(l.OriginalPrice)
	if l.Stock != nil {
		c.Stock = intPtr(*l.Stock)
	}
	c.Attributes = cloneAttrs(l.Attributes)
	return c
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func intPtr(v int) *int {
	return &v
}

func cloneAttrs(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
