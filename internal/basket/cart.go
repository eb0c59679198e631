package basket

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/MorseWayne/storefront/internal/domain"
	"github.com/MorseWayne/storefront/internal/storage"
)

// Cart 购物车
type Cart struct {
	s *store
}

// NewCart 创建购物车并从存储键 cart 恢复状态
func NewCart(st storage.Storage, logger *zap.Logger) *Cart {
	return &Cart{s: newStore(NameCart, st, logger, encodeCart, normalizeCartLine)}
}

func encodeCart(s State) ([]byte, error) {
	return json.Marshal(s)
}

func normalizeCartLine(l Line) (Line, bool) {
	if l.ProductID == "" || l.Quantity <= 0 {
		return Line{}, false
	}
	return l, true
}

// AddObserver 注册变更观察者
func (c *Cart) AddObserver(o Observer) {
	c.s.addObserver(o)
}

// Add 添加商品；同一身份已存在时数量累加，不做库存上限校验
// quantity < 1 时按 1 处理
func (c *Cart) Add(product domain.Product, quantity int, variant *domain.Variant) State {
	if quantity < 1 {
		quantity = 1
	}
	return c.s.dispatch(AddLine{Line: NewLine(product, variant, quantity)})
}

// Remove 删除匹配身份的行，不存在时为空操作
func (c *Cart) Remove(productID, variantID string) State {
	return c.s.dispatch(RemoveLine{Key: LineKey{ProductID: productID, VariantID: variantID}})
}

// UpdateQuantity 设置数量；quantity <= 0 时删除该行
func (c *Cart) UpdateQuantity(productID string, quantity int, variantID string) State {
	return c.s.dispatch(SetQuantity{
		Key:      LineKey{ProductID: productID, VariantID: variantID},
		Quantity: quantity,
	})
}

// Clear 清空购物车
func (c *Cart) Clear() State {
	return c.s.dispatch(ClearLines{})
}

// Contains 查询是否已在购物车中
func (c *Cart) Contains(productID, variantID string) bool {
	_, ok := c.s.find(LineKey{ProductID: productID, VariantID: variantID})
	return ok
}

// QuantityOf 查询某身份的数量，不存在返回0
func (c *Cart) QuantityOf(productID, variantID string) int {
	l, ok := c.s.find(LineKey{ProductID: productID, VariantID: variantID})
	if !ok {
		return 0
	}
	return l.Quantity
}

// State 返回当前状态快照
func (c *Cart) State() State {
	return c.s.snapshot()
}
