package basket

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/MorseWayne/storefront/internal/domain"
	"github.com/MorseWayne/storefront/internal/storage"
)

// Wishlist 心愿单，与购物车共享身份与规格覆盖规则，但没有数量概念
type Wishlist struct {
	s *store
}

// WishlistState 心愿单快照，持久化结构为 {items: [...]}
type WishlistState struct {
	Items []Line `json:"items"`
}

// NewWishlist 创建心愿单并从存储键 wishlist 恢复状态
func NewWishlist(st storage.Storage, logger *zap.Logger) *Wishlist {
	return &Wishlist{s: newStore(NameWishlist, st, logger, encodeWishlist, normalizeWishlistLine)}
}

func encodeWishlist(s State) ([]byte, error) {
	return json.Marshal(WishlistState{Items: s.Lines})
}

func normalizeWishlistLine(l Line) (Line, bool) {
	if l.ProductID == "" {
		return Line{}, false
	}
	l.Quantity = 1
	return l, true
}

// AddObserver 注册变更观察者
func (w *Wishlist) AddObserver(o Observer) {
	w.s.addObserver(o)
}

// Toggle 已存在则移除，否则以数量1加入；返回操作后是否在心愿单中
func (w *Wishlist) Toggle(product domain.Product, variant *domain.Variant) (bool, WishlistState) {
	line := NewLine(product, variant, 1)

	a, st := w.s.dispatchWith(func(cur State) Action {
		if _, exists := cur.Find(line.Key()); exists {
			return RemoveLine{Key: line.Key()}
		}
		return AddLine{Line: line}
	})
	_, added := a.(AddLine)
	return added, WishlistState{Items: st.Lines}
}

// Remove 删除匹配身份的行
func (w *Wishlist) Remove(productID, variantID string) WishlistState {
	st := w.s.dispatch(RemoveLine{Key: LineKey{ProductID: productID, VariantID: variantID}})
	return WishlistState{Items: st.Lines}
}

// Clear 清空心愿单
func (w *Wishlist) Clear() WishlistState {
	return WishlistState{Items: w.s.dispatch(ClearLines{}).Lines}
}

// Contains 查询是否在心愿单中
func (w *Wishlist) Contains(productID, variantID string) bool {
	_, ok := w.s.find(LineKey{ProductID: productID, VariantID: variantID})
	return ok
}

// State 返回当前快照
func (w *Wishlist) State() WishlistState {
	return WishlistState{Items: w.s.snapshot().Lines}
}
