package basket

import "time"

// 篮子名称，同时也是存储键
const (
	NameCart     = "cart"
	NameWishlist = "wishlist"
)

// ChangeEvent 一次已持久化的状态变更
type ChangeEvent struct {
	Basket    string    `json:"basket"`
	Action    string    `json:"action"`
	ProductID string    `json:"productId,omitempty"`
	VariantID string    `json:"variantId,omitempty"`
	Quantity  int       `json:"quantity"`
	Total     float64   `json:"total"`
	ItemCount int       `json:"itemCount"`
	At        time.Time `json:"at"`
}

// Observer 接收状态变更通知
// 通知在状态锁外按变更顺序同步调用，读操作不受影响
// 实现方不应长时间阻塞，也不能在回调里修改同一个篮子
type Observer interface {
	BasketChanged(ev ChangeEvent)
}

// ObserverFunc 函数适配器
type ObserverFunc func(ev ChangeEvent)

// BasketChanged 实现 Observer
func (f ObserverFunc) BasketChanged(ev ChangeEvent) {
	f(ev)
}

func eventFor(basket string, a Action, s State, at time.Time) ChangeEvent {
	ev := ChangeEvent{
		Basket:    basket,
		Action:    ActionName(a),
		Total:     s.Total,
		ItemCount: s.ItemCount,
		At:        at,
	}
	switch act := a.(type) {
	case AddLine:
		ev.ProductID, ev.VariantID, ev.Quantity = act.Line.ProductID, act.Line.VariantID, act.Line.Quantity
	case RemoveLine:
		ev.ProductID, ev.VariantID = act.Key.ProductID, act.Key.VariantID
	case SetQuantity:
		ev.ProductID, ev.VariantID, ev.Quantity = act.Key.ProductID, act.Key.VariantID, act.Quantity
	}
	return ev
}
