package basket

import (
	"github.com/shopspring/decimal"
)

// State 购物车状态
// Total 与 ItemCount 是派生字段，只由 Reduce 根据 Lines 计算
type State struct {
	Lines     []Line  `json:"items"`
	Total     float64 `json:"total"`
	ItemCount int     `json:"itemCount"`
}

// EmptyState 返回空状态
func EmptyState() State {
	return State{Lines: []Line{}}
}

// Find 返回匹配身份的行
func (s State) Find(key LineKey) (Line, bool) {
	if i := indexOf(s.Lines, key); i >= 0 {
		return s.Lines[i], true
	}
	return Line{}, false
}

// Action 状态变更操作，只有本包定义的四种实现
type Action interface {
	actionName() string
}

// AddLine 添加行；身份已存在时数量累加
type AddLine struct {
	Line Line
}

// RemoveLine 删除行；不存在时为空操作
type RemoveLine struct {
	Key LineKey
}

// SetQuantity 设置行数量（非累加）；数量<=0 等同于删除
type SetQuantity struct {
	Key      LineKey
	Quantity int
}

// ClearLines 清空所有行
type ClearLines struct{}

func (AddLine) actionName() string     { return "add" }
func (RemoveLine) actionName() string  { return "remove" }
func (SetQuantity) actionName() string { return "update_quantity" }
func (ClearLines) actionName() string  { return "clear" }

// ActionName 返回操作名称，用于日志和事件
func ActionName(a Action) string {
	if a == nil {
		return ""
	}
	return a.actionName()
}

// Reduce 纯函数状态转移：(state, action) -> state
// 返回的新状态不与输入共享行切片
func Reduce(s State, a Action) State {
	lines := cloneLines(s.Lines)

	switch act := a.(type) {
	case AddLine:
		if i := indexOf(lines, act.Line.Key()); i >= 0 {
			lines[i].Quantity += act.Line.Quantity
		} else {
			lines = append(lines, act.Line.clone())
		}
	case RemoveLine:
		lines = removeKey(lines, act.Key)
	case SetQuantity:
		if act.Quantity <= 0 {
			lines = removeKey(lines, act.Key)
		} else if i := indexOf(lines, act.Key); i >= 0 {
			lines[i].Quantity = act.Quantity
		}
	case ClearLines:
		lines = []Line{}
	}

	return newState(lines)
}

// newState 根据行集合重新计算派生字段，总价保留两位小数
func newState(lines []Line) State {
	if lines == nil {
		lines = []Line{}
	}
	total := decimal.Zero
	count := 0
	for _, l := range lines {
		total = total.Add(lineAmount(l))
		count += l.Quantity
	}
	return State{
		Lines:     lines,
		Total:     total.Round(2).InexactFloat64(),
		ItemCount: count,
	}
}

func lineAmount(l Line) decimal.Decimal {
	return decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func indexOf(lines []Line, key LineKey) int {
	for i := range lines {
		if lines[i].Key() == key {
			return i
		}
	}
	return -1
}

func removeKey(lines []Line, key LineKey) []Line {
	out := lines[:0]
	for _, l := range lines {
		if l.Key() != key {
			out = append(out, l)
		}
	}
	return out
}

func cloneLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	for i := range lines {
		out[i] = lines[i].clone()
	}
	return out
}
