package basket

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/MorseWayne/storefront/internal/storage"
)

// store 购物车与心愿单共用的持久化状态容器
// 每次变更在锁内完成状态转移和持久化，对内存状态是原子的
type store struct {
	name      string
	storage   storage.Storage
	logger    *zap.Logger
	encode    func(State) ([]byte, error)
	normalize func(Line) (Line, bool)
	now       func() time.Time

	mu        sync.Mutex
	state     State
	observers []Observer

	// notifyMu 在释放 mu 之前获取，保证通知顺序与状态转移顺序一致
	notifyMu sync.Mutex
}

func newStore(name string, st storage.Storage, logger *zap.Logger, encode func(State) ([]byte, error), normalize func(Line) (Line, bool)) *store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &store{
		name:      name,
		storage:   st,
		logger:    logger.With(zap.String("basket", name)),
		encode:    encode,
		normalize: normalize,
		now:       time.Now,
		state:     EmptyState(),
	}
	s.hydrate()
	return s
}

// persisted 存储中的结构；total/itemCount 读取时忽略，重新计算
type persisted struct {
	Items []Line `json:"items"`
}

// hydrate 从存储恢复状态（尽力而为）
// 数据损坏时清除该键并从空状态开始，永远不返回错误
func (s *store) hydrate() {
	raw, err := s.storage.Get(s.name)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
		case errors.Is(err, storage.ErrCorrupt):
			s.discard(err)
		default:
			s.logger.Warn("failed to read stored basket, starting empty", zap.Error(err))
		}
		return
	}

	var p persisted
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		s.discard(err)
		return
	}

	lines := make([]Line, 0, len(p.Items))
	seen := make(map[LineKey]int, len(p.Items))
	for _, l := range p.Items {
		l, ok := s.normalize(l)
		if !ok {
			continue
		}
		// 存储里出现重复身份时按添加语义合并
		if i, dup := seen[l.Key()]; dup {
			lines[i].Quantity += l.Quantity
			continue
		}
		seen[l.Key()] = len(lines)
		lines = append(lines, l)
	}
	s.state = newState(lines)
	s.logger.Debug("basket hydrated", zap.Int("lines", len(lines)))
}

func (s *store) discard(cause error) {
	s.logger.Warn("stored basket is corrupt, discarding", zap.Error(cause))
	if err := s.storage.Remove(s.name); err != nil {
		s.logger.Warn("failed to clear corrupt basket", zap.Error(err))
	}
}

// dispatch 执行一次状态转移、持久化并通知观察者
func (s *store) dispatch(a Action) State {
	_, st := s.dispatchWith(func(State) Action { return a })
	return st
}

// dispatchWith 在锁内根据当前状态决定操作，保证“查询后变更”是原子的
func (s *store) dispatchWith(decide func(State) Action) (Action, State) {
	s.mu.Lock()
	a := decide(s.state)
	s.state = Reduce(s.state, a)
	s.persistLocked()
	snapshot := s.snapshotLocked()
	observers := append([]Observer(nil), s.observers...)
	at := s.now()
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	if len(observers) > 0 {
		ev := eventFor(s.name, a, snapshot, at)
		for _, o := range observers {
			o.BasketChanged(ev)
		}
	}
	return a, snapshot
}

// persistLocked 写入失败只记录日志，内存状态仍然有效
func (s *store) persistLocked() {
	data, err := s.encode(s.state)
	if err != nil {
		s.logger.Error("failed to encode basket", zap.Error(err))
		return
	}
	if err := s.storage.Set(s.name, string(data)); err != nil {
		s.logger.Warn("failed to persist basket", zap.Error(err))
	}
}

func (s *store) snapshotLocked() State {
	return State{
		Lines:     cloneLines(s.state.Lines),
		Total:     s.state.Total,
		ItemCount: s.state.ItemCount,
	}
}

func (s *store) snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *store) find(key LineKey) (Line, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Find(key)
}

func (s *store) addObserver(o Observer) {
	if o == nil {
		return
	}
	s.mu.Lock()
	s.observers = append(s.observers, o)
	s.mu.Unlock()
}
