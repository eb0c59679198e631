package limiter

import (
	"context"
	"sync"
	"time"
)

// IntervalLimiter 保证相邻两次请求之间至少间隔 interval
//
// 每个调用方在锁内预约下一个空闲时间点，然后在锁外等待到该时间点，
// 因此并发调用会被依次排开，而不是同时通过间隔检查。
type IntervalLimiter struct {
	interval time.Duration

	mu   sync.Mutex
	next time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewIntervalLimiter 创建最小间隔节流器；interval <= 0 时不节流
func NewIntervalLimiter(interval time.Duration) *IntervalLimiter {
	return &IntervalLimiter{
		interval: interval,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Interval 返回配置的最小间隔
func (l *IntervalLimiter) Interval() time.Duration {
	return l.interval
}

// Reserve 预约下一个可用时间点，返回需要等待的时长
func (l *IntervalLimiter) Reserve() time.Duration {
	d, _ := l.reserve()
	return d
}

func (l *IntervalLimiter) reserve() (time.Duration, time.Time) {
	if l.interval <= 0 {
		return 0, time.Time{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	slot := l.next
	if slot.Before(now) {
		slot = now
	}
	l.next = slot.Add(l.interval)
	return slot.Sub(now), slot
}

// release 归还未使用的时间点；之后已有其他预约时保持不变
func (l *IntervalLimiter) release(slot time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.next.Equal(slot.Add(l.interval)) {
		l.next = slot
	}
}

// Wait 阻塞直到轮到本次请求，ctx 取消时提前返回错误并归还预约
func (l *IntervalLimiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d, slot := l.reserve()
	if d <= 0 {
		return nil
	}
	if err := l.sleep(ctx, d); err != nil {
		l.release(slot)
		return err
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
