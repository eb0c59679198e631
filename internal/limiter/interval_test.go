package limiter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func newTestInterval(interval time.Duration) (*IntervalLimiter, *time.Time, *[]time.Duration) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var slept []time.Duration
	l := NewIntervalLimiter(interval)
	l.now = func() time.Time { return now }
	l.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		now = now.Add(d)
		return nil
	}
	return l, &now, &slept
}

func TestIntervalLimiter_SpacesRequests(t *testing.T) {
	l, now, slept := newTestInterval(100 * time.Millisecond)
	ctx := context.Background()

	// 第一次请求不等待
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if len(*slept) != 0 {
		t.Fatalf("first request should not wait, slept %v", *slept)
	}

	// 紧接着的请求等待完整间隔
	*now = now.Add(30 * time.Millisecond)
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if len(*slept) != 1 || (*slept)[0] != 70*time.Millisecond {
		t.Fatalf("expected one 70ms wait, got %v", *slept)
	}

	// 间隔已过则不等待
	*now = now.Add(150 * time.Millisecond)
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if len(*slept) != 1 {
		t.Fatalf("request after interval should not wait, slept %v", *slept)
	}
}

func TestIntervalLimiter_ReserveQueuesConcurrentCallers(t *testing.T) {
	l := NewIntervalLimiter(100 * time.Millisecond)
	fixed := time.Unix(1000, 0)
	l.now = func() time.Time { return fixed }

	var waits []time.Duration
	for i := 0; i < 4; i++ {
		waits = append(waits, l.Reserve())
	}

	want := []time.Duration{0, 100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond}
	for i := range want {
		if waits[i] != want[i] {
			t.Errorf("reservation %d waits %v, want %v", i, waits[i], want[i])
		}
	}
}

func TestIntervalLimiter_ConcurrentRealTime(t *testing.T) {
	l := NewIntervalLimiter(20 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Wait(ctx); err != nil {
				t.Errorf("Wait failed: %v", err)
			}
		}()
	}
	wg.Wait()

	// 5 个请求至少被排开 4 个间隔
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Fatalf("concurrent callers passed too quickly: %v", elapsed)
	}
}

func TestIntervalLimiter_ContextCanceled(t *testing.T) {
	l := NewIntervalLimiter(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	if err := l.Wait(ctx); err != nil {
		t.Fatalf("first Wait failed: %v", err)
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	if err := l.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestIntervalLimiter_CanceledWaitReleasesSlot(t *testing.T) {
	l, now, slept := newTestInterval(100 * time.Millisecond)
	ctx := context.Background()

	if err := l.Wait(ctx); err != nil {
		t.Fatalf("first Wait failed: %v", err)
	}

	// 第二次等待被取消，没有真正发出请求
	l.sleep = func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	}
	if err := l.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	l.sleep = func(ctx context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		*now = now.Add(d)
		return nil
	}
	*now = now.Add(40 * time.Millisecond)
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("third Wait failed: %v", err)
	}
	if len(*slept) != 1 || (*slept)[0] != 60*time.Millisecond {
		t.Fatalf("expected one 60ms wait after the canceled reservation, got %v", *slept)
	}
}

func TestIntervalLimiter_Disabled(t *testing.T) {
	l := NewIntervalLimiter(0)
	for i := 0; i < 3; i++ {
		if d := l.Reserve(); d != 0 {
			t.Fatalf("disabled limiter should not wait, got %v", d)
		}
	}
}
