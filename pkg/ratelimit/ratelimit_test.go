package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

// newTestLimiter returns a limiter with a controllable clock and no
// background cleanup goroutine
func newTestLimiter(now *time.Time) *MemoryLimiter {
	return &MemoryLimiter{
		windows:         make(map[string]*window),
		cleanupInterval: 10 * time.Minute,
		lastCleanup:     *now,
		now:             func() time.Time { return *now },
	}
}

func TestMemoryLimiter_FreshWindow(t *testing.T) {
	now := time.Now()
	limiter := newTestLimiter(&now)
	ctx := context.Background()

	res, err := limiter.Check(ctx, "red", 10, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Limited {
		t.Error("First attempt should not be limited")
	}
	if res.Remaining != 9 {
		t.Errorf("Remaining = %d, want 9", res.Remaining)
	}
	if res.ResetIn != time.Minute {
		t.Errorf("ResetIn = %v, want %v", res.ResetIn, time.Minute)
	}
}

func TestMemoryLimiter_LimitReached(t *testing.T) {
	now := time.Now()
	limiter := newTestLimiter(&now)
	ctx := context.Background()

	// Consume the full limit
	for i := 0; i < 5; i++ {
		res, _ := limiter.Check(ctx, "red", 5, time.Minute)
		if res.Limited {
			t.Fatalf("Attempt %d should be allowed", i+1)
		}
	}

	// 6th attempt within the window is rejected
	res, _ := limiter.Check(ctx, "red", 5, time.Minute)
	if !res.Limited {
		t.Error("6th attempt should be limited")
	}
	if res.Remaining != 0 {
		t.Errorf("Remaining = %d, want 0", res.Remaining)
	}

	// Rejected attempts must not extend the window: counter stays at limit
	res, _ = limiter.Check(ctx, "red", 5, time.Minute)
	if !res.Limited {
		t.Error("Repeated attempt should still be limited")
	}
}

func TestMemoryLimiter_WindowExpiry(t *testing.T) {
	now := time.Now()
	limiter := newTestLimiter(&now)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		limiter.Check(ctx, "red", 3, time.Minute)
	}

	res, _ := limiter.Check(ctx, "red", 3, time.Minute)
	if !res.Limited {
		t.Fatal("4th attempt should be limited")
	}

	// Advance past the window: a fresh window opens counting this attempt
	now = now.Add(time.Minute + time.Second)

	res, _ = limiter.Check(ctx, "red", 3, time.Minute)
	if res.Limited {
		t.Error("Attempt after window expiry should be allowed")
	}
	if res.Remaining != 2 {
		t.Errorf("Remaining after reset = %d, want 2 (counter restarted at 1)", res.Remaining)
	}
}

func TestMemoryLimiter_ResetInCountsDown(t *testing.T) {
	now := time.Now()
	limiter := newTestLimiter(&now)
	ctx := context.Background()

	limiter.Check(ctx, "red", 10, time.Minute)

	now = now.Add(20 * time.Second)

	res, _ := limiter.Check(ctx, "red", 10, time.Minute)
	if res.ResetIn != 40*time.Second {
		t.Errorf("ResetIn = %v, want 40s", res.ResetIn)
	}
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	now := time.Now()
	limiter := newTestLimiter(&now)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		limiter.Check(ctx, "red", 2, time.Minute)
	}

	res, _ := limiter.Check(ctx, "red", 2, time.Minute)
	if !res.Limited {
		t.Error("red should be limited")
	}

	res, _ = limiter.Check(ctx, "blue", 2, time.Minute)
	if res.Limited {
		t.Error("blue should have its own window")
	}
}

func TestMemoryLimiter_Reset(t *testing.T) {
	now := time.Now()
	limiter := newTestLimiter(&now)
	ctx := context.Background()

	limiter.Check(ctx, "red", 1, time.Minute)

	res, _ := limiter.Check(ctx, "red", 1, time.Minute)
	if !res.Limited {
		t.Fatal("Second attempt should be limited")
	}

	limiter.Reset("red")

	res, _ = limiter.Check(ctx, "red", 1, time.Minute)
	if res.Limited {
		t.Error("Attempt after reset should be allowed")
	}
}

func TestMemoryLimiter_Cleanup(t *testing.T) {
	now := time.Now()
	limiter := newTestLimiter(&now)
	ctx := context.Background()

	limiter.Check(ctx, "red", 5, time.Minute)
	limiter.Check(ctx, "blue", 5, 2*time.Minute)

	now = now.Add(90 * time.Second)
	limiter.cleanup()

	stats := limiter.GetStats()
	if stats["active_windows"].(int) != 1 {
		t.Errorf("Expected 1 active window after cleanup, got %d", stats["active_windows"])
	}
}

func TestMemoryLimiter_ConcurrentAccess(t *testing.T) {
	now := time.Now()
	limiter := newTestLimiter(&now)
	ctx := context.Background()

	var wg sync.WaitGroup
	allowed := make(chan bool, 100)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				res, _ := limiter.Check(ctx, "concurrent", 30, time.Minute)
				allowed <- !res.Limited
			}
		}()
	}

	wg.Wait()
	close(allowed)

	count := 0
	for ok := range allowed {
		if ok {
			count++
		}
	}

	// Exactly the limit passes, regardless of interleaving
	if count != 30 {
		t.Errorf("Allowed %d attempts, want exactly 30", count)
	}
}
