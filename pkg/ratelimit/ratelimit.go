package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Result holds the outcome of a rate limit check
type Result struct {
	Limited   bool          // Whether the request was rejected
	Remaining int           // Attempts left in the current window
	ResetIn   time.Duration // Time until the window resets
}

// Limiter is a fixed-window rate limiter keyed by an arbitrary string
// (e.g. team name, IP address)
type Limiter interface {
	Check(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}

// window tracks attempts for a single key
type window struct {
	attempts int
	resetAt  time.Time
}

// MemoryLimiter implements the fixed-window algorithm in process memory.
// Counters are lost on restart; the window is fixed, not sliding, so a burst
// straddling a window boundary can reach up to 2x the limit.
type MemoryLimiter struct {
	mu              sync.Mutex
	windows         map[string]*window
	cleanupInterval time.Duration
	lastCleanup     time.Time
	now             func() time.Time
}

// NewMemoryLimiter creates a new in-memory fixed-window limiter
func NewMemoryLimiter() *MemoryLimiter {
	l := &MemoryLimiter{
		windows:         make(map[string]*window),
		cleanupInterval: 10 * time.Minute,
		lastCleanup:     time.Now(),
		now:             time.Now,
	}

	// Start background cleanup
	go l.cleanupLoop()

	return l
}

// Check counts one attempt for the key against the given limit and window.
// The first attempt (or the first after the window elapsed) opens a fresh
// window and always passes. At the limit the counter is NOT incremented, so
// rejected attempts never extend the caller's lockout.
func (l *MemoryLimiter) Check(_ context.Context, key string, limit int, windowSize time.Duration) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, exists := l.windows[key]

	// No record, or the previous window has elapsed: open a fresh one
	// counting this attempt
	if !exists || !now.Before(w.resetAt) {
		l.windows[key] = &window{
			attempts: 1,
			resetAt:  now.Add(windowSize),
		}
		return Result{Limited: false, Remaining: limit - 1, ResetIn: windowSize}, nil
	}

	if w.attempts >= limit {
		return Result{Limited: true, Remaining: 0, ResetIn: w.resetAt.Sub(now)}, nil
	}

	w.attempts++
	return Result{Limited: false, Remaining: limit - w.attempts, ResetIn: w.resetAt.Sub(now)}, nil
}

// Reset drops the window for a key
func (l *MemoryLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// cleanupLoop periodically removes expired windows to prevent memory leaks
func (l *MemoryLimiter) cleanupLoop() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		l.cleanup()
	}
}

// cleanup removes windows whose reset time has passed
func (l *MemoryLimiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, key)
		}
	}

	l.lastCleanup = now
}

// GetStats returns statistics about the limiter
func (l *MemoryLimiter) GetStats() map[string]interface{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	return map[string]interface{}{
		"active_windows": len(l.windows),
		"last_cleanup":   l.lastCleanup,
	}
}
