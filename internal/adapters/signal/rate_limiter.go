package signal

import (
	"sync"
	"time"
)

// RoomRateLimiter is a sliding-window limiter for join attempts per client.
// Keys are session client tokens, so reconnecting does not reset the budget.
type RoomRateLimiter struct {
	mu        sync.Mutex
	history   map[string][]time.Time
	limit     int
	interval  time.Duration
	now       func() time.Time
	lastPrune time.Time
}

// NewRoomRateLimiter allows limit attempts per interval. A non-positive limit disables it.
func NewRoomRateLimiter(limit int, interval time.Duration) *RoomRateLimiter {
	return &RoomRateLimiter{
		history:  make(map[string][]time.Time),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

func (rl *RoomRateLimiter) Allow(key string) bool {
	if rl.limit <= 0 {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	windowStart := now.Add(-rl.interval)
	rl.pruneLocked(now, windowStart)

	attempts := rl.history[key]
	fresh := make([]time.Time, 0, len(attempts)+1)
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[key] = fresh
		return false
	}

	rl.history[key] = append(fresh, now)
	return true
}

// pruneLocked drops keys with no attempt inside the window, at most once per interval.
func (rl *RoomRateLimiter) pruneLocked(now, windowStart time.Time) {
	if now.Sub(rl.lastPrune) < rl.interval {
		return
	}
	rl.lastPrune = now
	for key, attempts := range rl.history {
		if len(attempts) == 0 || !attempts[len(attempts)-1].After(windowStart) {
			delete(rl.history, key)
		}
	}
}

// Len reports how many clients are tracked.
func (rl *RoomRateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.history)
}
