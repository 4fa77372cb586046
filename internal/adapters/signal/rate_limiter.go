package signal

import (
	"sync"
	"time"

	"github.com/dkeye/fastcall/internal/domain"
)

const pruneEvery = 256

// JoinRateLimiter caps connect attempts per client id over a sliding
// window. A nil limiter or a non-positive limit allows everything.
type JoinRateLimiter struct {
	mu       sync.Mutex
	history  map[domain.ClientID][]time.Time
	limit    int
	interval time.Duration
	calls    int
	now      func() time.Time
}

func NewJoinRateLimiter(limit int, interval time.Duration) *JoinRateLimiter {
	return &JoinRateLimiter{
		history:  make(map[domain.ClientID][]time.Time),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

func (rl *JoinRateLimiter) Allow(id domain.ClientID) bool {
	if rl == nil || rl.limit <= 0 {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	windowStart := now.Add(-rl.interval)

	rl.calls++
	if rl.calls%pruneEvery == 0 {
		rl.pruneLocked(windowStart)
	}

	fresh := recent(rl.history[id], windowStart)
	if len(fresh) >= rl.limit {
		rl.history[id] = fresh
		return false
	}
	rl.history[id] = append(fresh, now)
	return true
}

// Len reports how many client ids are tracked.
func (rl *JoinRateLimiter) Len() int {
	if rl == nil {
		return 0
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.history)
}

func (rl *JoinRateLimiter) pruneLocked(windowStart time.Time) {
	for id, attempts := range rl.history {
		if fresh := recent(attempts, windowStart); len(fresh) > 0 {
			rl.history[id] = fresh
		} else {
			delete(rl.history, id)
		}
	}
}

func recent(attempts []time.Time, windowStart time.Time) []time.Time {
	fresh := make([]time.Time, 0, len(attempts))
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}
	return fresh
}
