package app

import (
	"sync"
	"time"

	"github.com/snacka/voice/internal/domain"
)

// SignalRateLimiter is a per-user sliding window over inbound signaling
// messages. Good enough at this scale; no token bucket needed.
type SignalRateLimiter struct {
	mu       sync.Mutex
	history  map[domain.UserID][]time.Time
	limit    int
	interval time.Duration
}

func NewSignalRateLimiter(limit int, interval time.Duration) *SignalRateLimiter {
	return &SignalRateLimiter{
		history:  make(map[domain.UserID][]time.Time),
		limit:    limit,
		interval: interval,
	}
}

func (rl *SignalRateLimiter) Allow(user domain.UserID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[user]
	fresh := make([]time.Time, 0, len(attempts))
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[user] = fresh
		return false
	}

	fresh = append(fresh, now)
	rl.history[user] = fresh
	return true
}

// Forget drops a user's window, e.g. on disconnect.
func (rl *SignalRateLimiter) Forget(user domain.UserID) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.history, user)
}
