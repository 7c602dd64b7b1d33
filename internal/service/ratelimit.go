package service

import (
	"sync"

	"golang.org/x/time/rate"
)

// LoginLimiter throttles password attempts per user id with a token bucket.
// Limiters are only created for ids that exist, so the map is bounded by
// the size of the user list.
type LoginLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[int]*rate.Limiter
}

// NewLoginLimiter allows perMinute attempts per user per minute, with the
// same number available as a burst. perMinute <= 0 disables throttling.
func NewLoginLimiter(perMinute int) *LoginLimiter {
	if perMinute <= 0 {
		return &LoginLimiter{limit: rate.Inf, limiters: map[int]*rate.Limiter{}}
	}
	return &LoginLimiter{
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    perMinute,
		limiters: map[int]*rate.Limiter{},
	}
}

// Allow consumes one attempt for userID.
func (l *LoginLimiter) Allow(userID int) bool {
	if l == nil || l.limit == rate.Inf {
		return true
	}
	return l.limiterFor(userID).Allow()
}

func (l *LoginLimiter) limiterFor(userID int) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.limiters[userID]; ok {
		return lim
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	l.limiters[userID] = lim
	return lim
}
