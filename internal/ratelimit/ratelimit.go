package ratelimit

import (
	"sync"
	"time"
)

// Config interface for rate limiting configuration
type Config interface {
	GetDisableRateLimit() bool
}

// RateLimitResult contains the result of a rate limit check
type RateLimitResult struct {
	ShouldBlock   bool
	RemainingTime time.Duration
	Reason        string
}

// CheckRefreshRateLimit checks whether a forced snapshot rebuild at now
// should be refused given the previous one and the minimum window between them
func CheckRefreshRateLimit(cfg Config, lastRefresh *time.Time, window time.Duration, now time.Time) RateLimitResult {
	if cfg.GetDisableRateLimit() {
		return RateLimitResult{Reason: "rate_limiting_disabled"}
	}

	if window <= 0 {
		return RateLimitResult{Reason: "no_window"}
	}

	if lastRefresh == nil {
		return RateLimitResult{Reason: "no_previous_refresh"}
	}

	elapsed := now.Sub(*lastRefresh)
	if elapsed < window {
		return RateLimitResult{
			ShouldBlock:   true,
			RemainingTime: window - elapsed,
			Reason:        "rate_limit_active",
		}
	}

	return RateLimitResult{Reason: "rate_limit_passed"}
}

// RefreshLimiter remembers the last allowed forced rebuild. Safe for concurrent use.
type RefreshLimiter struct {
	cfg    Config
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	last *time.Time
}

// NewRefreshLimiter creates a limiter allowing one forced rebuild per window
func NewRefreshLimiter(cfg Config, window time.Duration) *RefreshLimiter {
	return &RefreshLimiter{cfg: cfg, window: window, now: time.Now}
}

// Allow checks the limit and, when the rebuild may proceed, records it
func (l *RefreshLimiter) Allow() RateLimitResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	result := CheckRefreshRateLimit(l.cfg, l.last, l.window, now)
	if !result.ShouldBlock {
		l.last = &now
	}
	return result
}

// Window returns the minimum gap between forced rebuilds
func (l *RefreshLimiter) Window() time.Duration {
	return l.window
}
