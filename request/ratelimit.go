package request

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures a RateLimiter.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate allowed per key.
	RequestsPerSecond float64

	// Burst is the maximum burst size.
	Burst int

	// WaitOnLimit, when true, blocks until a token is available (bounded
	// by the request's deadline) instead of failing immediately with
	// ErrRateLimited.
	WaitOnLimit bool

	// KeyFunc derives the rate-limiting key. Default: DefaultBreakerKey,
	// the same (method, URL) grouping the breaker uses.
	KeyFunc BreakerKeyFunc
}

// DefaultRateLimitConfig returns a permissive default: 50 req/s, burst 10,
// non-blocking.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 50,
		Burst:             10,
		KeyFunc:           DefaultBreakerKey,
	}
}

func (c RateLimitConfig) withDefaults() RateLimitConfig {
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 50
	}
	if c.Burst <= 0 {
		c.Burst = 10
	}
	if c.KeyFunc == nil {
		c.KeyFunc = DefaultBreakerKey
	}
	return c
}

// RateLimiter gates requests per key using a token bucket
// (golang.org/x/time/rate) per key, created lazily on first observation.
type RateLimiter struct {
	cfg RateLimitConfig

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewRateLimiter returns a RateLimiter configured by cfg.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		cfg:      cfg.withDefaults(),
		limiters: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether req may proceed immediately, consuming a token if
// so. Used when WaitOnLimit is false.
func (r *RateLimiter) Allow(req *Request) bool {
	return r.limiterFor(req).Allow()
}

// WaitOnLimit reports whether the client should block for a token (via
// Wait) instead of failing fast (via Allow) when none is immediately
// available.
func (r *RateLimiter) WaitOnLimit() bool {
	return r.cfg.WaitOnLimit
}

// Wait blocks until a token is available or ctx is cancelled, whichever
// comes first. Used when WaitOnLimit is true; Client derives ctx from the
// request's Deadline so a wait can never outlast the caller's budget.
func (r *RateLimiter) Wait(ctx context.Context, req *Request) error {
	return r.limiterFor(req).Wait(ctx)
}

func (r *RateLimiter) limiterFor(req *Request) *rate.Limiter {
	key := r.cfg.KeyFunc(req)

	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.limiters[key]
	if !ok {
		l = rate.NewLimiter(rate.Limit(r.cfg.RequestsPerSecond), r.cfg.Burst)
		r.limiters[key] = l
	}
	return l
}
