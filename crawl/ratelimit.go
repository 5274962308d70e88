package crawl

import (
	"context"
	"sync"
	"time"

	"github.com/fwojciec/spewder"
	"golang.org/x/time/rate"
)

var _ spewder.RateLimiter = (*KeyedLimiter)(nil)

// KeyedLimiter paces requests with a separate token bucket per key. Keys
// are independent: a request for one key never waits on another.
//
// The crawler keys one limiter by worker, which spaces each worker's
// requests by the request delay, and optionally another by host.
type KeyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
}

// NewKeyedLimiter allows one request per interval for each key, with no
// bursting. The first request for a key also waits one interval. A zero
// interval disables limiting.
func NewKeyedLimiter(interval time.Duration) *KeyedLimiter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &KeyedLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
	}
}

// NewRPSLimiter allows rps requests per second for each key.
func NewRPSLimiter(rps float64) *KeyedLimiter {
	if rps <= 0 {
		return NewKeyedLimiter(0)
	}
	return NewKeyedLimiter(time.Duration(float64(time.Second) / rps))
}

// Wait blocks until a request for key is allowed.
// Returns an error if the context is canceled before the wait completes.
func (l *KeyedLimiter) Wait(ctx context.Context, key string) error {
	l.mu.Lock()
	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(l.limit, 1)
		// Start with the token spent so the first request waits too.
		limiter.Allow()
		l.limiters[key] = limiter
	}
	l.mu.Unlock()

	return limiter.Wait(ctx)
}
