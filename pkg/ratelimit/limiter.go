package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces outgoing requests
type Limiter interface {
	// Allow reports whether a request may go out now, consuming a token if so
	Allow() bool
	// Wait blocks until a request may go out or ctx is done
	Wait(ctx context.Context) error
	// Reset refills the limiter to its initial burst
	Reset()
}

// TokenBucket is a Limiter backed by golang.org/x/time/rate
type TokenBucket struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	limiter *rate.Limiter
}

// NewTokenBucket allows perMinute requests per minute with bursts of up to burst
func NewTokenBucket(perMinute, burst int) *TokenBucket {
	if perMinute <= 0 {
		perMinute = 60
	}
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Limit(float64(perMinute) / time.Minute.Seconds())
	return &TokenBucket{
		limit:   limit,
		burst:   burst,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (tb *TokenBucket) current() *rate.Limiter {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.limiter
}

// Allow checks if a request can proceed
func (tb *TokenBucket) Allow() bool {
	return tb.current().Allow()
}

// Wait blocks until a token is available
func (tb *TokenBucket) Wait(ctx context.Context) error {
	return tb.current().Wait(ctx)
}

// Reset restores the full burst
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.limiter = rate.NewLimiter(tb.limit, tb.burst)
}

// Unlimited is a Limiter that never blocks
type Unlimited struct{}

func (Unlimited) Allow() bool                    { return true }
func (Unlimited) Wait(ctx context.Context) error { return ctx.Err() }
func (Unlimited) Reset()                         {}
