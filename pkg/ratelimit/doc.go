// Package ratelimit paces traffic to the remote API.
//
// Two mechanisms are provided:
//
// Request limiter:
//   - TokenBucket wraps golang.org/x/time/rate and is consulted by the HTTP
//     client before every request
//   - Unlimited never blocks
//
// Page pacing:
//   - A Pacer is invoked by a walk between two successive pages of the same
//     stream, never before the first page or after the last
//   - DelayPacer sleeps according to a Delay strategy: ConstantDelay,
//     ExponentialDelay or NoDelay
//   - CountingPacer records calls without sleeping
//
// Usage:
//
//	delay, _ := ratelimit.ParseDelay("constant", 500*time.Millisecond, 0, 0)
//	pacer := ratelimit.NewPacer(delay)
//	limiter := ratelimit.NewTokenBucket(60, 5)
package ratelimit
