package ratelimit

import (
	"context"
	"time"
)

// Pacer is called between successive page fetches of one stream
type Pacer interface {
	Pause(ctx context.Context, step int) error
}

// SleepFunc blocks for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// DelayPacer pauses according to a Delay strategy
type DelayPacer struct {
	delay Delay
	sleep SleepFunc
}

// NewPacer returns a Pacer that sleeps for delay.NextDelay(step)
func NewPacer(delay Delay) *DelayPacer {
	if delay == nil {
		delay = NoDelay{}
	}
	return &DelayPacer{delay: delay, sleep: Sleep}
}

// WithSleep replaces the blocking primitive, mainly for tests
func (p *DelayPacer) WithSleep(sleep SleepFunc) *DelayPacer {
	p.sleep = sleep
	return p
}

// Pause blocks for the strategy's delay at step
func (p *DelayPacer) Pause(ctx context.Context, step int) error {
	return p.sleep(ctx, p.delay.NextDelay(step))
}

// Sleep waits for the specified duration or until context is cancelled
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CountingPacer records pauses without sleeping
type CountingPacer struct {
	Steps []int
	Err   error
}

// Pause records step and returns p.Err
func (p *CountingPacer) Pause(ctx context.Context, step int) error {
	p.Steps = append(p.Steps, step)
	return p.Err
}

// Calls returns how many times Pause was called
func (p *CountingPacer) Calls() int {
	return len(p.Steps)
}
