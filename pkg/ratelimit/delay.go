package ratelimit

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"
)

// Delay decides how long to pause before the next page of a stream.
// step is 1 for the pause between the first and second page.
type Delay interface {
	NextDelay(step int) time.Duration
}

// ConstantDelay pauses for the same duration every step
type ConstantDelay struct {
	Delay time.Duration
}

// NextDelay returns a constant delay
func (c ConstantDelay) NextDelay(step int) time.Duration {
	if step <= 0 {
		return 0
	}
	return c.Delay
}

// maxDuration is the longest pause a time.Duration can hold
const maxDuration = float64(math.MaxInt64)

// ExponentialDelay grows the pause by Multiplier each step, capped at MaxDelay
type ExponentialDelay struct {
	// BaseDelay is the first pause
	BaseDelay time.Duration
	// MaxDelay caps the pause; zero means uncapped
	MaxDelay   time.Duration
	Multiplier float64
	// JitterFactor adds +/- randomness as a fraction of the delay (0.0 to 1.0)
	JitterFactor float64
}

// NextDelay calculates the pause for step with jitter
func (e ExponentialDelay) NextDelay(step int) time.Duration {
	if step <= 0 {
		return 0
	}

	delay := float64(e.BaseDelay) * math.Pow(e.Multiplier, float64(step-1))
	if e.MaxDelay > 0 && delay > float64(e.MaxDelay) {
		delay = float64(e.MaxDelay)
	}

	if e.JitterFactor > 0 {
		jitter := delay * e.JitterFactor
		delay += (rand.Float64() * 2 * jitter) - jitter
	}

	switch {
	case delay < 0:
		delay = 0
	case delay >= maxDuration:
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(delay)
}

// NoDelay never pauses
type NoDelay struct{}

func (NoDelay) NextDelay(int) time.Duration { return 0 }

// ParseDelay builds a Delay from a strategy name as used in configuration
func ParseDelay(strategy string, base, max time.Duration, multiplier float64) (Delay, error) {
	switch strings.ToLower(strategy) {
	case "constant", "":
		return ConstantDelay{Delay: base}, nil
	case "exponential":
		if multiplier < 1 {
			multiplier = 2
		}
		return ExponentialDelay{BaseDelay: base, MaxDelay: max, Multiplier: multiplier, JitterFactor: 0.1}, nil
	case "none":
		return NoDelay{}, nil
	default:
		return nil, fmt.Errorf("unknown delay strategy: %s", strategy)
	}
}
