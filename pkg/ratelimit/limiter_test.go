package ratelimit

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

func TestTokenBucket(t *testing.T) {
	tb := NewTokenBucket(60, 3)

	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Errorf("Expected token %d to be available", i+1)
		}
	}

	if tb.Allow() {
		t.Error("Expected burst to be exhausted")
	}

	tb.Reset()
	if !tb.Allow() {
		t.Error("Expected tokens to be available after reset")
	}
}

func TestTokenBucketWaitHonoursContext(t *testing.T) {
	tb := NewTokenBucket(1, 1)
	if !tb.Allow() {
		t.Fatal("Expected first token")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := tb.Wait(ctx); err == nil {
		t.Error("Expected Wait to fail when the next token is a minute away")
	}
}

func TestUnlimited(t *testing.T) {
	var l Limiter = Unlimited{}
	for i := 0; i < 100; i++ {
		if !l.Allow() {
			t.Fatal("Unlimited must always allow")
		}
	}
	if err := l.Wait(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestConstantDelay(t *testing.T) {
	d := ConstantDelay{Delay: 500 * time.Millisecond}
	if got := d.NextDelay(0); got != 0 {
		t.Errorf("NextDelay(0) = %v, want 0", got)
	}
	for step := 1; step <= 3; step++ {
		if got := d.NextDelay(step); got != 500*time.Millisecond {
			t.Errorf("NextDelay(%d) = %v, want 500ms", step, got)
		}
	}
}

func TestExponentialDelay(t *testing.T) {
	d := ExponentialDelay{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond, 800 * time.Millisecond, time.Second, time.Second}
	for i, w := range want {
		if got := d.NextDelay(i + 1); got != w {
			t.Errorf("NextDelay(%d) = %v, want %v", i+1, got, w)
		}
	}

	d.JitterFactor = 0.5
	for i := 0; i < 20; i++ {
		got := d.NextDelay(1)
		if got < 50*time.Millisecond || got > 150*time.Millisecond {
			t.Fatalf("jittered delay %v outside [50ms,150ms]", got)
		}
	}
}

func TestExponentialDelayUncappedSaturates(t *testing.T) {
	d := ExponentialDelay{BaseDelay: 500 * time.Millisecond, Multiplier: 2}

	prev := time.Duration(0)
	for step := 1; step <= 200; step++ {
		got := d.NextDelay(step)
		if got < prev {
			t.Fatalf("NextDelay(%d) = %v, shorter than step %d (%v)", step, got, step-1, prev)
		}
		prev = got
	}
	if got := d.NextDelay(36); got != time.Duration(math.MaxInt64) {
		t.Errorf("NextDelay(36) = %v, want the longest duration", got)
	}

	d.JitterFactor = 0.5
	for step := 30; step <= 80; step++ {
		if got := d.NextDelay(step); got <= 0 {
			t.Fatalf("jittered NextDelay(%d) = %v, want a positive pause", step, got)
		}
	}
}

func TestParseDelay(t *testing.T) {
	tests := []struct {
		strategy string
		wantErr  bool
		want     time.Duration
	}{
		{"constant", false, 300 * time.Millisecond},
		{"", false, 300 * time.Millisecond},
		{"NONE", false, 0},
		{"exponential", false, -1},
		{"linear", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.strategy, func(t *testing.T) {
			d, err := ParseDelay(tt.strategy, 300*time.Millisecond, time.Second, 2)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDelay() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr || tt.want < 0 {
				return
			}
			if got := d.NextDelay(1); got != tt.want {
				t.Errorf("NextDelay(1) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDelayPacerUsesInjectedSleep(t *testing.T) {
	var slept []time.Duration
	p := NewPacer(ConstantDelay{Delay: time.Hour}).WithSleep(func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	})

	for step := 1; step <= 2; step++ {
		if err := p.Pause(context.Background(), step); err != nil {
			t.Fatalf("Pause: %v", err)
		}
	}
	if len(slept) != 2 || slept[0] != time.Hour {
		t.Errorf("unexpected sleeps: %v", slept)
	}
}

func TestSleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep() = %v, want context.Canceled", err)
	}
	if err := Sleep(context.Background(), 0); err != nil {
		t.Errorf("Sleep(0) = %v, want nil", err)
	}
}

func TestCountingPacer(t *testing.T) {
	p := &CountingPacer{}
	_ = p.Pause(context.Background(), 1)
	_ = p.Pause(context.Background(), 2)
	if p.Calls() != 2 {
		t.Errorf("Calls() = %d, want 2", p.Calls())
	}
}
