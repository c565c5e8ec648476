package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(time.Second, 3)
	if limiter.defaultBurst != 3 {
		t.Errorf("expected burst 3, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(time.Second, -1)
	if l2.defaultBurst != 1 {
		t.Errorf("expected default burst 1 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(10*time.Millisecond, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "inbox"); err != nil {
		t.Errorf("wait failed: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "inbox"); err != nil {
		t.Errorf("second wait failed: %v", err)
	}
	if time.Since(start) < 5*time.Millisecond {
		t.Errorf("expected second wait to be spaced out, took %v", time.Since(start))
	}
}

func TestLimiter_WaitCancelled(t *testing.T) {
	limiter := NewLimiter(time.Hour, 1)
	if !limiter.Allow("inbox") {
		t.Fatal("first run should be allowed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx, "inbox"); err == nil {
		t.Error("expected wait to fail once the token bucket is empty and ctx ends")
	}
}

func TestLimiter_PerKey(t *testing.T) {
	limiter := NewLimiter(time.Hour, 1)

	if !limiter.Allow("a") {
		t.Error("first run for a should pass")
	}
	if limiter.Allow("a") {
		t.Error("second run for a should be refused")
	}
	if !limiter.Allow("b") {
		t.Error("other key should pass")
	}
}

func TestLimiter_NormalizedKeys(t *testing.T) {
	limiter := NewLimiter(time.Hour, 1)

	if !limiter.Allow("data/inbox/") {
		t.Fatal("first run should pass")
	}
	if limiter.Allow("./data/inbox") {
		t.Error("equivalent paths should share a bucket")
	}
}

func TestLimiter_ZeroIntervalUnlimited(t *testing.T) {
	limiter := NewLimiter(0, 1)
	for i := 0; i < 10; i++ {
		if !limiter.Allow("x") {
			t.Fatalf("run %d refused with zero interval", i)
		}
	}
}

func TestLimiter_SetInterval(t *testing.T) {
	limiter := NewLimiter(0, 1)
	limiter.SetInterval("slow", time.Hour, 1)

	if !limiter.Allow("slow") {
		t.Error("first request should pass")
	}
	if limiter.Allow("slow") {
		t.Error("second request should fail")
	}
	if !limiter.Allow("fast") {
		t.Error("other key should pass")
	}
}
