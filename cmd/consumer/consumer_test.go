package main

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeCounter implements RouteCounter for tests
type fakeCounter struct {
	fail  int // number of times to fail before succeeding
	calls int
}

func (f *fakeCounter) IncrRoute(ctx context.Context, route string) error {
	f.calls++
	if f.calls <= f.fail {
		return errors.New("incr fail")
	}
	return nil
}

func TestIncrRouteWithRetry_SucceedsAfterRetries(t *testing.T) {
	f := &fakeCounter{fail: 1}
	ctx := context.Background()
	start := time.Now()
	if err := incrRouteWithRetry(ctx, f, "Oslo -> Bergen", 3, 10*time.Millisecond); err != nil {
		t.Fatalf("expected success, got err=%v", err)
	}
	if f.calls < 2 {
		t.Fatalf("expected retries, got calls=%d", f.calls)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Fatalf("expected at least one backoff")
	}
}

func TestIncrRouteWithRetry_FailsWhenExhausted(t *testing.T) {
	f := &fakeCounter{fail: 5}
	ctx := context.Background()
	if err := incrRouteWithRetry(ctx, f, "Oslo -> Bergen", 3, 5*time.Millisecond); err == nil {
		t.Fatalf("expected error after retries")
	}
}
