package ratelimiter

import (
	"context"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name              string
		requestsPerSecond uint
		burst             uint
		wantLimit         float64
	}{
		{name: "standard rate", requestsPerSecond: 100, burst: 200, wantLimit: 100},
		{name: "burst defaults to rate", requestsPerSecond: 5, burst: 0, wantLimit: 5},
		{name: "unlimited (zero rate)", requestsPerSecond: 0, burst: 0, wantLimit: unlimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := New(tt.requestsPerSecond, tt.burst)
			if limiter == nil || limiter.limiter == nil {
				t.Fatal("New() returned an unusable limiter")
			}
			if limiter.Limit() != tt.wantLimit {
				t.Fatalf("Limit() = %v, want %v", limiter.Limit(), tt.wantLimit)
			}
		})
	}
}

func TestAllow(t *testing.T) {
	limiter := New(10, 10)

	for i := 0; i < 10; i++ {
		if !limiter.Allow() {
			t.Fatalf("request %d should be allowed (within burst)", i)
		}
	}

	if limiter.Allow() {
		t.Fatal("request should be rate-limited after burst exhausted")
	}

	// 10 req/s refills one token every 100ms
	time.Sleep(110 * time.Millisecond)

	if !limiter.Allow() {
		t.Fatal("request should be allowed after token replenishment")
	}
}

func TestWaitContextCancellation(t *testing.T) {
	limiter := New(1, 1)

	if !limiter.Allow() {
		t.Fatal("first request should be allowed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx); err == nil {
		t.Fatal("Wait() should return error when the context ends first")
	}
}

func TestUnlimitedNeverBlocks(t *testing.T) {
	limiter := New(0, 0)

	for i := 0; i < 10000; i++ {
		if !limiter.Allow() {
			t.Fatalf("unlimited limiter rejected request %d", i)
		}
	}
}
