package ratelimiter

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// unlimited is used in place of rate.Inf, which makes Tokens() meaningless.
const unlimited = 1_000_000_000

// RateLimiter throttles calls to a durable backend with a token bucket.
//
// Remote key-value backends (S3, Consul) bill or rate-limit per request, so
// the store factory can wrap them with a limiter. Callers block in Wait
// until a token is available or their context ends.
//
// Thread safety:
// All methods are safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a RateLimiter.
//
// Parameters:
//   - requestsPerSecond: sustained rate; 0 disables limiting
//   - burst: bucket capacity; 0 defaults to requestsPerSecond
func New(requestsPerSecond, burst uint) *RateLimiter {
	if requestsPerSecond == 0 {
		requestsPerSecond = unlimited
		burst = unlimited
	}
	if burst == 0 {
		burst = requestsPerSecond
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), int(burst)),
	}
}

// Allow consumes a token without waiting. It reports false when the bucket is empty.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Wait blocks until a token is available or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Tokens returns the number of tokens currently in the bucket.
func (r *RateLimiter) Tokens() float64 {
	return r.limiter.TokensAt(time.Now())
}

// Limit returns the configured sustained rate in requests per second.
func (r *RateLimiter) Limit() float64 {
	return float64(r.limiter.Limit())
}
