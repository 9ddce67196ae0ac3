package kv

import (
	"context"
	"fmt"

	"github.com/marmos91/dittometa/internal/logger"
	"github.com/marmos91/dittometa/internal/ratelimiter"
)

// rateLimitedStore throttles every call to the wrapped Store.
type rateLimitedStore struct {
	Store
	limiter *ratelimiter.RateLimiter
}

// NewRateLimited wraps store so that calls are limited to requestsPerSecond
// with the given burst. A zero rate returns store unchanged.
func NewRateLimited(store Store, requestsPerSecond, burst uint) Store {
	if requestsPerSecond == 0 {
		return store
	}

	return &rateLimitedStore{
		Store:   store,
		limiter: ratelimiter.New(requestsPerSecond, burst),
	}
}

func (s *rateLimitedStore) wait(ctx context.Context, op string) error {
	if s.limiter.Allow() {
		return nil
	}

	logger.Debug("kv %s throttled (%.2f tokens left, limit %.0f/s)", op, s.limiter.Tokens(), s.limiter.Limit())
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait for %s cancelled: %w", op, err)
	}
	return nil
}

func (s *rateLimitedStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := s.wait(ctx, "get"); err != nil {
		return nil, err
	}
	return s.Store.Get(ctx, key)
}

func (s *rateLimitedStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.wait(ctx, "set"); err != nil {
		return err
	}
	return s.Store.Set(ctx, key, value)
}

func (s *rateLimitedStore) Delete(ctx context.Context, key string) error {
	if err := s.wait(ctx, "delete"); err != nil {
		return err
	}
	return s.Store.Delete(ctx, key)
}

func (s *rateLimitedStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := s.wait(ctx, "list"); err != nil {
		return nil, err
	}
	return s.Store.List(ctx, prefix)
}
