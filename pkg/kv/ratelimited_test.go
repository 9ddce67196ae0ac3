package kv_test

import (
	"context"
	"testing"
	"time"

	"github.com/marmos91/dittometa/pkg/kv"
	"github.com/marmos91/dittometa/pkg/kv/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRateLimited_ZeroRateReturnsStore(t *testing.T) {
	store := memory.NewMemoryStore()
	assert.Same(t, store, kv.NewRateLimited(store, 0, 0))
}

func TestRateLimited_PassesThrough(t *testing.T) {
	ctx := context.Background()
	store := kv.NewRateLimited(memory.NewMemoryStore(), 1000, 1000)

	require.NoError(t, store.Set(ctx, "fileMetadata:u1", []byte("v")))

	value, err := store.Get(ctx, "fileMetadata:u1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), value)

	keys, err := store.List(ctx, "fileMetadata:")
	require.NoError(t, err)
	assert.Equal(t, []string{"fileMetadata:u1"}, keys)

	require.NoError(t, store.Delete(ctx, "fileMetadata:u1"))
	_, err = store.Get(ctx, "fileMetadata:u1")
	assert.True(t, kv.IsNotFound(err))
	require.NoError(t, store.Close())
}

func TestRateLimited_WaitHonoursContext(t *testing.T) {
	store := kv.NewRateLimited(memory.NewMemoryStore(), 1, 1)

	// Drain the single burst token.
	require.NoError(t, store.Set(context.Background(), "k", []byte("v")))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := store.Get(ctx, "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait for get cancelled")
}

func TestRateLimited_ThrottledCallWaitsForToken(t *testing.T) {
	ctx := context.Background()
	store := kv.NewRateLimited(memory.NewMemoryStore(), 50, 1)

	require.NoError(t, store.Set(ctx, "k", []byte("v")))

	start := time.Now()
	_, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}
