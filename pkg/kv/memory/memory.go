package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/marmos91/dittometa/pkg/kv"
	"github.com/tidwall/btree"
)

// MemoryStore implements kv.Store in memory.
//
// Keys are kept in a B-tree so List can walk a prefix range in order
// without sorting. Values are copied on Set and Get so callers never share
// a buffer with the store.
//
// Characteristics:
//   - Volatile: data is lost on restart
//   - Thread-safe: protected by a RWMutex
//
// Used for tests and for running the CLI without a persistent backend.
type MemoryStore struct {
	data   *btree.Map[string, []byte]
	mu     sync.RWMutex
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: btree.NewMap[string, []byte](0),
	}
}

var _ kv.Store = (*MemoryStore)(nil)

func (s *MemoryStore) checkOpen(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed {
		return fmt.Errorf("memory store is closed")
	}
	return nil
}

// Get returns a copy of the value stored under key.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}

	value, ok := s.data.Get(key)
	if !ok {
		return nil, fmt.Errorf("key %q: %w", key, kv.ErrKeyNotFound)
	}

	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Set stores a copy of value under key.
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(ctx); err != nil {
		return err
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	s.data.Set(key, stored)
	return nil
}

// Delete removes key if present.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(ctx); err != nil {
		return err
	}

	s.data.Delete(key)
	return nil
}

// List returns the keys with the given prefix in ascending order.
func (s *MemoryStore) List(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}

	keys := []string{}
	s.data.Ascend(prefix, func(key string, _ []byte) bool {
		if !strings.HasPrefix(key, prefix) {
			return false
		}
		keys = append(keys, key)
		return true
	})
	return keys, nil
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Len()
}

// Close marks the store closed and drops its data.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.data = btree.NewMap[string, []byte](0)
	return nil
}
