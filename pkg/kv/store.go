// Package kv defines the durable key-value layer the metadata stores persist
// through.
//
// A Store maps string keys to opaque byte values. Callers namespace their
// records with a key prefix (e.g. "fileMetadata:" + item ID), so one backend
// can hold several record families. Implementations live in sub-packages:
//
//   - kv/memory: ordered in-memory map, ephemeral
//   - kv/badger: embedded BadgerDB, persistent
//   - kv/sqlite: single SQLite file, persistent
//   - kv/s3:     one object per key in an S3 bucket
//   - kv/consul: Consul KV
//
// All implementations are safe for concurrent use.
package kv

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when the key has no value.
var ErrKeyNotFound = errors.New("key not found")

// Store is the durable key-value interface.
type Store interface {
	// Get returns the value stored under key.
	//
	// Returns ErrKeyNotFound (possibly wrapped) if the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	// The store keeps its own copy of value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns all keys starting with prefix in ascending order.
	List(ctx context.Context, prefix string) ([]string, error)

	// Close releases backend resources. The store must not be used afterwards.
	Close() error
}

// IsNotFound reports whether err signals an absent key.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound)
}
