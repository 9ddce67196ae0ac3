package badger

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/marmos91/dittometa/pkg/kv"
)

// BadgerStore implements kv.Store using BadgerDB for persistence.
//
// This is the default durable backend. Records are small JSON documents
// (one per item or alias), which suits Badger's LSM tree well:
//   - Point lookups for Get/Set/Delete
//   - Ordered prefix iteration for List
//   - Crash recovery through Badger's value log
//
// Thread Safety:
// BadgerDB is safe for concurrent use, so the store adds no locking of its own.
type BadgerStore struct {
	db *badger.DB
}

// BadgerStoreConfig contains configuration for creating a BadgerDB store.
type BadgerStoreConfig struct {
	// DBPath is the directory where BadgerDB will store its files.
	// BadgerDB creates multiple files in this directory (value log, LSM tree, etc.)
	DBPath string `mapstructure:"db_path" validate:"required"`

	// BlockCacheSizeMB is BadgerDB's block cache size in MB (default: 64)
	BlockCacheSizeMB int64 `mapstructure:"block_cache_size_mb" validate:"omitempty,gte=0"`

	// IndexCacheSizeMB is BadgerDB's index cache size in MB (default: 32)
	IndexCacheSizeMB int64 `mapstructure:"index_cache_size_mb" validate:"omitempty,gte=0"`

	// SyncWrites makes every write fsync before returning.
	SyncWrites bool `mapstructure:"sync_writes"`
}

// NewBadgerStore opens (or creates) a BadgerDB database at config.DBPath.
//
// Parameters:
//   - ctx: Context for cancellation
//   - config: Database path and cache tuning
//
// Returns:
//   - *BadgerStore: A store ready for use
//   - error: Error if the database cannot be opened or ctx is cancelled
func NewBadgerStore(ctx context.Context, config BadgerStoreConfig) (*BadgerStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if config.DBPath == "" {
		return nil, fmt.Errorf("badger db_path is required")
	}

	blockCacheMB := config.BlockCacheSizeMB
	if blockCacheMB == 0 {
		blockCacheMB = 64
	}
	indexCacheMB := config.IndexCacheSizeMB
	if indexCacheMB == 0 {
		indexCacheMB = 32
	}

	opts := badger.DefaultOptions(config.DBPath).
		WithLoggingLevel(badger.WARNING).
		WithCompression(options.None).
		WithSyncWrites(config.SyncWrites).
		WithBlockCacheSize(blockCacheMB << 20).
		WithIndexCacheSize(indexCacheMB << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", config.DBPath, err)
	}

	return &BadgerStore{db: db}, nil
}

var _ kv.Store = (*BadgerStore)(nil)

// Get returns the value stored under key.
func (s *BadgerStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("key %q: %w", key, kv.ErrKeyNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %q: %w", key, err)
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

// Set writes value under key.
func (s *BadgerStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Badger may hold on to the slice until the transaction commits.
	stored := make([]byte, len(value))
	copy(stored, value)

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), stored)
	})
	if err != nil {
		return fmt.Errorf("failed to set %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *BadgerStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

// List returns all keys starting with prefix, in ascending order.
func (s *BadgerStore) List(ctx context.Context, prefix string) ([]string, error) {
	keys := []string{}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		count := 0
		for it.Rewind(); it.Valid(); it.Next() {
			if count%100 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			keys = append(keys, string(it.Item().KeyCopy(nil)))
			count++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list prefix %q: %w", prefix, err)
	}
	return keys, nil
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close BadgerDB: %w", err)
	}
	return nil
}
