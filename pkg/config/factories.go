package config

import (
	"context"
	"fmt"

	"github.com/marmos91/dittometa/internal/logger"
	"github.com/marmos91/dittometa/pkg/kv"
	kvBadger "github.com/marmos91/dittometa/pkg/kv/badger"
	kvConsul "github.com/marmos91/dittometa/pkg/kv/consul"
	"github.com/marmos91/dittometa/pkg/kv/memory"
	kvS3 "github.com/marmos91/dittometa/pkg/kv/s3"
	kvSQLite "github.com/marmos91/dittometa/pkg/kv/sqlite"
	"github.com/mitchellh/mapstructure"
)

// CreateKVStore creates the durable key-value backend from configuration.
//
// This factory function uses the Type field to determine which backend to
// create, then decodes the type-specific section into the backend's own
// config struct and passes it to the backend's constructor. The result is
// wrapped with the configured rate limit.
//
// Supported types:
//   - "memory": pkg/kv/memory (no persistence, for tests and dry runs)
//   - "badger": pkg/kv/badger (embedded LSM database)
//   - "sqlite": pkg/kv/sqlite (single-file SQL database)
//   - "s3": pkg/kv/s3 (Amazon S3 or compatible storage)
//   - "consul": pkg/kv/consul (Consul KV)
//
// Parameters:
//   - ctx: Context for initialization operations
//   - cfg: Storage configuration
//
// Returns:
//   - kv.Store: Initialized backend
//   - error: Configuration or initialization error
func CreateKVStore(ctx context.Context, cfg *StorageConfig) (kv.Store, error) {
	var (
		store kv.Store
		err   error
	)

	switch cfg.Type {
	case "memory":
		store = memory.NewMemoryStore()
	case "badger":
		store, err = createBadgerStore(ctx, cfg.Badger)
	case "sqlite":
		store, err = createSQLiteStore(ctx, cfg.SQLite)
	case "s3":
		store, err = createS3Store(ctx, cfg.S3)
	case "consul":
		store, err = createConsulStore(cfg.Consul)
	default:
		return nil, fmt.Errorf("unknown storage type: %q", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	if rps := cfg.RateLimit.RequestsPerSecond; rps > 0 {
		logger.Debug("Storage rate limit: %d req/s, burst %d", rps, cfg.RateLimit.Burst)
	}
	return kv.NewRateLimited(store, cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst), nil
}

// decodeOptions decodes a backend section into its config struct.
// Durations may be written as strings ("5s").
func decodeOptions(options map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(options)
}

// createBadgerStore creates a BadgerDB-backed store.
func createBadgerStore(ctx context.Context, options map[string]any) (kv.Store, error) {
	var storeCfg kvBadger.BadgerStoreConfig
	if err := decodeOptions(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode badger store config: %w", err)
	}
	if err := validateBackend("badger", &storeCfg); err != nil {
		return nil, err
	}

	store, err := kvBadger.NewBadgerStore(ctx, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create badger store: %w", err)
	}

	logger.Info("Badger store opened at %s", storeCfg.DBPath)
	return store, nil
}

// createSQLiteStore creates a SQLite-backed store.
func createSQLiteStore(ctx context.Context, options map[string]any) (kv.Store, error) {
	var storeCfg kvSQLite.SQLiteStoreConfig
	if err := decodeOptions(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode sqlite store config: %w", err)
	}
	if err := validateBackend("sqlite", &storeCfg); err != nil {
		return nil, err
	}

	store, err := kvSQLite.NewSQLiteStore(ctx, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite store: %w", err)
	}

	logger.Info("SQLite store opened at %s", storeCfg.Path)
	return store, nil
}

// createS3Store creates an S3-backed store.
func createS3Store(ctx context.Context, options map[string]any) (kv.Store, error) {
	var clientCfg kvS3.ClientConfig
	if err := decodeOptions(options, &clientCfg); err != nil {
		return nil, fmt.Errorf("failed to decode S3 store config: %w", err)
	}
	if err := validateBackend("S3", &clientCfg); err != nil {
		return nil, err
	}

	client, err := kvS3.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	store, err := kvS3.NewS3Store(ctx, kvS3.S3StoreConfig{
		Client:          client,
		Bucket:          clientCfg.Bucket,
		KeyPrefix:       clientCfg.KeyPrefix,
		SkipBucketCheck: clientCfg.SkipBucketCheck,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 store: %w", err)
	}

	logger.Info("S3 store initialized: bucket=%s, region=%s, prefix=%s",
		clientCfg.Bucket, clientCfg.Region, clientCfg.KeyPrefix)
	return store, nil
}

// createConsulStore creates a Consul-backed store.
//
// The Consul client connects lazily, so this does not contact the agent.
func createConsulStore(options map[string]any) (kv.Store, error) {
	var storeCfg kvConsul.ConsulStoreConfig
	if err := decodeOptions(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode consul store config: %w", err)
	}

	store, err := kvConsul.NewConsulStore(storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul store: %w", err)
	}

	logger.Info("Consul store configured: address=%s", storeCfg.Address)
	return store, nil
}
