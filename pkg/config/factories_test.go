package config

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marmos91/dittometa/pkg/filemeta"
	kvBadger "github.com/marmos91/dittometa/pkg/kv/badger"
	"github.com/marmos91/dittometa/pkg/kv/memory"
	kvS3 "github.com/marmos91/dittometa/pkg/kv/s3"
	kvSQLite "github.com/marmos91/dittometa/pkg/kv/sqlite"
)

func TestCreateKVStore_Memory(t *testing.T) {
	ctx := context.Background()
	cfg := &StorageConfig{Type: "memory"}

	store, err := CreateKVStore(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to create memory store: %v", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.Set(ctx, "fileMetadata:u1", []byte("{}")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
}

func TestCreateKVStore_Badger(t *testing.T) {
	ctx := context.Background()
	cfg := &StorageConfig{
		Type: "badger",
		Badger: map[string]any{
			"db_path":             filepath.Join(t.TempDir(), "badger"),
			"block_cache_size_mb": 8,
			"index_cache_size_mb": "8",
		},
	}

	store, err := CreateKVStore(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to create badger store: %v", err)
	}
	defer func() { _ = store.Close() }()

	if _, ok := store.(*kvBadger.BadgerStore); !ok {
		t.Errorf("Expected *BadgerStore, got %T", store)
	}
}

func TestCreateKVStore_BadgerMissingPath(t *testing.T) {
	cfg := &StorageConfig{Type: "badger", Badger: map[string]any{}}

	_, err := CreateKVStore(context.Background(), cfg)
	if err == nil {
		t.Fatal("Expected error for missing db_path")
	}
	if !strings.Contains(err.Error(), "required") {
		t.Errorf("Expected 'required' error, got: %v", err)
	}
}

func TestCreateKVStore_SQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "meta.db")
	cfg := &StorageConfig{
		Type: "sqlite",
		SQLite: map[string]any{
			"path":         path,
			"busy_timeout": "2s",
		},
	}

	store, err := CreateKVStore(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to create sqlite store: %v", err)
	}
	defer func() { _ = store.Close() }()

	sqliteStore, ok := store.(*kvSQLite.SQLiteStore)
	if !ok {
		t.Fatalf("Expected *SQLiteStore, got %T", store)
	}
	if sqliteStore.Path() != path {
		t.Errorf("Expected path %q, got %q", path, sqliteStore.Path())
	}
}

func TestCreateKVStore_SQLiteBadDuration(t *testing.T) {
	cfg := &StorageConfig{
		Type: "sqlite",
		SQLite: map[string]any{
			"path":         filepath.Join(t.TempDir(), "meta.db"),
			"busy_timeout": "soon",
		},
	}

	_, err := CreateKVStore(context.Background(), cfg)
	if err == nil {
		t.Fatal("Expected error for unparseable busy_timeout")
	}
	if !strings.Contains(err.Error(), "failed to decode sqlite store config") {
		t.Errorf("Expected decode error, got: %v", err)
	}
}

func TestCreateKVStore_S3MissingBucket(t *testing.T) {
	cfg := &StorageConfig{
		Type: "s3",
		S3:   map[string]any{"region": "us-east-1"},
	}

	_, err := CreateKVStore(context.Background(), cfg)
	if err == nil {
		t.Fatal("Expected error for missing bucket")
	}
	if !strings.Contains(err.Error(), "Bucket") {
		t.Errorf("Expected bucket validation error, got: %v", err)
	}
}

func TestCreateKVStore_S3SkipBucketCheck(t *testing.T) {
	cfg := &StorageConfig{
		Type: "s3",
		S3: map[string]any{
			"region":            "us-east-1",
			"bucket":            "dittometa",
			"endpoint":          "http://127.0.0.1:1",
			"access_key_id":     "test",
			"secret_access_key": "test",
			"skip_bucket_check": true,
		},
	}

	// Nothing listens on the endpoint, so this only succeeds without HeadBucket.
	store, err := CreateKVStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to create S3 store without bucket check: %v", err)
	}
	if _, ok := store.(*kvS3.S3Store); !ok {
		t.Errorf("Expected *S3Store, got %T", store)
	}
	_ = store.Close()
}

func TestCreateKVStore_Consul(t *testing.T) {
	cfg := &StorageConfig{
		Type:   "consul",
		Consul: map[string]any{"address": "127.0.0.1:8500", "prefix": "test"},
	}

	store, err := CreateKVStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to create consul store: %v", err)
	}
	_ = store.Close()
}

func TestCreateKVStore_RateLimited(t *testing.T) {
	cfg := &StorageConfig{
		Type:      "memory",
		RateLimit: RateLimitConfig{RequestsPerSecond: 100, Burst: 10},
	}

	store, err := CreateKVStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to create rate-limited store: %v", err)
	}
	defer func() { _ = store.Close() }()

	if _, ok := store.(*memory.MemoryStore); ok {
		t.Error("Expected memory store to be wrapped by the rate limiter")
	}
}

func TestCreateKVStore_UnknownType(t *testing.T) {
	cfg := &StorageConfig{Type: "etcd"}

	_, err := CreateKVStore(context.Background(), cfg)
	if err == nil {
		t.Fatal("Expected error for unknown storage type")
	}
	if !strings.Contains(err.Error(), "unknown storage type") {
		t.Errorf("Expected 'unknown storage type' error, got: %v", err)
	}
}

func TestOpenStores(t *testing.T) {
	ctx := context.Background()
	cfg := GetDefaultConfig()
	cfg.Storage.Type = "sqlite"
	cfg.Storage.SQLite["path"] = filepath.Join(t.TempDir(), "meta.db")
	cfg.Metadata.LoadOnStart = true

	stores, err := OpenStores(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("OpenStores failed: %v", err)
	}

	if err := stores.Aliases.AddAlias(ctx, "Work"); err != nil {
		t.Fatalf("AddAlias failed: %v", err)
	}
	if err := stores.Aliases.AddItem(ctx, "Work", "u1"); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if err := stores.Metadata.SetMetadataField(ctx, "u1", "owner", filemeta.StringEntry("alice")); err != nil {
		t.Fatalf("SetMetadataField failed: %v", err)
	}
	if err := stores.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := OpenStores(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	if got := reopened.Aliases.Items("Work"); len(got) != 1 || got[0] != "u1" {
		t.Errorf("Expected alias Work to hold u1 after reopen, got %v", got)
	}
	if reopened.Metadata.Len() != 1 {
		t.Errorf("Expected 1 item loaded on start, got %d", reopened.Metadata.Len())
	}
	if got := reopened.Metadata.Metadata("u1")["owner"].String(); got != "alice" {
		t.Errorf("Expected owner 'alice', got %q", got)
	}
}
