// Package filemeta keeps typed key/value annotations per item identifier.
//
// State lives in memory and is persisted to a kv.Store, one JSON record per
// item under "fileMetadata:<id>". Every operation on an identifier goes
// through a per-identifier Queue, so a slow read-then-write cannot clobber a
// concurrent write to the same item.
//
// Writes are pessimistic: the durable record is written first and memory is
// updated only once the kv store has acknowledged it. A failed write leaves
// memory untouched and returns the error.
package filemeta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marmos91/dittometa/internal/logger"
	"github.com/marmos91/dittometa/pkg/kv"
	"github.com/marmos91/dittometa/pkg/metrics"
)

// Change describes a published mutation.
//
// Metadata is nil when the item was removed. ID is empty after Reset.
type Change struct {
	ID       string
	Metadata FileMetadata
}

// Store holds per-item metadata and keeps it in sync with durable storage.
//
// Thread Safety:
// All methods are safe for concurrent use. Mutations on the same identifier
// run one at a time in call order; mutations on different identifiers may
// run in parallel.
type Store struct {
	kv      kv.Store
	prefix  string
	metrics metrics.StoreMetrics
	queue   *Queue

	mu    sync.RWMutex
	items map[string]FileMetadata
	// unreadable holds fields that failed to decode, as stored, so that
	// rewriting a record does not drop them.
	unreadable map[string]map[string]json.RawMessage

	subMu       sync.Mutex
	subscribers map[uint64]func(Change)
	nextSubID   uint64
}

// Option configures a Store.
type Option func(*Store)

// WithKeyPrefix overrides the record key prefix (default "fileMetadata:").
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithMetrics attaches a metrics collector.
func WithMetrics(m metrics.StoreMetrics) Option {
	return func(s *Store) {
		if m != nil {
			s.metrics = m
		}
	}
}

// New creates an empty Store persisting through store.
func New(store kv.Store, opts ...Option) *Store {
	s := &Store{
		kv:          store,
		prefix:      DefaultKeyPrefix,
		metrics:     metrics.NewNoopStoreMetrics(),
		queue:       NewQueue(),
		items:       make(map[string]FileMetadata),
		unreadable:  make(map[string]map[string]json.RawMessage),
		subscribers: make(map[uint64]func(Change)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordKey returns the kv key holding id's metadata.
func (s *Store) RecordKey(id string) string {
	return s.prefix + id
}

// ============================================================================
// Reads
// ============================================================================

// FetchMetadata loads id's persisted metadata into memory and returns it.
//
// Returns nil when no record exists or when loading fails. Failures are
// logged, never returned; use Load to see them. When no record exists the
// in-memory state for id is left as it was.
func (s *Store) FetchMetadata(ctx context.Context, id string) FileMetadata {
	meta, err := s.loadItem(ctx, "FetchMetadata", id)
	if err != nil {
		return nil
	}
	return meta
}

// Load is FetchMetadata that reports failures.
//
// Callers that merge a change into the persisted record must use Load, so a
// storage error or an unparseable record is not mistaken for an empty item.
//
// Returns:
//   - FileMetadata: The readable fields, or nil when no record exists
//   - error: Storage error, or a record that is not a JSON object
func (s *Store) Load(ctx context.Context, id string) (FileMetadata, error) {
	return s.loadItem(ctx, "Load", id)
}

// HasField reports whether id has key in memory, including fields kept
// verbatim because they could not be decoded.
func (s *Store) HasField(id, key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.items[id][key]; ok {
		return true
	}
	_, ok := s.unreadable[id][key]
	return ok
}

// Metadata returns a copy of the in-memory metadata for id, or nil.
func (s *Store) Metadata(id string) FileMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items[id].Clone()
}

// Snapshot returns a copy of all in-memory metadata.
func (s *Store) Snapshot() map[string]FileMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]FileMetadata, len(s.items))
	for id, meta := range s.items {
		out[id] = meta.Clone()
	}
	return out
}

// Len returns the number of items held in memory.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// LoadAll hydrates memory from every record under the key prefix.
//
// Records are read concurrently, each in its item's queue slot. Records that
// are not JSON objects are logged and skipped.
//
// Returns:
//   - int: Number of items loaded
//   - error: Error if the records cannot be listed, or the first read error
func (s *Store) LoadAll(ctx context.Context) (int, error) {
	start := time.Now()
	keys, err := s.kv.List(ctx, s.prefix)
	s.metrics.RecordStorageOperation("list", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to list metadata records: %w", err)
	}

	var loaded atomic.Int64
	results := make([]<-chan error, 0, len(keys))
	for _, key := range keys {
		id := strings.TrimPrefix(key, s.prefix)
		if id == "" {
			continue
		}

		results = append(results, s.queue.Go(id, func() error {
			meta, err := s.fetch(ctx, id)
			if meta != nil {
				loaded.Add(1)
			}
			return err
		}))
	}

	var firstErr error
	for _, result := range results {
		err := <-result
		switch {
		case err == nil:
		case errors.Is(err, errCorruptRecord):
			logger.Warn("Skipping %v", err)
		case firstErr == nil:
			firstErr = err
		}
	}

	count := int(loaded.Load())
	if firstErr != nil {
		return count, firstErr
	}
	logger.Debug("Loaded metadata for %d items", count)
	return count, nil
}

// ============================================================================
// Mutations
// ============================================================================

// SetMetadataField stores entry under key for id, replacing any existing
// value, persists the full updated metadata and then publishes it.
//
// An invalid key returns ErrInvalidKey without touching state or storage.
func (s *Store) SetMetadataField(ctx context.Context, id, key string, entry Entry) error {
	if err := validateField(id, key, entry); err != nil {
		return err
	}

	return s.run("SetMetadataField", id, func() error {
		return s.putField(ctx, id, key, entry)
	})
}

// AddMetadataField is SetMetadataField for keys that must not exist yet.
//
// Returns ErrDuplicateKey if id already has key.
func (s *Store) AddMetadataField(ctx context.Context, id, key string, entry Entry) error {
	if err := validateField(id, key, entry); err != nil {
		return err
	}

	return s.run("AddMetadataField", id, func() error {
		if s.HasField(id, key) {
			return fmt.Errorf("%w: %q on %s", ErrDuplicateKey, key, id)
		}
		return s.putField(ctx, id, key, entry)
	})
}

// SetMetadata replaces all metadata for id, including fields that could not
// be decoded.
//
// Every key and entry is validated first. An empty map removes the item,
// like RemoveMetadata.
func (s *Store) SetMetadata(ctx context.Context, id string, meta FileMetadata) error {
	if id == "" {
		return ErrInvalidID
	}
	if err := meta.Validate(); err != nil {
		return err
	}

	updated := meta.Clone()
	return s.run("SetMetadata", id, func() error {
		if len(updated) == 0 {
			return s.remove(ctx, id)
		}
		if err := s.persist(ctx, id, updated, nil); err != nil {
			return err
		}
		s.publish(id, updated, nil)
		return nil
	})
}

// RemoveMetadataField removes key from id's metadata.
//
// A missing key is a no-op. Removing the last key deletes the durable
// record and the in-memory entry.
func (s *Store) RemoveMetadataField(ctx context.Context, id, key string) error {
	return s.run("RemoveMetadataField", id, func() error {
		if !s.HasField(id, key) {
			return nil
		}

		current := s.Metadata(id)
		unreadable := s.unreadableFields(id)
		delete(current, key)
		delete(unreadable, key)
		if len(current) == 0 && len(unreadable) == 0 {
			return s.remove(ctx, id)
		}

		if err := s.persist(ctx, id, current, unreadable); err != nil {
			return err
		}
		s.publish(id, current, unreadable)
		return nil
	})
}

// RemoveMetadata deletes the durable record and the in-memory entry for id.
func (s *Store) RemoveMetadata(ctx context.Context, id string) error {
	return s.run("RemoveMetadata", id, func() error {
		return s.remove(ctx, id)
	})
}

// Reset clears all in-memory state. Durable storage is not touched.
//
// Operations already queued still run and publish their results.
func (s *Store) Reset() {
	start := time.Now()

	s.mu.Lock()
	s.items = make(map[string]FileMetadata)
	s.unreadable = make(map[string]map[string]json.RawMessage)
	s.metrics.SetTrackedEntries(0)
	s.mu.Unlock()

	s.metrics.RecordOperation("Reset", time.Since(start), nil)
	s.notify(Change{})
}

// ============================================================================
// Subscriptions
// ============================================================================

// Subscribe registers fn to receive every published change.
//
// fn runs synchronously on the goroutine that made the change, while that
// item's queue slot is held, so changes for one item arrive in order. fn
// must not call back into the Store for the same item.
//
// Returns a function that removes the subscription.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subscribers, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) notify(change Change) {
	s.subMu.Lock()
	listeners := make([]func(Change), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		listeners = append(listeners, fn)
	}
	s.subMu.Unlock()

	for _, fn := range listeners {
		fn(Change{ID: change.ID, Metadata: change.Metadata.Clone()})
	}
}

// ============================================================================
// Internals
// ============================================================================

func validateField(id, key string, entry Entry) error {
	if id == "" {
		return ErrInvalidID
	}
	if err := ValidateKey(key); err != nil {
		return err
	}
	return entry.Validate()
}

// run executes op in id's queue slot and records the outcome.
func (s *Store) run(operation, id string, op func() error) error {
	start := time.Now()
	err := s.queue.Do(id, op)
	s.metrics.RecordOperation(operation, time.Since(start), err)

	switch {
	case err == nil:
	case errors.Is(err, ErrDuplicateKey):
		logger.Debug("%s %s: %v", operation, id, err)
	default:
		logger.Error("%s %s failed: %v", operation, id, err)
	}
	return err
}

// loadItem runs fetch in id's queue slot.
func (s *Store) loadItem(ctx context.Context, operation, id string) (FileMetadata, error) {
	if id == "" {
		return nil, ErrInvalidID
	}

	var result FileMetadata
	err := s.run(operation, id, func() error {
		meta, err := s.fetch(ctx, id)
		result = meta
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// fetch reads id's record and publishes it. Caller holds id's queue slot.
func (s *Store) fetch(ctx context.Context, id string) (FileMetadata, error) {
	meta, unreadable, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if meta == nil && unreadable == nil {
		return nil, nil
	}
	s.publish(id, meta, unreadable)
	return meta, nil
}

// putField merges entry into id's current metadata. Caller holds id's queue slot.
func (s *Store) putField(ctx context.Context, id, key string, entry Entry) error {
	updated := s.Metadata(id)
	if updated == nil {
		updated = make(FileMetadata, 1)
	}
	updated[key] = entry

	unreadable := s.unreadableFields(id)
	delete(unreadable, key)

	if err := s.persist(ctx, id, updated, unreadable); err != nil {
		return err
	}
	s.publish(id, updated, unreadable)
	return nil
}

// remove deletes id from storage and memory. Caller holds id's queue slot.
func (s *Store) remove(ctx context.Context, id string) error {
	start := time.Now()
	err := s.kv.Delete(ctx, s.RecordKey(id))
	s.metrics.RecordStorageOperation("delete", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to delete metadata for %s: %w", id, err)
	}

	s.mu.Lock()
	delete(s.items, id)
	delete(s.unreadable, id)
	s.metrics.SetTrackedEntries(len(s.items))
	s.mu.Unlock()

	s.notify(Change{ID: id})
	return nil
}

// load reads id's record. Returns nil, nil, nil when absent.
//
// A field whose key or entry does not validate is returned in unreadable as
// raw JSON rather than failing the record, so it survives later rewrites.
func (s *Store) load(ctx context.Context, id string) (meta FileMetadata, unreadable map[string]json.RawMessage, err error) {
	start := time.Now()
	data, err := s.kv.Get(ctx, s.RecordKey(id))
	if kv.IsNotFound(err) {
		s.metrics.RecordStorageOperation("get", time.Since(start), nil)
		return nil, nil, nil
	}
	s.metrics.RecordStorageOperation("get", time.Since(start), err)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load metadata for %s: %w", id, err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, nil, fmt.Errorf("%w %s: %w", errCorruptRecord, s.RecordKey(id), err)
	}

	for key, raw := range fields {
		entry, err := decodeField(key, raw)
		if err != nil {
			logger.Warn("Keeping unreadable metadata field %q on %s as stored: %v", key, id, err)
			if unreadable == nil {
				unreadable = make(map[string]json.RawMessage)
			}
			unreadable[key] = raw
			continue
		}
		if meta == nil {
			meta = make(FileMetadata, len(fields))
		}
		meta[key] = entry
	}
	return meta, unreadable, nil
}

func decodeField(key string, raw json.RawMessage) (Entry, error) {
	if err := ValidateKey(key); err != nil {
		return Entry{}, err
	}
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Entry{}, err
	}
	if err := entry.Validate(); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// persist writes meta, plus the undecodable fields carried over verbatim,
// as id's record.
func (s *Store) persist(ctx context.Context, id string, meta FileMetadata, unreadable map[string]json.RawMessage) error {
	record := make(map[string]any, len(meta)+len(unreadable))
	for key, raw := range unreadable {
		record[key] = raw
	}
	for key, entry := range meta {
		record[key] = entry
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode metadata for %s: %w", id, err)
	}

	start := time.Now()
	err = s.kv.Set(ctx, s.RecordKey(id), data)
	s.metrics.RecordStorageOperation("set", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to persist metadata for %s: %w", id, err)
	}
	return nil
}

// publish stores private copies of id's state. An item with no readable
// fields is not listed in memory.
func (s *Store) publish(id string, meta FileMetadata, unreadable map[string]json.RawMessage) {
	var stored FileMetadata
	if len(meta) > 0 {
		stored = meta.Clone()
	}

	s.mu.Lock()
	if stored == nil {
		delete(s.items, id)
	} else {
		s.items[id] = stored
	}
	if len(unreadable) == 0 {
		delete(s.unreadable, id)
	} else {
		s.unreadable[id] = maps.Clone(unreadable)
	}
	s.metrics.SetTrackedEntries(len(s.items))
	s.mu.Unlock()

	s.notify(Change{ID: id, Metadata: stored})
}

// unreadableFields returns a copy of id's undecodable fields, or nil.
func (s *Store) unreadableFields(id string) map[string]json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.unreadable[id])
}
