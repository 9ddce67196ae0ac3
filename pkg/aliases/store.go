// Package aliases groups item identifiers under user-named aliases (tags).
//
// Each alias is persisted as one JSON record under "driveAliases:<name>".
// Mutations of an alias are serialized through a per-name queue and are
// validated against the in-memory state before anything is written:
//
//   - adding an alias that already exists is rejected
//   - removing an unknown alias is rejected
//   - adding an item already on the alias is a no-op
//   - removing an item not on the alias is a no-op
package aliases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/marmos91/dittometa/internal/logger"
	"github.com/marmos91/dittometa/pkg/filemeta"
	"github.com/marmos91/dittometa/pkg/kv"
	"github.com/marmos91/dittometa/pkg/metrics"
)

// DefaultKeyPrefix namespaces alias records in the kv store.
const DefaultKeyPrefix = "driveAliases:"

var (
	// ErrInvalidAlias is returned for an empty alias name or one that breaks
	// the metadata key rules.
	ErrInvalidAlias = errors.New("invalid alias name")

	// ErrAliasExists is returned by AddAlias when the alias already exists.
	ErrAliasExists = errors.New("alias already exists")

	// ErrAliasNotFound is returned when an operation names an unknown alias.
	ErrAliasNotFound = errors.New("alias not found")

	// ErrInvalidItem is returned when an item identifier is empty.
	ErrInvalidItem = errors.New("invalid item identifier")
)

// record is the persisted form of one alias.
type record struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

// Store keeps aliases in memory and in durable storage.
type Store struct {
	kv      kv.Store
	prefix  string
	metrics metrics.StoreMetrics
	queue   *filemeta.Queue

	mu      sync.RWMutex
	aliases map[string][]string
}

// Option configures a Store.
type Option func(*Store)

// WithKeyPrefix overrides the record key prefix (default "driveAliases:").
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

// New creates an empty alias store persisting through store.
func New(store kv.Store, opts ...Option) *Store {
	s := &Store{
		kv:      store,
		prefix:  DefaultKeyPrefix,
		metrics: metrics.NewNoopStoreMetrics(),
		queue:   filemeta.NewQueue(),
		aliases: make(map[string][]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) recordKey(name string) string {
	return s.prefix + name
}

// ============================================================================
// Reads
// ============================================================================

// Load replaces the in-memory aliases with every record under the prefix.
//
// Corrupt records are logged and skipped. Returns the number of aliases loaded.
func (s *Store) Load(ctx context.Context) (int, error) {
	start := time.Now()
	keys, err := s.kv.List(ctx, s.prefix)
	s.metrics.RecordStorageOperation("list", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to list alias records: %w", err)
	}

	loaded := make(map[string][]string, len(keys))
	for _, key := range keys {
		name := strings.TrimPrefix(key, s.prefix)

		start := time.Now()
		data, err := s.kv.Get(ctx, key)
		if kv.IsNotFound(err) {
			// Deleted between List and Get.
			continue
		}
		s.metrics.RecordStorageOperation("get", time.Since(start), err)
		if err != nil {
			return 0, fmt.Errorf("failed to load alias %q: %w", name, err)
		}

		var rec record
		if err := json.Unmarshal(data, &rec); err != nil {
			logger.Warn("Skipping corrupt alias record %s: %v", key, err)
			continue
		}
		loaded[name] = uniqueItems(rec.Items)
	}

	s.mu.Lock()
	s.aliases = loaded
	s.mu.Unlock()
	s.metrics.SetTrackedEntries(len(loaded))

	logger.Debug("Loaded %d aliases", len(loaded))
	return len(loaded), nil
}

// Aliases returns a copy of every alias and its items.
func (s *Store) Aliases() map[string][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]string, len(s.aliases))
	for name, items := range s.aliases {
		out[name] = slices.Clone(items)
	}
	return out
}

// Names returns the alias names in sorted order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.aliases))
	for name := range s.aliases {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Items returns the items on alias, or nil if the alias does not exist.
func (s *Store) Items(alias string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.aliases[alias])
}

// ItemAliases returns the sorted names of every alias holding id.
func (s *Store) ItemAliases(id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var names []string
	for name, items := range s.aliases {
		if slices.Contains(items, id) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// Search returns the sorted alias names containing query, ignoring case.
// An empty query matches every alias.
func (s *Store) Search(query string) []string {
	needle := strings.ToLower(strings.TrimSpace(query))

	var matches []string
	for _, name := range s.Names() {
		if strings.Contains(strings.ToLower(name), needle) {
			matches = append(matches, name)
		}
	}
	return matches
}

// ============================================================================
// Mutations
// ============================================================================

// AddAlias creates an empty alias. The name is trimmed first.
//
// Returns ErrInvalidAlias for an empty or malformed name and ErrAliasExists
// if the alias is already known.
func (s *Store) AddAlias(ctx context.Context, name string) error {
	trimmed := strings.TrimSpace(name)
	if err := validateName(trimmed); err != nil {
		return err
	}

	return s.run("AddAlias", trimmed, func() error {
		if s.exists(trimmed) {
			return fmt.Errorf("%w: %q", ErrAliasExists, trimmed)
		}
		return s.save(ctx, trimmed, []string{})
	})
}

// RemoveAlias deletes an alias and its record.
//
// Returns ErrAliasNotFound if the alias is unknown.
func (s *Store) RemoveAlias(ctx context.Context, name string) error {
	return s.run("RemoveAlias", name, func() error {
		if !s.exists(name) {
			return fmt.Errorf("%w: %q", ErrAliasNotFound, name)
		}

		start := time.Now()
		err := s.kv.Delete(ctx, s.recordKey(name))
		s.metrics.RecordStorageOperation("delete", time.Since(start), err)
		if err != nil {
			return fmt.Errorf("failed to delete alias %q: %w", name, err)
		}

		s.mu.Lock()
		delete(s.aliases, name)
		count := len(s.aliases)
		s.mu.Unlock()
		s.metrics.SetTrackedEntries(count)
		return nil
	})
}

// AddItem adds id to alias. The alias name is trimmed first.
//
// Adding an item that is already present is a no-op. Returns
// ErrAliasNotFound if the alias is unknown.
func (s *Store) AddItem(ctx context.Context, alias, id string) error {
	trimmed := strings.TrimSpace(alias)
	if trimmed == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidAlias)
	}
	if id == "" {
		return ErrInvalidItem
	}

	return s.run("AddItem", trimmed, func() error {
		items, ok := s.items(trimmed)
		if !ok {
			return fmt.Errorf("%w: %q", ErrAliasNotFound, trimmed)
		}
		if slices.Contains(items, id) {
			return nil
		}
		return s.save(ctx, trimmed, append(items, id))
	})
}

// RemoveItem removes id from alias. It is a no-op unless the alias exists
// and holds id.
func (s *Store) RemoveItem(ctx context.Context, alias, id string) error {
	return s.run("RemoveItem", alias, func() error {
		items, ok := s.items(alias)
		if !ok || !slices.Contains(items, id) {
			return nil
		}
		return s.save(ctx, alias, slices.DeleteFunc(items, func(item string) bool {
			return item == id
		}))
	})
}

// Reset clears all in-memory aliases without touching durable storage.
func (s *Store) Reset() {
	s.mu.Lock()
	s.aliases = make(map[string][]string)
	s.mu.Unlock()
	s.metrics.SetTrackedEntries(0)
}

// ============================================================================
// Internals
// ============================================================================

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidAlias)
	}
	if err := filemeta.ValidateKey(name); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAlias, err)
	}
	return nil
}

func (s *Store) run(operation, name string, op func() error) error {
	start := time.Now()
	err := s.queue.Do(name, op)
	s.metrics.RecordOperation(operation, time.Since(start), err)

	switch {
	case err == nil:
	case errors.Is(err, ErrAliasExists), errors.Is(err, ErrAliasNotFound):
		logger.Debug("%s %q: %v", operation, name, err)
	default:
		logger.Error("%s %q failed: %v", operation, name, err)
	}
	return err
}

func (s *Store) exists(name string) bool {
	_, ok := s.items(name)
	return ok
}

// items returns a copy of the alias' items and whether the alias exists.
func (s *Store) items(name string) ([]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items, ok := s.aliases[name]
	return slices.Clone(items), ok
}

// save persists items for name and then publishes them. Caller holds the queue slot.
func (s *Store) save(ctx context.Context, name string, items []string) error {
	if items == nil {
		items = []string{}
	}

	data, err := json.Marshal(record{Name: name, Items: items})
	if err != nil {
		return fmt.Errorf("failed to encode alias %q: %w", name, err)
	}

	start := time.Now()
	err = s.kv.Set(ctx, s.recordKey(name), data)
	s.metrics.RecordStorageOperation("set", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to persist alias %q: %w", name, err)
	}

	s.mu.Lock()
	s.aliases[name] = items
	count := len(s.aliases)
	s.mu.Unlock()
	s.metrics.SetTrackedEntries(count)
	return nil
}

// uniqueItems drops empty and repeated ids, keeping first occurrences.
func uniqueItems(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item != "" && !slices.Contains(out, item) {
			out = append(out, item)
		}
	}
	return out
}
