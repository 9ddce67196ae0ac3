package config

import (
	"context"
	"fmt"

	"github.com/marmos91/dittometa/internal/logger"
	"github.com/marmos91/dittometa/pkg/aliases"
	"github.com/marmos91/dittometa/pkg/filemeta"
	"github.com/marmos91/dittometa/pkg/kv"
)

// Stores bundles the durable backend with the stores built on top of it.
type Stores struct {
	// KV is the shared durable backend
	KV kv.Store

	// Metadata is the per-item metadata store
	Metadata *filemeta.Store

	// Aliases is the alias store, already loaded
	Aliases *aliases.Store
}

// OpenStores creates the backend and both stores from configuration.
//
// Aliases are always loaded. Item metadata is loaded only when
// metadata.load_on_start is set; otherwise items are fetched on demand.
//
// Parameters:
//   - ctx: Context for backend initialization and loading
//   - cfg: The complete configuration
//   - m: Metrics collectors (nil uses no-op collectors)
//
// Returns:
//   - *Stores: Ready stores; call Close when done
//   - error: Backend creation or loading error
func OpenStores(ctx context.Context, cfg *Config, m *MetricsResult) (*Stores, error) {
	if m == nil {
		m = InitializeMetrics(&Config{})
	}

	backend, err := CreateKVStore(ctx, &cfg.Storage)
	if err != nil {
		return nil, err
	}

	stores := &Stores{
		KV: backend,
		Metadata: filemeta.New(backend,
			filemeta.WithKeyPrefix(cfg.Metadata.KeyPrefix),
			filemeta.WithMetrics(m.Metadata),
		),
		Aliases: aliases.New(backend,
			aliases.WithKeyPrefix(cfg.Aliases.KeyPrefix),
			aliases.WithMetrics(m.Aliases),
		),
	}

	if _, err := stores.Aliases.Load(ctx); err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("failed to load aliases: %w", err)
	}

	if cfg.Metadata.LoadOnStart {
		n, err := stores.Metadata.LoadAll(ctx)
		if err != nil {
			_ = backend.Close()
			return nil, fmt.Errorf("failed to load item metadata: %w", err)
		}
		logger.Info("Loaded metadata for %d items", n)
	}

	return stores, nil
}

// Close releases the backend.
func (s *Stores) Close() error {
	return s.KV.Close()
}
