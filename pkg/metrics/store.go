package metrics

import "time"

// StoreMetrics provides observability for the metadata and alias stores.
//
// A StoreMetrics instance is bound to one component ("filemeta", "aliases"),
// which becomes a label on every series it records.
//
// Example usage:
//
//	// With metrics enabled
//	m := prometheus.NewStoreMetrics("filemeta")
//	store := filemeta.New(kvStore, filemeta.WithMetrics(m))
//
//	// Without metrics
//	store := filemeta.New(kvStore)
type StoreMetrics interface {
	// RecordOperation records a completed store operation.
	//
	// Parameters:
	//   - operation: Operation name (e.g., "SetMetadataField", "AddAlias")
	//   - duration: Time from enqueue to completion, including queue wait
	//   - err: Error if the operation failed, nil if successful
	RecordOperation(operation string, duration time.Duration, err error)

	// RecordStorageOperation records a single call to the durable kv layer.
	//
	// Parameters:
	//   - operation: kv call ("get", "set", "delete", "list")
	//   - duration: Time taken
	//   - err: Error if failed; a missing key on get is not an error
	RecordStorageOperation(operation string, duration time.Duration, err error)

	// SetTrackedEntries updates the number of entries held in memory
	// (items for filemeta, aliases for the alias store).
	SetTrackedEntries(count int)
}

// NewNoopStoreMetrics returns a StoreMetrics that discards everything.
func NewNoopStoreMetrics() StoreMetrics {
	return noopStoreMetrics{}
}

type noopStoreMetrics struct{}

func (noopStoreMetrics) RecordOperation(string, time.Duration, error)        {}
func (noopStoreMetrics) RecordStorageOperation(string, time.Duration, error) {}
func (noopStoreMetrics) SetTrackedEntries(int)                               {}
