package filemeta

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/marmos91/dittometa/pkg/kv"
	"github.com/marmos91/dittometa/pkg/kv/memory"
	"github.com/marmos91/dittometa/pkg/metrics"
)

// recordingStore wraps a kv.Store, counting calls and optionally injecting
// latency or failures.
type recordingStore struct {
	kv.Store

	mu       sync.Mutex
	calls    map[string]int
	setDelay time.Duration
	setErr   error
	getErr   error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{
		Store: memory.NewMemoryStore(),
		calls: make(map[string]int),
	}
}

func (r *recordingStore) record(op string) {
	r.mu.Lock()
	r.calls[op]++
	r.mu.Unlock()
}

func (r *recordingStore) count(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[op]
}

func (r *recordingStore) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		n += c
	}
	return n
}

func (r *recordingStore) failSets(err error) {
	r.mu.Lock()
	r.setErr = err
	r.mu.Unlock()
}

func (r *recordingStore) Get(ctx context.Context, key string) ([]byte, error) {
	r.record("get")
	r.mu.Lock()
	err := r.getErr
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return r.Store.Get(ctx, key)
}

func (r *recordingStore) Set(ctx context.Context, key string, value []byte) error {
	r.record("set")
	r.mu.Lock()
	delay, err := r.setDelay, r.setErr
	r.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return err
	}
	return r.Store.Set(ctx, key, value)
}

func (r *recordingStore) Delete(ctx context.Context, key string) error {
	r.record("delete")
	return r.Store.Delete(ctx, key)
}

func (r *recordingStore) List(ctx context.Context, prefix string) ([]string, error) {
	r.record("list")
	return r.Store.List(ctx, prefix)
}

func jsonUnmarshal(s string, v any) error {
	return json.Unmarshal([]byte(s), v)
}

// gaugeRecorder keeps the last tracked-entries value it was given.
type gaugeRecorder struct {
	metrics.StoreMetrics

	mu      sync.Mutex
	tracked int
}

func newGaugeRecorder() *gaugeRecorder {
	return &gaugeRecorder{StoreMetrics: metrics.NewNoopStoreMetrics()}
}

func (g *gaugeRecorder) SetTrackedEntries(count int) {
	g.mu.Lock()
	g.tracked = count
	g.mu.Unlock()
}

func (g *gaugeRecorder) value() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tracked
}
