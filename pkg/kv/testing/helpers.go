package testing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/marmos91/dittometa/pkg/kv"
	"github.com/stretchr/testify/require"
)

// generateTestKey returns a unique record key for a test.
func generateTestKey(name string) string {
	return "test:" + name + ":" + newID()
}

func newID() string {
	return uuid.NewString()
}

func mustGet(t *testing.T, store kv.Store, key string) []byte {
	t.Helper()
	value, err := store.Get(testContext(), key)
	require.NoError(t, err, "Get(%q)", key)
	return value
}
