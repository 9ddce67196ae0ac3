package testing

import (
	"context"
	"testing"

	"github.com/marmos91/dittometa/pkg/kv"
)

// StoreTestSuite is a test suite for kv.Store implementations.
// It tests the interface contract, not implementation details, so the same
// suite runs against every backend (memory, badger, sqlite, s3, consul).
//
// Usage:
//
//	func TestMyStore(t *testing.T) {
//	    suite := &kvtesting.StoreTestSuite{
//	        NewStore: func(t *testing.T) kv.Store {
//	            return mystore.New(t.TempDir())
//	        },
//	    }
//	    suite.Run(t)
//	}
type StoreTestSuite struct {
	// NewStore creates a fresh, empty Store for each test. The suite closes it.
	NewStore func(t *testing.T) kv.Store
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("BasicOperations", suite.RunBasicTests)
	t.Run("ListOperations", suite.RunListTests)
	t.Run("Concurrency", suite.RunConcurrencyTests)
}

func (suite *StoreTestSuite) newStore(t *testing.T) kv.Store {
	t.Helper()
	store := suite.NewStore(t)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// testContext returns a standard test context.
func testContext() context.Context {
	return context.Background()
}
