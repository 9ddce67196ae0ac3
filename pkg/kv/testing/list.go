package testing

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunListTests executes prefix listing tests.
func (suite *StoreTestSuite) RunListTests(t *testing.T) {
	t.Run("List_Empty", suite.testListEmpty)
	t.Run("List_PrefixFilter", suite.testListPrefixFilter)
	t.Run("List_Sorted", suite.testListSorted)
	t.Run("List_AfterDelete", suite.testListAfterDelete)
}

// RunConcurrencyTests executes tests that hit the store from several goroutines.
func (suite *StoreTestSuite) RunConcurrencyTests(t *testing.T) {
	t.Run("ConcurrentSetDistinctKeys", suite.testConcurrentSetDistinctKeys)
}

func (suite *StoreTestSuite) testListEmpty(t *testing.T) {
	store := suite.newStore(t)

	keys, err := store.List(testContext(), "fileMetadata:")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func (suite *StoreTestSuite) testListPrefixFilter(t *testing.T) {
	store := suite.newStore(t)

	require.NoError(t, store.Set(testContext(), "fileMetadata:a", []byte("1")))
	require.NoError(t, store.Set(testContext(), "fileMetadata:b", []byte("2")))
	require.NoError(t, store.Set(testContext(), "driveAliases:work", []byte("3")))
	require.NoError(t, store.Set(testContext(), "fileMetadataX", []byte("4")))

	keys, err := store.List(testContext(), "fileMetadata:")
	require.NoError(t, err)
	assert.Equal(t, []string{"fileMetadata:a", "fileMetadata:b"}, keys)

	keys, err = store.List(testContext(), "driveAliases:")
	require.NoError(t, err)
	assert.Equal(t, []string{"driveAliases:work"}, keys)
}

func (suite *StoreTestSuite) testListSorted(t *testing.T) {
	store := suite.newStore(t)

	for _, id := range []string{"c", "a", "d", "b"} {
		require.NoError(t, store.Set(testContext(), "k:"+id, []byte(id)))
	}

	keys, err := store.List(testContext(), "k:")
	require.NoError(t, err)
	assert.Equal(t, []string{"k:a", "k:b", "k:c", "k:d"}, keys)
}

func (suite *StoreTestSuite) testListAfterDelete(t *testing.T) {
	store := suite.newStore(t)

	require.NoError(t, store.Set(testContext(), "k:1", []byte("1")))
	require.NoError(t, store.Set(testContext(), "k:2", []byte("2")))
	require.NoError(t, store.Delete(testContext(), "k:1"))

	keys, err := store.List(testContext(), "k:")
	require.NoError(t, err)
	assert.Equal(t, []string{"k:2"}, keys)
}

func (suite *StoreTestSuite) testConcurrentSetDistinctKeys(t *testing.T) {
	store := suite.newStore(t)
	const workers = 16

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("c:%02d", i)
			if err := store.Set(testContext(), key, []byte(key)); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	keys, err := store.List(testContext(), "c:")
	require.NoError(t, err)
	assert.Len(t, keys, workers)
}
