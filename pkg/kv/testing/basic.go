package testing

import (
	"bytes"
	"testing"

	"github.com/marmos91/dittometa/pkg/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunBasicTests executes Get/Set/Delete contract tests.
func (suite *StoreTestSuite) RunBasicTests(t *testing.T) {
	t.Run("Get_NotFound", suite.testGetNotFound)
	t.Run("Set_Get", suite.testSetGet)
	t.Run("Set_Overwrite", suite.testSetOverwrite)
	t.Run("Set_EmptyValue", suite.testSetEmptyValue)
	t.Run("Set_CopiesValue", suite.testSetCopiesValue)
	t.Run("Delete_Existing", suite.testDeleteExisting)
	t.Run("Delete_Absent", suite.testDeleteAbsent)
	t.Run("Keys_WithSeparators", suite.testKeysWithSeparators)
}

// ============================================================================
// Get / Set
// ============================================================================

func (suite *StoreTestSuite) testGetNotFound(t *testing.T) {
	store := suite.newStore(t)

	_, err := store.Get(testContext(), generateTestKey("missing"))

	AssertNotFound(t, err)
}

func (suite *StoreTestSuite) testSetGet(t *testing.T) {
	store := suite.newStore(t)
	key := generateTestKey("set-get")
	value := []byte(`{"a":{"type":"string","value":"x"}}`)

	require.NoError(t, store.Set(testContext(), key, value))

	got := mustGet(t, store, key)
	assert.Equal(t, value, got)
}

func (suite *StoreTestSuite) testSetOverwrite(t *testing.T) {
	store := suite.newStore(t)
	key := generateTestKey("overwrite")

	require.NoError(t, store.Set(testContext(), key, []byte("first")))
	require.NoError(t, store.Set(testContext(), key, []byte("second")))

	assert.Equal(t, []byte("second"), mustGet(t, store, key))
}

func (suite *StoreTestSuite) testSetEmptyValue(t *testing.T) {
	store := suite.newStore(t)
	key := generateTestKey("empty")

	require.NoError(t, store.Set(testContext(), key, []byte{}))

	got := mustGet(t, store, key)
	assert.Len(t, got, 0)
}

func (suite *StoreTestSuite) testSetCopiesValue(t *testing.T) {
	store := suite.newStore(t)
	key := generateTestKey("copy")
	value := []byte("original")

	require.NoError(t, store.Set(testContext(), key, value))
	copy(value, "mutated!")

	assert.Equal(t, []byte("original"), mustGet(t, store, key))
}

// ============================================================================
// Delete
// ============================================================================

func (suite *StoreTestSuite) testDeleteExisting(t *testing.T) {
	store := suite.newStore(t)
	key := generateTestKey("delete")

	require.NoError(t, store.Set(testContext(), key, []byte("value")))
	require.NoError(t, store.Delete(testContext(), key))

	_, err := store.Get(testContext(), key)
	AssertNotFound(t, err)
}

func (suite *StoreTestSuite) testDeleteAbsent(t *testing.T) {
	store := suite.newStore(t)

	err := store.Delete(testContext(), generateTestKey("never-written"))

	assert.NoError(t, err)
}

func (suite *StoreTestSuite) testKeysWithSeparators(t *testing.T) {
	store := suite.newStore(t)
	keys := []string{
		"fileMetadata:" + newID(),
		"driveAliases:Work Projects",
		"fileMetadata:nested/looking/id",
	}

	for i, key := range keys {
		require.NoError(t, store.Set(testContext(), key, []byte{byte(i)}))
	}

	for i, key := range keys {
		got := mustGet(t, store, key)
		assert.True(t, bytes.Equal([]byte{byte(i)}, got), "value mismatch for %q", key)
	}
}

// AssertNotFound fails the test unless err is kv.ErrKeyNotFound.
func AssertNotFound(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, kv.IsNotFound(err), "expected ErrKeyNotFound, got %v", err)
}
