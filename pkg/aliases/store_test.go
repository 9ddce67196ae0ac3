package aliases

import (
	"context"
	"sync"
	"testing"

	"github.com/marmos91/dittometa/pkg/kv"
	"github.com/marmos91/dittometa/pkg/kv/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *memory.MemoryStore) {
	t.Helper()
	backend := memory.NewMemoryStore()
	return New(backend), backend
}

func TestAddAlias(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)

	require.NoError(t, store.AddAlias(ctx, "  Work  "))
	assert.Equal(t, []string{"Work"}, store.Names())
	assert.Empty(t, store.Items("Work"))

	data, err := backend.Get(ctx, "driveAliases:Work")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Work","items":[]}`, string(data))
}

func TestAddAlias_Rejections(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)
	require.NoError(t, store.AddAlias(ctx, "Work"))

	tests := []struct {
		name  string
		alias string
		err   error
	}{
		{"empty", "", ErrInvalidAlias},
		{"whitespace only", "   ", ErrInvalidAlias},
		{"control character", "bad\tname", ErrInvalidAlias},
		{"existing", "Work", ErrAliasExists},
		{"existing after trim", " Work ", ErrAliasExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, store.AddAlias(ctx, tt.alias), tt.err)
		})
	}

	assert.Equal(t, 1, backend.Len())
}

func TestRemoveAlias(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)

	require.NoError(t, store.AddAlias(ctx, "Work"))
	require.NoError(t, store.RemoveAlias(ctx, "Work"))

	assert.Empty(t, store.Names())
	_, err := backend.Get(ctx, "driveAliases:Work")
	assert.True(t, kv.IsNotFound(err))

	assert.ErrorIs(t, store.RemoveAlias(ctx, "Work"), ErrAliasNotFound)
}

func TestAddItem(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	require.NoError(t, store.AddAlias(ctx, "Work"))

	require.NoError(t, store.AddItem(ctx, " Work ", "f1"))
	require.NoError(t, store.AddItem(ctx, "Work", "f2"))
	require.NoError(t, store.AddItem(ctx, "Work", "f1"), "already present is a no-op")

	assert.Equal(t, []string{"f1", "f2"}, store.Items("Work"))

	assert.ErrorIs(t, store.AddItem(ctx, "Home", "f1"), ErrAliasNotFound)
	assert.ErrorIs(t, store.AddItem(ctx, "", "f1"), ErrInvalidAlias)
	assert.ErrorIs(t, store.AddItem(ctx, "Work", ""), ErrInvalidItem)
}

func TestRemoveItem(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	require.NoError(t, store.AddAlias(ctx, "Work"))
	require.NoError(t, store.AddItem(ctx, "Work", "f1"))
	require.NoError(t, store.AddItem(ctx, "Work", "f2"))

	require.NoError(t, store.RemoveItem(ctx, "Work", "f1"))
	assert.Equal(t, []string{"f2"}, store.Items("Work"))

	// No-ops.
	require.NoError(t, store.RemoveItem(ctx, "Work", "f1"))
	require.NoError(t, store.RemoveItem(ctx, "Home", "f2"))
	assert.Equal(t, []string{"f2"}, store.Items("Work"))
}

func TestItemAliasesAndSearch(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	for _, name := range []string{"Work", "Homework", "Photos"} {
		require.NoError(t, store.AddAlias(ctx, name))
	}
	require.NoError(t, store.AddItem(ctx, "Work", "f1"))
	require.NoError(t, store.AddItem(ctx, "Photos", "f1"))
	require.NoError(t, store.AddItem(ctx, "Homework", "f2"))

	assert.Equal(t, []string{"Photos", "Work"}, store.ItemAliases("f1"))
	assert.Equal(t, []string{"Homework"}, store.ItemAliases("f2"))
	assert.Empty(t, store.ItemAliases("f3"))

	assert.Equal(t, []string{"Homework", "Work"}, store.Search("WORK"))
	assert.Equal(t, []string{"Homework", "Photos", "Work"}, store.Search(""))
	assert.Empty(t, store.Search("music"))
}

func TestLoadAndReset(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)

	require.NoError(t, store.AddAlias(ctx, "Work"))
	require.NoError(t, store.AddItem(ctx, "Work", "f1"))
	require.NoError(t, backend.Set(ctx, "driveAliases:Broken", []byte("{oops")))
	require.NoError(t, backend.Set(ctx, "fileMetadata:f1", []byte(`{}`)))

	store.Reset()
	assert.Empty(t, store.Names())

	n, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, map[string][]string{"Work": {"f1"}}, store.Aliases())
}

func TestAliasesIsACopy(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	require.NoError(t, store.AddAlias(ctx, "Work"))
	require.NoError(t, store.AddItem(ctx, "Work", "f1"))

	snapshot := store.Aliases()
	snapshot["Work"][0] = "mutated"
	items := store.Items("Work")
	items[0] = "mutated"

	assert.Equal(t, []string{"f1"}, store.Items("Work"))
}

func TestConcurrentAddItem(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)
	require.NoError(t, store.AddAlias(ctx, "Work"))

	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.AddItem(ctx, "Work", id))
		}()
	}
	wg.Wait()

	assert.ElementsMatch(t, ids, store.Items("Work"))

	// The durable record holds every item too.
	reloaded := New(backend)
	_, err := reloaded.Load(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, ids, reloaded.Items("Work"))
}
