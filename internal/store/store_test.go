package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/tillpoint/tillpoint-server/internal/errors"
	"github.com/tillpoint/tillpoint-server/internal/store"
	"github.com/tillpoint/tillpoint-server/internal/store/storetest"
)

func newBadger(t *testing.T) store.KV {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "badger"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newBadgerInMemory(t *testing.T) store.KV {
	t.Helper()
	s, err := store.NewInMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBadger(t *testing.T) {
	storetest.Run(t, newBadger)
}

func TestBadgerInMemory(t *testing.T) {
	storetest.Run(t, newBadgerInMemory)
}

func TestMemory(t *testing.T) {
	storetest.Run(t, func(*testing.T) store.KV { return store.NewMemory(nil) })
}

func TestBadger_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "badger")
	ctx := context.Background()

	s, err := store.New(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, store.KeyClients, `[{"name":"Ana"}]`))
	require.NoError(t, s.Close())

	s, err = store.New(path, nil)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get(ctx, store.KeyClients)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"name":"Ana"}]`, v)
}

func TestBadger_Keys(t *testing.T) {
	s, err := store.NewInMemory(nil)
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	for _, k := range []string{"productNameMigrationBackup", "productNameMigrationVersion", "orders"} {
		require.NoError(t, s.Set(ctx, k, "x"))
	}

	keys, err := s.Keys(ctx, "productName")
	require.NoError(t, err)
	assert.Equal(t, []string{"productNameMigrationBackup", "productNameMigrationVersion"}, keys)
}

func TestBadger_ClosedStoreFails(t *testing.T) {
	s, err := store.NewInMemory(nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, _, err = s.Get(context.Background(), store.KeyProducts)
	assert.ErrorIs(t, err, store.ErrClosed)
	assert.Equal(t, domainerrors.CodeStorage, domainerrors.CodeOf(err))
}

func TestMemory_SeedIsCopied(t *testing.T) {
	seed := map[string]string{store.KeyCart: "[]"}
	m := store.NewMemory(seed)
	require.NoError(t, m.Set(context.Background(), store.KeyCart, `[{"productName":"Tina"}]`))

	assert.Equal(t, "[]", seed[store.KeyCart])
	assert.Equal(t, `[{"productName":"Tina"}]`, m.Snapshot()[store.KeyCart])
}

func TestMemory_Closed(t *testing.T) {
	m := store.NewMemory(nil)
	require.NoError(t, m.Close())

	err := m.Set(context.Background(), store.KeyCart, "[]")
	assert.ErrorIs(t, err, store.ErrClosed)
}

func TestCollections(t *testing.T) {
	assert.Equal(t, []string{"products", "orders", "cart", "clients"}, store.Collections())
}

func TestSummarize_ListsKeysWithoutTimes(t *testing.T) {
	kv := store.NewMemory(map[string]string{store.KeyCart: "[]", store.KeyHierarchyVersion: "1.0.0"})

	sum, err := store.Summarize(context.Background(), kv)
	require.NoError(t, err)
	assert.Equal(t, []string{store.KeyCart, store.KeyHierarchyVersion}, sum.Keys)
	assert.Nil(t, sum.UpdatedAt)
}

func TestSummarize_PlainKVIsEmpty(t *testing.T) {
	kv := struct{ store.KV }{store.NewMemory(nil)}

	sum, err := store.Summarize(context.Background(), kv)
	require.NoError(t, err)
	assert.Empty(t, sum.Keys)
}
