// Package storetest holds the behaviour every store.KV implementation must
// share, so each backend can run the same checks.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/tillpoint/tillpoint-server/internal/errors"
	"github.com/tillpoint/tillpoint-server/internal/store"
)

// Run exercises a KV created fresh for every subtest by newKV.
func Run(t *testing.T, newKV func(t *testing.T) store.KV) {
	t.Helper()

	t.Run("missing key", func(t *testing.T) {
		kv := newKV(t)
		v, ok, err := kv.Get(context.Background(), "nope")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, v)
	})

	t.Run("set then get", func(t *testing.T) {
		kv := newKV(t)
		ctx := context.Background()

		require.NoError(t, kv.Set(ctx, store.KeyProducts, `[{"name":"Tina"}]`))
		v, ok, err := kv.Get(ctx, store.KeyProducts)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `[{"name":"Tina"}]`, v)
	})

	t.Run("overwrite", func(t *testing.T) {
		kv := newKV(t)
		ctx := context.Background()

		require.NoError(t, kv.Set(ctx, store.KeyProductNameVersion, "1.0.0"))
		require.NoError(t, kv.Set(ctx, store.KeyProductNameVersion, "2.0.0"))
		v, _, err := kv.Get(ctx, store.KeyProductNameVersion)
		require.NoError(t, err)
		assert.Equal(t, "2.0.0", v)
	})

	t.Run("empty value is present", func(t *testing.T) {
		kv := newKV(t)
		ctx := context.Background()

		require.NoError(t, kv.Set(ctx, store.KeyCart, ""))
		v, ok, err := kv.Get(ctx, store.KeyCart)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Empty(t, v)
	})

	t.Run("remove", func(t *testing.T) {
		kv := newKV(t)
		ctx := context.Background()

		require.NoError(t, kv.Set(ctx, store.KeyCart, "[]"))
		require.NoError(t, kv.Remove(ctx, store.KeyCart))
		_, ok, err := kv.Get(ctx, store.KeyCart)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, kv.Remove(ctx, "never-set"))
	})

	t.Run("canceled context", func(t *testing.T) {
		kv := newKV(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := kv.Set(ctx, store.KeyOrders, "[]")
		require.Error(t, err)
		assert.ErrorIs(t, err, domainerrors.ErrStorage)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}
