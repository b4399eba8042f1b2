package store_test

import (
	"testing"

	"github.com/milsabores/storefront-gateway/internal/models"
	"github.com/milsabores/storefront-gateway/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, store.Key("session:12345678-9"), store.SessionKey("12345678-9"))
	assert.Equal(t, store.Key("cart:guest:g1"), store.CartKey(store.GuestScope("g1")))
	assert.Equal(t, store.Key("cart:user:12345678-9"), store.CartKey(store.UserScope("12345678-9")))
	assert.Equal(t, store.Key("order:1000001"), store.OrderKey(1000001))
	assert.NotEqual(t, store.GuestScope("x"), store.UserScope("x"))
}

// roundtrip exercises the Store contract shared by every backend.
func roundtrip(t *testing.T, st store.Store) {
	t.Helper()

	ctx := t.Context()
	key := store.CartKey(store.GuestScope("g1"))

	t.Run("Get Missing Key", func(t *testing.T) {
		cart := &models.Cart{}

		found, err := st.Get(ctx, key, cart)

		assert.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Set Then Get", func(t *testing.T) {
		stored := &models.Cart{
			Scope: store.GuestScope("g1"),
			Items: []models.CartLineItem{{ID: "line-1", ProductCode: "TC001", UnitPrice: 45000, Quantity: 2, Message: "Feliz Cumpleaños"}},
		}

		require.NoError(t, st.Set(ctx, key, stored))

		loaded := &models.Cart{}
		found, err := st.Get(ctx, key, loaded)

		assert.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, stored, loaded)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, st.Set(ctx, key, &models.Cart{Scope: store.GuestScope("g1")}))

		loaded := &models.Cart{}
		found, err := st.Get(ctx, key, loaded)

		assert.NoError(t, err)
		assert.True(t, found)
		assert.Empty(t, loaded.Items)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, st.Delete(ctx, key))

		found, err := st.Get(ctx, key, &models.Cart{})

		assert.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Delete Missing Key Is A No-Op", func(t *testing.T) {
		assert.NoError(t, st.Delete(ctx, store.Key("never:written")))
	})
}

func TestMemoryStore(t *testing.T) {
	st := store.NewMemoryStore()
	defer st.Close()

	roundtrip(t, st)
}

func TestFileStore(t *testing.T) {
	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	defer st.Close()

	roundtrip(t, st)

	t.Run("Keys With Identical Sanitized Prefix Stay Distinct", func(t *testing.T) {
		ctx := t.Context()

		require.NoError(t, st.Set(ctx, store.Key("a:b"), "first"))
		require.NoError(t, st.Set(ctx, store.Key("a.b"), "second"))

		var first, second string

		found, err := st.Get(ctx, store.Key("a:b"), &first)
		require.NoError(t, err)
		require.True(t, found)

		found, err = st.Get(ctx, store.Key("a.b"), &second)
		require.NoError(t, err)
		require.True(t, found)

		assert.Equal(t, "first", first)
		assert.Equal(t, "second", second)
	})
}
