package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpos/backend/internal/domain"
)

func TestMemoryStoreRoundTripIsolatesCopies(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	ctx := context.Background()

	sess, err := store.Load(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, sess.Cart.IsEmpty())

	require.NoError(t, sess.Cart.Add(domain.Product{ID: 1, Name: "Milk", Price: decimal.RequireFromString("3.99")}, 2, nil))
	sess.TaxApplied = true
	require.NoError(t, store.Save(ctx, "user-1", sess))

	sess.Cart.Lines[0].Quantity = 99

	loaded, err := store.Load(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, loaded.Cart.Lines, 1)
	assert.Equal(t, 2, loaded.Cart.Lines[0].Quantity)
	assert.True(t, loaded.TaxApplied)

	other, err := store.Load(ctx, "user-2")
	require.NoError(t, err)
	assert.True(t, other.Cart.IsEmpty())
}

func TestMemoryStoreExpiresIdleSessions(t *testing.T) {
	store := NewMemoryStore(time.Millisecond)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "user-1", &Session{LastTransactionID: 7}))
	time.Sleep(5 * time.Millisecond)

	loaded, err := store.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Zero(t, loaded.LastTransactionID)
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "user-1", &Session{LastTransactionID: 3}))
	require.NoError(t, store.Delete(ctx, "user-1"))

	loaded, err := store.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Zero(t, loaded.LastTransactionID)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	addr := os.Getenv("TILLPOS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TILLPOS_TEST_REDIS_ADDR to run redis integration test")
	}

	ctx := context.Background()
	store := NewRedisStore(addr, "", 0, time.Minute)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Ping(ctx))

	key := "it-" + time.Now().Format("150405.000000")
	t.Cleanup(func() { _ = store.Delete(ctx, key) })

	sess := &Session{TaxApplied: true}
	_, err := sess.Cart.AddCustom("Gift Wrap", decimal.RequireFromString("1.00"), 1)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, key, sess))

	loaded, err := store.Load(ctx, key)
	require.NoError(t, err)
	require.Len(t, loaded.Cart.Lines, 1)
	assert.Equal(t, "Gift Wrap", loaded.Cart.Lines[0].Name)
	assert.True(t, loaded.Cart.Lines[0].Price.Equal(decimal.RequireFromString("1.00")))
	assert.True(t, loaded.TaxApplied)
}
