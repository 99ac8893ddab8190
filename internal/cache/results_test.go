package cache_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/awmpietro/golang-workflow-volume/internal/cache"
)

func newStore(t *testing.T, opts ...cache.Option) (*cache.ResultStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewResultStoreFromClient(client, opts...), mr
}

func TestResultStore_PutGet(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	v, ok := new(big.Int).SetString("167409079868000", 10)
	require.True(t, ok)
	require.NoError(t, store.Put(ctx, "abc", v))

	got, found, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 0, got.Cmp(v))

	raw, err := mr.Get("workflow:accepted:abc")
	require.NoError(t, err)
	require.Equal(t, "167409079868000", raw)
}

func TestResultStore_Miss(t *testing.T) {
	store, _ := newStore(t)

	got, found, err := store.Get(context.Background(), "missing")
	require.NoError(t, err)
	require.False(t, found)
	require.Nil(t, got)
}

func TestResultStore_BeyondInt64(t *testing.T) {
	store, _ := newStore(t, cache.WithPrefix("t:"))
	ctx := context.Background()

	huge := new(big.Int).Lsh(big.NewInt(1), 130)
	require.NoError(t, store.Put(ctx, "huge", huge))

	got, found, err := store.Get(ctx, "huge")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, huge.String(), got.String())
}

func TestResultStore_TTLExpiration(t *testing.T) {
	store, mr := newStore(t, cache.WithTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k", big.NewInt(7)))
	mr.FastForward(2 * time.Second)

	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, found)
}

func TestResultStore_CorruptValue(t *testing.T) {
	store, mr := newStore(t)
	require.NoError(t, mr.Set("workflow:accepted:bad", "not-a-number"))

	_, _, err := store.Get(context.Background(), "bad")
	require.Error(t, err)
}

func TestResultStore_DeleteAndPing(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Ping(ctx))
	require.NoError(t, store.Put(ctx, "k", big.NewInt(1)))
	require.NoError(t, store.Delete(ctx, "k"))

	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, found)
}

func TestResultStore_ServerDown(t *testing.T) {
	store, mr := newStore(t)
	mr.Close()

	_, _, err := store.Get(context.Background(), "k")
	require.Error(t, err)
	require.Error(t, store.Put(context.Background(), "k", big.NewInt(1)))
}
