package pricecache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ayushchauha111/jewelpos/internal/billing"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, time.Hour), mr
}

func pricedLines() []billing.PricedLine {
	return []billing.PricedLine{
		{Kind: billing.KindStock, StockID: 1, RatePerGram: decimal.NewFromInt(6000)},
		{Kind: billing.KindStock, StockID: 2, RatePerGram: decimal.NewFromInt(7000), RateOverridden: true},
		{Kind: billing.KindStock, StockID: 3},
		{Kind: billing.KindExternal, RatePerGram: decimal.NewFromInt(5000)},
	}
}

func TestSaveThenLoad(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s1", pricedLines()))

	memo, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, memo.Len())
	rate, ok := memo.RateFor(1)
	require.True(t, ok)
	assert.True(t, rate.Equal(decimal.NewFromInt(6000)))
	_, ok = memo.RateFor(2)
	assert.False(t, ok, "overridden rates are not memoised")

	assert.Equal(t, time.Hour, mr.TTL("jewelpos:pricememo:s1"))
}

func TestSessionsAreIsolated(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "s1", pricedLines()))

	memo, err := store.Load(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, 0, memo.Len())
}

func TestEmptySessionIsNoop(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "", pricedLines()))
	assert.Empty(t, mr.Keys())

	memo, err := store.Load(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 0, memo.Len())
}

func TestLoadSkipsCorruptEntries(t *testing.T) {
	store, mr := newTestStore(t)
	mr.HSet("jewelpos:pricememo:s1", "1", "6000", "x", "7000", "2", "abc")

	memo, err := store.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, memo.Len())
}

func TestClear(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "s1", pricedLines()))
	require.NoError(t, store.Clear(ctx, "s1"))
	assert.False(t, mr.Exists("jewelpos:pricememo:s1"))
}

func TestNilStoreIsEmpty(t *testing.T) {
	var store *Store
	memo, err := store.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, memo.Len())
	assert.NoError(t, store.Save(context.Background(), "s1", pricedLines()))
}

func TestLoadReportsRedisFailure(t *testing.T) {
	store, mr := newTestStore(t)
	mr.SetError("READONLY")
	_, err := store.Load(context.Background(), "s1")
	assert.Error(t, err)
}
