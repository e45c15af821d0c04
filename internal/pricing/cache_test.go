package pricing

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, store ReferenceStore) (*SnapshotCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewSnapshotCache(store, client, time.Minute, slog.Default()), mr
}

func TestSnapshotCacheLoadsOnceAndServesFromRedis(t *testing.T) {
	store := &mockStore{snapshot: standardSnapshot()}
	cache, _ := newTestCache(t, store)

	first, err := cache.Snapshot(context.Background())
	require.NoError(t, err)
	second, err := cache.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, store.calls, "second read must come from cache")
	require.Len(t, second.Tiers, len(first.Tiers))
	assert.True(t, second.Tiers[0].DailyRate.Equal(first.Tiers[0].DailyRate))
	assert.Equal(t, first.PeakPeriods[0].Name, second.PeakPeriods[0].Name)
}

func TestSnapshotCacheRoundTripsDecimals(t *testing.T) {
	snap := standardSnapshot()
	snap.Tiers[0].DailyRate = decimal.RequireFromString("55.55")
	store := &mockStore{snapshot: snap}
	cache, _ := newTestCache(t, store)

	// Prime, then force the cached copy to be used.
	_, err := cache.Snapshot(context.Background())
	require.NoError(t, err)
	got, err := cache.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "55.55", got.Tiers[0].DailyRate.String())
}

func TestSnapshotCacheInvalidateForcesReload(t *testing.T) {
	store := &mockStore{snapshot: standardSnapshot()}
	cache, _ := newTestCache(t, store)

	_, err := cache.Snapshot(context.Background())
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(context.Background()))
	_, err = cache.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, store.calls)
}

func TestSnapshotCacheFallsBackWhenRedisDown(t *testing.T) {
	store := &mockStore{snapshot: standardSnapshot()}
	cache, mr := newTestCache(t, store)
	mr.Close()

	snap, err := cache.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Tiers, 3)
}
