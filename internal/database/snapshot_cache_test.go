package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tariff-dashboard/internal/aggregator"
)

func testSnapshot(id string) *aggregator.Snapshot {
	snap := aggregator.Build(nil, aggregator.Options{Now: time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC), TopN: 5, Months: 12})
	snap.ID = id
	return snap
}

func TestSnapshotCacheStore(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	store := db.SnapshotCache

	t.Run("Miss", func(t *testing.T) {
		got, err := store.Get(ctx, "dashboard")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("SetAndGet", func(t *testing.T) {
		snap := testSnapshot("snap-1")
		require.NoError(t, store.Set(ctx, "dashboard", snap, time.Minute))

		got, err := store.Get(ctx, "dashboard")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "snap-1", got.ID)
		assert.Equal(t, snap.Resumen, got.Resumen)
	})

	t.Run("LastWriteWins", func(t *testing.T) {
		snap := testSnapshot("snap-2")
		require.NoError(t, store.Set(ctx, "dashboard", snap, time.Minute))

		got, err := store.Get(ctx, "dashboard")
		require.NoError(t, err)
		assert.Equal(t, "snap-2", got.ID)

		all, err := store.LoadAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("Expired", func(t *testing.T) {
		snap := testSnapshot("stale")
		require.NoError(t, store.Set(ctx, "stale", snap, -time.Second))

		total, expired, err := store.GetStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Equal(t, 1, expired)

		removed, err := store.DeleteExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)

		got, err := store.Get(ctx, "stale")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "dashboard"))
		got, err := store.Get(ctx, "dashboard")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
