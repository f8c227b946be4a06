package cache

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tariff-dashboard/internal/aggregator"
)

func TestNewRedisStore_InvalidURL(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "http://localhost:6379")
	if err == nil || !strings.Contains(err.Error(), "invalid redis URL") {
		t.Errorf("Expected invalid URL error, got %v", err)
	}
}

func TestNewRedisStore_Unreachable(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "redis://127.0.0.1:1/0")
	if err == nil || !strings.Contains(err.Error(), "failed to connect to redis") {
		t.Errorf("Expected connection error, got %v", err)
	}
}

func TestRedisStore_Key(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	store := NewRedisStoreWithClient(client, DefaultRedisPrefix)
	if got := store.key("dashboard"); got != "tariff-dashboard:snapshot:dashboard" {
		t.Errorf("Expected prefixed key, got %s", got)
	}

	removed, err := store.DeleteExpired(context.Background())
	if err != nil || removed != 0 {
		t.Errorf("Expected no-op expiry sweep, got %d, %v", removed, err)
	}
}

func TestRedisStore_SatisfiesStore(t *testing.T) {
	var _ Store = (*RedisStore)(nil)
}

// TestRedisStore_RoundTrip needs a live server, e.g.
// TARIFF_TEST_REDIS_URL=redis://localhost:6379/15
func TestRedisStore_RoundTrip(t *testing.T) {
	url := os.Getenv("TARIFF_TEST_REDIS_URL")
	if url == "" {
		t.Skip("TARIFF_TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	base, err := NewRedisStore(ctx, url)
	require.NoError(t, err)
	store := NewRedisStoreWithClient(base.client, "tariff-dashboard-test:"+t.Name()+":")
	t.Cleanup(func() {
		store.Delete(ctx, "dashboard")
		store.Delete(ctx, "other")
		store.Close()
	})

	missing, err := store.Get(ctx, "dashboard")
	require.NoError(t, err)
	assert.Nil(t, missing)

	snap := &aggregator.Snapshot{ID: "snap-1", Resumen: aggregator.Totals{Total: 3, Active: 2, Expired: 1}}
	require.NoError(t, store.Set(ctx, "dashboard", snap, time.Minute))
	require.NoError(t, store.Set(ctx, "other", &aggregator.Snapshot{ID: "snap-2"}, time.Minute))

	got, err := store.Get(ctx, "dashboard")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "snap-1", got.ID)
	assert.Equal(t, snap.Resumen, got.Resumen)

	all, err := store.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "snap-2", all["other"].ID)

	total, expired, err := store.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 0, expired)

	require.NoError(t, store.Delete(ctx, "dashboard"))
	got, err = store.Get(ctx, "dashboard")
	require.NoError(t, err)
	assert.Nil(t, got)
}
