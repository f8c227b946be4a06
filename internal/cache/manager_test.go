package cache

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"tariff-dashboard/internal/aggregator"
	"tariff-dashboard/internal/database"
)

func openTestDB(t *testing.T) *database.DB {
	tmpfile, err := os.CreateTemp("", "cache_test_*.db")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	tmpfile.Close()
	t.Cleanup(func() { os.Remove(tmpfile.Name()) })

	db, err := database.Open(tmpfile.Name())
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newSnapshot(id string) *aggregator.Snapshot {
	snap := aggregator.Build(nil, aggregator.DefaultOptions(time.Now().Add(-time.Minute)))
	snap.ID = id
	return snap
}

func TestCacheManager(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	t.Run("EnabledCache", func(t *testing.T) {
		manager := NewManager(db.SnapshotCache, false, 5*time.Minute, nil)
		defer manager.Close()

		cached, err := manager.Get(ctx, "dashboard")
		if err != nil {
			t.Errorf("Expected no error on cache miss, got %v", err)
		}
		if cached != nil {
			t.Error("Expected cache miss, got snapshot")
		}

		if err := manager.Set(ctx, "dashboard", newSnapshot("first")); err != nil {
			t.Fatalf("Failed to store in cache: %v", err)
		}
		if err := manager.Set(ctx, "dashboard", newSnapshot("second")); err != nil {
			t.Fatalf("Failed to store in cache: %v", err)
		}

		cached, err = manager.Get(ctx, "dashboard")
		if err != nil {
			t.Fatalf("Failed to get from cache: %v", err)
		}
		if cached == nil {
			t.Fatal("Expected cache hit, got nil")
		}
		if cached.ID != "second" {
			t.Errorf("Expected latest snapshot 'second', got %q", cached.ID)
		}
	})

	t.Run("DisabledCache", func(t *testing.T) {
		manager := NewManager(db.SnapshotCache, true, 5*time.Minute, nil)
		defer manager.Close()

		if err := manager.Set(ctx, "disabled", newSnapshot("x")); err != nil {
			t.Errorf("Expected no error with disabled cache, got %v", err)
		}

		cached, err := manager.Get(ctx, "disabled")
		if err != nil {
			t.Errorf("Expected no error with disabled cache, got %v", err)
		}
		if cached != nil {
			t.Error("Expected nil with disabled cache")
		}
		if manager.IsEnabled() {
			t.Error("Expected cache to report disabled")
		}
	})

	t.Run("SurvivesRestart", func(t *testing.T) {
		first := NewManager(db.SnapshotCache, false, 5*time.Minute, nil)
		if err := first.Set(ctx, "persisted", newSnapshot("kept")); err != nil {
			t.Fatalf("Failed to store in cache: %v", err)
		}
		first.Close()

		second := NewManager(db.SnapshotCache, false, 5*time.Minute, nil)
		defer second.Close()

		if _, ok := second.memory.Load("persisted"); !ok {
			t.Error("Expected snapshot to be loaded into memory on startup")
		}

		cached, err := second.Get(ctx, "persisted")
		if err != nil || cached == nil || cached.ID != "kept" {
			t.Errorf("Expected persisted snapshot 'kept', got %v (err %v)", cached, err)
		}
	})

	t.Run("Expiration", func(t *testing.T) {
		manager := NewManager(db.SnapshotCache, false, 50*time.Millisecond, nil)
		defer manager.Close()

		if err := manager.Set(ctx, "short", newSnapshot("short")); err != nil {
			t.Fatalf("Failed to store in cache: %v", err)
		}

		time.Sleep(100 * time.Millisecond)

		cached, err := manager.Get(ctx, "short")
		if err != nil {
			t.Errorf("Expected no error for expired entry, got %v", err)
		}
		if cached != nil {
			t.Error("Expected expired entry to miss")
		}
	})

	t.Run("Invalidate", func(t *testing.T) {
		manager := NewManager(db.SnapshotCache, false, 5*time.Minute, nil)
		defer manager.Close()

		age, err := manager.Invalidate(ctx, "missing")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if age != nil {
			t.Error("Expected nil age when nothing was cached")
		}

		if err := manager.Set(ctx, "inv", newSnapshot("inv")); err != nil {
			t.Fatalf("Failed to store in cache: %v", err)
		}

		age, err = manager.Invalidate(ctx, "inv")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if age == nil || *age < time.Minute {
			t.Errorf("Expected age of at least a minute, got %v", age)
		}

		cached, _ := manager.Get(ctx, "inv")
		if cached != nil {
			t.Error("Expected cache miss after invalidation")
		}
	})

	t.Run("GetStats", func(t *testing.T) {
		manager := NewManager(db.SnapshotCache, false, 5*time.Minute, nil)
		defer manager.Close()

		if err := manager.Set(ctx, "stats", newSnapshot("stats")); err != nil {
			t.Fatalf("Failed to store in cache: %v", err)
		}

		stats, err := manager.GetStats(ctx)
		if err != nil {
			t.Fatalf("Failed to get stats: %v", err)
		}
		if stats.Disabled {
			t.Error("Expected enabled cache stats")
		}
		if stats.MemoryTotal < 1 || stats.StoreTotal < 1 {
			t.Errorf("Expected at least one entry, got memory=%d store=%d", stats.MemoryTotal, stats.StoreTotal)
		}
		if stats.TTL != "5m0s" {
			t.Errorf("Expected TTL 5m0s, got %s", stats.TTL)
		}
	})
}

func TestCachedSnapshot_IsExpired(t *testing.T) {
	expired := &CachedSnapshot{ExpiresAt: time.Now().Add(-time.Second)}
	if !expired.IsExpired() {
		t.Error("Expected entry in the past to be expired")
	}

	fresh := &CachedSnapshot{ExpiresAt: time.Now().Add(time.Minute)}
	if fresh.IsExpired() {
		t.Error("Expected entry in the future to be fresh")
	}
}

// memStore is a Store shared by several managers, standing in for Redis
type memStore struct {
	mu      sync.Mutex
	entries map[string]*aggregator.Snapshot
}

func newMemStore() *memStore {
	return &memStore{entries: map[string]*aggregator.Snapshot{}}
}

func (s *memStore) Get(ctx context.Context, key string) (*aggregator.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[key], nil
}

func (s *memStore) Set(ctx context.Context, key string, snapshot *aggregator.Snapshot, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = snapshot
	return nil
}

func (s *memStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *memStore) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

func (s *memStore) LoadAll(ctx context.Context) (map[string]*aggregator.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*aggregator.Snapshot, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out, nil
}

func (s *memStore) GetStats(ctx context.Context) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries), 0, nil
}

func TestCacheManager_SharedStore(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	first := NewManager(store, false, 5*time.Minute, nil)
	defer first.Close()
	second := NewManager(store, false, 5*time.Minute, nil)
	defer second.Close()

	if err := first.Set(ctx, "dashboard", newSnapshot("from-first")); err != nil {
		t.Fatalf("Failed to store in cache: %v", err)
	}

	cached, err := second.Get(ctx, "dashboard")
	if err != nil {
		t.Fatalf("Failed to get from cache: %v", err)
	}
	if cached == nil || cached.ID != "from-first" {
		t.Fatalf("Expected snapshot published by the other manager, got %+v", cached)
	}

	// a manager started later warms its memory from the store
	third := NewManager(store, false, 5*time.Minute, nil)
	defer third.Close()

	stats, err := third.GetStats(ctx)
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if stats.MemoryTotal != 1 || stats.StoreTotal != 1 {
		t.Errorf("Expected one warmed entry, got memory=%d store=%d", stats.MemoryTotal, stats.StoreTotal)
	}
}
