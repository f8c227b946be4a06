package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tariff-dashboard/internal/aggregator"
)

// CachedSnapshot is an in-memory snapshot with expiry
type CachedSnapshot struct {
	Snapshot  *aggregator.Snapshot
	ExpiresAt time.Time
}

// IsExpired checks if the cached snapshot has expired
func (c *CachedSnapshot) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// Manager keeps the latest dashboard snapshots in memory and in a persistent
// Store. Each key holds one snapshot; a Set replaces whatever was there.
type Manager struct {
	store    Store
	memory   sync.Map // map[string]*CachedSnapshot
	disabled bool
	ttl      time.Duration
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager creates a new cache manager
func NewManager(store Store, disabled bool, ttl time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	manager := &Manager{
		store:    store,
		disabled: disabled,
		ttl:      ttl,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}

	if !disabled {
		if err := manager.loadFromStore(); err != nil {
			logger.Warn("Failed to load snapshot cache from store", "error", err)
		}

		go manager.cleanupLoop()
	}

	return manager
}

// Get returns the snapshot cached under key, or nil on a miss
func (m *Manager) Get(ctx context.Context, key string) (*aggregator.Snapshot, error) {
	if m.disabled {
		return nil, nil
	}

	if value, ok := m.memory.Load(key); ok {
		cached := value.(*CachedSnapshot)
		if !cached.IsExpired() {
			return cached.Snapshot, nil
		}
		m.memory.Delete(key)
	}

	snapshot, err := m.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get from snapshot store: %w", err)
	}

	if snapshot != nil {
		m.memory.Store(key, &CachedSnapshot{
			Snapshot:  snapshot,
			ExpiresAt: time.Now().Add(m.ttl),
		})
	}

	return snapshot, nil
}

// Set publishes snapshot under key in both memory and store
func (m *Manager) Set(ctx context.Context, key string, snapshot *aggregator.Snapshot) error {
	if m.disabled {
		return nil
	}

	if err := m.store.Set(ctx, key, snapshot, m.ttl); err != nil {
		return fmt.Errorf("failed to store in snapshot store: %w", err)
	}

	m.memory.Store(key, &CachedSnapshot{
		Snapshot:  snapshot,
		ExpiresAt: time.Now().Add(m.ttl),
	})

	return nil
}

// Delete removes the snapshot under key from both memory and store
func (m *Manager) Delete(ctx context.Context, key string) error {
	if m.disabled {
		return nil
	}

	m.memory.Delete(key)

	if err := m.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete from snapshot store: %w", err)
	}

	return nil
}

// Invalidate drops the snapshot under key and reports how old it was,
// or nil if nothing was cached
func (m *Manager) Invalidate(ctx context.Context, key string) (*time.Duration, error) {
	if m.disabled {
		return nil, nil
	}

	var age *time.Duration
	snapshot, err := m.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to check cached snapshot age: %w", err)
	}
	if snapshot != nil {
		a := time.Since(snapshot.GeneratedAt)
		age = &a
	}

	if err := m.Delete(ctx, key); err != nil {
		return age, fmt.Errorf("failed to invalidate cache: %w", err)
	}

	return age, nil
}

// IsEnabled returns true if caching is enabled
func (m *Manager) IsEnabled() bool {
	return !m.disabled
}

// GetTTL returns the cache TTL duration
func (m *Manager) GetTTL() time.Duration {
	return m.ttl
}

// loadFromStore warms the memory cache with persisted snapshots
func (m *Manager) loadFromStore() error {
	entries, err := m.store.LoadAll(m.ctx)
	if err != nil {
		return err
	}

	for key, snapshot := range entries {
		m.memory.Store(key, &CachedSnapshot{
			Snapshot:  snapshot,
			ExpiresAt: time.Now().Add(m.ttl),
		})
	}

	if len(entries) > 0 {
		m.logger.Info("Loaded cached snapshots from store", "count", len(entries))
	}

	return nil
}

func (m *Manager) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.cleanup()
		}
	}
}

// cleanup removes expired entries from both memory and store
func (m *Manager) cleanup() {
	memoryCount := 0
	m.memory.Range(func(key, value any) bool {
		if value.(*CachedSnapshot).IsExpired() {
			m.memory.Delete(key)
			memoryCount++
		}
		return true
	})

	removed, err := m.store.DeleteExpired(m.ctx)
	if err != nil {
		m.logger.Warn("Failed to clean up expired stored snapshots", "error", err)
	}

	if memoryCount > 0 || removed > 0 {
		m.logger.Debug("Cleaned up expired snapshots", "memory", memoryCount, "store", removed)
	}
}

// GetStats returns cache statistics
func (m *Manager) GetStats(ctx context.Context) (CacheStats, error) {
	stats := CacheStats{
		Disabled: m.disabled,
		TTL:      m.ttl.String(),
	}

	if m.disabled {
		return stats, nil
	}

	m.memory.Range(func(key, value any) bool {
		stats.MemoryTotal++
		if value.(*CachedSnapshot).IsExpired() {
			stats.MemoryExpired++
		}
		return true
	})

	storeTotal, storeExpired, err := m.store.GetStats(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to get store stats: %w", err)
	}

	stats.StoreTotal = storeTotal
	stats.StoreExpired = storeExpired

	return stats, nil
}

// Close shuts down the cache manager and cleanup goroutine
func (m *Manager) Close() {
	if m.cancel != nil {
		m.cancel()
	}
}

// CacheStats represents cache statistics
type CacheStats struct {
	Disabled      bool   `json:"disabled"`
	TTL           string `json:"ttl"`
	MemoryTotal   int    `json:"memory_total"`
	MemoryExpired int    `json:"memory_expired"`
	StoreTotal    int    `json:"store_total"`
	StoreExpired  int    `json:"store_expired"`
}
