package cache

import (
	"context"
	"time"

	"tariff-dashboard/internal/aggregator"
)

// Store persists snapshots behind the in-memory layer. The SQLite
// snapshot_cache table and Redis both implement it.
type Store interface {
	Get(ctx context.Context, key string) (*aggregator.Snapshot, error)
	Set(ctx context.Context, key string, snapshot *aggregator.Snapshot, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteExpired(ctx context.Context) (int64, error)
	LoadAll(ctx context.Context) (map[string]*aggregator.Snapshot, error)
	GetStats(ctx context.Context) (total int, expired int, err error)
}
