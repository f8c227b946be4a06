package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"tariff-dashboard/internal/aggregator"
	"tariff-dashboard/internal/tariff"
)

// DashboardCacheKey is the cache key of the catalog-wide snapshot
const DashboardCacheKey = "dashboard"

// RecordSource fetches the tariffs matching a filter
type RecordSource interface {
	List(ctx context.Context, filter tariff.Filter) ([]tariff.Record, error)
}

// SnapshotCache stores published snapshots
type SnapshotCache interface {
	Get(ctx context.Context, key string) (*aggregator.Snapshot, error)
	Set(ctx context.Context, key string, snapshot *aggregator.Snapshot) error
	Delete(ctx context.Context, key string) error
}

// DashboardConfig tunes snapshot construction
type DashboardConfig struct {
	TopN   int
	Months int
	Alerts aggregator.AlertOptions

	// MaxAge bounds how long a snapshot held in memory is served when no
	// shared cache is configured. Zero keeps it until the next write.
	MaxAge time.Duration
}

// maxBuildAttempts bounds rebuilds when writes keep landing mid-build
const maxBuildAttempts = 3

// DashboardService builds dashboard snapshots from the tariff catalog and
// publishes the newest one
type DashboardService struct {
	source RecordSource
	cache  SnapshotCache
	config DashboardConfig
	logger *slog.Logger
	now    func() time.Time

	buildMu    sync.Mutex
	mu         sync.RWMutex
	latest     *aggregator.Snapshot
	generation uint64
}

// NewDashboardService creates a dashboard service. cache may be nil; when set
// it is the source of truth shared with other instances.
func NewDashboardService(source RecordSource, cache SnapshotCache, config DashboardConfig, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		source: source,
		cache:  cache,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// Snapshot returns the published snapshot, building one when none is
// available or when force is set. With a cache the cached entry wins, so an
// invalidation made elsewhere is seen here too.
func (s *DashboardService) Snapshot(ctx context.Context, force bool) (*aggregator.Snapshot, error) {
	if !force {
		if s.cache != nil {
			snap, err := s.cache.Get(ctx, DashboardCacheKey)
			if err != nil {
				s.logger.Warn("Failed to read cached snapshot", "error", err)
				if snap := s.fresh(); snap != nil {
					return snap, nil
				}
			} else if snap != nil {
				s.publish(snap)
				return snap, nil
			}
		} else if snap := s.fresh(); snap != nil {
			return snap, nil
		}
	}

	return s.Refresh(ctx)
}

// Refresh always rebuilds the snapshot from the source. Builds are serialised
// so the last call to return is the one left published. A build overtaken by
// Invalidate is discarded and redone.
func (s *DashboardService) Refresh(ctx context.Context) (*aggregator.Snapshot, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	for attempt := 1; ; attempt++ {
		gen := s.currentGeneration()

		start := s.now()
		records, err := s.source.List(ctx, tariff.Filter{})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch tariffs: %w", err)
		}

		snap := aggregator.Build(records, s.options(start))
		snap.ID = uuid.NewString()

		if s.cache != nil {
			if err := s.cache.Set(ctx, DashboardCacheKey, snap); err != nil {
				s.logger.Warn("Failed to cache snapshot", "snapshot_id", snap.ID, "error", err)
			}
		}

		if s.publishIfCurrent(snap, gen) {
			s.logger.Info("Dashboard snapshot built",
				"snapshot_id", snap.ID,
				"records", len(records),
				"active", snap.Resumen.Active,
				"alerts", len(snap.Alerts),
				"attempts", attempt,
				"duration", s.now().Sub(start))
			return snap, nil
		}

		if attempt == maxBuildAttempts {
			s.logger.Warn("Catalog kept changing during rebuild, snapshot not published",
				"snapshot_id", snap.ID, "attempts", attempt)
			s.dropCached(ctx)
			return snap, nil
		}

		s.logger.Debug("Catalog changed during rebuild, rebuilding", "attempt", attempt)
	}
}

// Invalidate drops the published snapshot so the next request rebuilds it.
// A build already running when Invalidate is called will not be published.
func (s *DashboardService) Invalidate(ctx context.Context) {
	s.mu.Lock()
	s.latest = nil
	s.generation++
	s.mu.Unlock()

	s.dropCached(ctx)
}

func (s *DashboardService) dropCached(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, DashboardCacheKey); err != nil {
		s.logger.Warn("Failed to invalidate cached snapshot", "error", err)
	}
}

// Latest returns the published snapshot without building, or nil
func (s *DashboardService) Latest() *aggregator.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// fresh returns the published snapshot while it is younger than MaxAge
func (s *DashboardService) fresh() *aggregator.Snapshot {
	snap := s.Latest()
	if snap == nil {
		return nil
	}
	if s.config.MaxAge > 0 && s.now().Sub(snap.GeneratedAt) >= s.config.MaxAge {
		return nil
	}
	return snap
}

func (s *DashboardService) currentGeneration() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

func (s *DashboardService) publish(snap *aggregator.Snapshot) {
	s.mu.Lock()
	s.latest = snap
	s.mu.Unlock()
}

func (s *DashboardService) publishIfCurrent(snap *aggregator.Snapshot, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return false
	}
	s.latest = snap
	return true
}

func (s *DashboardService) options(now time.Time) aggregator.Options {
	opts := aggregator.DefaultOptions(now)
	if s.config.TopN != 0 {
		opts.TopN = s.config.TopN
	}
	if s.config.Months > 0 {
		opts.Months = s.config.Months
	}
	if s.config.Alerts.ExpiringWithinDays > 0 {
		opts.Alerts.ExpiringWithinDays = s.config.Alerts.ExpiringWithinDays
	}
	if s.config.Alerts.PriceIncreasePct.IsPositive() {
		opts.Alerts.PriceIncreasePct = s.config.Alerts.PriceIncreasePct
	}
	return opts
}
