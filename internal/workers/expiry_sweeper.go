package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"cloud.google.com/go/civil"

	"tariff-dashboard/internal/aggregator"
)

// TariffExpirer marks lapsed tariffs expired
type TariffExpirer interface {
	ExpireLapsed(ctx context.Context, today civil.Date) (int64, error)
}

// SnapshotRefresher rebuilds the dashboard snapshot
type SnapshotRefresher interface {
	Refresh(ctx context.Context) (*aggregator.Snapshot, error)
}

// ExpirySweeperConfig controls the background sweep
type ExpirySweeperConfig struct {
	Enabled      bool
	Interval     time.Duration
	InitialDelay time.Duration
}

// SweepStatus describes the sweeper state and its last run
type SweepStatus struct {
	Running     bool       `json:"running"`
	Paused      bool       `json:"paused"`
	Interval    string     `json:"interval"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	LastExpired int64      `json:"last_expired"`
	LastError   string     `json:"last_error,omitempty"`
	TotalRuns   int        `json:"total_runs"`
}

// ExpirySweeper periodically expires tariffs whose validity has ended and
// rebuilds the dashboard snapshot when anything changed
type ExpirySweeper struct {
	ctx       context.Context
	cancel    context.CancelFunc
	config    ExpirySweeperConfig
	tariffs   TariffExpirer
	dashboard SnapshotRefresher
	paused    atomic.Bool
	started   atomic.Bool
	logger    *slog.Logger
	now       func() time.Time

	mu     sync.Mutex
	status SweepStatus
}

// NewExpirySweeper creates a new expiry sweeper
func NewExpirySweeper(cfg ExpirySweeperConfig, tariffs TariffExpirer, dashboard SnapshotRefresher, logger *slog.Logger) *ExpirySweeper {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ExpirySweeper{
		ctx:       ctx,
		cancel:    cancel,
		config:    cfg,
		tariffs:   tariffs,
		dashboard: dashboard,
		logger:    logger,
		now:       time.Now,
	}
}

// Start begins the background sweep
func (s *ExpirySweeper) Start() {
	if !s.config.Enabled {
		s.logger.Info("Expiry sweep is disabled, skipping background updates")
		return
	}
	if s.config.Interval <= 0 {
		s.logger.Warn("Expiry sweep interval is not positive, skipping background updates", "interval", s.config.Interval)
		return
	}
	if !s.started.CompareAndSwap(false, true) {
		return
	}

	s.logger.Info("Starting expiry sweeper", "interval", s.config.Interval)

	go s.sweepLoop()
}

// Stop gracefully stops the background sweep
func (s *ExpirySweeper) Stop() {
	s.logger.Info("Stopping expiry sweeper")
	s.cancel()
}

// Pause temporarily pauses scheduled sweeps. Manual runs still work.
func (s *ExpirySweeper) Pause() {
	s.paused.Store(true)
	s.logger.Info("Expiry sweeper paused")
}

// Resume resumes scheduled sweeps
func (s *ExpirySweeper) Resume() {
	s.paused.Store(false)
	s.logger.Info("Expiry sweeper resumed")
}

// IsPaused returns true if the sweeper is currently paused
func (s *ExpirySweeper) IsPaused() bool {
	return s.paused.Load()
}

// IsRunning returns true if the background loop was started and not stopped
func (s *ExpirySweeper) IsRunning() bool {
	if !s.started.Load() {
		return false
	}
	select {
	case <-s.ctx.Done():
		return false
	default:
		return true
	}
}

// Status returns a copy of the current status
func (s *ExpirySweeper) Status() SweepStatus {
	s.mu.Lock()
	status := s.status
	s.mu.Unlock()

	status.Running = s.IsRunning()
	status.Paused = s.IsPaused()
	status.Interval = s.config.Interval.String()
	return status
}

func (s *ExpirySweeper) sweepLoop() {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	initialDelay := time.NewTimer(s.config.InitialDelay)
	defer initialDelay.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("Expiry sweeper stopped")
			return

		case <-initialDelay.C:
			s.scheduledSweep()

		case <-ticker.C:
			s.scheduledSweep()
		}
	}
}

func (s *ExpirySweeper) scheduledSweep() {
	if s.paused.Load() {
		s.logger.Debug("Expiry sweep paused, skipping cycle")
		return
	}
	if _, err := s.RunOnce(s.ctx); err != nil {
		s.logger.Error("Expiry sweep failed", "error", err)
	}
}

// RunOnce performs a single sweep and returns the number of tariffs expired
func (s *ExpirySweeper) RunOnce(ctx context.Context) (int64, error) {
	start := s.now()
	today := civil.DateOf(start)

	expired, err := s.tariffs.ExpireLapsed(ctx, today)
	if err == nil && expired > 0 && s.dashboard != nil {
		if _, rerr := s.dashboard.Refresh(ctx); rerr != nil {
			err = fmt.Errorf("expired %d tariffs but failed to refresh dashboard: %w", expired, rerr)
		}
	}

	s.mu.Lock()
	s.status.LastRun = &start
	s.status.LastExpired = expired
	s.status.TotalRuns++
	s.status.LastError = ""
	if err != nil {
		s.status.LastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		return expired, err
	}

	s.logger.Info("Completed expiry sweep",
		"today", today.String(),
		"expired", expired,
		"duration", time.Since(start))

	return expired, nil
}
