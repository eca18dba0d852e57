package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/expo/internal/team/metrics"
	"github.com/aussiebroadwan/expo/internal/team/store"
)

// DefaultSetupTokenRetention is how long an expired setup token is kept so
// that late attempts still report ErrTokenExpired.
const DefaultSetupTokenRetention = 7 * 24 * time.Hour

// HousekeepingService periodically deletes setup tokens that expired more
// than Retention ago.
type HousekeepingService struct {
	Store     store.Store
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Interval  time.Duration
	Window    time.Duration
	Retention time.Duration
	Now       func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service. Zero or
// negative durations fall back to 1 hour, DefaultSetupTokenWindow and
// DefaultSetupTokenRetention.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval, window, retention time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}
	if window <= 0 {
		window = DefaultSetupTokenWindow
	}
	if retention <= 0 {
		retention = DefaultSetupTokenRetention
	}

	return &HousekeepingService{
		Store:     st,
		Logger:    logger,
		Interval:  interval,
		Window:    window,
		Retention: retention,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins the background worker. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress cleanup has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup deletes setup tokens past their window plus the retention
// period and returns how many went.
func (s *HousekeepingService) Cleanup(ctx context.Context) int64 {
	cutoff := clock(s.Now).Add(-s.Window - s.Retention)

	n, err := s.Store.SetupTokens().DeleteSetupTokensCreatedBefore(ctx, cutoff)
	if err != nil {
		s.Logger.Error("failed to delete expired setup tokens", "error", err)
		return 0
	}
	s.Metrics.SetupTokensRemoved(n)
	s.Logger.Debug("housekeeping cleanup completed", "setup_tokens_deleted", n)
	return n
}
