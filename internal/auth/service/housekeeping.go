package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/ergrato-dev/acc-lms-sub001/internal/auth/store"
)

// Sweeper is a revocation backend that keeps expired entries until told to
// drop them (revoke.Memory). Redis expires keys on its own.
type Sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// HousekeepingService periodically cleans up expired sessions and deny list
// entries to prevent unbounded growth.
type HousekeepingService struct {
	Store    store.Store
	Sweeper  Sweeper // optional
	Logger   *slog.Logger
	Interval time.Duration
	Now      func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(store store.Store, sweeper Sweeper, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:    store,
		Sweeper:  sweeper,
		Logger:   logger,
		Interval: interval,
		Now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Call Stop() to shut it down.
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

// Cleanup runs one pass. Each deletion is independent; a failure in one
// does not stop the others.
func (s *HousekeepingService) Cleanup(ctx context.Context) {
	now := s.Now()
	s.Logger.Debug("starting housekeeping cleanup")

	var total int64

	if n, err := s.Store.Sessions().DeleteExpiredSessions(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired sessions", "error", err)
	} else {
		total += n
	}

	if n, err := s.Store.Revocations().DeleteExpiredRevocations(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired revocations", "error", err)
	} else {
		total += n
	}

	if s.Sweeper != nil {
		if n, err := s.Sweeper.Sweep(ctx); err != nil {
			s.Logger.Error("failed to sweep revocation cache", "error", err)
		} else {
			total += n
		}
	}

	s.Logger.Info("housekeeping cleanup completed", "deleted", total)
}
