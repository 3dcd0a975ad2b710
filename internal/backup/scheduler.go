package backup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Scheduler snapshots the catalog when the last backup is older than the interval
type Scheduler struct {
	svc        *Service
	interval   time.Duration
	maxCount   int
	checkEvery time.Duration
	logger     *slog.Logger
}

// NewScheduler creates a scheduler. The due check runs every minute,
// or every interval if that is shorter.
func NewScheduler(svc *Service, interval time.Duration, maxCount int) *Scheduler {
	checkEvery := time.Minute
	if interval > 0 && interval < checkEvery {
		checkEvery = interval
	}
	return &Scheduler{
		svc:        svc,
		interval:   interval,
		maxCount:   maxCount,
		checkEvery: checkEvery,
		logger:     svc.logger,
	}
}

// Due reports whether a new backup should be made now
func (s *Scheduler) Due(ctx context.Context) (bool, error) {
	last, err := s.svc.LastBackupAt(ctx)
	if err != nil {
		return false, err
	}
	if last.IsZero() {
		return true, nil
	}
	return s.svc.now().Sub(last) >= s.interval, nil
}

// RunOnce makes a snapshot if one is due and reports whether it did
func (s *Scheduler) RunOnce(ctx context.Context) (bool, error) {
	due, err := s.Due(ctx)
	if err != nil || !due {
		return false, err
	}

	if _, err := s.svc.Snapshot(ctx, s.maxCount); err != nil {
		return false, fmt.Errorf("scheduled backup failed: %w", err)
	}
	return true, nil
}

// Run checks immediately and then periodically until ctx is canceled
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("backup interval must be positive, got %s", s.interval)
	}

	ticker := time.NewTicker(s.checkEvery)
	defer ticker.Stop()

	s.logger.Info("Backup scheduler started", "interval", s.interval, "max_count", s.maxCount)

	for {
		// Ошибка одного прогона не останавливает планировщик
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Warn("Scheduled backup failed", "error", err)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			s.logger.Info("Backup scheduler stopped")
			return nil
		}
	}
}
