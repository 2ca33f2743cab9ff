package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-dashboard/internal/dashboard"
)

const (
	DefaultInterval = time.Second
	jobTimeout      = 30 * time.Second
)

// Refresher is the piece of the orchestrator the scheduler drives.
type Refresher interface {
	Refresh(ctx context.Context, force bool) (dashboard.Outcome, error)
}

// Scheduler periodically refreshes the dashboard. It ticks faster than the
// dashboard's minimum refresh interval and leaves the cadence to the
// orchestrator's guard, which skips ticks that come too early.
type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler.
func New(interval time.Duration, refresher Refresher, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		refresher: refresher,
		interval:  interval,
		logger:    logger,
	}
}

// Start runs one forced refresh right away, then schedules unforced
// refreshes every interval. A tick that finds the previous one still
// running is dropped.
func (s *Scheduler) Start(ctx context.Context) error {
	s.run(ctx, true)

	s.scheduler.SingletonModeAll()
	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(func() {
		s.run(ctx, false)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", "interval", s.interval)
	return nil
}

func (s *Scheduler) run(parent context.Context, force bool) {
	if parent.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(parent, jobTimeout)
	defer cancel()

	out, err := s.refresher.Refresh(ctx, force)
	switch {
	case err != nil && !errors.Is(err, context.Canceled):
		s.logger.Warn("scheduled refresh failed", "outcome", out, "error", err)
	case out == dashboard.OutcomeSkipped:
		s.logger.Debug("scheduled refresh skipped by rate-limit guard")
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
