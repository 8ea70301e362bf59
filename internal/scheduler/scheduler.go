package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// RunFunc is one unit of scheduled work, e.g. a full pipeline run.
type RunFunc func(ctx context.Context) error

// Scheduler owns the main loop: runs immediately, then again each time the
// interval elapses after the previous run finished.
type Scheduler struct {
	run      RunFunc
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a scheduler that repeats run at the given interval.
func NewScheduler(run RunFunc, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		run:      run,
		interval: interval,
		logger:   logger,
	}
}

// Run starts the loop. A failed run is logged and the loop continues. It
// returns nil when ctx is cancelled (graceful shutdown).
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler", "interval", s.interval.String())

	for cycle := 1; ; cycle++ {
		start := time.Now()
		if err := s.run(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("scheduled run failed", "cycle", cycle, "error", err)
		}
		if ctx.Err() != nil {
			s.logger.Info("shutting down scheduler")
			return nil
		}
		s.logger.Info("next run scheduled",
			"cycle", cycle,
			"took", time.Since(start).Round(time.Millisecond).String(),
			"next_in", s.interval.String(),
		)

		select {
		case <-ctx.Done():
			s.logger.Info("shutting down scheduler")
			return nil
		case <-time.After(s.interval):
		}
	}
}
