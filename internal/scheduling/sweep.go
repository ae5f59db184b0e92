package scheduling

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/teemow/meetbook/internal/logging"
)

// Sweeper periodically retries link generation for meetings that have none.
// A sweep that is still running when the next one is due is skipped.
type Sweeper struct {
	bulk     *BulkAction
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewSweeper creates a Sweeper running on a standard five field cron schedule.
func NewSweeper(bulk *BulkAction, schedule string, opts ...Option) (*Sweeper, error) {
	o := buildOptions(opts)
	logger := logging.WithComponent(o.logger, "sweep")

	s := &Sweeper{
		bulk:     bulk,
		schedule: schedule,
		logger:   logger,
	}
	cl := cronLogger{logger: logger}
	s.cron = cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := s.cron.AddFunc(schedule, func() { s.Run(s.ctx) }); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins scheduling sweeps. ctx bounds every sweep.
func (s *Sweeper) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.logger.Info("link sweep scheduled", "schedule", s.schedule)
	s.cron.Start()
}

// Stop stops scheduling and waits for a running sweep until ctx is done.
func (s *Sweeper) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		if s.cancel != nil {
			s.cancel()
		}
		return nil
	case <-ctx.Done():
		if s.cancel != nil {
			s.cancel()
		}
		return ctx.Err()
	}
}

// Run performs one sweep.
func (s *Sweeper) Run(ctx context.Context) Summary {
	if ctx == nil {
		ctx = context.Background()
	}
	summary, err := s.bulk.GenerateMissing(ctx)
	if err != nil {
		s.logger.Error("link sweep failed", logging.Err(err))
		return summary
	}
	if summary.Processed > 0 || summary.Errored > 0 {
		s.logger.Info("link sweep finished",
			"processed", summary.Processed,
			"errored", summary.Errored,
			"skipped", summary.Skipped)
	}
	return summary
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, logging.Err(err))...)
}
