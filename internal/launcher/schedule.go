package launcher

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"
)

// Runner is the unit of work a [Scheduler] repeats.
type Runner interface {
	Run(ctx context.Context) (*Result, error)
}

// Scheduler repeats a launch on a cron schedule.
//
// A tick that fires while the previous launch is still running is skipped, and a failed launch
// is logged without stopping the schedule.
type Scheduler struct {
	runner Runner
	cron   *cron.Cron
	logger *log.Logger
	runs   atomic.Int64
	fails  atomic.Int64
}

// NewScheduler creates a Scheduler for runner. Standard five-field cron expressions are accepted,
// as are descriptors such as "@hourly" and "@every 30m".
func NewScheduler(runner Runner, logger *log.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(logger)
	return &Scheduler{
		runner: runner,
		logger: logger,
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
	}
}

// Validate reports whether spec is an acceptable schedule.
func Validate(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Run registers spec and blocks until ctx is cancelled, then waits for any launch in flight.
func (s *Scheduler) Run(ctx context.Context, spec string) error {
	id, err := s.cron.AddFunc(spec, func() { s.tick(ctx) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "schedule", spec, "next", s.cron.Entry(id).Next)

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped", "runs", s.runs.Load(), "failures", s.fails.Load())
	return nil
}

// Stats returns the number of launches performed and how many of them failed.
func (s *Scheduler) Stats() (runs, failures int64) {
	return s.runs.Load(), s.fails.Load()
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	s.runs.Add(1)
	if _, err := s.runner.Run(ctx); err != nil {
		s.fails.Add(1)
		s.logger.Error("scheduled launch failed", "status", StatusOf(err), "error", err)
	}
}
