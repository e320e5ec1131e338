package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Job is one unit of scheduled work.
type Job interface {
	Run(ctx context.Context) error
}

// Scheduler runs the ingestion job on a cron schedule, plus once immediately
// at startup. Runs never overlap and a failed run never stops the schedule.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	job        Job
	cronExpr   string
	runTimeout time.Duration
	log        *slog.Logger
}

// New creates a Scheduler. runTimeout bounds each run so a hung feed fetch
// cannot block the next tick indefinitely.
func New(job Job, cronExpr string, runTimeout time.Duration, log *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler:  gocron.NewScheduler(time.UTC),
		job:        job,
		cronExpr:   cronExpr,
		runTimeout: runTimeout,
		log:        log,
	}
}

// Start schedules the job and fires one immediate run.
func (s *Scheduler) Start() error {
	run := func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
		defer cancel()

		s.log.Info("ingestion run starting")
		if err := s.job.Run(ctx); err != nil {
			// Contained here: the next scheduled tick is the retry.
			s.log.Error("ingestion run failed", "err", err)
			return
		}
		s.log.Info("ingestion run completed")
	}

	if _, err := s.scheduler.Cron(s.cronExpr).SingletonMode().Do(run); err != nil {
		return fmt.Errorf("schedule ingestion job: %w", err)
	}

	s.scheduler.StartAsync()
	s.scheduler.RunAll()
	return nil
}

// Stop stops the scheduler and cancels any future runs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
