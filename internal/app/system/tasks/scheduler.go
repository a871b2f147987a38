package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/pairup/internal/app/system/metrics"
	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const defaultJobTimeout = 2 * time.Minute

// Scheduler runs Jobs on their cron specs. A job still running when its next
// tick arrives is skipped for that tick.
type Scheduler struct {
	cron    *cron.Cron
	log     *zap.Logger
	jobs    []Job
	timeout time.Duration
	started bool
}

// Option customises the Scheduler.
type Option func(*Scheduler)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.cron = c
		}
	}
}

// WithJobTimeout bounds each run of a job that sets no Timeout of its own.
func WithJobTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewScheduler constructs a Scheduler.
func NewScheduler(logger *zap.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{log: logger, timeout: defaultJobTimeout}
	for _, opt := range opts {
		opt(s)
	}
	if s.cron == nil {
		s.cron = cron.New(
			cron.WithLogger(cron.DiscardLogger),
			cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)),
		)
	}
	return s
}

// Add registers j. Specs are validated immediately.
func (s *Scheduler) Add(j Job) error {
	if j.Name == "" || j.Run == nil {
		return errors.New("tasks: job needs a name and a run func")
	}
	if s.started {
		return fmt.Errorf("tasks: cannot add %s after start", j.Name)
	}
	if _, err := s.cron.AddFunc(j.Spec, func() { _ = s.run(context.Background(), j) }); err != nil {
		return fmt.Errorf("tasks: %s: bad spec %q: %w", j.Name, j.Spec, err)
	}
	s.jobs = append(s.jobs, j)
	return nil
}

// Start launches the cron loop.
func (s *Scheduler) Start() {
	s.started = true
	s.cron.Start()
	names := make([]string, 0, len(s.jobs))
	for _, j := range s.jobs {
		names = append(names, j.Name)
	}
	s.log.Info("task scheduler started", zap.Strings("jobs", names))
}

// Stop halts the scheduler. The returned context is done once running jobs
// have finished.
func (s *Scheduler) Stop() context.Context {
	ctx := s.cron.Stop()
	s.log.Info("task scheduler stopped")
	return ctx
}

// RunOnce executes every registered job sequentially and returns all failures.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	var errs error
	for _, j := range s.jobs {
		errs = multierr.Append(errs, s.run(ctx, j))
	}
	return errs
}

func (s *Scheduler) run(parent context.Context, j Job) error {
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = s.timeout
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	start := time.Now()
	err := j.Run(ctx)
	if err != nil {
		metrics.JobRuns.WithLabelValues(j.Name, "error").Inc()
		s.log.Warn("job failed",
			zap.String("job", j.Name),
			zap.Duration("took", time.Since(start)),
			zap.Error(err))
		return fmt.Errorf("%s: %w", j.Name, err)
	}
	metrics.JobRuns.WithLabelValues(j.Name, "ok").Inc()
	s.log.Debug("job finished", zap.String("job", j.Name), zap.Duration("took", time.Since(start)))
	return nil
}
