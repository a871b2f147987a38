// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/dalemusser/pairup/internal/app/scheduling"
	"go.uber.org/zap"
)

// Job is one unit of periodic work.
type Job struct {
	Name    string
	Spec    string        // cron spec, e.g. "@every 5m"
	Timeout time.Duration // zero means the scheduler default
	Run     func(ctx context.Context) error
}

// ReminderJob attaches meeting links inside the pre-start window and sends
// each upcoming interview its single reminder.
func ReminderJob(rem *scheduling.Reminders, logger *zap.Logger, spec string) Job {
	if spec == "" {
		spec = "@every 5m"
	}
	return Job{
		Name: "interview-reminders",
		Spec: spec,
		Run: func(ctx context.Context) error {
			stats, err := rem.SendDue(ctx)
			if stats.LinksCreated > 0 || stats.RemindersSent > 0 {
				logger.Info("reminder sweep",
					zap.Int("scanned", stats.Scanned),
					zap.Int("links_created", stats.LinksCreated),
					zap.Int("reminders_sent", stats.RemindersSent))
			}
			return err
		},
	}
}

// CompletionJob marks interviews whose time has passed as completed.
func CompletionJob(rem *scheduling.Reminders, logger *zap.Logger, spec string) Job {
	if spec == "" {
		spec = "@every 15m"
	}
	return Job{
		Name: "interview-completion",
		Spec: spec,
		Run: func(ctx context.Context) error {
			n, err := rem.CompleteElapsed(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("completed elapsed interviews", zap.Int64("count", n))
			}
			return nil
		},
	}
}
