package cron

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// slogLogger adapts slog to the cron.Logger interface.
type slogLogger struct {
	log *slog.Logger
}

func (l slogLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l slogLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}

// StartCron schedules every job and starts the scheduler. Runs that are
// still busy when their next tick fires are skipped. Cancelling ctx is
// passed on to running jobs; the caller stops the returned scheduler.
func StartCron(ctx context.Context, jobs map[string]Job, log *slog.Logger) (*cron.Cron, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "cron")
	adapter := slogLogger{log: log}
	c := cron.New(cron.WithLogger(adapter), cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)))

	for _, name := range Names(jobs) {
		name, job := name, jobs[name]
		if job.Schedule == "" {
			log.Info("cron job disabled", "job", name)
			continue
		}
		_, err := c.AddFunc(job.Schedule, func() {
			if err := job.Run(ctx); err != nil {
				log.Error("cron job failed", "job", name, "error", err)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("register job %s: %w", name, err)
		}
		log.Info("cron job scheduled", "job", name, "schedule", job.Schedule)
	}
	c.Start()
	return c, nil
}
