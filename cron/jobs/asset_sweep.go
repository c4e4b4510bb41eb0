// Package jobs holds the built-in scheduled jobs.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"launcher.GO/config"
	"launcher.GO/cron"
	catalogService "launcher.GO/service/catalog"
)

// Sweeper is the part of the registry service the sweep job needs.
type Sweeper interface {
	SweepOrphans(ctx context.Context, grace time.Duration) (catalogService.SweepReport, error)
}

// AssetSweep reclaims unreferenced uploads older than grace. An optional
// first argument overrides grace as a duration string.
func AssetSweep(svc Sweeper, grace time.Duration, log *slog.Logger) func(ctx context.Context, args ...string) error {
	return func(ctx context.Context, args ...string) error {
		g := grace
		if len(args) > 0 && args[0] != "" {
			d, err := time.ParseDuration(args[0])
			if err != nil {
				return err
			}
			g = d
		}
		report, err := svc.SweepOrphans(ctx, g)
		if err != nil {
			return err
		}
		log.Info("asset sweep finished", "scanned", report.Scanned, "removed", len(report.Removed), "young", report.Young)
		return nil
	}
}

// Builtin returns the built-in jobs with schedules from cfg.
func Builtin(cfg *config.Config, svc Sweeper, log *slog.Logger) map[string]cron.Job {
	if log == nil {
		log = slog.Default()
	}
	schedules := config.CronSchedules(cfg)
	return map[string]cron.Job{
		config.JobAssetSweep: {
			Schedule: schedules[config.JobAssetSweep],
			Run:      AssetSweep(svc, cfg.AssetSweepGrace, log),
		},
	}
}
