package config

// Cron job names.
const (
	JobAssetSweep = "assetsweep"
)

// CronSchedules maps built-in jobs to their schedule.
func CronSchedules(cfg *Config) map[string]string {
	return map[string]string{
		JobAssetSweep: cfg.AssetSweepSchedule,
	}
}
