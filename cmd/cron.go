package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"launcher.GO/cron"
	"launcher.GO/cron/jobs"
)

var jobName string

var cronStartCmd = &cobra.Command{
	Use:   "cron:start [args...]",
	Short: "Start the cron scheduler or run a single job by name",
	Long: `Start the cron scheduler with the built-in and registered jobs, or run
one job by name and exit. Arguments after the flags are passed to the job.

Examples:
  launcher cron:start
  launcher cron:start -j assetsweep 30m`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(commandContext(cmd))
		defer cancel()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		all := cron.Jobs(jobs.Builtin(a.Config, a.Service, slog.Default()))

		if jobName != "" {
			name := strings.ToLower(jobName)
			j, ok := all[name]
			if !ok {
				return fmt.Errorf("unknown job: %s (known: %s)", jobName, strings.Join(cron.Names(all), ", "))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Running cron job: %s\n", name)
			return j.Run(ctx, args...)
		}

		c, err := cron.StartCron(ctx, all, slog.Default())
		if err != nil {
			return err
		}
		a.WatchCatalog(ctx)
		fmt.Fprintln(cmd.OutOrStdout(), "Cron scheduler started. Press Ctrl+C to exit.")
		<-ctx.Done()
		<-c.Stop().Done()
		return nil
	},
}

func init() {
	cronStartCmd.Flags().StringVarP(&jobName, "job", "j", "", "Run a single cron job by name and exit")
	rootCmd.AddCommand(cronStartCmd)
}
