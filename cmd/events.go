package cmd

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"launcher.GO/core/events"
)

var eventsTailCmd = &cobra.Command{
	Use:   "events:tail",
	Short: "Print catalog change notifications as JSON lines",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(commandContext(cmd))
		defer cancel()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		if a.Redis == nil {
			return errors.New("events:tail needs a reachable REDIS_ADDR")
		}

		ch, err := events.Subscribe(ctx, a.Redis, a.Config.RedisChannel)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		for ev := range ch {
			if err := enc.Encode(ev); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsTailCmd)
}
