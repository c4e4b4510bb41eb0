package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var sweepGrace time.Duration

var assetsSweepCmd = &cobra.Command{
	Use:   "assets:sweep",
	Short: "Delete uploaded images no entry references",
	Long: `Delete uploaded images that no catalog entry references and that are
older than the grace period. The default image is never touched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		grace := a.Config.AssetSweepGrace
		if cmd.Flags().Changed("grace") {
			grace = sweepGrace
		}
		report, err := a.Service.SweepOrphans(ctx, grace)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, ref := range report.Removed {
			fmt.Fprintf(out, "removed %s\n", ref)
		}
		fmt.Fprintf(out, "Scanned %d, removed %d, kept %d younger than %s\n", report.Scanned, len(report.Removed), report.Young, grace)
		return nil
	},
}

var assetsAuditCmd = &cobra.Command{
	Use:   "assets:audit",
	Short: "Decode every uploaded image and report unreadable ones",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		results, err := a.Assets.Audit(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "REF\tFORMAT\tSIZE\tSTATUS")
		bad := 0
		for _, r := range results {
			status := "ok"
			if !r.OK() {
				status = r.Error
				bad++
			}
			fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%s\n", r.Ref, r.Format, r.Width, r.Height, status)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if bad > 0 {
			return fmt.Errorf("%d of %d images are unreadable", bad, len(results))
		}
		return nil
	},
}

var assetsInitDefaultCmd = &cobra.Command{
	Use:   "assets:init-default",
	Short: "Generate the placeholder default image if it is missing",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(commandContext(cmd))
		if err != nil {
			return err
		}
		defer a.Close()

		made, err := a.Assets.EnsureDefault()
		if err != nil {
			return err
		}
		if made {
			fmt.Fprintf(cmd.OutOrStdout(), "Generated %s\n", a.Assets.ResolveDefault())
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s already present\n", a.Assets.ResolveDefault())
		}
		return nil
	},
}

func init() {
	assetsSweepCmd.Flags().DurationVar(&sweepGrace, "grace", 0, "Only delete files older than this (default ASSET_SWEEP_GRACE)")

	rootCmd.AddCommand(assetsSweepCmd)
	rootCmd.AddCommand(assetsAuditCmd)
	rootCmd.AddCommand(assetsInitDefaultCmd)
}
