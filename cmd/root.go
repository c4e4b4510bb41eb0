package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"launcher.GO/app"
	"launcher.GO/config"
	"launcher.GO/core/logger"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "launcher",
	Short: "Launcher service registry maintenance",
	Long: `Maintenance commands for the launcher service registry.

All commands read the same environment as the HTTP server (DATA_FILE,
PUBLIC_DIR, UPLOAD_DIR, ...) and operate on the same catalog document.`,
	SilenceUsage: true,
}

// Execute adds all registered commands to the root command and runs it.
func Execute() {
	Apply()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp builds the registry service for a command. Replaced in tests.
var newApp = func(ctx context.Context) (*app.App, error) {
	cfg, err := config.Parse()
	if err != nil {
		return nil, err
	}
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	return app.Build(ctx, cfg, log)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
