package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"codeberg.org/verne/gamepulse/internal/config"
	"codeberg.org/verne/gamepulse/internal/logger"
)

type options struct {
	fps      float64
	duration int
	cloud    bool
}

func main() {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "gamepulse",
		Short: "gamepulse runs a simulated card-game session",
		Long: "gamepulse drives the runtime coordination layer with a synthetic " +
			"frame loop and scripted game events, logging quality tier changes, " +
			"feedback cues and fault handling along the way.",
		SilenceUsage: true,
		// Settings flags (--log-level, --telemetry, ...) belong to
		// config.Load; let them pass through.
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			go handleSignals(cancel)

			return runSession(ctx, cfg, opts)
		},
	}

	rootCmd.Flags().Float64Var(&opts.fps, "fps", 60, "Synthetic frame rate to simulate")
	rootCmd.Flags().IntVar(&opts.duration, "duration", 12, "Session length in seconds")
	rootCmd.Flags().BoolVar(&opts.cloud, "cloud", false, "Attach the simulated cloud-sync collaborator")

	logger.Init(false, true, logger.IsService())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Error().Err(err).Msg("Session failed")
		os.Exit(1)
	}
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal")
	cancel()
}
