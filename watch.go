package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/romsync/romsync-go/internal/config"
	syncengine "github.com/romsync/romsync-go/internal/sync"
)

func newWatchCmd() *cobra.Command {
	var flagDebounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the saves folder and upload changes automatically",
		Long:  "Runs until interrupted, uploading a ROM's saves shortly after an emulator writes them.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, cleanup, err := buildEngine()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			watcher := syncengine.NewWatcher(engine, cfg, config.NewRegistry(cfg.StateDir), buildLogger())
			if flagDebounce > 0 {
				watcher.Debounce = flagDebounce
			}

			statusf("Watching %s (Ctrl-C to stop)\n", cfg.ResolveSavesRoot())

			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}

			return nil
		},
	}

	cmd.Flags().DurationVar(&flagDebounce, "debounce", 0, "quiet period before syncing after a change (default 3s)")

	return cmd
}
