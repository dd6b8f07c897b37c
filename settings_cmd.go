package main

import (
	"os"

	"github.com/spf13/cobra"

	syncengine "github.com/romsync/romsync-go/internal/sync"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change sync settings",
	}

	cmd.AddCommand(newSettingsShowCmd())
	cmd.AddCommand(newSettingsSetCmd())

	return cmd
}

func newSettingsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current sync settings",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			engine, cleanup, err := buildLocalEngine()
			if err != nil {
				return err
			}
			defer cleanup()

			settings := engine.Settings()

			if flagJSON {
				return printJSON(settings)
			}

			printTable(os.Stdout, []string{"SETTING", "VALUE"}, [][]string{
				{"conflict_mode", string(settings.ConflictMode)},
				{"sync_before_launch", boolWord(settings.SyncBeforeLaunch)},
				{"sync_after_exit", boolWord(settings.SyncAfterExit)},
				{"clock_skew_tolerance_sec", formatDuration(settings.ClockSkewToleranceSec)},
			})

			return nil
		},
	}
}

func newSettingsSetCmd() *cobra.Command {
	var (
		flagMode      string
		flagPreSync   bool
		flagPostSync  bool
		flagTolerance int64
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change sync settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, cleanup, err := buildLocalEngine()
			if err != nil {
				return err
			}
			defer cleanup()

			var patch syncengine.SettingsPatch

			// Only flags the user actually passed become part of the patch.
			if cmd.Flags().Changed("conflict-mode") {
				patch.ConflictMode = &flagMode
			}

			if cmd.Flags().Changed("sync-before-launch") {
				patch.SyncBeforeLaunch = &flagPreSync
			}

			if cmd.Flags().Changed("sync-after-exit") {
				patch.SyncAfterExit = &flagPostSync
			}

			if cmd.Flags().Changed("clock-skew-tolerance") {
				patch.ClockSkewToleranceSec = &flagTolerance
			}

			settings, err := engine.UpdateSettings(patch)
			if err != nil {
				return err
			}

			if flagJSON {
				return printJSON(settings)
			}

			statusf("Settings updated\n")

			return nil
		},
	}

	cmd.Flags().StringVar(&flagMode, "conflict-mode", "", "conflict mode: newest_wins, always_upload, always_download, ask_me")
	cmd.Flags().BoolVar(&flagPreSync, "sync-before-launch", true, "pull remote saves before launching")
	cmd.Flags().BoolVar(&flagPostSync, "sync-after-exit", true, "push local saves after exiting")
	cmd.Flags().Int64Var(&flagTolerance, "clock-skew-tolerance", 60, "seconds of timestamp difference treated as simultaneous")

	return cmd
}

func boolWord(b bool) string {
	if b {
		return "on"
	}

	return "off"
}
