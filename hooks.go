package main

import (
	"github.com/spf13/cobra"
)

// The hook commands are the integration points for emulator launcher
// wrappers: "hook pre-launch" runs before the game starts, "hook post-exit"
// after it quits. Both are designed to never block a launch: sync trouble
// is reported and the game plays with whatever is on disk.
func newHookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Launcher integration hooks",
	}

	cmd.AddCommand(newPreLaunchCmd())
	cmd.AddCommand(newPostExitCmd())

	return cmd
}

func newPreLaunchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pre-launch <rom_id>",
		Short: "Pull remote saves and start a play session before launch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			romID, err := parseRomID(args[0])
			if err != nil {
				return err
			}

			engine, cleanup, err := buildEngine()
			if err != nil {
				return err
			}
			defer cleanup()

			result := engine.PreLaunchSync(cmd.Context(), romID)

			if _, err := engine.StartSession(romID); err != nil {
				statusf("warning: could not start play session: %v\n", err)
			}

			// A failed pre-launch sync must not stop the game from starting;
			// report and exit zero.
			if reportErr := reportResult(result); reportErr != nil {
				statusf("continuing launch despite sync errors\n")
			}

			return nil
		},
	}
}

func newPostExitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "post-exit <rom_id>",
		Short: "End the play session and push local saves after exit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			romID, err := parseRomID(args[0])
			if err != nil {
				return err
			}

			engine, cleanup, err := buildEngine()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()

			if session, err := engine.EndSession(ctx, romID); err != nil {
				statusf("warning: could not end play session: %v\n", err)
			} else {
				statusf("Played %s (total %s)\n",
					formatDuration(session.DurationSec),
					formatDuration(session.TotalSeconds),
				)
			}

			return reportResult(engine.PostExitSync(ctx, romID))
		},
	}
}
