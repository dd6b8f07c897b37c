package main

import (
	"github.com/spf13/cobra"
)

func newPlaytimeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "playtime <rom_id>",
		Short: "Show local, server, and merged playtime for a ROM",
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

			report := engine.ServerPlaytime(cmd.Context(), romID)

			if flagJSON {
				return printJSON(report)
			}

			statusf("Local:  %s\n", formatDuration(report.LocalSeconds))
			statusf("Server: %s\n", formatDuration(report.ServerSeconds))
			statusf("Total:  %s\n", formatDuration(report.TotalSeconds))

			return nil
		},
	}
}

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage play sessions manually",
		Long:  "Start and end play sessions outside the launcher hooks, for frontends that cannot run hook commands.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "start <rom_id>",
		Short: "Mark the start of a play session",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			romID, err := parseRomID(args[0])
			if err != nil {
				return err
			}

			engine, cleanup, err := buildLocalEngine()
			if err != nil {
				return err
			}
			defer cleanup()

			if _, err := engine.StartSession(romID); err != nil {
				return err
			}

			statusf("Session started for ROM %d\n", romID)

			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "end <rom_id>",
		Short: "End the open play session and merge playtime to the server",
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

			session, err := engine.EndSession(cmd.Context(), romID)
			if err != nil {
				return err
			}

			if flagJSON {
				return printJSON(session)
			}

			statusf("Played %s (total %s across %d sessions)\n",
				formatDuration(session.DurationSec),
				formatDuration(session.TotalSeconds),
				session.SessionCount,
			)

			return nil
		},
	})

	return cmd
}
