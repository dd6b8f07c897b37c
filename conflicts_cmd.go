package main

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func newConflictsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conflicts",
		Short: "Inspect and resolve pending save conflicts",
	}

	cmd.AddCommand(newConflictsListCmd())
	cmd.AddCommand(newConflictsResolveCmd())

	return cmd
}

func newConflictsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending conflicts",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			engine, cleanup, err := buildLocalEngine()
			if err != nil {
				return err
			}
			defer cleanup()

			conflicts := engine.PendingConflicts()

			if flagJSON {
				return printJSON(conflicts)
			}

			if len(conflicts) == 0 {
				statusf("No pending conflicts\n")
				return nil
			}

			rows := make([][]string, 0, len(conflicts))
			for _, c := range conflicts {
				rows = append(rows, []string{
					strconv.FormatInt(c.RomID, 10),
					c.Filename,
					formatTime(c.CreatedAt),
				})
			}

			printTable(os.Stdout, []string{"ROM", "FILE", "DETECTED"}, rows)
			statusf("\nResolve with: romsync conflicts resolve <rom_id> <filename> <upload|download>\n")

			return nil
		},
	}
}

func newConflictsResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <rom_id> <filename> <upload|download>",
		Short: "Resolve one conflict by keeping the local or server copy",
		Args:  cobra.ExactArgs(3),
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

			if err := engine.ResolveConflict(cmd.Context(), romID, args[1], args[2]); err != nil {
				return err
			}

			statusf("Resolved %s for ROM %d (%s)\n", args[1], romID, args[2])

			return nil
		},
	}
}
