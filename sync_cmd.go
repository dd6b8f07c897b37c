package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	syncengine "github.com/romsync/romsync-go/internal/sync"
)

// parseRomID parses a positional ROM id argument.
func parseRomID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid rom id %q", arg)
	}

	return id, nil
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync [rom_id]",
		Short: "Sync saves for one ROM or the whole library",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, cleanup, err := buildEngine()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()

			if len(args) == 1 {
				romID, err := parseRomID(args[0])
				if err != nil {
					return err
				}

				return reportResult(engine.SyncRomSaves(ctx, romID))
			}

			statusf("Syncing all installed ROMs...\n")

			return reportResult(engine.SyncAllSaves(ctx))
		},
	}
}

// reportResult prints a sync result and maps failure to a non-zero exit.
func reportResult(result syncengine.Result) error {
	if flagJSON {
		if err := printJSON(result); err != nil {
			return err
		}
	} else {
		if result.Message != "" {
			statusf("%s\n", result.Message)
		}

		if result.RomsChecked > 0 {
			statusf("Checked %d ROMs\n", result.RomsChecked)
		}

		statusf("Synced %d file(s)\n", result.Synced)

		if result.Conflicts > 0 {
			statusf("%d conflict(s) pending; run 'romsync conflicts list'\n", result.Conflicts)
		}

		for _, msg := range result.Errors {
			fmt.Fprintf(os.Stderr, "error: %s\n", msg)
		}
	}

	if !result.Success {
		return fmt.Errorf("sync completed with %d error(s)", len(result.Errors))
	}

	return nil
}
