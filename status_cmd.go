package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <rom_id>",
		Short: "Show per-file sync standing for a ROM",
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

			status := engine.SaveStatus(cmd.Context(), romID)

			if flagJSON {
				return printJSON(status)
			}

			if status.ServerError != "" {
				fmt.Fprintf(os.Stderr, "warning: server unavailable, showing local view: %s\n", status.ServerError)
			}

			if len(status.Files) == 0 {
				statusf("No save files found for ROM %d\n", romID)
				return nil
			}

			rows := make([][]string, 0, len(status.Files))
			for _, f := range status.Files {
				serverID := "-"
				if f.ServerSaveID != 0 {
					serverID = strconv.FormatInt(f.ServerSaveID, 10)
				}

				rows = append(rows, []string{f.Filename, statusColor(f.Status), serverID})
			}

			printTable(os.Stdout, []string{"FILE", "STATUS", "SERVER ID"}, rows)

			return nil
		},
	}
}
