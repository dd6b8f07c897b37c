package main

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	syncengine "github.com/romsync/romsync-go/internal/sync"
)

func newHistoryCmd() *cobra.Command {
	var flagLimit int

	cmd := &cobra.Command{
		Use:   "history [rom_id]",
		Short: "Show recent sync activity",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			var romID int64

			if len(args) == 1 {
				id, err := parseRomID(args[0])
				if err != nil {
					return err
				}

				romID = id
			}

			logger := buildLogger()

			history, err := syncengine.OpenHistory(cfg.StateDir, logger)
			if err != nil {
				return err
			}
			defer history.Close()

			entries, err := history.Recent(romID, flagLimit)
			if err != nil {
				return err
			}

			if flagJSON {
				return printJSON(entries)
			}

			if len(entries) == 0 {
				statusf("No sync history yet\n")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				detail := formatSize(entry.SizeBytes)
				if entry.Error != "" {
					detail = entry.Error
				}

				rows = append(rows, []string{
					formatTime(entry.OccurredAt),
					strconv.FormatInt(entry.RomID, 10),
					entry.Filename,
					entry.Action,
					detail,
				})
			}

			printTable(os.Stdout, []string{"WHEN", "ROM", "FILE", "ACTION", "DETAIL"}, rows)

			logger.Debug("history listed", slog.Int("entries", len(entries)))

			return nil
		},
	}

	cmd.Flags().IntVar(&flagLimit, "limit", 50, "maximum entries to show")

	return cmd
}
