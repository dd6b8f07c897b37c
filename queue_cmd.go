package main

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func newQueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and retry failed sync operations",
	}

	cmd.AddCommand(newQueueListCmd())
	cmd.AddCommand(newQueueRetryCmd())
	cmd.AddCommand(newQueueClearCmd())

	return cmd
}

func newQueueListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List queued sync failures",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			engine, cleanup, err := buildLocalEngine()
			if err != nil {
				return err
			}
			defer cleanup()

			failures := engine.QueuedFailures()

			if flagJSON {
				return printJSON(failures)
			}

			if len(failures) == 0 {
				statusf("Offline queue is empty\n")
				return nil
			}

			rows := make([][]string, 0, len(failures))
			for _, f := range failures {
				rows = append(rows, []string{
					strconv.FormatInt(f.RomID, 10),
					f.Filename,
					string(f.Direction),
					strconv.Itoa(f.RetryCount),
					f.Error,
				})
			}

			printTable(os.Stdout, []string{"ROM", "FILE", "DIRECTION", "RETRIES", "LAST ERROR"}, rows)

			return nil
		},
	}
}

func newQueueRetryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retry <rom_id> <filename>",
		Short: "Retry one queued failure now",
		Args:  cobra.ExactArgs(2),
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

			return reportResult(engine.RetryFailedSync(cmd.Context(), romID, args[1]))
		},
	}
}

func newQueueClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop all queued failures",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			engine, cleanup, err := buildLocalEngine()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := engine.ClearOfflineQueue(); err != nil {
				return err
			}

			statusf("Offline queue cleared\n")

			return nil
		},
	}
}
