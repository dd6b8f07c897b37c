package main

import (
	"github.com/spf13/cobra"

	"github.com/romsync/romsync-go/internal/library"
)

func newPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check server reachability and credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}

			client := library.NewClient(cfg.ServerURL, cfg.Username, cfg.Password, nil, buildLogger())

			if err := client.Ping(cmd.Context()); err != nil {
				return err
			}

			statusf("Server OK: %s\n", cfg.ServerURL)

			return nil
		},
	}
}
