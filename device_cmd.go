package main

import (
	"github.com/spf13/cobra"
)

func newDeviceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "device",
		Short: "Show this device's sync identity",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			engine, cleanup, err := buildLocalEngine()
			if err != nil {
				return err
			}
			defer cleanup()

			identity, err := engine.EnsureDeviceRegistered()
			if err != nil {
				return err
			}

			if flagJSON {
				return printJSON(identity)
			}

			statusf("Device ID:   %s\n", identity.DeviceID)
			statusf("Device name: %s\n", identity.DeviceName)

			return nil
		},
	}
}
