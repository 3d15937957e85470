package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/breeze-rmm/screenbridge/internal/devicebridge"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List devices visible to the device bridge tool",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		devices, err := devicebridge.ListDevices(context.Background(), cfg.DeviceBridgePath)
		if err != nil {
			return err
		}
		if len(devices) == 0 {
			fmt.Println("no devices found")
			return nil
		}
		for _, d := range devices {
			if d.Model != "" {
				fmt.Printf("%-24s %-10s %s\n", d.Serial, d.State, d.Model)
			} else {
				fmt.Printf("%-24s %-10s\n", d.Serial, d.State)
			}
		}
		return nil
	},
}
