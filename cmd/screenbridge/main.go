package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/breeze-rmm/screenbridge/internal/config"
	"github.com/breeze-rmm/screenbridge/internal/logging"
)

var version = "0.1.0"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "screenbridge",
	Short: "Mirror and remote-control a device over a USB or network bridge",
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("screenbridge v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/screenbridge/config.yaml)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logging.L("main").Error("command failed", logging.KeyError, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	var output *logging.RotatingWriter
	if cfg.LogFile != "" {
		output, err = logging.NewRotatingWriter(cfg.LogFile, cfg.LogMaxSizeMB, cfg.LogMaxBackups)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
	}
	if output != nil {
		logging.Init(cfg.LogFormat, cfg.LogLevel, logging.TeeWriter(os.Stdout, output))
	} else {
		logging.Init(cfg.LogFormat, cfg.LogLevel, os.Stdout)
	}

	return cfg, nil
}
