// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for the NORT client.
// It implements account commands (login, signup, logout, whoami), an
// interactive shell that walks the app's screens behind the route guard,
// and the /api server, using the Cobra CLI framework with pterm output.
package cmd

import (
	"context"
	"fmt"
	"os"

	"nort/cli/internal/app"
	"nort/cli/internal/backend"
	"nort/cli/internal/config"
	"nort/cli/internal/logging"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	showVersion bool
	verbose     bool
	configPath  string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:           "nort",
	Short:         "NORT client for account access and the NORT /api server",
	Long:          `nort signs you in to NORT, keeps the session in the OS keychain, and can serve the /api routes the mobile app talks to.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			return runVersion(cmd)
		}
		return cmd.Help()
	},
}

// Execute runs the CLI application.
func Execute() {
	backend.Version = Version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI and backend version information")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.json (default: XDG config dir)")
}

// loadConfig reads the config file selected by --config, or the default one.
func loadConfig() (config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

// newLogger builds the console logger for interactive commands.
func newLogger(cfg config.Config) *pterm.Logger {
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	if level == "" {
		level = "warn"
	}
	return logging.New(logging.Options{Level: level})
}

// openApp loads configuration and builds the per-process container.
// The caller must Close it.
func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, app.Options{Config: cfg, Logger: newLogger(cfg)})
}
