// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"
	"time"

	"nort/cli/internal/app"
	"nort/cli/internal/backend"

	"github.com/spf13/cobra"
)

var (
	// Version holds the CLI version information.
	// This value is typically set at build time using -ldflags.
	Version = "0.0.0-dev"
)

type versioner interface {
	GetVersion(ctx context.Context) (string, error)
}

// runVersion prints the CLI version and, when the configured binding can
// report one, the server version.
func runVersion(cmd *cobra.Command) error {
	fmt.Printf("nort %s\n", Version)

	cfg, err := loadConfig()
	if err != nil || cfg.Transport != backend.TransportAPI {
		return nil
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	up, closeUp, err := app.NewUpstream(ctx, cfg, newLogger(cfg), nil)
	if err != nil {
		return nil
	}
	defer closeUp()

	serverVersion := "unknown"
	if v, ok := up.(versioner); ok {
		if s, err := v.GetVersion(ctx); err == nil && s != "" {
			serverVersion = s
		}
	}
	fmt.Printf("server %s\n", serverVersion)
	return nil
}

// versionCmd prints the same information as --version.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show CLI and server version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVersion(cmd)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
