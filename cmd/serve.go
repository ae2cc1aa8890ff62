// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"nort/cli/internal/app"
	"nort/cli/internal/logging"
	"nort/cli/internal/server"

	"github.com/spf13/cobra"
)

var serveAddr string

// serveCmd runs the /api server in front of the configured upstream binding.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the NORT /api routes",
	Long: `The serve command starts the HTTP server the mobile app and clients on the api
transport talk to. It proxies login, signup, logout and "me" to the configured
upstream: the hosted identity service (appwrite) or the self-hosted account
directory (postgres).

Logs are written to stderr as JSON. The server stops gracefully on SIGINT or SIGTERM.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Server.ListenAddr = serveAddr
		}
		if err := cfg.ValidateServer(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		level := cfg.LogLevel
		if level == "" {
			level = "info"
		}
		if verbose {
			level = "debug"
		}
		log := logging.New(logging.Options{Level: level, JSON: true, Writer: os.Stderr})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		up, closeUp, err := app.NewUpstream(ctx, cfg, log, nil)
		if err != nil {
			return err
		}
		defer closeUp()

		router := server.NewRouter(server.Options{
			Upstream:       up,
			Logger:         log,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			SecureCookies:  cfg.Server.SecureCookies,
			SessionTTL:     cfg.Database.SessionTTL.Std(),
			Version:        Version,
		})
		log.Info("starting api server", log.Args("transport", string(cfg.Transport), "addr", cfg.Server.ListenAddr))
		return server.ListenAndServe(ctx, cfg.Server.ListenAddr, router, log)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.listen_addr)")
	rootCmd.AddCommand(serveCmd)
}
