// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"

	"nort/cli/internal/logging"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// logoutCmd represents the logout command for clearing authentication state.
// It deletes the remote session (best-effort) and always removes the local one.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session and remove saved credentials",
	Long: `The logout command deletes the current session on the server and removes the
session token and cached account summary from the OS keychain.

Local credentials are removed even when the server cannot be reached.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		a.Gateway.Bootstrap(ctx)
		res := a.Gateway.Logout(ctx)
		if res.Err != nil {
			pterm.Warning.Println(logging.PresentError("Server logout failed", unwrapCause(res.Err)))
		}
		if err := a.Keychain.ClearAll(); err != nil {
			a.Log.Warn("could not clear keychain", a.Log.Args("error", err.Error()))
		}

		fmt.Println("✅ Logged out. Saved credentials have been removed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
