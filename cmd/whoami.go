// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"

	"nort/cli/internal/backend"

	"github.com/spf13/cobra"
)

var whoamiOffline bool

// whoamiCmd represents the whoami command for displaying current authentication state.
// It restores the stored session against the server and shows the account.
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show current authenticated account",
	Long: `The whoami command resolves the stored session with the server and shows the
account behind it. With --offline, or when the server cannot be reached, it
falls back to the account summary cached at the last successful sign-in.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if !whoamiOffline {
			res := a.Gateway.Bootstrap(ctx)
			if res.OK() {
				printIdentity(res.Identity)
				return nil
			}
			cause := unwrapCause(res.Err)
			if cause == res.Err || backend.IsRejection(cause) {
				printNotLoggedIn()
				return nil
			}
			a.Log.Debug("server unreachable, using cached account", a.Log.Args("error", res.Err.Error()))
		}

		st, err := a.Flags.Cached()
		if err != nil || !st.LoggedIn {
			printNotLoggedIn()
			return nil
		}
		name := st.Name
		if name == "" {
			name = st.Email
		}
		fmt.Printf("👤 Current user: %s (cached)\n", name)
		return nil
	},
}

func init() {
	whoamiCmd.Flags().BoolVar(&whoamiOffline, "offline", false, "Show the cached account without contacting the server")
	rootCmd.AddCommand(whoamiCmd)
}
