// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"nort/cli/internal/session"
	"nort/cli/internal/terminal"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	signupEmail string
	signupName  string
	signupRole  string
)

// signupCmd registers a new account and signs in with it.
var signupCmd = &cobra.Command{
	Use:     "signup",
	Aliases: []string{"register"},
	Short:   "Create a NORT account and sign in",
	Long: `The signup command creates a NORT account with an email, password, display
name and role, then signs in with the new credentials.

Roles: ` + roleList() + `. The default is artist.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		p := terminal.NewPrompter()
		email, name := signupEmail, signupName
		if email == "" {
			if email, err = p.Line("Email: "); err != nil {
				return err
			}
		}
		if name == "" {
			if name, err = p.Line("Display name: "); err != nil {
				return err
			}
		}
		password, err := p.Secret("Password: ")
		if err != nil {
			return err
		}
		if terminal.IsInteractive() {
			confirm, err := p.Secret("Confirm password: ")
			if err != nil {
				return err
			}
			if confirm != password {
				pterm.Warning.Println("Passwords do not match.")
				return nil
			}
		}

		stop := startInlineSpinner(os.Stdout, "Creating your account", spinnerFrames, 120*time.Millisecond)
		res := a.Gateway.Signup(ctx, email, password, name, signupRole)
		stop()
		if !res.OK() {
			return reportFailure(a.Config, res, "creating your account")
		}
		fmt.Printf("🎉 Welcome to NORT, %s!\n", res.Identity.DisplayName())
		return nil
	},
}

func roleList() string {
	names := make([]string, len(session.Roles))
	for i, r := range session.Roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}

func init() {
	signupCmd.Flags().StringVarP(&signupEmail, "email", "e", "", "Account email (prompted when empty)")
	signupCmd.Flags().StringVarP(&signupName, "name", "n", "", "Display name (prompted when empty)")
	signupCmd.Flags().StringVarP(&signupRole, "role", "r", string(session.RoleArtist), "Account role")
	rootCmd.AddCommand(signupCmd)
}
