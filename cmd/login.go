// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"nort/cli/internal/terminal"

	"github.com/spf13/cobra"
)

var (
	loginEmail         string
	loginPasswordStdin bool
)

// loginCmd represents the login command.
// It exchanges email and password for a session, stores the session token in
// the OS keychain and greets the account.
var loginCmd = &cobra.Command{
	Use:     "login",
	Aliases: []string{"auth"},
	Short:   "Sign in with email and password",
	Long: `The login command signs in to NORT with an email and password. The session
token is stored in the OS keychain and reused by later commands until you log out.

If a stored session is still valid, the command reports the current account and
does nothing else. Use --password-stdin to read the password from a pipe.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if res := a.Gateway.Bootstrap(ctx); res.OK() {
			fmt.Printf("Already logged in as %s\n", res.Identity.DisplayName())
			return nil
		}

		p := terminal.NewPrompter()
		if loginPasswordStdin {
			p = terminal.NewPrompterFrom(os.Stdin, os.Stderr)
		}
		email := loginEmail
		if email == "" {
			if email, err = p.Line("Email: "); err != nil {
				return err
			}
		}
		password, err := p.Secret("Password: ")
		if err != nil {
			return err
		}

		stop := startInlineSpinner(os.Stdout, "Signing in", spinnerFrames, 120*time.Millisecond)
		res := a.Gateway.Login(ctx, email, password)
		stop()
		if !res.OK() {
			return reportFailure(a.Config, res, "logging in")
		}
		fmt.Println(getRandomLoginGreeting(res.Identity.DisplayName()))
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "Account email (prompted when empty)")
	loginCmd.Flags().BoolVar(&loginPasswordStdin, "password-stdin", false, "Read the password from stdin")
	rootCmd.AddCommand(loginCmd)
}
