// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"nort/cli/internal/app"
	"nort/cli/internal/guard"
	"nort/cli/internal/terminal"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// shellCmd opens an interactive session that walks the app's screens. Every
// navigation passes through the route guard, so protected screens are only
// reachable while signed in.
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Browse NORT screens interactively behind the sign-in guard",
	Long: `The shell command starts an interactive prompt positioned on the app's screens.
Use "go <path>" to move between screens; signing in or out moves you to the
matching entry screen automatically. Type "help" for the command list.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		sh := newShell(a, terminal.NewPrompter(), os.Stdout)
		sh.start(ctx)
		return sh.run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

// shell is the read-eval loop behind `nort shell`. It is the guard's navigator.
type shell struct {
	app *app.App
	in  *terminal.Prompter
	out io.Writer
	// clear erases echoed secrets; nil when not attached to a terminal.
	clear func(int)
}

func newShell(a *app.App, in *terminal.Prompter, out io.Writer) *shell {
	sh := &shell{app: a, in: in, out: out}
	if terminal.IsInteractive() && out == os.Stdout {
		sh.clear = terminal.ClearPreviousLines
	}
	return sh
}

// Replace implements guard.Navigator.
func (s *shell) Replace(target guard.Location) {
	fmt.Fprintf(s.out, "↪ %s\n", target.Path)
}

// start attaches the guard at the protected entry and restores any stored
// session. The guard redirects once the store is initialized.
func (s *shell) start(ctx context.Context) {
	s.app.AttachGuard(s, guard.ProtectedEntry)
	if res := s.app.Gateway.Bootstrap(ctx); res.OK() {
		fmt.Fprintln(s.out, getRandomLoginGreeting(res.Identity.DisplayName()))
	}
}

func (s *shell) location() guard.Location {
	if g := s.app.Guard(); g != nil {
		return g.Current()
	}
	return guard.Location{}
}

func (s *shell) run(ctx context.Context) error {
	for {
		line, err := s.in.Line(fmt.Sprintf("nort %s> ", s.location().Path))
		if errors.Is(err, terminal.ErrNoInput) {
			fmt.Fprintln(s.out)
			return nil
		}
		if err != nil {
			return err
		}
		quit, err := s.exec(ctx, line)
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
}

// exec runs one shell command. It reports whether the shell should exit.
func (s *shell) exec(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	switch fields[0] {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		s.help()
	case "routes", "ls":
		s.routes()
	case "where", "pwd":
		fmt.Fprintln(s.out, s.location().Path)
	case "go", "cd":
		if len(fields) < 2 {
			fmt.Fprintln(s.out, "usage: go <path>")
			return false, nil
		}
		s.navigate(fields[1])
	case "login":
		return false, s.login(ctx, fields[1:])
	case "signup":
		return false, s.signup(ctx, fields[1:])
	case "logout":
		s.logout(ctx)
	case "whoami":
		if id := s.app.Store.Identity(); id != nil {
			fmt.Fprintf(s.out, "%s <%s> %s\n", id.DisplayName(), id.Email, id.Role())
		} else {
			fmt.Fprintln(s.out, "not signed in")
		}
	default:
		fmt.Fprintf(s.out, "unknown command %q, type help\n", fields[0])
	}
	return false, nil
}

func (s *shell) navigate(path string) {
	loc, ok := guard.Lookup(path)
	if !ok {
		fmt.Fprintf(s.out, "no such screen %s\n", path)
		return
	}
	g := s.app.Guard()
	if g == nil {
		return
	}
	if d := g.Navigate(loc); d.Phase == guard.Pending {
		fmt.Fprintln(s.out, "still checking your session")
	}
}

func (s *shell) login(ctx context.Context, args []string) error {
	email, err := s.argOrPrompt(args, 0, "Email: ")
	if err != nil {
		return err
	}
	password, err := s.secret("Password: ")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, shellTimeout)
	defer cancel()
	res := s.app.Gateway.Login(ctx, email, password)
	if !res.OK() {
		fmt.Fprintln(s.out, failureLine(res.Err))
		return nil
	}
	fmt.Fprintln(s.out, getRandomLoginGreeting(res.Identity.DisplayName()))
	return nil
}

func (s *shell) signup(ctx context.Context, args []string) error {
	email, err := s.argOrPrompt(args, 0, "Email: ")
	if err != nil {
		return err
	}
	name, err := s.argOrPrompt(args, 1, "Display name: ")
	if err != nil {
		return err
	}
	role, err := s.argOrPrompt(args, 2, "Role ["+roleList()+"]: ")
	if err != nil {
		return err
	}
	password, err := s.secret("Password: ")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, shellTimeout)
	defer cancel()
	res := s.app.Gateway.Signup(ctx, email, password, name, role)
	if !res.OK() {
		fmt.Fprintln(s.out, failureLine(res.Err))
		return nil
	}
	fmt.Fprintf(s.out, "🎉 Welcome to NORT, %s!\n", res.Identity.DisplayName())
	return nil
}

func (s *shell) logout(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, shellTimeout)
	defer cancel()
	if res := s.app.Gateway.Logout(ctx); res.Err != nil {
		fmt.Fprintf(s.out, "server logout failed (%s); signed out locally\n", message(res.Err))
		return
	}
	fmt.Fprintln(s.out, "signed out")
}

func (s *shell) argOrPrompt(args []string, i int, label string) (string, error) {
	if i < len(args) {
		return args[i], nil
	}
	return s.in.Line(label)
}

func (s *shell) secret(label string) (string, error) {
	pw, err := s.in.Secret(label)
	if err == nil && s.clear != nil {
		s.clear(len(label))
	}
	return pw, err
}

func (s *shell) help() {
	rows := pterm.TableData{
		{"Command", "Description"},
		{"go <path>", "open a screen"},
		{"routes", "list screens"},
		{"where", "show the current screen"},
		{"login [email]", "sign in"},
		{"signup [email] [name] [role]", "create an account and sign in"},
		{"logout", "sign out"},
		{"whoami", "show the signed-in account"},
		{"quit", "leave the shell"},
	}
	s.table(rows)
}

func (s *shell) routes() {
	rows := pterm.TableData{{"Path", "Access"}}
	for _, r := range guard.Routes() {
		access := "signed in"
		if r.Public {
			access = "signed out"
		}
		rows = append(rows, []string{r.Path, access})
	}
	s.table(rows)
}

func (s *shell) table(rows pterm.TableData) {
	out, err := pterm.DefaultTable.WithHasHeader().WithData(rows).Srender()
	if err != nil {
		return
	}
	fmt.Fprintln(s.out, out)
}

// failureLine renders a failed result on one line for the shell.
func failureLine(err error) string {
	return "✗ " + message(err)
}

// shellTimeout bounds a single remote call issued from the shell.
const shellTimeout = 30 * time.Second
