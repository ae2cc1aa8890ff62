package cmd

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"sync"
	"time"

	"nort/cli/internal/backend"
	"nort/cli/internal/config"
	autherrors "nort/cli/internal/errors"
	"nort/cli/internal/gateway"
	"nort/cli/internal/httperrors"
	"nort/cli/internal/logging"
	"nort/cli/internal/session"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"
)

var spinnerFrames = []string{"|", "/", "-", "\\"}

// startInlineSpinner starts a simple inline spinner animation on a single line.
// It displays rotating animation frames followed by the provided text, updating
// the same line in the terminal. The cursor is hidden while it runs.
//
// Returns a function that stops the spinner and clears its line.
func startInlineSpinner(w io.Writer, text string, frames []string, interval time.Duration) func() {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	cursor.Hide()
	go func() {
		defer wg.Done()
		i := 0
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			line := fmt.Sprintf("%s %s", frames[i%len(frames)], text)
			select {
			case <-stop:
				fmt.Fprintf(w, "\r%*s\r", len(line), "")
				return
			case <-ticker.C:
				fmt.Fprintf(w, "\r%s", line)
				i++
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			wg.Wait()
			cursor.Show()
		})
	}
}

// upstreamHost names the service contacted by the configured binding.
func upstreamHost(cfg config.Config) string {
	switch cfg.Transport {
	case backend.TransportAPI:
		return httperrors.ExtractHostFromURL(cfg.API.BaseURL)
	case backend.TransportPostgres:
		return "the account database"
	default:
		return httperrors.ExtractHostFromURL(cfg.Appwrite.Endpoint)
	}
}

// reportFailure prints a failed gateway result and returns the error to
// surface from RunE. Rejections print a short message and return nil so the
// process exits cleanly.
func reportFailure(cfg config.Config, res gateway.Result, action string) error {
	switch res.Kind() {
	case autherrors.Validation:
		pterm.Warning.Println(message(res.Err))
		return nil
	case autherrors.AuthenticationFailed:
		pterm.Error.Println("Invalid email or password.")
		return nil
	case autherrors.AccountRejected:
		pterm.Error.Println(logging.PresentError("Account was not created", unwrapCause(res.Err)))
		return nil
	case autherrors.TransportFailed:
		return httperrors.FormatNetworkError(unwrapCause(res.Err), action, upstreamHost(cfg))
	default:
		return res.Err
	}
}

func unwrapCause(err error) error {
	var e *autherrors.E
	if errors.As(err, &e) && e.Err != nil {
		return e.Err
	}
	return err
}

func message(err error) string {
	var e *autherrors.E
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

func printNotLoggedIn() {
	fmt.Println("🔒 You're not logged in yet!")
	fmt.Println("   Run 'nort login' to get started.")
}

// getRandomLoginGreeting returns a random greeting phrase with the user's identifier
func getRandomLoginGreeting(identifier string) string {
	greetings := []string{
		"🎉 Welcome back, %s!",
		"✨ Great to see you, %s!",
		"🚀 You're all set, %s!",
		"👋 Hello %s! Ready to drop something new?",
		"💫 Successfully authenticated as %s",
		"🌟 Welcome aboard, %s!",
		"⚡ Logged in as %s - let's go!",
		"🎯 You're in, %s!",
		"🔓 Access granted! Welcome %s!",
	}
	return fmt.Sprintf(greetings[rand.IntN(len(greetings))], identifier)
}

// printIdentity renders the account card shown by whoami.
func printIdentity(id *session.Identity) {
	role := string(id.Role())
	if role == "" {
		role = "-"
	}
	body := fmt.Sprintf("Name:  %s\nEmail: %s\nRole:  %s\nID:    %s", id.Name, id.Email, role, id.ID)
	pterm.DefaultBox.WithTitle("👤 " + id.DisplayName()).Println(body)
}
