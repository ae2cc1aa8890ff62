// Package xdg resolves XDG Base Directory paths for nort.
//
// When the XDG environment variables are unset it falls back to the
// traditional ~/.config, ~/.local/state and ~/.local/share locations.
// Directories are created with private permissions.
package xdg

import (
	"os"
	"path/filepath"
)

const appDir = "nort"

// ConfigDir returns the XDG config directory for nort, creating it if missing.
// It falls back to ~/.config/nort when XDG_CONFIG_HOME is unset.
func ConfigDir() (string, error) {
	return dir("XDG_CONFIG_HOME", ".config")
}

// DataDir returns the XDG data directory for nort, creating it if missing.
// The encrypted file keyring lives here.
func DataDir() (string, error) {
	return dir("XDG_DATA_HOME", ".local", "share")
}

func dir(env string, fallback ...string) (string, error) {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(append([]string{home}, fallback...)...)
	}
	d := filepath.Join(base, appDir)
	if err := os.MkdirAll(d, 0o700); err != nil { // private dir
		return "", err
	}
	return d, nil
}
