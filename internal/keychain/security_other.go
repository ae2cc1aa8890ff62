// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

//go:build !darwin

package keychain

import (
	"errors"

	"github.com/pterm/pterm"
)

var errNoSecurityCommand = errors.New("security backend only available on macOS")

// securityBackend is a stub for non-macOS platforms.
type securityBackend struct{}

func newSecurityBackend(*pterm.Logger) (*securityBackend, error) {
	return nil, errNoSecurityCommand
}

func (s *securityBackend) Set(string, string) error { return errNoSecurityCommand }

func (s *securityBackend) Get(string) (string, error) { return "", errNoSecurityCommand }

func (s *securityBackend) Delete(string) error { return errNoSecurityCommand }
