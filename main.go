// Package main is the entry point for the NORT CLI application.
// It signs users in to NORT and serves the /api routes.
package main

import (
	"nort/cli/cmd"
)

// main is the entry point for the NORT CLI application.
// It initializes and executes the command-line interface.
func main() {
	cmd.Execute()
}
