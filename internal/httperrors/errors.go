// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors turns transport failures into friendly terminal messages.
package httperrors

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"

	"nort/cli/internal/backend"

	"github.com/pterm/pterm"
)

// Class is a coarse category of network failure.
type Class int

const (
	ClassOther Class = iota
	ClassTimeout
	ClassDNS
	ClassRefused
	ClassTLS
	ClassServer
)

func (c Class) String() string {
	switch c {
	case ClassTimeout:
		return "timeout"
	case ClassDNS:
		return "dns"
	case ClassRefused:
		return "connection_refused"
	case ClassTLS:
		return "tls"
	case ClassServer:
		return "server"
	default:
		return "other"
	}
}

// Classify inspects err and returns its category. Checks run from the most
// specific to the least.
func Classify(err error) Class {
	switch {
	case err == nil:
		return ClassOther
	case isTimeoutError(err):
		return ClassTimeout
	case isDNSError(err):
		return ClassDNS
	case isConnectionRefusedError(err):
		return ClassRefused
	case isTLSError(err):
		return ClassTLS
	case isServerError(err):
		return ClassServer
	default:
		return ClassOther
	}
}

// FormatNetworkError prints a friendly explanation of err and returns it
// wrapped. action describes what was being attempted ("logging in"); host is
// the service that was contacted.
func FormatNetworkError(err error, action, host string) error {
	if err == nil {
		return nil
	}
	if host == "" {
		host = "the NORT service"
	}
	switch Classify(err) {
	case ClassTimeout:
		showTimeoutError(action, host)
	case ClassDNS:
		showDNSError(action, host)
	case ClassRefused:
		showConnectionRefusedError(action, host)
	case ClassTLS:
		showTLSError(action)
	case ClassServer:
		showServerError(action, host)
	default:
		showGenericError(action, host, err.Error())
	}
	return fmt.Errorf("network error: %w", err)
}

func isTimeoutError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "timeout") || strings.Contains(s, "deadline exceeded")
}

func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func isConnectionRefusedError(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

func isTLSError(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "tls") ||
		strings.Contains(s, "x509") ||
		strings.Contains(s, "certificate") ||
		strings.Contains(s, "handshake")
}

func isServerError(err error) bool {
	var se *backend.StatusError
	if errors.As(err, &se) {
		return se.Status >= 500
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "internal server error") ||
		strings.Contains(s, "bad gateway") ||
		strings.Contains(s, "service unavailable") ||
		strings.Contains(s, "gateway timeout")
}

func showTimeoutError(action, host string) {
	pterm.Printf("⏱️  Connection timeout while %s\n", action)
	pterm.Println()
	pterm.Printf("%s took too long to respond. This could mean:\n", host)
	pterm.Println("  • Slow internet connection")
	pterm.Println("  • The service is under heavy load")
	pterm.Println("  • A firewall is dropping the connection")
	pterm.Println()
	pterm.Println("Please try again in a few moments.")
	pterm.Println()
}

func showDNSError(action, host string) {
	pterm.Printf("🌐 Cannot resolve server address while %s\n", action)
	pterm.Println()
	pterm.Printf("Unable to look up %s. Please check:\n", host)
	pterm.Println("  • Your internet connection is working")
	pterm.Println("  • The endpoint in your config or NORT_API_URL / NORT_ENDPOINT")
	pterm.Println()
}

func showConnectionRefusedError(action, host string) {
	pterm.Printf("🚫 Connection refused while %s\n", action)
	pterm.Println()
	pterm.Printf("%s is not accepting connections. This could mean:\n", host)
	pterm.Println("  • The API server is not running (start it with `nort serve`)")
	pterm.Println("  • Wrong server address or port")
	pterm.Println()
}

func showTLSError(action string) {
	pterm.Printf("🔒 Secure connection failed while %s\n", action)
	pterm.Println()
	pterm.Println("Try:")
	pterm.Println("  • Check your system date and time")
	pterm.Println("  • Verify network proxy settings")
	pterm.Println()
}

func showServerError(action, host string) {
	pterm.Printf("⚠️  Server error while %s\n", action)
	pterm.Println()
	pterm.Printf("%s encountered an internal error. Please try again in a few minutes.\n", host)
	pterm.Println()
}

func showGenericError(action, host, details string) {
	pterm.Printf("❌ Cannot reach %s while %s\n", host, action)
	pterm.Println()
	if details != "" {
		if len(details) > 100 {
			details = details[:100] + "..."
		}
		pterm.Debug.Printf("Technical details: %s\n", details)
		pterm.Println()
	}
}

// ExtractHostFromURL extracts the hostname from a URL for error messages.
func ExtractHostFromURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return "server"
	}
	return u.Host
}
