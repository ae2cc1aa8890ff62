// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package dsn validates and normalizes the connection strings nort accepts
// for its account directory (PostgreSQL) and session store (Redis).
package dsn

import (
	"fmt"
	"net"
	"strings"
)

// Kind is the type of backing store a DSN points at.
type Kind string

const (
	KindPostgres Kind = "postgres"
	KindRedis    Kind = "redis"
	KindUnknown  Kind = "unknown"
)

// Info contains parsed information from a DSN string.
type Info struct {
	Kind     Kind
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Params   map[string]string
	Original string
}

// Address returns host:port.
func (i *Info) Address() string {
	return net.JoinHostPort(i.Host, i.Port)
}

// Redacted describes the target without credentials, for logs and banners.
func (i *Info) Redacted() string {
	var b strings.Builder
	b.WriteString(string(i.Kind))
	b.WriteString("://")
	if i.User != "" {
		b.WriteString(i.User)
		if i.Password != "" {
			b.WriteString(":****")
		}
		b.WriteString("@")
	}
	b.WriteString(i.Address())
	if i.Database != "" {
		b.WriteString("/")
		b.WriteString(i.Database)
	}
	return b.String()
}

// ParseError represents an error that occurred during DSN parsing.
type ParseError struct {
	Kind   Kind
	Reason string
	Hint   string
}

func (e *ParseError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("invalid %s DSN: %s\nHint: %s", e.Kind, e.Reason, e.Hint)
	}
	return fmt.Sprintf("invalid %s DSN: %s", e.Kind, e.Reason)
}

func parseError(kind Kind, reason, hint string) *ParseError {
	return &ParseError{Kind: kind, Reason: reason, Hint: hint}
}
