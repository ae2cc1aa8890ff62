// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import "strings"

// Detect returns the kind of store a DSN refers to.
func Detect(raw string) Kind {
	lower := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return KindPostgres
	case isRedisScheme(lower):
		return KindRedis
	default:
		return KindUnknown
	}
}

// ParseInfo parses a DSN into its components.
func ParseInfo(raw string) (*Info, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, parseError(KindUnknown, "empty DSN", "provide a postgres:// or redis:// connection string")
	}
	switch Detect(raw) {
	case KindPostgres:
		return parsePostgres(raw)
	case KindRedis:
		return parseRedis(raw)
	default:
		return nil, parseError(KindUnknown, "unknown scheme", "use postgres://, postgresql://, redis:// or rediss://")
	}
}

// Postgres validates a PostgreSQL DSN and returns its canonical form.
func Postgres(raw string) (string, error) {
	info, err := ParseInfo(raw)
	if err != nil {
		return "", err
	}
	if info.Kind != KindPostgres {
		return "", parseError(KindPostgres, "not a PostgreSQL DSN", "use postgres:// or postgresql://")
	}
	return normalizePostgres(info), nil
}

// Redis validates a Redis URL. It is returned unchanged since go-redis
// parses it directly.
func Redis(raw string) (string, error) {
	info, err := ParseInfo(raw)
	if err != nil {
		return "", err
	}
	if info.Kind != KindRedis {
		return "", parseError(KindRedis, "not a Redis URL", "use redis:// or rediss://")
	}
	return info.Original, nil
}
