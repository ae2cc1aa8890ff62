// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

package accountdb

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS nort_accounts (
		id            uuid PRIMARY KEY,
		email         text NOT NULL UNIQUE,
		name          text NOT NULL,
		password_hash text NOT NULL,
		prefs         jsonb NOT NULL DEFAULT '{}'::jsonb,
		created_at    timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS nort_sessions (
		token      text PRIMARY KEY,
		account_id uuid NOT NULL REFERENCES nort_accounts(id) ON DELETE CASCADE,
		created_at timestamptz NOT NULL DEFAULT now(),
		expires_at timestamptz NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS nort_sessions_expires_at ON nort_sessions (expires_at)`,
}

// EnsureSchema creates the account and session tables when missing.
func EnsureSchema(ctx context.Context, db DB) error {
	for i, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
