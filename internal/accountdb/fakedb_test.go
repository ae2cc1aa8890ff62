// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

package accountdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeDB understands exactly the statements this package issues.
type fakeDB struct {
	mu       sync.Mutex
	accounts map[string]*fakeAccount // by id
	sessions map[string]Session
	executed []string
	err      error
}

type fakeAccount struct {
	id, email, name, hash string
	prefs                 []byte
	created               time.Time
}

func newFakeDB() *fakeDB {
	return &fakeDB{accounts: map[string]*fakeAccount{}, sessions: map[string]Session{}}
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.executed = append(f.executed, sql)
	if f.err != nil {
		return pgconn.CommandTag{}, f.err
	}

	switch sql {
	case sqlInsertAccount:
		email := args[1].(string)
		for _, a := range f.accounts {
			if a.email == email {
				return pgconn.CommandTag{}, &pgconn.PgError{Code: uniqueViolation, Message: "duplicate key"}
			}
		}
		f.accounts[args[0].(string)] = &fakeAccount{
			id: args[0].(string), email: email, name: args[2].(string), hash: args[3].(string),
			prefs: args[4].([]byte), created: args[5].(time.Time),
		}
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	case sqlInsertSession:
		s := Session{Token: args[0].(string), AccountID: args[1].(string), CreatedAt: args[2].(time.Time), ExpiresAt: args[3].(time.Time)}
		f.sessions[s.Token] = s
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	case sqlDeleteSession:
		n := len(f.sessions)
		delete(f.sessions, args[0].(string))
		return pgconn.NewCommandTag(fmt.Sprintf("DELETE %d", n-len(f.sessions))), nil
	case sqlSweepSessions:
		cutoff := args[0].(time.Time)
		var n int
		for k, s := range f.sessions {
			if !s.ExpiresAt.After(cutoff) {
				delete(f.sessions, k)
				n++
			}
		}
		return pgconn.NewCommandTag(fmt.Sprintf("DELETE %d", n)), nil
	default:
		return pgconn.NewCommandTag("CREATE"), nil
	}
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return fakeRow{err: f.err}
	}

	switch sql {
	case sqlAccountByEmail:
		for _, a := range f.accounts {
			if a.email == args[0].(string) {
				return fakeRow{vals: []any{a.id, a.hash}}
			}
		}
	case sqlAccountByID:
		if a, ok := f.accounts[args[0].(string)]; ok {
			return fakeRow{vals: []any{a.id, a.email, a.name, a.prefs, a.created}}
		}
	case sqlUpdatePrefs:
		if a, ok := f.accounts[args[0].(string)]; ok {
			a.prefs = args[1].([]byte)
			return fakeRow{vals: []any{a.id, a.email, a.name, a.prefs, a.created}}
		}
	case sqlSelectSession:
		if s, ok := f.sessions[args[0].(string)]; ok && s.ExpiresAt.After(args[1].(time.Time)) {
			return fakeRow{vals: []any{s.Token, s.AccountID, s.CreatedAt, s.ExpiresAt}}
		}
	}
	return fakeRow{err: pgx.ErrNoRows}
}

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.vals) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(r.vals))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r.vals[i].(string)
		case *[]byte:
			*p = append([]byte(nil), r.vals[i].([]byte)...)
		case *time.Time:
			*p = r.vals[i].(time.Time)
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}
