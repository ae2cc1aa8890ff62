// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package accountdb is a self-hosted identity service: accounts in Postgres,
// bcrypt password hashes, and sessions in Redis or Postgres. A Directory
// implements backend.API, so the gateway and the API server can run against it
// in place of the hosted service.
package accountdb

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"nort/cli/internal/backend"
	"nort/cli/internal/dsn"
	"nort/cli/internal/logging"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pterm/pterm"
	"github.com/redis/go-redis/v9"
)

// DB is the subset of *pgxpool.Pool the directory uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DefaultSessionTTL is used when Options.SessionTTL is zero.
const DefaultSessionTTL = 30 * 24 * time.Hour

// DefaultSweepInterval is how often expired Postgres sessions are deleted.
const DefaultSweepInterval = time.Hour

const uniqueViolation = "23505"

const (
	sqlInsertAccount = `INSERT INTO nort_accounts (id, email, name, password_hash, prefs, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	sqlAccountByEmail = `SELECT id::text, password_hash FROM nort_accounts WHERE email = $1`
	sqlAccountByID    = `SELECT id::text, email, name, prefs, created_at FROM nort_accounts WHERE id = $1`
	sqlUpdatePrefs    = `UPDATE nort_accounts SET prefs = $2 WHERE id = $1
		RETURNING id::text, email, name, prefs, created_at`
)

// Directory implements backend.API over Postgres.
type Directory struct {
	db       DB
	sessions SessionStore
	ttl      time.Duration
	now      func() time.Time
	log      *pterm.Logger
}

var (
	_ backend.API          = (*Directory)(nil)
	_ backend.PrefsUpdater = (*Directory)(nil)
)

// New creates a Directory over an open database and session store.
func New(db DB, sessions SessionStore, ttl time.Duration, log *pterm.Logger) *Directory {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Directory{db: db, sessions: sessions, ttl: ttl, now: time.Now, log: log}
}

// Options configure Open.
type Options struct {
	DatabaseURL string
	// RedisURL selects Redis for sessions. Empty keeps sessions in Postgres.
	RedisURL   string
	SessionTTL time.Duration

	// SweepInterval applies to Postgres sessions only; Redis expires keys itself.
	SweepInterval time.Duration
	Logger        *pterm.Logger
}

// Open connects to Postgres (and Redis when configured), ensures the schema
// and returns a Directory plus a function releasing its connections.
func Open(ctx context.Context, opts Options) (*Directory, func(), error) {
	pgURL, err := dsn.Postgres(opts.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	target := "postgres"
	if info, err := dsn.ParseInfo(opts.DatabaseURL); err == nil {
		target = info.Redacted()
	}
	pool, err := pgxpool.New(ctx, pgURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	closers := []func(){pool.Close}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if err := pool.Ping(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("ping %s: %w", target, err)
	}
	if err := EnsureSchema(ctx, pool); err != nil {
		cleanup()
		return nil, nil, err
	}

	var sessions SessionStore = NewPGSessions(pool)
	if opts.RedisURL != "" {
		ropts, err := redis.ParseURL(opts.RedisURL)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(ropts)
		closers = append(closers, func() { _ = client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		sessions = NewRedisSessions(client)
	}

	dir := New(pool, sessions, opts.SessionTTL, opts.Logger)
	closers = append(closers, dir.StartSweeper(opts.SweepInterval))
	dir.log.Info("account directory ready", dir.log.Args("database", target, "redis_sessions", opts.RedisURL != ""))
	return dir, cleanup, nil
}

type sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// StartSweeper deletes expired sessions now and then every interval until the
// returned function is called. Stores without a Sweep method expire entries
// on their own, and for them it does nothing.
func (d *Directory) StartSweeper(interval time.Duration) func() {
	sw, ok := d.sessions.(sweeper)
	if !ok {
		return func() {}
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			d.sweep(ctx, sw)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}

func (d *Directory) sweep(ctx context.Context, sw sweeper) {
	n, err := sw.Sweep(ctx)
	if err != nil {
		if ctx.Err() == nil {
			d.log.Warn("session sweep failed", d.log.Args("error", err.Error()))
		}
		return
	}
	if n > 0 {
		d.log.Debug("expired sessions deleted", d.log.Args("count", n))
	}
}

// CreateSession verifies credentials and starts a session.
func (d *Directory) CreateSession(ctx context.Context, email, password string) (backend.Session, error) {
	email = normalizeEmail(email)
	var id, hash string
	err := d.db.QueryRow(ctx, sqlAccountByEmail, email).Scan(&id, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return backend.Session{}, fmt.Errorf("create-session: %w", backend.ErrUnauthorized)
	}
	if err != nil {
		return backend.Session{}, fmt.Errorf("create-session: %w", err)
	}
	if !VerifyPassword(hash, password) {
		return backend.Session{}, fmt.Errorf("create-session: %w", backend.ErrUnauthorized)
	}

	token, err := newToken()
	if err != nil {
		return backend.Session{}, err
	}
	now := d.now().UTC()
	s := Session{Token: token, AccountID: id, CreatedAt: now, ExpiresAt: now.Add(d.ttl)}
	if err := d.sessions.Create(ctx, s); err != nil {
		return backend.Session{}, fmt.Errorf("create-session: %w", err)
	}
	d.log.Debug("session created", d.log.Args("account", id))
	return backend.Session{Token: token, UserID: id, ExpiresAt: s.ExpiresAt}, nil
}

// GetAccount resolves the account behind a session token.
func (d *Directory) GetAccount(ctx context.Context, token string) (backend.Account, error) {
	s, err := d.session(ctx, token)
	if err != nil {
		return backend.Account{}, fmt.Errorf("get-account: %w", err)
	}
	acct, err := scanAccount(d.db.QueryRow(ctx, sqlAccountByID, s.AccountID))
	if errors.Is(err, pgx.ErrNoRows) {
		// Account removed while the session lived.
		_ = d.sessions.Delete(ctx, token)
		return backend.Account{}, fmt.Errorf("get-account: %w", backend.ErrUnauthorized)
	}
	if err != nil {
		return backend.Account{}, fmt.Errorf("get-account: %w", err)
	}
	return acct, nil
}

// DeleteSession ends a session. Unknown tokens are not an error.
func (d *Directory) DeleteSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := d.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("delete-session: %w", err)
	}
	return nil
}

// CreateAccount registers an account. Duplicate emails yield
// backend.ErrConflict; malformed emails and weak passwords backend.ErrInvalid.
func (d *Directory) CreateAccount(ctx context.Context, in backend.NewAccount) (backend.Account, error) {
	email := normalizeEmail(in.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return backend.Account{}, fmt.Errorf("create-account: invalid email: %w", backend.ErrInvalid)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return backend.Account{}, fmt.Errorf("create-account: name is required: %w", backend.ErrInvalid)
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return backend.Account{}, fmt.Errorf("create-account: %w", err)
	}

	acct := backend.Account{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		Prefs:     map[string]any{},
		CreatedAt: d.now().UTC(),
	}
	if in.Role != "" {
		acct.Prefs["role"] = in.Role
	}
	prefs, err := json.Marshal(acct.Prefs)
	if err != nil {
		return backend.Account{}, err
	}

	_, err = d.db.Exec(ctx, sqlInsertAccount, acct.ID, acct.Email, acct.Name, hash, prefs, acct.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return backend.Account{}, fmt.Errorf("create-account: email already registered: %w", backend.ErrConflict)
	}
	if err != nil {
		return backend.Account{}, fmt.Errorf("create-account: %w", err)
	}
	d.log.Info("account created", d.log.Args("account", acct.ID))
	return acct, nil
}

// UpdatePrefs replaces the preferences of the session's account.
func (d *Directory) UpdatePrefs(ctx context.Context, token string, prefs map[string]any) (backend.Account, error) {
	s, err := d.session(ctx, token)
	if err != nil {
		return backend.Account{}, fmt.Errorf("update-prefs: %w", err)
	}
	if prefs == nil {
		prefs = map[string]any{}
	}
	raw, err := json.Marshal(prefs)
	if err != nil {
		return backend.Account{}, fmt.Errorf("update-prefs: %w", backend.ErrInvalid)
	}
	acct, err := scanAccount(d.db.QueryRow(ctx, sqlUpdatePrefs, s.AccountID, raw))
	if err != nil {
		return backend.Account{}, fmt.Errorf("update-prefs: %w", err)
	}
	return acct, nil
}

// session loads a live session or returns backend.ErrUnauthorized.
func (d *Directory) session(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, backend.ErrUnauthorized
	}
	s, err := d.sessions.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, backend.ErrUnauthorized
	}
	if !d.now().Before(s.ExpiresAt) {
		_ = d.sessions.Delete(ctx, token)
		return nil, backend.ErrUnauthorized
	}
	return s, nil
}

func scanAccount(row pgx.Row) (backend.Account, error) {
	var (
		a     backend.Account
		prefs []byte
	)
	if err := row.Scan(&a.ID, &a.Email, &a.Name, &prefs, &a.CreatedAt); err != nil {
		return backend.Account{}, err
	}
	if len(prefs) > 0 {
		if err := json.Unmarshal(prefs, &a.Prefs); err != nil {
			return backend.Account{}, fmt.Errorf("decode prefs: %w", err)
		}
	}
	return a, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
