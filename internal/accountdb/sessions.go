// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

package accountdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
)

// Session is a server-side login session.
type Session struct {
	Token     string    `json:"token"`
	AccountID string    `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionStore keeps sessions keyed by token. Get returns (nil, nil) for
// unknown or expired tokens.
type SessionStore interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
}

// RedisSessions stores sessions as JSON values with a TTL.
type RedisSessions struct {
	client *redis.Client
	prefix string
}

// NewRedisSessions creates a Redis-backed session store.
func NewRedisSessions(client *redis.Client) *RedisSessions {
	return &RedisSessions{client: client, prefix: "nort:session:"}
}

func (r *RedisSessions) key(token string) string {
	return r.prefix + token
}

func (r *RedisSessions) Create(ctx context.Context, s Session) error {
	if s.Token == "" || s.AccountID == "" {
		return errors.New("session: missing token or account id")
	}
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return errors.New("session: expires_at must be in the future")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	return r.client.Set(ctx, r.key(s.Token), data, ttl).Err()
}

func (r *RedisSessions) Get(ctx context.Context, token string) (*Session, error) {
	val, err := r.client.Get(ctx, r.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(val, &s); err != nil {
		return nil, fmt.Errorf("session: unmarshal: %w", err)
	}
	return &s, nil
}

func (r *RedisSessions) Delete(ctx context.Context, token string) error {
	return r.client.Del(ctx, r.key(token)).Err()
}

// PGSessions stores sessions in the nort_sessions table. Expired rows are
// ignored on read and removed on delete or by Sweep.
type PGSessions struct {
	db  DB
	now func() time.Time
}

// NewPGSessions creates a Postgres-backed session store.
func NewPGSessions(db DB) *PGSessions {
	return &PGSessions{db: db, now: time.Now}
}

const (
	sqlInsertSession = `INSERT INTO nort_sessions (token, account_id, created_at, expires_at) VALUES ($1, $2, $3, $4)`
	sqlSelectSession = `SELECT token, account_id::text, created_at, expires_at FROM nort_sessions WHERE token = $1 AND expires_at > $2`
	sqlDeleteSession = `DELETE FROM nort_sessions WHERE token = $1`
	sqlSweepSessions = `DELETE FROM nort_sessions WHERE expires_at <= $1`
)

func (p *PGSessions) Create(ctx context.Context, s Session) error {
	if s.Token == "" || s.AccountID == "" {
		return errors.New("session: missing token or account id")
	}
	_, err := p.db.Exec(ctx, sqlInsertSession, s.Token, s.AccountID, s.CreatedAt, s.ExpiresAt)
	return err
}

func (p *PGSessions) Get(ctx context.Context, token string) (*Session, error) {
	var s Session
	err := p.db.QueryRow(ctx, sqlSelectSession, token, p.now()).Scan(&s.Token, &s.AccountID, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (p *PGSessions) Delete(ctx context.Context, token string) error {
	_, err := p.db.Exec(ctx, sqlDeleteSession, token)
	return err
}

// Sweep removes expired sessions and returns how many were deleted.
func (p *PGSessions) Sweep(ctx context.Context) (int64, error) {
	tag, err := p.db.Exec(ctx, sqlSweepSessions, p.now())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
