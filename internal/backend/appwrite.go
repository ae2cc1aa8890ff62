// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultAppwriteEndpoint is the hosted Appwrite API root.
const DefaultAppwriteEndpoint = "https://cloud.appwrite.io/v1"

// Appwrite implements API against the Appwrite account REST API.
// The session secret travels in the a_session_<project> cookie.
type Appwrite struct {
	// endpoint is the API root including the version segment (e.g. ".../v1")
	endpoint string
	// project is the Appwrite project id sent on every request
	project string
	// platform identifies the client app in the user agent
	platform string
	client   *http.Client
}

var (
	_ API          = (*Appwrite)(nil)
	_ PrefsUpdater = (*Appwrite)(nil)
)

// NewAppwrite creates an Appwrite binding. A nil client gets a 10-second timeout.
func NewAppwrite(endpoint, project, platform string, client *http.Client) *Appwrite {
	if endpoint == "" {
		endpoint = DefaultAppwriteEndpoint
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Appwrite{
		endpoint: strings.TrimRight(endpoint, "/"),
		project:  project,
		platform: platform,
		client:   client,
	}
}

// appwriteUser is the subset of the Appwrite user model we read.
type appwriteUser struct {
	ID           string         `json:"$id"`
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	Prefs        map[string]any `json:"prefs"`
	Registration string         `json:"registration"`
}

func (u appwriteUser) account() Account {
	a := Account{ID: u.ID, Name: u.Name, Email: u.Email, Prefs: u.Prefs}
	if t, err := time.Parse(time.RFC3339, u.Registration); err == nil {
		a.CreatedAt = t
	}
	return a
}

type appwriteSession struct {
	ID     string `json:"$id"`
	UserID string `json:"userId"`
	Expire string `json:"expire"`
	Secret string `json:"secret"`
}

type appwriteError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Type    string `json:"type"`
}

func (a *Appwrite) cookieName() string { return "a_session_" + a.project }

// CreateSession calls POST /account/sessions/email.
func (a *Appwrite) CreateSession(ctx context.Context, email, password string) (Session, error) {
	resp, err := a.do(ctx, http.MethodPost, "/account/sessions/email", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return Session{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return Session{}, a.failure("create-session", resp)
	}

	var out appwriteSession
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Session{}, fmt.Errorf("create-session: decode: %w", err)
	}

	// Prefer the cookie; server-keyed requests get the secret in the body instead.
	token := findSessionCookie(resp.Header, a.cookieName())
	if token == "" {
		token = findFallbackCookie(resp.Header, a.cookieName())
	}
	if token == "" {
		token = out.Secret
	}
	if token == "" {
		return Session{}, fmt.Errorf("create-session: no session secret in response")
	}

	s := Session{Token: token, UserID: out.UserID}
	if t, err := time.Parse(time.RFC3339, out.Expire); err == nil {
		s.ExpiresAt = t
	}
	return s, nil
}

// GetAccount calls GET /account.
func (a *Appwrite) GetAccount(ctx context.Context, token string) (Account, error) {
	if token == "" {
		return Account{}, fmt.Errorf("get-account: %w: no session", ErrUnauthorized)
	}
	resp, err := a.do(ctx, http.MethodGet, "/account", token, nil)
	if err != nil {
		return Account{}, err
	}
	defer resp.Body.Close()
	return a.decodeUser("get-account", resp, http.StatusOK)
}

// DeleteSession calls DELETE /account/sessions/current.
func (a *Appwrite) DeleteSession(ctx context.Context, token string) error {
	resp, err := a.do(ctx, http.MethodDelete, "/account/sessions/current", token, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusOK {
		return nil
	}
	return a.failure("delete-session", resp)
}

// CreateAccount calls POST /account. The role is not part of the Appwrite user
// model; callers write it with UpdatePrefs once a session exists.
func (a *Appwrite) CreateAccount(ctx context.Context, acct NewAccount) (Account, error) {
	resp, err := a.do(ctx, http.MethodPost, "/account", "", map[string]string{
		"userId":   "unique()",
		"email":    acct.Email,
		"password": acct.Password,
		"name":     acct.Name,
	})
	if err != nil {
		return Account{}, err
	}
	defer resp.Body.Close()
	return a.decodeUser("create-account", resp, http.StatusCreated)
}

// UpdatePrefs calls PATCH /account/prefs. Appwrite replaces the whole
// preference document, so callers pass the merged map.
func (a *Appwrite) UpdatePrefs(ctx context.Context, token string, prefs map[string]any) (Account, error) {
	resp, err := a.do(ctx, http.MethodPatch, "/account/prefs", token, map[string]any{"prefs": prefs})
	if err != nil {
		return Account{}, err
	}
	defer resp.Body.Close()
	return a.decodeUser("update-prefs", resp, http.StatusOK)
}

func (a *Appwrite) decodeUser(op string, resp *http.Response, want int) (Account, error) {
	if resp.StatusCode != want && resp.StatusCode != http.StatusOK {
		return Account{}, a.failure(op, resp)
	}
	var u appwriteUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return Account{}, fmt.Errorf("%s: decode: %w", op, err)
	}
	if u.ID == "" {
		return Account{}, fmt.Errorf("%s: response has no user id", op)
	}
	return u.account(), nil
}

// failure decodes the Appwrite error envelope when present.
func (a *Appwrite) failure(op string, resp *http.Response) error {
	var e appwriteError
	if strings.Contains(resp.Header.Get("Content-Type"), "json") {
		_ = json.NewDecoder(resp.Body).Decode(&e)
	}
	msg := e.Message
	if e.Type != "" {
		msg = strings.TrimSpace(e.Type + ": " + msg)
	}
	return statusError(op, resp, msg)
}

func (a *Appwrite) do(ctx context.Context, method, path, token string, body any) (*http.Response, error) {
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rdr = bytes.NewReader(b)
	}
	var req *http.Request
	var err error
	if rdr != nil {
		req, err = http.NewRequestWithContext(ctx, method, a.endpoint+path, rdr)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, a.endpoint+path, nil)
	}
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Appwrite-Project", a.project)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent(a.platform))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	setSessionCookie(req, a.cookieName(), token)
	if token != "" {
		// Clients without a cookie jar may also pass the session this way.
		if fb, err := json.Marshal(map[string]string{a.cookieName(): token}); err == nil {
			req.Header.Set("X-Fallback-Cookies", string(fb))
		}
	}
	return a.client.Do(req)
}
