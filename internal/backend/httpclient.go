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

// Version is reported in the User-Agent header. Set by the cmd package at startup.
var Version = "0.0.0-dev"

// SessionCookieName is the cookie the NORT API uses for its session token.
const SessionCookieName = "nort_session"

// Endpoints contains the NORT API paths.
type Endpoints struct {
	Login   string `json:"login"`   // e.g., "/api/login"
	Signup  string `json:"signup"`  // e.g., "/api/signup"
	Logout  string `json:"logout"`  // e.g., "/api/logout"
	Me      string `json:"me"`      // e.g., "/api/me"
	Version string `json:"version"` // e.g., "/api/version"
}

// DefaultEndpoints returns the paths served by the bundled API server.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Login:   "/api/login",
		Signup:  "/api/signup",
		Logout:  "/api/logout",
		Me:      "/api/me",
		Version: "/api/version",
	}
}

// WithDefaults fills any empty path from DefaultEndpoints.
func (e Endpoints) WithDefaults() Endpoints {
	d := DefaultEndpoints()
	if e.Login == "" {
		e.Login = d.Login
	}
	if e.Signup == "" {
		e.Signup = d.Signup
	}
	if e.Logout == "" {
		e.Logout = d.Logout
	}
	if e.Me == "" {
		e.Me = d.Me
	}
	if e.Version == "" {
		e.Version = d.Version
	}
	return e
}

// HTTP implements API over the NORT /api endpoints.
type HTTP struct {
	// baseURL is the base URL for all HTTP requests (e.g., "https://api.nort.app")
	baseURL string
	// endpoints contains the URL paths for the auth endpoints
	endpoints Endpoints
	// client is the underlying HTTP client with configured timeout
	client *http.Client
}

var _ API = (*HTTP)(nil)

// NewHTTP creates a client for the NORT API. A nil client gets a 10-second timeout.
func NewHTTP(baseURL string, endpoints Endpoints, client *http.Client) *HTTP {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTP{
		baseURL:   strings.TrimRight(baseURL, "/"),
		endpoints: endpoints.WithDefaults(),
		client:    client,
	}
}

// envelope is the response shape of every /api route.
type envelope struct {
	Data    *Account `json:"data,omitempty"`
	Error   string   `json:"error,omitempty"`
	Message string   `json:"message,omitempty"`
}

// CreateSession calls POST /api/login with { email, password }.
// The session token is taken from the nort_session cookie.
func (h *HTTP) CreateSession(ctx context.Context, email, password string) (Session, error) {
	resp, err := h.do(ctx, http.MethodPost, h.endpoints.Login, "", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return Session{}, err
	}
	defer resp.Body.Close()

	acct, err := decodeEnvelope("login", resp)
	if err != nil {
		return Session{}, err
	}
	token := findSessionCookie(resp.Header, SessionCookieName)
	if token == "" {
		return Session{}, fmt.Errorf("login: no session cookie in response")
	}
	return Session{Token: token, UserID: acct.ID}, nil
}

// GetAccount calls GET /api/me with the session cookie.
func (h *HTTP) GetAccount(ctx context.Context, token string) (Account, error) {
	if token == "" {
		return Account{}, fmt.Errorf("me: %w: no session", ErrUnauthorized)
	}
	resp, err := h.do(ctx, http.MethodGet, h.endpoints.Me, token, nil)
	if err != nil {
		return Account{}, err
	}
	defer resp.Body.Close()
	return decodeEnvelope("me", resp)
}

// DeleteSession calls POST /api/logout with the session cookie.
func (h *HTTP) DeleteSession(ctx context.Context, token string) error {
	resp, err := h.do(ctx, http.MethodPost, h.endpoints.Logout, token, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	var env envelope
	_ = json.NewDecoder(resp.Body).Decode(&env)
	return statusError("logout", resp, env.Error)
}

// CreateAccount calls POST /api/signup with { email, password, username, role }.
func (h *HTTP) CreateAccount(ctx context.Context, acct NewAccount) (Account, error) {
	resp, err := h.do(ctx, http.MethodPost, h.endpoints.Signup, "", acct)
	if err != nil {
		return Account{}, err
	}
	defer resp.Body.Close()
	return decodeEnvelope("signup", resp)
}

// GetVersion calls GET /api/version and returns the version string when available.
// No authentication required. This can be used to check connectivity to the API.
func (h *HTTP) GetVersion(ctx context.Context) (string, error) {
	resp, err := h.do(ctx, http.MethodGet, h.endpoints.Version, "", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "unknown", nil
	}
	var out struct {
		Version string `json:"version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Version == "" {
		return "unknown", nil
	}
	return out.Version, nil
}

func decodeEnvelope(op string, resp *http.Response) (Account, error) {
	var env envelope
	decErr := json.NewDecoder(resp.Body).Decode(&env)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return Account{}, statusError(op, resp, env.Error)
	}
	if decErr != nil {
		return Account{}, fmt.Errorf("%s: decode: %w", op, decErr)
	}
	if env.Error != "" {
		return Account{}, fmt.Errorf("%s: %s", op, env.Error)
	}
	if env.Data == nil || env.Data.ID == "" {
		return Account{}, fmt.Errorf("%s: response has no account", op)
	}
	return *env.Data, nil
}

func (h *HTTP) do(ctx context.Context, method, path, token string, body any) (*http.Response, error) {
	var req *http.Request
	var err error
	if body != nil {
		b, mErr := json.Marshal(body)
		if mErr != nil {
			return nil, mErr
		}
		req, err = http.NewRequestWithContext(ctx, method, h.baseURL+path, bytes.NewReader(b))
		if err == nil {
			req.Header.Set("Content-Type", "application/json")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, method, h.baseURL+path, nil)
	}
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent(""))
	setSessionCookie(req, SessionCookieName, token)
	return h.client.Do(req)
}

func userAgent(platform string) string {
	ua := "nort-cli/" + Version
	if platform != "" {
		ua += " (" + platform + ")"
	}
	return ua
}
