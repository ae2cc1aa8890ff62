// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"nort/cli/internal/backend"
	"nort/cli/internal/logging"
	"nort/cli/internal/session"

	"github.com/pterm/pterm"
)

const maxBodyBytes = 64 << 10

type handlers struct {
	up      backend.API
	log     *pterm.Logger
	secure  bool
	ttl     time.Duration
	version string
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *handlers) versionInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": h.version})
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	s, err := h.up.CreateSession(r.Context(), email, req.Password)
	if err != nil {
		h.upstreamError(w, "login", err)
		return
	}
	acct, err := h.up.GetAccount(r.Context(), s.Token)
	if err != nil {
		_ = h.up.DeleteSession(r.Context(), s.Token)
		h.upstreamError(w, "login", err)
		return
	}
	h.setSessionCookie(w, s)
	writeAccount(w, acct)
}

func (h *handlers) signup(w http.ResponseWriter, r *http.Request) {
	var req backend.NewAccount
	if !decode(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || req.Password == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "Email, password and username are required")
		return
	}
	role, err := session.ParseRole(req.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Role = string(role)

	acct, err := h.up.CreateAccount(r.Context(), req)
	if err != nil {
		h.upstreamError(w, "signup", err)
		return
	}
	if acct.Prefs[session.PrefRole] == nil {
		acct = h.storeRole(r, req, acct)
	}
	writeAccount(w, acct)
}

// storeRole writes the role preference on upstreams that only accept it from
// an authenticated session. Failures are logged and the account returned as is.
func (h *handlers) storeRole(r *http.Request, req backend.NewAccount, acct backend.Account) backend.Account {
	pu, ok := h.up.(backend.PrefsUpdater)
	if !ok {
		return acct
	}
	s, err := h.up.CreateSession(r.Context(), req.Email, req.Password)
	if err != nil {
		h.log.Warn("signup: could not open session to store role", h.log.Args("account", acct.ID, "error", logging.Mask(err.Error())))
		return acct
	}
	defer func() { _ = h.up.DeleteSession(r.Context(), s.Token) }()

	prefs := map[string]any{}
	for k, v := range acct.Prefs {
		prefs[k] = v
	}
	prefs[session.PrefRole] = req.Role
	updated, err := pu.UpdatePrefs(r.Context(), s.Token, prefs)
	if err != nil {
		h.log.Warn("signup: could not store role", h.log.Args("account", acct.ID, "error", logging.Mask(err.Error())))
		return acct
	}
	return updated
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	h.clearSessionCookie(w)
	if token == "" {
		writeJSON(w, http.StatusOK, envelope{Message: "Logout successful"})
		return
	}
	if err := h.up.DeleteSession(r.Context(), token); err != nil && !errors.Is(err, backend.ErrUnauthorized) {
		h.log.Error("logout failed upstream", h.log.Args("error", logging.Mask(err.Error())))
		writeError(w, http.StatusBadGateway, "Logout failed upstream; local session cleared")
		return
	}
	writeJSON(w, http.StatusOK, envelope{Message: "Logout successful"})
}

func (h *handlers) me(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Not logged in")
		return
	}
	acct, err := h.up.GetAccount(r.Context(), token)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			h.clearSessionCookie(w)
		}
		h.upstreamError(w, "me", err)
		return
	}
	writeAccount(w, acct)
}

// upstreamError maps a binding error to a status. Rejections keep their
// meaning; everything else is a bad gateway.
func (h *handlers) upstreamError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, backend.ErrConflict):
		writeError(w, http.StatusConflict, "An account with this email already exists")
	case errors.Is(err, backend.ErrInvalid) && op == "signup":
		writeError(w, http.StatusUnprocessableEntity, detail(err))
	case errors.Is(err, backend.ErrUnauthorized), errors.Is(err, backend.ErrInvalid):
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
	default:
		h.log.Error(op+" failed upstream", h.log.Args("error", logging.Mask(err.Error())))
		writeError(w, http.StatusBadGateway, "Identity service unavailable")
	}
}

// detail returns the message of a wrapped rejection without the sentinel text.
func detail(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "+backend.ErrInvalid.Error()); i > 0 {
		msg = msg[:i]
	}
	if i := strings.Index(msg, ": "); i > 0 {
		msg = msg[i+2:]
	}
	return msg
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
