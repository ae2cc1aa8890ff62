// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

package server

import (
	"encoding/json"
	"net/http"
	"time"

	"nort/cli/internal/backend"
)

// envelope matches what backend.HTTP decodes.
type envelope struct {
	Data    *backend.Account `json:"data,omitempty"`
	Error   string           `json:"error,omitempty"`
	Message string           `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Error: msg})
}

func writeAccount(w http.ResponseWriter, acct backend.Account) {
	writeJSON(w, http.StatusOK, envelope{Data: &acct})
}

func (h *handlers) setSessionCookie(w http.ResponseWriter, s backend.Session) {
	expires := s.ExpiresAt
	if expires.IsZero() {
		expires = time.Now().Add(h.ttl)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     backend.SessionCookieName,
		Value:    s.Token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *handlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     backend.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func sessionToken(r *http.Request) string {
	c, err := r.Cookie(backend.SessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
