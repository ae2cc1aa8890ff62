// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"encoding/json"
	"net/http"
	"strings"
)

// findSessionCookie returns the value of the named cookie from Set-Cookie headers.
// Expired or deleted cookies (MaxAge < 0 or empty value) are ignored.
func findSessionCookie(h http.Header, name string) string {
	resp := http.Response{Header: h}
	for _, c := range resp.Cookies() {
		if c.Name != name {
			continue
		}
		if c.MaxAge < 0 || strings.TrimSpace(c.Value) == "" || c.Value == "deleted" {
			continue
		}
		return c.Value
	}
	return ""
}

// findFallbackCookie reads the X-Fallback-Cookies header some identity services
// send to clients that cannot keep a cookie jar. The header is a JSON object of
// cookie name to value.
func findFallbackCookie(h http.Header, name string) string {
	raw := strings.TrimSpace(h.Get("X-Fallback-Cookies"))
	if raw == "" {
		return ""
	}
	var cookies map[string]string
	if err := json.Unmarshal([]byte(raw), &cookies); err != nil {
		return ""
	}
	return strings.TrimSpace(cookies[name])
}

// setSessionCookie attaches the token as a request cookie.
func setSessionCookie(req *http.Request, name, token string) {
	if token == "" {
		return
	}
	req.AddCookie(&http.Cookie{Name: name, Value: token})
}
