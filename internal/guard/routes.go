// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

package guard

import "strings"

// Location is a navigation target plus whether it belongs to the public
// (login/signup) area.
type Location struct {
	Path   string
	Public bool
}

// Route paths.
const (
	PathLogin   = "/login"
	PathSignup  = "/signup"
	PathHome    = "/"
	PathExplore = "/explore"
	PathSubmit  = "/submit"
	PathTickets = "/tickets"
	PathMore    = "/more"
	PathProfile = "/profile"
)

var (
	// PublicEntry is where unauthenticated users are sent.
	PublicEntry = Location{Path: PathLogin, Public: true}
	// ProtectedEntry is where authenticated users are sent.
	ProtectedEntry = Location{Path: PathHome}
)

var routes = []Location{
	{Path: PathLogin, Public: true},
	{Path: PathSignup, Public: true},
	{Path: PathHome},
	{Path: PathExplore},
	{Path: PathSubmit},
	{Path: PathTickets},
	{Path: PathMore},
	{Path: PathProfile},
}

// Routes returns the known locations in display order.
func Routes() []Location {
	out := make([]Location, len(routes))
	copy(out, routes)
	return out
}

// Lookup resolves a path to a known location. Trailing slashes are ignored
// and a missing leading slash is added.
func Lookup(path string) (Location, bool) {
	p := strings.TrimSpace(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	for _, r := range routes {
		if r.Path == p {
			return r, true
		}
	}
	return Location{}, false
}
