package roles

import "strings"

// Role is the canonical identity classification used for route decisions.
// Canonical roles are lowercase with no separators (e.g. "headcook").
type Role string

const (
	Voyager    Role = "voyager"
	Admin      Role = "admin"
	Manager    Role = "manager"
	HeadCook   Role = "headcook"
	Supervisor Role = "supervisor"
)

const (
	// LoginPath is the unauthenticated entry point
	LoginPath = "/login"
	// UnauthorizedPath is where sessions land when their role has no dashboard
	UnauthorizedPath = "/unauthorized"
)

// All lists the canonical roles in display order
var All = []Role{Voyager, Admin, Manager, HeadCook, Supervisor}

// backendSlugs maps canonical roles to the slug the backend uses in paths and payloads
var backendSlugs = map[Role]string{
	Voyager:    "voyager",
	Admin:      "admin",
	Manager:    "manager",
	HeadCook:   "head_cook",
	Supervisor: "supervisor",
}

// Normalize converts a raw backend role string into its canonical form by
// dropping separator characters and lowercasing. Normalize(Normalize(r)) == Normalize(r).
func Normalize(raw string) Role {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range strings.ToLower(raw) {
		switch r {
		case '_', '-', ' ', '\t', '\n', '\r':
			continue
		}
		b.WriteRune(r)
	}
	return Role(b.String())
}

// Known reports whether r is one of the canonical roles
func (r Role) Known() bool {
	_, ok := backendSlugs[r]
	return ok
}

// Backend returns the backend slug for a role ("headcook" -> "head_cook").
// Unknown roles are returned unchanged.
func (r Role) Backend() string {
	if slug, ok := backendSlugs[r]; ok {
		return slug
	}
	return string(r)
}

func (r Role) String() string {
	return string(r)
}

// In reports whether r is one of allowed
func (r Role) In(allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}

// DashboardPath returns the landing route for a role
func DashboardPath(r Role) string {
	if !r.Known() {
		return UnauthorizedPath
	}
	return "/" + r.Backend()
}

// Parse normalizes raw and reports whether it names a canonical role
func Parse(raw string) (Role, bool) {
	r := Normalize(raw)
	return r, r.Known()
}
