package session

import (
	"time"

	"github.com/cruisemate/cruisemate/internal/roles"
)

// Credentials identify a user at the token endpoint
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is the single persisted authentication record for a server
type Session struct {
	AccessToken  string     `json:"access"`
	RefreshToken string     `json:"refresh,omitempty"`
	Role         roles.Role `json:"role"`
	BackendRole  string     `json:"backend_role,omitempty"`
	Username     string     `json:"username,omitempty"`
	Email        string     `json:"email,omitempty"`
	UserID       ID         `json:"user_id,omitempty"`

	// Claims are derived from AccessToken and never persisted
	Claims Claims `json:"-"`
}

// ExpiresAt returns the access token expiry, or the zero time when unknown
func (s *Session) ExpiresAt() time.Time {
	return s.Claims.Expiry()
}

// Expired reports whether the access token is known to have expired at now
func (s *Session) Expired(now time.Time) bool {
	exp := s.ExpiresAt()
	return !exp.IsZero() && !now.Before(exp)
}

func (s *Session) clone() *Session {
	c := *s
	return &c
}

// derive recomputes claims and the normalized role, filling identity fields
// the backend omitted from the token payload. Stored fields win over claims.
func (s *Session) derive() {
	s.Claims = decodeClaims(s.AccessToken)

	if s.BackendRole == "" {
		s.BackendRole = s.Claims.Role
	}
	if s.BackendRole != "" {
		s.Role = roles.Normalize(s.BackendRole)
	} else {
		s.Role = roles.Normalize(string(s.Role))
	}
	if s.Username == "" {
		s.Username = s.Claims.Username
	}
	if s.Email == "" {
		s.Email = s.Claims.Email
	}
	if s.UserID == "" {
		s.UserID = s.Claims.UserID
	}
}

// tokenResponse is the body of a successful token/ call
type tokenResponse struct {
	Access   string `json:"access"`
	Refresh  string `json:"refresh"`
	Role     string `json:"role"`
	Username string `json:"username"`
	Email    string `json:"email"`
	UserID   ID     `json:"user_id"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// refreshResponse carries a rotated refresh token when the backend rotates
type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}
