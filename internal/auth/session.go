package auth

import "github.com/cruisemate/cruisemate/internal/roles"

// SessionData represents the authenticated session context for a request
type SessionData struct {
	UserID      string     `json:"user_id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	BackendRole string     `json:"backend_role"`
	Role        roles.Role `json:"role"`
}
