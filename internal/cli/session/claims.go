package session

import (
	"encoding/json"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ID accepts both numeric and string identifiers from the backend
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// Claims are the identity fields carried in an access token payload.
// They are read without signature verification and only ever used for display
// and expiry hints; the backend stays authoritative.
type Claims struct {
	UserID    ID     `json:"user_id,omitempty"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	jwt.RegisteredClaims
}

// decodeClaims returns the payload of a JWT access token. Opaque tokens
// decode to empty claims.
func decodeClaims(token string) Claims {
	if token == "" {
		return Claims{}
	}
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Claims{}
	}
	return claims
}

// Expiry returns the exp claim, or the zero time when absent
func (c Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
