package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSessionExpired is returned when credentials could not be recovered and
	// the session was cleared. Callers should send the user back to login.
	ErrSessionExpired = errors.New("session expired")

	ErrNotAuthenticated = errors.New("not authenticated. Please run 'cruisemate login' first")
	ErrForbiddenRole    = errors.New("access denied for role")
)

const defaultLoginError = "Invalid email or password. Please try again."

// AuthErrorKind classifies login failures
type AuthErrorKind int

const (
	InvalidCredentials AuthErrorKind = iota + 1
)

// AuthError is a credential failure reported by the token endpoint
type AuthError struct {
	Kind    AuthErrorKind
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// newAuthError picks the most specific message the backend supplied
func newAuthError(status int, payload []byte) *AuthError {
	var body struct {
		Error          json.RawMessage `json:"error"`
		NonFieldErrors json.RawMessage `json:"non_field_errors"`
		Detail         json.RawMessage `json:"detail"`
	}

	msg := defaultLoginError
	if err := json.Unmarshal(payload, &body); err == nil {
		for _, raw := range []json.RawMessage{body.Error, body.NonFieldErrors, body.Detail} {
			if text := stringOrList(raw); text != "" {
				msg = text
				break
			}
		}
	}

	return &AuthError{Kind: InvalidCredentials, Status: status, Message: msg}
}

// stringOrList flattens `"msg"` or `["a", "b"]` into a single line
func stringOrList(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.TrimSpace(strings.Join(list, " "))
	}
	return ""
}

// RefreshErrorKind classifies refresh failures
type RefreshErrorKind int

const (
	NoRefreshToken RefreshErrorKind = iota + 1
	BackendRejected
)

// RefreshError is returned when a new access token could not be minted
type RefreshError struct {
	Kind RefreshErrorKind
	Err  error
}

func (e *RefreshError) Error() string {
	switch e.Kind {
	case NoRefreshToken:
		return "no refresh token available"
	default:
		if e.Err != nil {
			return fmt.Sprintf("token refresh rejected: %v", e.Err)
		}
		return "token refresh rejected"
	}
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

// APIError is a passthrough failure of an API call. Err is set for transport
// failures, Status and Payload for non-2xx responses.
type APIError struct {
	Status  int
	Payload []byte
	Err     error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to send request: %v", e.Err)
	}
	return fmt.Sprintf("request failed (status %d): %s", e.Status, strings.TrimSpace(string(e.Payload)))
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Message returns the backend-supplied error text, if any
func (e *APIError) Message() string {
	var body struct {
		Error  json.RawMessage `json:"error"`
		Errors json.RawMessage `json:"errors"`
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(e.Payload, &body); err != nil {
		return ""
	}
	for _, raw := range []json.RawMessage{body.Error, body.Detail, body.Errors} {
		if text := stringOrList(raw); text != "" {
			return text
		}
	}
	return ""
}
