package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/cruisemate/cruisemate/internal/cli/auth"
	"github.com/cruisemate/cruisemate/internal/roles"
)

const (
	tokenPath   = "token/"
	refreshPath = "token/refresh/"
)

// Response is a completed API call
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Manager owns the authentication state for one backend. It is safe for
// concurrent use and is the only writer of the persisted session record.
type Manager struct {
	baseURL    *url.URL
	server     string
	httpClient *http.Client
	store      auth.Store
	logger     zerolog.Logger

	onUnauthenticated func(error)

	mu      sync.RWMutex
	current *Session

	refreshes singleflight.Group
}

// Option configures a Manager
type Option func(*Manager)

// WithHTTPClient sets the HTTP client used for every call
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) {
		m.httpClient = c
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithOnUnauthenticated registers the handler run after an unrecoverable
// authentication failure cleared the session (the redirect to login).
func WithOnUnauthenticated(fn func(error)) Option {
	return func(m *Manager) {
		m.onUnauthenticated = fn
	}
}

// New creates a Manager for the API rooted at baseURL (e.g.
// "http://127.0.0.1:8000/api/") and restores any session persisted in store.
func New(baseURL string, store auth.Store, opts ...Option) (*Manager, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q: scheme and host are required", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	m := &Manager{
		baseURL:    u,
		server:     u.String(),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		store:      store,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := m.restore(); err != nil {
		return nil, err
	}

	return m, nil
}

// Server returns the normalized base URL
func (m *Manager) Server() string {
	return m.server
}

// restore loads the persisted record. An unreadable record is discarded.
func (m *Manager) restore() error {
	data, err := m.store.Load(m.server)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil || s.AccessToken == "" {
		m.logger.Warn().Err(err).Str("server", m.server).Msg("Discarding unreadable stored session")
		if err := m.store.Delete(m.server); err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}
		return nil
	}
	s.derive()

	m.mu.Lock()
	m.current = &s
	m.mu.Unlock()

	return nil
}

// Current returns a copy of the active session
func (m *Manager) Current() (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil, false
	}
	return m.current.clone(), true
}

// Authorize checks that a session exists and its role is one of allowed.
// No allowed roles means any authenticated session passes.
func (m *Manager) Authorize(allowed ...roles.Role) error {
	s, ok := m.Current()
	if !ok {
		return ErrNotAuthenticated
	}
	if len(allowed) > 0 && !s.Role.In(allowed...) {
		return fmt.Errorf("%w '%s'", ErrForbiddenRole, s.Role)
	}
	return nil
}

// Login exchanges credentials for a token pair and persists the session
func (m *Manager) Login(ctx context.Context, creds Credentials) (*Session, error) {
	payload, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := m.send(ctx, http.MethodPost, tokenPath, payload, "")
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized:
		authErr := newAuthError(resp.StatusCode, resp.Body)
		m.logger.Debug().Int("status", resp.StatusCode).Str("reason", authErr.Message).Msg("Login rejected")
		return nil, authErr
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &APIError{Status: resp.StatusCode, Payload: resp.Body}
	}

	var tr tokenResponse
	if err := resp.Decode(&tr); err != nil {
		return nil, &APIError{Status: resp.StatusCode, Payload: resp.Body, Err: err}
	}
	if tr.Access == "" {
		return nil, &APIError{Status: resp.StatusCode, Payload: resp.Body, Err: errors.New("token response has no access token")}
	}

	s := &Session{
		AccessToken:  tr.Access,
		RefreshToken: tr.Refresh,
		BackendRole:  tr.Role,
		Username:     tr.Username,
		Email:        tr.Email,
		UserID:       tr.UserID,
	}
	s.derive()

	m.mu.Lock()
	err = m.saveLocked(s)
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	m.logger.Info().Str("server", m.server).Str("role", string(s.Role)).Msg("Logged in")

	return s.clone(), nil
}

// Logout clears the persisted record and in-memory state. It makes no
// network call and is safe to call repeatedly.
func (m *Manager) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = nil
	if err := m.store.Delete(m.server); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Do performs an authorized API call. On a 401 the access token is refreshed
// once and the call re-issued once; if that cannot succeed the session is
// cleared and the returned error matches ErrSessionExpired. Every other
// failure is returned as *APIError without retrying.
func (m *Manager) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	token := m.accessToken()
	resp, err := m.send(ctx, method, path, payload, token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return checkStatus(resp)
	}

	fresh, err := m.refreshFrom(ctx, token)
	if err != nil {
		var failed *failedRefresh
		if errors.As(err, &failed) {
			failed.once.Do(func() { m.clear(failed.cause) })
			return nil, fmt.Errorf("%w: %w", ErrSessionExpired, failed.cause)
		}
		return nil, err
	}

	resp, err = m.send(ctx, method, path, payload, fresh)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		cause := &APIError{Status: resp.StatusCode, Payload: resp.Body}
		m.expireToken(fresh, cause)
		return nil, fmt.Errorf("%w: %w", ErrSessionExpired, cause)
	}
	return checkStatus(resp)
}

// Refresh mints a new access token from the stored refresh token and
// persists it. Concurrent callers share one network refresh.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	token, err := m.refreshFrom(ctx, m.accessToken())
	var failed *failedRefresh
	if errors.As(err, &failed) {
		return "", failed.cause
	}
	return token, err
}

// failedRefresh is the outcome every waiter of one failed flight shares, so
// the session is cleared and the handler run once per flight.
type failedRefresh struct {
	cause error
	once  sync.Once
}

func (f *failedRefresh) Error() string { return f.cause.Error() }

func (f *failedRefresh) Unwrap() error { return f.cause }

// refreshFrom refreshes the access token that was rejected as stale. Flights
// are keyed by that token: a caller arriving after another flight already
// replaced it gets the current token without a second network call.
func (m *Manager) refreshFrom(ctx context.Context, stale string) (string, error) {
	ch := m.refreshes.DoChan("refresh:"+stale, func() (any, error) {
		if current := m.accessToken(); current != "" && current != stale {
			return current, nil
		}
		// Shared by every waiter, so no single caller's cancellation applies
		token, err := m.refresh(context.WithoutCancel(ctx))
		if err != nil {
			return nil, &failedRefresh{cause: err}
		}
		return token, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (m *Manager) refresh(ctx context.Context) (string, error) {
	m.mu.RLock()
	var refreshToken string
	if m.current != nil {
		refreshToken = m.current.RefreshToken
	}
	m.mu.RUnlock()

	if refreshToken == "" {
		return "", &RefreshError{Kind: NoRefreshToken}
	}

	payload, err := json.Marshal(refreshRequest{Refresh: refreshToken})
	if err != nil {
		return "", &RefreshError{Kind: BackendRejected, Err: err}
	}

	resp, err := m.send(ctx, http.MethodPost, refreshPath, payload, "")
	if err != nil {
		return "", &RefreshError{Kind: BackendRejected, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &RefreshError{Kind: BackendRejected, Err: &APIError{Status: resp.StatusCode, Payload: resp.Body}}
	}

	var rr refreshResponse
	if err := resp.Decode(&rr); err != nil {
		return "", &RefreshError{Kind: BackendRejected, Err: err}
	}
	if rr.Access == "" {
		return "", &RefreshError{Kind: BackendRejected, Err: errors.New("refresh response has no access token")}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.current == nil:
		// Logged out while the refresh was in flight
		return "", &RefreshError{Kind: NoRefreshToken}
	case m.current.RefreshToken != refreshToken:
		// A new login replaced the session; its token is newer than ours
		return m.current.AccessToken, nil
	}

	next := m.current.clone()
	next.AccessToken = rr.Access
	if rr.Refresh != "" {
		next.RefreshToken = rr.Refresh
	}
	next.derive()

	if err := m.saveLocked(next); err != nil {
		return "", &RefreshError{Kind: BackendRejected, Err: err}
	}

	m.logger.Debug().Str("server", m.server).Msg("Access token refreshed")

	return next.AccessToken, nil
}

// expireToken clears the session only while it still holds token, so
// concurrent calls rejected with the same token clear it once
func (m *Manager) expireToken(token string, cause error) {
	m.mu.Lock()
	held := m.current != nil && m.current.AccessToken == token
	if held {
		m.current = nil
	}
	m.mu.Unlock()

	if held {
		m.clear(cause)
	}
}

// clear drops the session after an unrecoverable authentication failure and
// runs the unauthenticated handler
func (m *Manager) clear(cause error) {
	m.logger.Warn().Err(cause).Str("server", m.server).Msg("Authentication could not be recovered, clearing session")

	if err := m.Logout(); err != nil {
		m.logger.Error().Err(err).Msg("Failed to clear session")
	}
	if m.onUnauthenticated != nil {
		m.onUnauthenticated(cause)
	}
}

// saveLocked writes s through to the store, then installs it in memory.
// Callers hold m.mu.
func (m *Manager) saveLocked(s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := m.store.Save(m.server, data); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	m.current = s
	return nil
}

func (m *Manager) accessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return ""
	}
	return m.current.AccessToken
}

func (m *Manager) resolve(path string) (string, error) {
	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", path, err)
	}
	return m.baseURL.ResolveReference(ref).String(), nil
}

// send issues one HTTP call. Responses that arrive after ctx is done are dropped.
func (m *Manager) send(ctx context.Context, method, path string, payload []byte, token string) (*Response, error) {
	target, err := m.resolve(path)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &APIError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, &APIError{Status: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func checkStatus(resp *Response) (*Response, error) {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Payload: resp.Body}
	}
	return resp, nil
}
