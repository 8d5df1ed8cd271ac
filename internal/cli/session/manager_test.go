package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cruisemate/cruisemate/internal/cli/auth"
	"github.com/cruisemate/cruisemate/internal/roles"
)

// fakeBackend mimics the token endpoints and one protected resource
type fakeBackend struct {
	t *testing.T

	mu            sync.Mutex
	validToken    string // bearer accepted by /api/data/
	refreshAccess string // access token minted by token/refresh/
	rotateTo      string // refresh token returned by token/refresh/, if any
	refreshStatus int
	refreshDelay  time.Duration
	rejectAll     bool          // /api/data/ answers 401 whatever the token
	afterRefresh  string        // "500" or "drop": how /api/data/ answers the refreshed token
	block         chan struct{} // /api/data/ waits on this when set
	authHeaders   []string

	dataCalls    atomic.Int32
	refreshCalls atomic.Int32
	loginCalls   atomic.Int32
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()

	b := &fakeBackend{
		t:             t,
		validToken:    "A1",
		refreshAccess: "A2",
		refreshStatus: http.StatusOK,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/token/", b.handleLogin)
	mux.HandleFunc("/api/token/refresh/", b.handleRefresh)
	mux.HandleFunc("/api/data/", b.handleData)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return b, srv
}

func (b *fakeBackend) handleLogin(w http.ResponseWriter, r *http.Request) {
	b.loginCalls.Add(1)

	var creds Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if r.Header.Get("Authorization") != "" {
		b.t.Errorf("login must not carry a bearer token")
	}

	switch {
	case creds.Email == "" || creds.Password == "":
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": ["Email and password are required."]}`))
	case creds.Email == "a@b.com" && creds.Password == "pw":
		json.NewEncoder(w).Encode(map[string]any{
			"access":   "A1",
			"refresh":  "R1",
			"role":     "head_cook",
			"username": "a",
			"email":    "a@b.com",
			"user_id":  7,
		})
	default:
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"non_field_errors": ["Invalid email or password."]}`))
	}
}

func (b *fakeBackend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	b.refreshCalls.Add(1)

	b.mu.Lock()
	delay, status, access, rotate := b.refreshDelay, b.refreshStatus, b.refreshAccess, b.rotateTo
	b.mu.Unlock()

	time.Sleep(delay)

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Refresh == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if status != http.StatusOK {
		w.WriteHeader(status)
		w.Write([]byte(`{"detail": "Token is invalid or expired", "code": "token_not_valid"}`))
		return
	}

	b.mu.Lock()
	b.validToken = access
	b.mu.Unlock()

	resp := map[string]string{"access": access}
	if rotate != "" {
		resp["refresh"] = rotate
	}
	json.NewEncoder(w).Encode(resp)
}

func (b *fakeBackend) handleData(w http.ResponseWriter, r *http.Request) {
	b.dataCalls.Add(1)

	header := r.Header.Get("Authorization")
	b.mu.Lock()
	b.authHeaders = append(b.authHeaders, header)
	valid, rejectAll, block := b.validToken, b.rejectAll, b.block
	refreshed, after := b.refreshAccess, b.afterRefresh
	b.mu.Unlock()

	if block != nil {
		<-block
	}

	if after != "" && header == "Bearer "+refreshed {
		switch after {
		case "500":
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error": "boom"}`))
		case "drop":
			hj, ok := w.(http.Hijacker)
			if !ok {
				b.t.Errorf("response writer cannot be hijacked")
				return
			}
			if conn, _, err := hj.Hijack(); err == nil {
				conn.Close()
			}
		}
		return
	}

	if r.URL.Query().Get("fail") == "500" {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "boom"}`))
		return
	}

	if rejectAll || header != "Bearer "+valid {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "Given token not valid for any token type"}`))
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"token": valid})
}

func (b *fakeBackend) set(fn func(b *fakeBackend)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b)
}

func (b *fakeBackend) headers() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.authHeaders...)
}

func newTestManager(t *testing.T, srv *httptest.Server, store auth.Store, opts ...Option) *Manager {
	t.Helper()
	m, err := New(srv.URL+"/api/", store, opts...)
	require.NoError(t, err)
	return m
}

func storedSession(t *testing.T, store auth.Store, m *Manager) (Session, bool) {
	t.Helper()
	data, err := store.Load(m.Server())
	if errors.Is(err, auth.ErrNotFound) {
		return Session{}, false
	}
	require.NoError(t, err)
	var s Session
	require.NoError(t, json.Unmarshal(data, &s))
	return s, true
}

func TestLogin_NormalizesRoleAndPersists(t *testing.T) {
	_, srv := newFakeBackend(t)
	store := auth.NewMemoryStore()
	m := newTestManager(t, srv, store)

	s, err := m.Login(context.Background(), Credentials{Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)

	assert.Equal(t, roles.HeadCook, s.Role)
	assert.Equal(t, "head_cook", s.BackendRole)
	assert.Equal(t, "A1", s.AccessToken)
	assert.Equal(t, ID("7"), s.UserID)

	stored, ok := storedSession(t, store, m)
	require.True(t, ok)
	assert.Equal(t, "A1", stored.AccessToken)
	assert.Equal(t, "R1", stored.RefreshToken)
	assert.Equal(t, roles.HeadCook, stored.Role)
	assert.Equal(t, 1, store.Len(), "session must live in a single record")
}

func TestLogin_InvalidCredentials(t *testing.T) {
	b, srv := newFakeBackend(t)
	store := auth.NewMemoryStore()
	m := newTestManager(t, srv, store)

	_, err := m.Login(context.Background(), Credentials{Email: "a@b.com", Password: "wrong"})
	require.Error(t, err)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, InvalidCredentials, authErr.Kind)
	assert.Equal(t, "Invalid email or password.", authErr.Message)

	_, ok := m.Current()
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, int32(0), b.refreshCalls.Load(), "a rejected login must never trigger a refresh")
}

func TestLogin_ErrorListMessage(t *testing.T) {
	_, srv := newFakeBackend(t)
	m := newTestManager(t, srv, auth.NewMemoryStore())

	_, err := m.Login(context.Background(), Credentials{Email: "a@b.com"})

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Email and password are required.", authErr.Message)
}

func TestNewAuthError_Fallback(t *testing.T) {
	assert.Equal(t, defaultLoginError, newAuthError(401, []byte(`not json`)).Message)
	assert.Equal(t, defaultLoginError, newAuthError(401, []byte(`{}`)).Message)
	assert.Equal(t, "a b", newAuthError(400, []byte(`{"non_field_errors": ["a", "b"]}`)).Message)
	assert.Equal(t, "nope", newAuthError(401, []byte(`{"detail": "nope"}`)).Message)
}

func TestLogin_TransportFailure(t *testing.T) {
	_, srv := newFakeBackend(t)
	m := newTestManager(t, srv, auth.NewMemoryStore())
	srv.Close()

	_, err := m.Login(context.Background(), Credentials{Email: "a@b.com", Password: "pw"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Error(t, apiErr.Err)
}

func TestDo_AttachesBearer(t *testing.T) {
	b, srv := newFakeBackend(t)
	m := newTestManager(t, srv, auth.NewMemoryStore())

	_, err := m.Login(context.Background(), Credentials{Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)

	resp, err := m.Do(context.Background(), http.MethodGet, "/data/", nil)
	require.NoError(t, err)

	var body map[string]string
	require.NoError(t, resp.Decode(&body))
	assert.Equal(t, "A1", body["token"])
	assert.Equal(t, []string{"Bearer A1"}, b.headers())
}

func TestLogout_ThenDoSendsNoBearer(t *testing.T) {
	b, srv := newFakeBackend(t)
	store := auth.NewMemoryStore()

	var redirects atomic.Int32
	m := newTestManager(t, srv, store, WithOnUnauthenticated(func(error) { redirects.Add(1) }))

	_, err := m.Login(context.Background(), Credentials{Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)

	require.NoError(t, m.Logout())
	require.NoError(t, m.Logout(), "logout must be idempotent")

	_, err = m.Do(context.Background(), http.MethodGet, "data/", nil)
	require.ErrorIs(t, err, ErrSessionExpired)

	assert.Equal(t, []string{""}, b.headers(), "no stale token may leak after logout")
	assert.Equal(t, int32(1), b.dataCalls.Load())
	assert.Equal(t, int32(0), b.refreshCalls.Load())
	assert.Equal(t, int32(1), redirects.Load())
	assert.Equal(t, 0, store.Len())
}

func TestDo_RefreshesOnceAndRetries(t *testing.T) {
	b, srv := newFakeBackend(t)
	store := auth.NewMemoryStore()
	m := newTestManager(t, srv, store)

	_, err := m.Login(context.Background(), Credentials{Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)

	// The backend now only accepts A2, so A1 is rejected as expired
	b.set(func(b *fakeBackend) { b.validToken = "expired" })

	resp, err := m.Do(context.Background(), http.MethodGet, "data/", nil)
	require.NoError(t, err)

	var body map[string]string
	require.NoError(t, resp.Decode(&body))
	assert.Equal(t, "A2", body["token"])

	assert.Equal(t, int32(1), b.refreshCalls.Load())
	assert.Equal(t, int32(2), b.dataCalls.Load(), "exactly one retried call")
	assert.Equal(t, []string{"Bearer A1", "Bearer A2"}, b.headers())

	stored, ok := storedSession(t, store, m)
	require.True(t, ok)
	assert.Equal(t, "A2", stored.AccessToken)
	assert.Equal(t, "R1", stored.RefreshToken)

	current, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, "A2", current.AccessToken)

	// Subsequent calls use the new token without re-reading storage
	_, err = m.Do(context.Background(), http.MethodGet, "data/", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(1), b.refreshCalls.Load())
}

func TestDo_StoresRotatedRefreshToken(t *testing.T) {
	b, srv := newFakeBackend(t)
	store := auth.NewMemoryStore()
	m := newTestManager(t, srv, store)

	_, err := m.Login(context.Background(), Credentials{Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)

	b.set(func(b *fakeBackend) {
		b.validToken = "expired"
		b.rotateTo = "R2"
	})

	_, err = m.Do(context.Background(), http.MethodGet, "data/", nil)
	require.NoError(t, err)

	stored, ok := storedSession(t, store, m)
	require.True(t, ok)
	assert.Equal(t, "R2", stored.RefreshToken)
}

func TestDo_NoRefreshTokenClearsSession(t *testing.T) {
	b, srv := newFakeBackend(t)
	store := auth.NewMemoryStore()

	// A session persisted without a refresh token
	require.NoError(t, store.Save(srv.URL+"/api/", []byte(`{"access":"old","role":"voyager"}`)))

	var cause error
	m := newTestManager(t, srv, store, WithOnUnauthenticated(func(err error) { cause = err }))

	_, ok := m.Current()
	require.True(t, ok)

	_, err := m.Do(context.Background(), http.MethodGet, "data/", nil)
	require.ErrorIs(t, err, ErrSessionExpired)

	var refreshErr *RefreshError
	require.ErrorAs(t, err, &refreshErr)
	assert.Equal(t, NoRefreshToken, refreshErr.Kind)
	require.ErrorAs(t, cause, &refreshErr)

	_, ok = m.Current()
	assert.False(t, ok)
	_, ok = storedSession(t, store, m)
	assert.False(t, ok, "all persisted state must be cleared")

	assert.Equal(t, int32(1), b.dataCalls.Load(), "no retry without a refresh")
	assert.Equal(t, int32(0), b.refreshCalls.Load())
}

func TestDo_RefreshRejectedClearsSession(t *testing.T) {
	b, srv := newFakeBackend(t)
	store := auth.NewMemoryStore()
	m := newTestManager(t, srv, store)

	_, err := m.Login(context.Background(), Credentials{Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)

	b.set(func(b *fakeBackend) {
		b.validToken = "expired"
		b.refreshStatus = http.StatusUnauthorized
	})

	_, err = m.Do(context.Background(), http.MethodGet, "data/", nil)
	require.ErrorIs(t, err, ErrSessionExpired)

	var refreshErr *RefreshError
	require.ErrorAs(t, err, &refreshErr)
	assert.Equal(t, BackendRejected, refreshErr.Kind)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	assert.Equal(t, 0, store.Len())
	assert.Equal(t, int32(1), b.dataCalls.Load())
}

func TestDo_SecondUnauthorizedIsTerminal(t *testing.T) {
	b, srv := newFakeBackend(t)
	store := auth.NewMemoryStore()
	m := newTestManager(t, srv, store)

	_, err := m.Login(context.Background(), Credentials{Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)

	// Refresh succeeds but the resource rejects the new token too
	b.set(func(b *fakeBackend) { b.rejectAll = true })

	_, err = m.Do(context.Background(), http.MethodGet, "data/", nil)
	require.ErrorIs(t, err, ErrSessionExpired)

	assert.Equal(t, int32(1), b.refreshCalls.Load(), "exactly one refresh attempt")
	assert.Equal(t, int32(2), b.dataCalls.Load(), "the retried call is not retried again")
	assert.Equal(t, 0, store.Len())
}

func TestDo_OtherErrorsPassThrough(t *testing.T) {
	b, srv := newFakeBackend(t)
	store := auth.NewMemoryStore()
	m := newTestManager(t, srv, store)

	_, err := m.Login(context.Background(), Credentials{Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)

	_, err = m.Do(context.Background(), http.MethodGet, "data/?fail=500", nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "boom", apiErr.Message())
	assert.NotErrorIs(t, err, ErrSessionExpired)

	assert.Equal(t, int32(1), b.dataCalls.Load())
	assert.Equal(t, int32(0), b.refreshCalls.Load())
	assert.Equal(t, 1, store.Len(), "session survives non-auth failures")
}

func TestDo_RetryFailureKeepsSession(t *testing.T) {
	b, srv := newFakeBackend(t)
	store := auth.NewMemoryStore()

	var redirects atomic.Int32
	m := newTestManager(t, srv, store, WithOnUnauthenticated(func(error) { redirects.Add(1) }))

	_, err := m.Login(context.Background(), Credentials{Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)

	b.set(func(b *fakeBackend) {
		b.validToken = "expired"
		b.afterRefresh = "500"
	})

	_, err = m.Do(context.Background(), http.MethodGet, "data/", nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.NotErrorIs(t, err, ErrSessionExpired)

	assert.Equal(t, int32(1), b.refreshCalls.Load())
	assert.Equal(t, int32(2), b.dataCalls.Load())
	assert.Zero(t, redirects.Load())
	assert.Equal(t, 1, store.Len())

	stored, ok := storedSession(t, store, m)
	require.True(t, ok)
	assert.Equal(t, "A2", stored.AccessToken)
}

func TestDo_RetryTransportErrorKeepsSession(t *testing.T) {
	b, srv := newFakeBackend(t)
	store := auth.NewMemoryStore()

	// Fresh connections only, so the transport never replays the dropped request
	httpClient := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	m := newTestManager(t, srv, store, WithHTTPClient(httpClient))

	_, err := m.Login(context.Background(), Credentials{Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)

	b.set(func(b *fakeBackend) {
		b.validToken = "expired"
		b.afterRefresh = "drop"
	})

	_, err = m.Do(context.Background(), http.MethodGet, "data/", nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Error(t, apiErr.Err)
	assert.Zero(t, apiErr.Status)
	assert.NotErrorIs(t, err, ErrSessionExpired)

	assert.Equal(t, int32(1), b.refreshCalls.Load())
	assert.Equal(t, int32(2), b.dataCalls.Load())
	assert.Equal(t, 1, store.Len())
}

func TestDo_ConcurrentRefreshFailureRedirectsOnce(t *testing.T) {
	b, srv := newFakeBackend(t)
	store := auth.NewMemoryStore()

	var redirects atomic.Int32
	m := newTestManager(t, srv, store, WithOnUnauthenticated(func(error) { redirects.Add(1) }))

	_, err := m.Login(context.Background(), Credentials{Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)

	release := make(chan struct{})
	b.set(func(b *fakeBackend) {
		b.validToken = "expired"
		b.refreshStatus = http.StatusUnauthorized
		b.refreshDelay = 100 * time.Millisecond
		b.block = release
	})

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Do(context.Background(), http.MethodGet, "data/", nil)
			errs <- err
		}()
	}

	// Every call is in flight with the old token before any of them is rejected
	require.Eventually(t, func() bool { return b.dataCalls.Load() == n }, time.Second, 5*time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.ErrorIs(t, err, ErrSessionExpired)
	}
	assert.Equal(t, int32(1), b.refreshCalls.Load())
	assert.Equal(t, int32(1), redirects.Load())
	assert.Zero(t, store.Len())
}

func TestDo_ConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	b, srv := newFakeBackend(t)
	m := newTestManager(t, srv, auth.NewMemoryStore())

	_, err := m.Login(context.Background(), Credentials{Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)

	b.set(func(b *fakeBackend) {
		b.validToken = "expired"
		b.refreshDelay = 50 * time.Millisecond
	})

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Do(context.Background(), http.MethodGet, "data/", nil)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), b.refreshCalls.Load())
}

func TestDo_CancelledContext(t *testing.T) {
	b, srv := newFakeBackend(t)
	m := newTestManager(t, srv, auth.NewMemoryStore())

	release := make(chan struct{})
	b.set(func(b *fakeBackend) { b.block = release })
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := m.Do(ctx, http.MethodGet, "data/", nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRefresh_NoSession(t *testing.T) {
	b, srv := newFakeBackend(t)
	m := newTestManager(t, srv, auth.NewMemoryStore())

	_, err := m.Refresh(context.Background())

	var refreshErr *RefreshError
	require.ErrorAs(t, err, &refreshErr)
	assert.Equal(t, NoRefreshToken, refreshErr.Kind)
	assert.Equal(t, int32(0), b.refreshCalls.Load())
}

func TestRefresh_ReplacesAccessToken(t *testing.T) {
	b, srv := newFakeBackend(t)
	store := auth.NewMemoryStore()
	m := newTestManager(t, srv, store)

	_, err := m.Login(context.Background(), Credentials{Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)

	token, err := m.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A2", token)
	assert.Equal(t, int32(1), b.refreshCalls.Load())

	stored, ok := storedSession(t, store, m)
	require.True(t, ok)
	assert.Equal(t, "A2", stored.AccessToken)
}

func TestNew_RestoresPersistedSession(t *testing.T) {
	_, srv := newFakeBackend(t)
	store := auth.NewMemoryStore()

	first := newTestManager(t, srv, store)
	_, err := first.Login(context.Background(), Credentials{Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)

	second := newTestManager(t, srv, store)
	s, ok := second.Current()
	require.True(t, ok)
	assert.Equal(t, "A1", s.AccessToken)
	assert.Equal(t, roles.HeadCook, s.Role)
}

func TestNew_DiscardsCorruptRecord(t *testing.T) {
	_, srv := newFakeBackend(t)
	store := auth.NewMemoryStore()
	require.NoError(t, store.Save(srv.URL+"/api/", []byte(`{not json`)))

	m := newTestManager(t, srv, store)
	_, ok := m.Current()
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New("127.0.0.1:8000", auth.NewMemoryStore())
	require.Error(t, err)
}

func TestNew_AppendsTrailingSlash(t *testing.T) {
	m, err := New("http://ship.example/api", auth.NewMemoryStore())
	require.NoError(t, err)
	assert.Equal(t, "http://ship.example/api/", m.Server())

	target, err := m.resolve("/voyager/bookings/?page=2")
	require.NoError(t, err)
	assert.Equal(t, "http://ship.example/api/voyager/bookings/?page=2", target)
}

func TestAuthorize(t *testing.T) {
	_, srv := newFakeBackend(t)
	m := newTestManager(t, srv, auth.NewMemoryStore())

	require.ErrorIs(t, m.Authorize(roles.Voyager), ErrNotAuthenticated)

	_, err := m.Login(context.Background(), Credentials{Email: "a@b.com", Password: "pw"})
	require.NoError(t, err)

	assert.NoError(t, m.Authorize())
	assert.NoError(t, m.Authorize(roles.Voyager, roles.HeadCook))
	assert.ErrorIs(t, m.Authorize(roles.Admin), ErrForbiddenRole)
}

func TestClaimsFromJWT(t *testing.T) {
	exp := time.Now().Add(-time.Minute).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  "01HZX",
		"username": "cook",
		"email":    "cook@ship.example",
		"role":     "head_cook",
		"exp":      exp.Unix(),
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	store := auth.NewMemoryStore()
	require.NoError(t, store.Save("http://ship.example/api/", []byte(`{"access":"`+signed+`"}`)))

	m, err := New("http://ship.example/api/", store)
	require.NoError(t, err)

	s, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, roles.HeadCook, s.Role)
	assert.Equal(t, "cook", s.Username)
	assert.Equal(t, ID("01HZX"), s.UserID)
	assert.True(t, s.ExpiresAt().Equal(exp))
	assert.True(t, s.Expired(time.Now()))
}

func TestClaims_OpaqueToken(t *testing.T) {
	claims := decodeClaims("A1")
	assert.Equal(t, Claims{}, claims)
	assert.True(t, claims.Expiry().IsZero())
}

func TestID_Unmarshal(t *testing.T) {
	var v struct {
		ID ID `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"id": 42}`), &v))
	assert.Equal(t, ID("42"), v.ID)
	require.NoError(t, json.Unmarshal([]byte(`{"id": "01HZX"}`), &v))
	assert.Equal(t, ID("01HZX"), v.ID)
	require.NoError(t, json.Unmarshal([]byte(`{"id": null}`), &v))
	assert.Equal(t, ID(""), v.ID)
}
