package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/taskboard-server/internal/password"
	"github.com/dtroode/taskboard-server/internal/service"
	"github.com/dtroode/taskboard-server/internal/testutil"
	"github.com/dtroode/taskboard-server/internal/token"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type apiFixture struct {
	e        *echo.Echo
	creds    *service.Credentials
	users    *testutil.MemoryUserStore
	sessions *testutil.MemorySessionStore
}

func newAPIFixture(t *testing.T, db fakePinger, proxies ...*net.IPNet) *apiFixture {
	t.Helper()

	lg := testutil.MakeNoopLogger()
	sessions := testutil.NewMemorySessionStore()
	users := testutil.NewMemoryUserStore(sessions)
	jwt := token.NewJWT(token.Options{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    time.Hour,
	})
	tokens := service.NewTokenService(jwt, sessions, lg)
	creds := service.NewCredentials(users, password.NewBcrypt(bcrypt.MinCost), lg)
	auth := service.NewAuth(creds, tokens, users, nil, lg)
	admin := service.NewUsers(users, tokens, nil, lg)

	e := New(auth, admin, auth, db, []string{"http://localhost:5173"}, proxies, lg).Register()
	return &apiFixture{e: e, creds: creds, users: users, sessions: sessions}
}

type call struct {
	method string
	path   string
	body   any
	token  string
	header map[string]string
}

func (f *apiFixture) do(t *testing.T, c call) (int, map[string]any) {
	t.Helper()

	out := map[string]any{}
	code := f.decode(t, c, &out)
	return code, out
}

// decode performs c and unmarshals a non-empty response body into out.
func (f *apiFixture) decode(t *testing.T, c call, out any) int {
	t.Helper()

	var body bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("User-Agent", "router-test")
	if c.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+c.token)
	}
	for k, v := range c.header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

func creds(email, pass string) map[string]string {
	return map[string]string{"email": email, "password": pass}
}

func TestRouter_AuthScenario(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t, fakePinger{})

	code, body := f.do(t, call{method: http.MethodPost, path: "/auth/register", body: creds("a@x.com", "secret1")})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "User registered successfully", body["message"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "a@x.com", user["email"])
	assert.Equal(t, "USER", user["role"])
	assert.NotContains(t, user, "passwordHash")

	code, body = f.do(t, call{method: http.MethodPost, path: "/auth/register", body: creds("a@x.com", "other")})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "User already exists", body["error"])

	code, body = f.do(t, call{method: http.MethodPost, path: "/auth/login", body: creds("a@x.com", "wrong")})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid credentials", body["error"])

	code, body = f.do(t, call{method: http.MethodPost, path: "/auth/login", body: creds("nobody@x.com", "secret1")})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid credentials", body["error"])

	code, body = f.do(t, call{method: http.MethodPost, path: "/auth/login", body: creds("a@x.com", "secret1")})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Login successful", body["message"])
	access := body["accessToken"].(string)
	t1 := body["refreshToken"].(string)

	code, body = f.do(t, call{method: http.MethodPost, path: "/auth/refresh", body: map[string]string{"refreshToken": t1}})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Token refreshed successfully", body["message"])
	t2 := body["refreshToken"].(string)
	assert.NotEqual(t, t1, t2)

	code, body = f.do(t, call{method: http.MethodPost, path: "/auth/refresh", body: map[string]string{"refreshToken": t1}})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Invalid or expired refresh token", body["error"])

	code, body = f.do(t, call{method: http.MethodGet, path: "/auth/sessions", token: access})
	require.Equal(t, http.StatusOK, code)
	sessions := body["sessions"].([]any)
	// register session plus the rotated login session
	require.Len(t, sessions, 2)
	assert.Equal(t, "router-test", sessions[0].(map[string]any)["userAgent"])

	for i := 0; i < 2; i++ {
		code, body = f.do(t, call{method: http.MethodPost, path: "/auth/logout", token: access})
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "Logged out from all devices", body["message"])
	}

	code, _ = f.do(t, call{method: http.MethodPost, path: "/auth/refresh", body: map[string]string{"refreshToken": t2}})
	assert.Equal(t, http.StatusForbidden, code)

	code, body = f.do(t, call{method: http.MethodGet, path: "/auth/sessions", token: access})
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["sessions"])
}

func TestRouter_Validation(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t, fakePinger{})

	tests := []struct {
		name    string
		call    call
		code    int
		message string
	}{
		{
			name:    "register without password",
			call:    call{method: http.MethodPost, path: "/auth/register", body: map[string]string{"email": "a@x.com"}},
			code:    http.StatusBadRequest,
			message: "Email and password are required",
		},
		{
			name:    "login without email",
			call:    call{method: http.MethodPost, path: "/auth/login", body: map[string]string{"password": "p"}},
			code:    http.StatusBadRequest,
			message: "Email and password are required",
		},
		{
			name:    "refresh without token",
			call:    call{method: http.MethodPost, path: "/auth/refresh", body: map[string]string{}},
			code:    http.StatusBadRequest,
			message: "Refresh token is required",
		},
		{
			name:    "refresh with garbage",
			call:    call{method: http.MethodPost, path: "/auth/refresh", body: map[string]string{"refreshToken": "garbage"}},
			code:    http.StatusForbidden,
			message: "Invalid or expired refresh token",
		},
		{
			name:    "logout without token",
			call:    call{method: http.MethodPost, path: "/auth/logout"},
			code:    http.StatusUnauthorized,
			message: "Access token required",
		},
		{
			name:    "sessions with bad token",
			call:    call{method: http.MethodGet, path: "/auth/sessions", token: "garbage"},
			code:    http.StatusForbidden,
			message: "Invalid or expired token",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			code, body := f.do(t, tt.call)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.message, body["error"])
		})
	}
}

func TestRouter_RevokeSession(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t, fakePinger{})

	_, body := f.do(t, call{method: http.MethodPost, path: "/auth/register", body: creds("a@x.com", "secret1")})
	access := body["accessToken"].(string)
	_, body = f.do(t, call{method: http.MethodPost, path: "/auth/register", body: creds("b@x.com", "secret1")})
	otherAccess := body["accessToken"].(string)

	_, body = f.do(t, call{method: http.MethodGet, path: "/auth/sessions", token: access})
	sessionID := body["sessions"].([]any)[0].(map[string]any)["id"].(string)

	for _, path := range []string{"/auth/sessions/not-a-uuid", "/auth/sessions/" + uuid.NewString()} {
		code, body := f.do(t, call{method: http.MethodDelete, path: path, token: access})
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "Session revoked successfully", body["message"])
	}

	// another user cannot revoke it
	code, _ := f.do(t, call{method: http.MethodDelete, path: "/auth/sessions/" + sessionID, token: otherAccess})
	assert.Equal(t, http.StatusOK, code)
	_, body = f.do(t, call{method: http.MethodGet, path: "/auth/sessions", token: access})
	assert.Len(t, body["sessions"], 1)

	code, _ = f.do(t, call{method: http.MethodDelete, path: "/auth/sessions/" + sessionID, token: access})
	assert.Equal(t, http.StatusOK, code)
	_, body = f.do(t, call{method: http.MethodGet, path: "/auth/sessions", token: access})
	assert.Empty(t, body["sessions"])
}

func TestRouter_AdminRoutes(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t, fakePinger{})
	ctx := context.Background()

	_, created, err := f.creds.EnsureAdmin(ctx, "admin@x.com", "adminpass", "Admin")
	require.NoError(t, err)
	require.True(t, created)

	_, body := f.do(t, call{method: http.MethodPost, path: "/auth/register", body: creds("u@x.com", "secret1")})
	userAccess := body["accessToken"].(string)
	userRefresh := body["refreshToken"].(string)
	userID := body["user"].(map[string]any)["id"].(string)

	code, body := f.do(t, call{method: http.MethodGet, path: "/users", token: userAccess})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Access denied: Admin only", body["error"])

	code, _ = f.do(t, call{method: http.MethodGet, path: "/users"})
	assert.Equal(t, http.StatusUnauthorized, code)

	_, body = f.do(t, call{method: http.MethodPost, path: "/auth/login", body: creds("admin@x.com", "adminpass")})
	adminAccess := body["accessToken"].(string)

	var users []map[string]any
	code = f.decode(t, call{method: http.MethodGet, path: "/users", token: adminAccess}, &users)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, users, 1)
	assert.Equal(t, "u@x.com", users[0]["email"])
	assert.NotContains(t, users[0], "passwordHash")

	code, body = f.do(t, call{method: http.MethodGet, path: "/users/" + userID, token: adminAccess})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "u@x.com", body["email"])
	assert.Equal(t, userID, body["id"])

	for _, path := range []string{"/users/" + uuid.NewString(), "/users/not-a-uuid"} {
		code, body = f.do(t, call{method: http.MethodGet, path: path, token: adminAccess})
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "User not found", body["error"])
	}

	code, body = f.do(t, call{method: http.MethodPut, path: "/users/" + userID + "/block", token: adminAccess})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["blocked"])
	assert.Equal(t, "u@x.com", body["email"])

	// blocking revoked the user's sessions
	code, _ = f.do(t, call{method: http.MethodPost, path: "/auth/refresh", body: map[string]string{"refreshToken": userRefresh}})
	assert.Equal(t, http.StatusForbidden, code)

	code, body = f.do(t, call{method: http.MethodPut, path: "/users/" + userID + "/activate", token: adminAccess})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["active"])

	code, body = f.do(t, call{method: http.MethodPut, path: "/users/" + userID + "/activate", token: adminAccess})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["active"])

	code, body = f.do(t, call{method: http.MethodDelete, path: "/users/" + userID, token: adminAccess})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "User deleted successfully", body["message"])
	assert.Equal(t, userID, body["user"].(map[string]any)["id"])
	assert.Equal(t, "u@x.com", body["user"].(map[string]any)["email"])

	code, _ = f.do(t, call{method: http.MethodGet, path: "/users/" + userID, token: adminAccess})
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = f.do(t, call{method: http.MethodDelete, path: "/users/" + userID, token: adminAccess})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRouter_LongPassword(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t, fakePinger{})
	long := strings.Repeat("p", password.MaxBytes+1)

	code, body := f.do(t, call{method: http.MethodPost, path: "/auth/register", body: creds("long@x.com", long)})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "User registered successfully", body["message"])

	code, body = f.do(t, call{method: http.MethodPost, path: "/auth/login", body: creds("long@x.com", long)})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Login successful", body["message"])
}

func TestRouter_ClientAddress(t *testing.T) {
	t.Parallel()

	// httptest requests come from 192.0.2.1.
	_, proxyNet, err := net.ParseCIDR("192.0.2.0/24")
	require.NoError(t, err)

	tests := []struct {
		name    string
		proxies []*net.IPNet
		want    string
	}{
		{name: "forwarded header ignored without trusted proxies", want: "192.0.2.1"},
		{name: "forwarded header used behind trusted proxy", proxies: []*net.IPNet{proxyNet}, want: "203.0.113.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newAPIFixture(t, fakePinger{}, tt.proxies...)
			code, body := f.do(t, call{
				method: http.MethodPost,
				path:   "/auth/register",
				body:   creds("a@x.com", "secret1"),
				header: map[string]string{
					echo.HeaderXForwardedFor: "203.0.113.7",
					echo.HeaderXRealIP:       "198.51.100.3",
				},
			})
			require.Equal(t, http.StatusCreated, code)

			_, body = f.do(t, call{method: http.MethodGet, path: "/auth/sessions", token: body["accessToken"].(string)})
			sessions := body["sessions"].([]any)
			require.Len(t, sessions, 1)
			assert.Equal(t, tt.want, sessions[0].(map[string]any)["ipAddress"])
		})
	}
}

func TestRouter_Health(t *testing.T) {
	t.Parallel()

	ok := newAPIFixture(t, fakePinger{})
	code, body := ok.do(t, call{method: http.MethodGet, path: "/health/live"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	code, _ = ok.do(t, call{method: http.MethodGet, path: "/health/ready"})
	assert.Equal(t, http.StatusOK, code)

	down := newAPIFixture(t, fakePinger{err: assert.AnError})
	code, body = down.do(t, call{method: http.MethodGet, path: "/health/ready"})
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unavailable", body["status"])
}

func TestRouter_CORS(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t, fakePinger{})

	req := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:5173")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "true", rec.Header().Get(echo.HeaderAccessControlAllowCredentials))
}
