package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMiddleware(t *testing.T) (*Middleware, TokenService) {
	t.Helper()
	tokenService, err := NewPasetoService(testKey)
	require.NoError(t, err)
	return NewMiddleware(tokenService), tokenService
}

func protectedEcho(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserIDFromContext(r.Context())
		require.True(t, ok)
		email, ok := GetUserEmailFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, int64(42), userID)
		assert.Equal(t, "alice@example.com", email)
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuthWithBearerHeader(t *testing.T) {
	mw, tokenService := newTestMiddleware(t)

	token, err := tokenService.CreateToken(42, "alice@example.com", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/account", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	mw.RequireAuth(protectedEcho(t)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuthWithCookie(t *testing.T) {
	mw, tokenService := newTestMiddleware(t)

	token, err := tokenService.CreateToken(42, "alice@example.com", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/account", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	rec := httptest.NewRecorder()

	mw.RequireAuth(protectedEcho(t)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuthMissingCredential(t *testing.T) {
	mw, _ := newTestMiddleware(t)

	req := httptest.NewRequest(http.MethodGet, "/account", nil)
	rec := httptest.NewRecorder()

	mw.RequireAuth(protectedEcho(t)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthMalformedHeader(t *testing.T) {
	mw, _ := newTestMiddleware(t)

	req := httptest.NewRequest(http.MethodGet, "/account", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()

	mw.RequireAuth(protectedEcho(t)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthExpiredToken(t *testing.T) {
	mw, tokenService := newTestMiddleware(t)

	token, err := tokenService.CreateToken(42, "alice@example.com", -time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/account", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	mw.RequireAuth(protectedEcho(t)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCurrentUserID(t *testing.T) {
	mw, tokenService := newTestMiddleware(t)

	token, err := tokenService.CreateToken(42, "alice@example.com", time.Hour)
	require.NoError(t, err)

	withToken := httptest.NewRequest(http.MethodGet, "/auth/facebook/callback", nil)
	withToken.Header.Set("Authorization", "Bearer "+token)
	id := mw.CurrentUserID(withToken)
	require.NotNil(t, id)
	assert.Equal(t, int64(42), *id)

	anonymous := httptest.NewRequest(http.MethodGet, "/auth/facebook/callback", nil)
	assert.Nil(t, mw.CurrentUserID(anonymous))
}

func TestShouldUseCookies(t *testing.T) {
	browser := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	browser.Header.Set("Sec-Fetch-Site", "same-origin")
	assert.True(t, ShouldUseCookies(browser))

	apiClient := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	assert.False(t, ShouldUseCookies(apiClient))
}

func TestAuthCookieRoundTrip(t *testing.T) {
	rec := httptest.NewRecorder()
	SetAuthCookie(rec, "some-token", true, time.Hour)

	res := rec.Result()
	cookies := res.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "access_token", cookies[0].Name)
	assert.Equal(t, "some-token", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, 3600, cookies[0].MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	got, err := GetAccessTokenFromCookie(req)
	require.NoError(t, err)
	assert.Equal(t, "some-token", got)
}
