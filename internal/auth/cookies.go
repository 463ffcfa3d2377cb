package auth

import (
	"net/http"
	"time"
)

const accessTokenCookieName = "access_token"

// ShouldUseCookies reports whether the client is a browser that should carry
// the credential in an HttpOnly cookie (the "web session") instead of the
// response body. Browsers always send Sec-Fetch-Site on same-origin and
// cross-origin requests; API clients do not.
func ShouldUseCookies(r *http.Request) bool {
	return r.Header.Get("Sec-Fetch-Site") != ""
}

// SetAuthCookie stores the bearer credential in an HttpOnly cookie
func SetAuthCookie(w http.ResponseWriter, token string, isProduction bool, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearAuthCookie removes the credential cookie
func ClearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// GetAccessTokenFromCookie reads the credential cookie
func GetAccessTokenFromCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(accessTokenCookieName)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}
