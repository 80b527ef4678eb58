package auth

import (
	"net/http"
	"time"

	"github.com/jkovarik/dispecink-backend/pkg/config"
)

const (
	// AccessCookie carries the minted JWT for every /api call.
	AccessCookie = "at"
	// RefreshCookie is scoped down to the token endpoint only.
	RefreshCookie = "rt"

	accessCookiePath  = "/api"
	refreshCookiePath = "/api/auth/web/token"
)

const refreshCookieTTL = 180 * 24 * time.Hour

// SetSessionCookies writes both auth cookies for a fresh session.
func SetSessionCookies(w http.ResponseWriter, cfg config.Auth, sess *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessCookie,
		Value:    sess.AccessToken,
		Path:     accessCookiePath,
		MaxAge:   int(sess.ExpiresIn.Seconds()),
		SameSite: http.SameSiteStrictMode,
		HttpOnly: true,
		Secure:   cfg.SecureCookies,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    sess.RefreshToken,
		Path:     refreshCookiePath,
		MaxAge:   int(refreshCookieTTL.Seconds()),
		SameSite: http.SameSiteStrictMode,
		HttpOnly: true,
		Secure:   cfg.SecureCookies,
	})
}

// ClearSessionCookies expires both auth cookies.
func ClearSessionCookies(w http.ResponseWriter, cfg config.Auth) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessCookie,
		Value:    "",
		Path:     accessCookiePath,
		MaxAge:   -1,
		SameSite: http.SameSiteStrictMode,
		HttpOnly: true,
		Secure:   cfg.SecureCookies,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		SameSite: http.SameSiteStrictMode,
		HttpOnly: true,
		Secure:   cfg.SecureCookies,
	})
}

// RefreshTokenFrom reads the stored refresh token, if any.
func RefreshTokenFrom(r *http.Request) string {
	cookie, err := r.Cookie(RefreshCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}
