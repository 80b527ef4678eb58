package controllers

import (
	"net/http"

	"github.com/jkovarik/dispecink-backend/api/middleware"
	"github.com/jkovarik/dispecink-backend/api/responses"
	"github.com/jkovarik/dispecink-backend/api/validators"
	internalauth "github.com/jkovarik/dispecink-backend/internal/auth"
	pkgauth "github.com/jkovarik/dispecink-backend/pkg/auth"
	"github.com/jkovarik/dispecink-backend/pkg/config"
	"github.com/jkovarik/dispecink-backend/pkg/logger"
)

// AuthLoginRedirect sends the browser to the upstream authorization
// endpoint.
func AuthLoginRedirect(svc *internalauth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, svc.LoginURL(), http.StatusTemporaryRedirect)
	}
}

// AuthWhoAmI returns the authenticated identity carried by the token.
func AuthWhoAmI(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := middleware.PrincipalFromContext(r.Context())
		responses.WriteJSON(w, http.StatusOK, map[string]any{
			"id":        p.ID,
			"givenName": p.GivenName,
			"surname":   p.Surname,
			"fullName":  p.FullName,
			"roles":     p.Roles,
			"locations": p.Locations,
		})
	}
}

type authTokenRequest struct {
	Code string `json:"code"`
}

// AuthToken establishes a session from an authorization code or the
// stored refresh token and sets both auth cookies.
func AuthToken(svc *internalauth.Service, cfg config.Auth, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authTokenRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}

		sess, err := svc.Login(r.Context(), req.Code, internalauth.RefreshTokenFrom(r))
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}

		internalauth.SetSessionCookies(w, cfg, sess)
		responses.WriteJSON(w, http.StatusOK, sess.User)
	}
}

// AuthLogout revokes the session behind the access cookie, when one is
// still valid, and clears both cookies either way.
func AuthLogout(svc *internalauth.Service, cfg config.Auth, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(internalauth.AccessCookie); err == nil && cookie.Value != "" {
			if claims, err := pkgauth.ParseAccessToken(cfg, cookie.Value); err == nil {
				if err := svc.Logout(r.Context(), claims.ID); err != nil && logg != nil {
					logg.Error(r.Context(), "auth.logout", err)
				}
			}
		}

		internalauth.ClearSessionCookies(w, cfg)
		responses.WriteNoContent(w)
	}
}
