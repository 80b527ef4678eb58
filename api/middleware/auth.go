package middleware

import (
	"net/http"
	"strings"

	internalauth "github.com/jkovarik/dispecink-backend/internal/auth"
	"github.com/jkovarik/dispecink-backend/internal/identity"
	pkgauth "github.com/jkovarik/dispecink-backend/pkg/auth"
	"github.com/jkovarik/dispecink-backend/pkg/auth/session"
	"github.com/jkovarik/dispecink-backend/pkg/config"
	"github.com/jkovarik/dispecink-backend/pkg/logger"
)

// Authenticate resolves the access token from the session cookie or a
// bearer header and seeds the context with the principal. A missing,
// invalid or revoked token leaves the request anonymous; the gates
// below decide whether that matters.
func Authenticate(cfg config.Auth, sessions session.Checker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFrom(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			if sessions != nil {
				ok, err := sessions.Has(r.Context(), claims.ID)
				if err != nil || !ok {
					next.ServeHTTP(w, r)
					return
				}
			}

			p := identity.New(
				claims.Subject,
				claims.GivenName,
				claims.Surname,
				claims.FullName,
				claims.Roles,
				claims.Locations,
			)

			ctx := WithPrincipal(r.Context(), p)
			if logg != nil {
				ctx = logg.WithUserID(ctx, p.ID)
				ctx = logg.WithField(ctx, "roles", p.Roles)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFrom(r *http.Request) string {
	if cookie, err := r.Cookie(internalauth.AccessCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return ""
}
