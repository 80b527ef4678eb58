package middleware

import (
	"net/http"

	"github.com/jkovarik/dispecink-backend/api/responses"
	pkgerrors "github.com/jkovarik/dispecink-backend/pkg/errors"
	"github.com/jkovarik/dispecink-backend/pkg/logger"
)

// RequireAuthenticated rejects anonymous requests.
func RequireAuthenticated(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if PrincipalFromContext(r.Context()) == nil {
				responses.WriteError(r, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole admits principals holding any role with the given prefix,
// admin variant included.
func RequireRole(logg *logger.Logger, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if p == nil {
				responses.WriteError(r, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
				return
			}
			for _, role := range roles {
				if p.HasRole(role) {
					ctx := r.Context()
					if logg != nil {
						ctx = logg.WithRole(ctx, role)
					}
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}
			responses.WriteError(r, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "role required"))
		})
	}
}

// RequireAdmin admits principals holding at least one admin role.
func RequireAdmin(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if p == nil {
				responses.WriteError(r, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
				return
			}
			if !p.IsAdmin {
				responses.WriteError(r, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
