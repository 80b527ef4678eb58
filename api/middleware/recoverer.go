package middleware

import (
	"fmt"
	"net/http"

	"github.com/jkovarik/dispecink-backend/api/responses"
	pkgerrors "github.com/jkovarik/dispecink-backend/pkg/errors"
	"github.com/jkovarik/dispecink-backend/pkg/logger"
)

func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					err := fmt.Errorf("panic: %v", rec)
					if logg != nil {
						ctx := logg.WithField(r.Context(), "panic", rec)
						logg.Error(ctx, "panic.recovered", err)
					}
					responses.WriteError(r, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
