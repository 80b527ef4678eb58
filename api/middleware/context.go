package middleware

import (
	"context"

	"github.com/jkovarik/dispecink-backend/internal/identity"
)

type contextKey string

const ctxPrincipal contextKey = "principal"

// PrincipalFromContext returns the authenticated principal, or nil for
// anonymous requests.
func PrincipalFromContext(ctx context.Context) *identity.Principal {
	if ctx == nil {
		return nil
	}
	if p, ok := ctx.Value(ctxPrincipal).(*identity.Principal); ok {
		return p
	}
	return nil
}

// WithPrincipal injects the principal into the context, mainly for
// handler tests.
func WithPrincipal(ctx context.Context, p *identity.Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPrincipal, p)
}
