package httpx

import (
	"context"

	"github.com/aussiebroadwan/expo/pkg/jwtx"
)

type ctxKey string

const ctxKeyClaims ctxKey = "claims"

// WithClaims stores verified access claims in ctx.
func WithClaims(ctx context.Context, c jwtx.Claims) context.Context {
	return context.WithValue(ctx, ctxKeyClaims, c)
}

// ClaimsFromContext returns the claims stored by Authn.
func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(ctxKeyClaims).(jwtx.Claims)
	return c, ok
}
