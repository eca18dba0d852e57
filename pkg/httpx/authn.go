package httpx

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/expo/pkg/jwtx"
	"github.com/aussiebroadwan/expo/pkg/slogx"
)

// Authn requires a valid access token in the Authorization header and puts
// its claims in the request context. Refresh tokens are rejected.
func Authn(v *jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := BearerToken(r)
			if !ok {
				writeBearerError(w, "missing bearer token")
				return
			}

			claims, err := v.VerifyType(raw, jwtx.TypeAccess)
			if err != nil {
				slogx.FromContext(r.Context()).Warn("bearer token rejected", slog.Any("error", err))
				writeBearerError(w, "invalid or expired token")
				return
			}

			ctx := WithClaims(r.Context(), claims)
			ctx = slogx.With(ctx, slog.String("member_id", claims.Subject))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RFC 6750 error with a JSON body matching the rest of the API.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteError(w, http.StatusUnauthorized, "invalid_token", desc)
}
