package httpx

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/stranger/pkg/jwtx"
	"github.com/aussiebroadwan/stranger/pkg/slogx"
)

// BearerToken returns the token from the Authorization header, falling back
// to the token query parameter that browsers use for websocket upgrades.
func BearerToken(r *http.Request) string {
	if authz := r.Header.Get("Authorization"); authz != "" {
		if len(authz) > 7 && strings.EqualFold(authz[:7], "Bearer ") {
			return strings.TrimSpace(authz[7:])
		}
		return ""
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

// AuthnMiddleware rejects requests without a valid access token and stores
// the claims in the request context.
func AuthnMiddleware(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw := BearerToken(r)
			if raw == "" {
				writeBearerError(w, http.StatusUnauthorized, "invalid_token", "missing bearer token")
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				slogx.FromContext(ctx).Warn("jwt verify failed", "err", err)
				writeBearerError(w, http.StatusUnauthorized, "invalid_token", "token verification failed")
				return
			}

			ctx = slogx.With(ContextWithClaims(ctx, claims), "uid", claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireVerified rejects tokens whose email is not verified. Must run after
// AuthnMiddleware.
func RequireVerified() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeBearerError(w, http.StatusUnauthorized, "invalid_token", "missing bearer token")
				return
			}
			if !c.EmailVerified {
				writeBearerError(w, http.StatusForbidden, "verification_required", "email address is not verified")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeBearerError follows RFC 6750 and repeats the error as JSON.
func writeBearerError(w http.ResponseWriter, status int, code, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="`+code+`", error_description="`+desc+`"`)
	WriteJSON(w, status, map[string]string{
		"error":             code,
		"error_description": desc,
	})
}
