package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/stranger/pkg/cryptox"
	"github.com/aussiebroadwan/stranger/pkg/httpx"
	"github.com/aussiebroadwan/stranger/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := httpx.Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mw("outer"), mw("inner"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		target string
		want   string
	}{
		{name: "header", header: "Bearer abc", target: "/", want: "abc"},
		{name: "case insensitive scheme", header: "bearer abc", target: "/", want: "abc"},
		{name: "query fallback", target: "/v1/realtime?token=xyz", want: "xyz"},
		{name: "header wins", header: "Bearer abc", target: "/?token=xyz", want: "abc"},
		{name: "wrong scheme", header: "Basic Zm9v", target: "/?token=xyz", want: ""},
		{name: "nothing", target: "/", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			require.Equal(t, tt.want, httpx.BearerToken(req))
		})
	}
}

func TestAuthnAndRequireVerified(t *testing.T) {
	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA("k1", pemKey)
	require.NoError(t, err)
	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddSigner(signer))
	verifier := jwtx.NewVerifierEdDSA(keys, "stranger", nil)

	token := func(verified bool) string {
		tok, err := signer.Sign(jwtx.NewAccessClaims(jwtx.AccessClaims{
			Subject:       "u1",
			EmailVerified: verified,
			Issuer:        "stranger",
			TTL:           time.Minute,
		}))
		require.NoError(t, err)
		return tok
	}

	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := httpx.UserIDFromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(uid))
	}), httpx.AuthnMiddleware(verifier), httpx.RequireVerified())

	do := func(auth string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	ok := do("Bearer " + token(true))
	require.Equal(t, http.StatusOK, ok.Code)
	require.Equal(t, "u1", ok.Body.String())

	missing := do("")
	require.Equal(t, http.StatusUnauthorized, missing.Code)
	require.True(t, strings.HasPrefix(missing.Header().Get("WWW-Authenticate"), `Bearer error="invalid_token"`))

	require.Equal(t, http.StatusUnauthorized, do("Bearer garbage").Code)

	unverified := do("Bearer " + token(false))
	require.Equal(t, http.StatusForbidden, unverified.Code)
	require.Contains(t, unverified.Body.String(), "verification_required")
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Email string `json:"email"`
	}

	t.Run("ok", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.c"}`))
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
		var b body
		require.NoError(t, httpx.DecodeJSON(req, &b))
		require.Equal(t, "a@b.c", b.Email)
	})

	for name, raw := range map[string]string{
		"unknown field": `{"email":"a","admin":true}`,
		"trailing data": `{"email":"a"}{"email":"b"}`,
		"not json":      `email=a`,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(raw))
			var b body
			require.Error(t, httpx.DecodeJSON(req, &b))
		})
	}

	t.Run("wrong content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		var b body
		require.Error(t, httpx.DecodeJSON(req, &b))
	})
}
