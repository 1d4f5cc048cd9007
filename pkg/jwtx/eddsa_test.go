package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/stranger/pkg/cryptox"
	"github.com/aussiebroadwan/stranger/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testIssuer = "stranger-test"

func newSigner(t *testing.T, kid string) *jwtx.EdDSASigner {
	t.Helper()
	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	s, err := jwtx.NewSignerEdDSA(kid, pemKey)
	require.NoError(t, err)
	return s
}

func TestEdDSASignAndVerify(t *testing.T) {
	signer := newSigner(t, "k1")
	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddSigner(signer))
	require.True(t, keys.IsReady())

	claims := jwtx.NewAccessClaims(jwtx.AccessClaims{
		Subject:       "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV",
		Email:         "neo@example.com",
		EmailVerified: true,
		Username:      "neo",
		Name:          "Thomas Anderson",
		Issuer:        testIssuer,
		Audience:      []string{"stranger"},
		TTL:           5 * time.Minute,
	})
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	got, err := jwtx.NewVerifierEdDSA(keys, testIssuer, []string{"stranger"}).Verify(token)
	require.NoError(t, err)
	require.Equal(t, claims.Subject, got.Subject)
	require.Equal(t, claims.Email, got.Email)
	require.True(t, got.EmailVerified)
	require.Equal(t, "neo", got.Username)
	require.Equal(t, "Thomas Anderson", got.Name)

	jwks := keys.PublicJWKS()
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "OKP", jwks.Keys[0].Kty)
	require.Equal(t, "EdDSA", jwks.Keys[0].Alg)
}

func TestEdDSAVerifyFailures(t *testing.T) {
	signer := newSigner(t, "k1")
	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddSigner(signer))
	verifier := jwtx.NewVerifierEdDSA(keys, testIssuer, nil)

	sign := func(a jwtx.AccessClaims) string {
		tok, err := signer.Sign(jwtx.NewAccessClaims(a))
		require.NoError(t, err)
		return tok
	}

	t.Run("wrong issuer", func(t *testing.T) {
		_, err := verifier.Verify(sign(jwtx.AccessClaims{Subject: "u1", Issuer: "other"}))
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})

	t.Run("expired", func(t *testing.T) {
		tok := sign(jwtx.AccessClaims{
			Subject: "u1",
			Issuer:  testIssuer,
			TTL:     time.Minute,
			Now:     time.Now().Add(-time.Hour),
		})
		_, err := verifier.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrExpired)

		_, err = verifier.WithLeeway(2 * time.Hour).Verify(tok)
		require.NoError(t, err)
	})

	t.Run("unknown kid", func(t *testing.T) {
		stranger := newSigner(t, "k2")
		tok, err := stranger.Sign(jwtx.NewAccessClaims(jwtx.AccessClaims{Subject: "u1", Issuer: testIssuer}))
		require.NoError(t, err)
		_, err = verifier.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrUnknownKID)
	})

	t.Run("other algorithm", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtx.Claims{})
		tok.Header["kid"] = "k1"
		raw, err := tok.SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = verifier.Verify(raw)
		require.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := verifier.Verify("not.a.jwt")
		require.Error(t, err)
	})
}

func TestKeySetResetFromJWKS(t *testing.T) {
	a, b := newSigner(t, "a"), newSigner(t, "b")

	src := jwtx.NewKeySet()
	require.NoError(t, src.AddSigner(a))
	require.NoError(t, src.AddSigner(b))
	require.NoError(t, src.AddSigner(b))
	require.Len(t, src.PublicJWKS().Keys, 2)

	dst := jwtx.NewKeySet()
	require.NoError(t, dst.ResetFromJWKS(src.PublicJWKS()))
	_, err := dst.Get("a")
	require.NoError(t, err)
	_, err = dst.Get("zzz")
	require.ErrorIs(t, err, jwtx.ErrNoKey)

	require.Error(t, dst.ResetFromJWKS(jwtx.JWKS{Keys: []jwtx.JWK{{Kty: "RSA", Kid: "r"}}}))
}

func TestNewSignerRejectsBadPEM(t *testing.T) {
	_, err := jwtx.NewSignerEdDSA("k", []byte("nope"))
	require.Error(t, err)

	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	_, err = jwtx.NewSignerEdDSA("", pemKey)
	require.Error(t, err)
}
