package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultAccessTokenTTL is used when an issuer does not configure one.
const DefaultAccessTokenTTL = time.Hour

// Claims are the access-token claims. The realtime hub reads Subject and
// EmailVerified to authorize presence writes.
type Claims struct {
	jwt.RegisteredClaims

	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified"`

	// Username is the profile username, Name the display name. Either may be
	// empty.
	Username string `json:"username,omitempty"`
	Name     string `json:"name,omitempty"`
}

// AccessClaims describes the token to mint.
type AccessClaims struct {
	Subject       string
	Email         string
	EmailVerified bool
	Username      string
	Name          string

	Issuer   string
	Audience []string
	TTL      time.Duration
	Now      time.Time
}

// NewAccessClaims fills in the registered claims around a.
func NewAccessClaims(a AccessClaims) Claims {
	if a.TTL <= 0 {
		a.TTL = DefaultAccessTokenTTL
	}
	if a.Now.IsZero() {
		a.Now = time.Now().UTC()
	}
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.Issuer,
			Subject:   a.Subject,
			Audience:  jwt.ClaimStrings(a.Audience),
			IssuedAt:  jwt.NewNumericDate(a.Now),
			NotBefore: jwt.NewNumericDate(a.Now),
			ExpiresAt: jwt.NewNumericDate(a.Now.Add(a.TTL)),
			ID:        NewJTI(),
		},
		Email:         a.Email,
		EmailVerified: a.EmailVerified,
		Username:      a.Username,
		Name:          a.Name,
	}
}

// NewJTI returns a random URL-safe token id.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks iss. An empty expectation accepts anything.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected != "" && c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateAudience requires at least one expected audience.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil
	}
	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}
	return ErrAudience
}

// ValidateExpiry checks exp and nbf, allowing leeway for clock skew.
func (c *Claims) ValidateExpiry(leeway time.Duration) error {
	now := time.Now().UTC()
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}
	return nil
}
