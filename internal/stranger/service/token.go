package service

import (
	"time"

	"github.com/aussiebroadwan/stranger/internal/stranger/domain"
	"github.com/aussiebroadwan/stranger/pkg/jwtx"
)

// TokenService signs access tokens carrying the claims the realtime hub
// and the session gate rely on.
type TokenService struct {
	Signer   jwtx.Signer
	Issuer   string
	Audience []string
	TTL      time.Duration
}

// Issue signs an access token for u.
func (s *TokenService) Issue(u domain.User, now time.Time) (string, time.Duration, error) {
	ttl := s.TTL
	if ttl <= 0 {
		ttl = jwtx.DefaultAccessTokenTTL
	}

	claims := jwtx.NewAccessClaims(jwtx.AccessClaims{
		Subject:       u.ID,
		Email:         u.Email,
		EmailVerified: u.EmailVerified(),
		Username:      u.Username,
		Name:          u.DisplayName,
		Issuer:        s.Issuer,
		Audience:      s.Audience,
		TTL:           ttl,
		Now:           now,
	})

	token, err := s.Signer.Sign(claims)
	if err != nil {
		return "", 0, err
	}
	return token, ttl, nil
}
