package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/aussiebroadwan/stranger/internal/stranger/domain"
	"github.com/aussiebroadwan/stranger/internal/stranger/store"
	"github.com/aussiebroadwan/stranger/pkg/slogx"
)

// DefaultVerifyPeriod is how long an emailed code stays valid.
const DefaultVerifyPeriod = 10 * time.Minute

// VerificationService issues and checks email verification codes. Codes
// are TOTP values over a per-user secret, so nothing but the secret is
// stored.
type VerificationService struct {
	Store  store.Store
	Mailer Mailer
	Issuer string
	Period time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

func (s *VerificationService) opts() totp.ValidateOpts {
	period := s.Period
	if period <= 0 {
		period = DefaultVerifyPeriod
	}
	return totp.ValidateOpts{
		Period:    uint(period / time.Second),
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

func (s *VerificationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// NewSecret generates a fresh per-user secret.
func (s *VerificationService) NewSecret(email string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: email,
		Period:      s.opts().Period,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("generate verify secret: %w", err)
	}
	return key.Secret(), nil
}

// Code returns the code currently valid for secret.
func (s *VerificationService) Code(secret string) (string, error) {
	return totp.GenerateCodeCustom(secret, s.now(), s.opts())
}

// Send mails the current code to u.
func (s *VerificationService) Send(ctx context.Context, u domain.User) error {
	code, err := s.Code(u.VerifySecret)
	if err != nil {
		return fmt.Errorf("generate verify code: %w", err)
	}
	if err := s.Mailer.SendVerificationCode(ctx, u.Email, code); err != nil {
		return fmt.Errorf("send verify code: %w", err)
	}
	return nil
}

// Verify marks the address verified when code matches. Verifying an already
// verified address succeeds.
func (s *VerificationService) Verify(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if u.EmailVerified() {
		return nil
	}

	ok, err := totp.ValidateCustom(code, u.VerifySecret, s.now(), s.opts())
	if err != nil || !ok {
		slogx.FromContext(ctx).Info("verification code rejected", "user_id", u.ID)
		return ErrInvalidCode
	}

	return s.Store.Users().MarkEmailVerified(ctx, u.ID, s.now().UTC())
}

// Resend mails a new code. Unknown and already verified addresses are
// accepted silently.
func (s *VerificationService) Resend(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	if u.EmailVerified() {
		return nil
	}
	return s.Send(ctx, u)
}
