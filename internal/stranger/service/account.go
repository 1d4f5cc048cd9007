package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/stranger/internal/stranger/domain"
	"github.com/aussiebroadwan/stranger/internal/stranger/store"
	"github.com/aussiebroadwan/stranger/pkg/cryptox"
	"github.com/aussiebroadwan/stranger/pkg/idx"
	"github.com/aussiebroadwan/stranger/pkg/slogx"
)

// RegisterInput is a sign-up request.
type RegisterInput struct {
	Email       string `validate:"required,email,max=254"`
	Password    string `validate:"required,min=8,max=1024"`
	Username    string `validate:"max=64"`
	DisplayName string `validate:"max=128"`
}

// LoginResult is a successful sign-in.
type LoginResult struct {
	User        domain.User
	AccessToken string
	ExpiresIn   time.Duration
}

type AccountService struct {
	Store        store.Store
	Hasher       *cryptox.PasswordHasher
	Tokens       *TokenService
	Verification *VerificationService

	// Now defaults to time.Now.
	Now func() time.Time
}

func (s *AccountService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Register creates an unverified account and mails its first verification
// code. A failed send is logged; the caller can ask for a resend.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	in.Email = normalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if err := validate.Struct(in); err != nil {
		return domain.User{}, validationError(err)
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	secret, err := s.Verification.NewSecret(in.Email)
	if err != nil {
		return domain.User{}, err
	}

	now := s.now().UTC()
	u := domain.User{
		ID:           idx.NewAt(now).String(),
		Email:        in.Email,
		Username:     in.Username,
		DisplayName:  in.DisplayName,
		PasswordHash: hash,
		VerifySecret: secret,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, err
	}

	l := slogx.FromContext(ctx)
	l.Info("user registered", "user_id", u.ID)
	if err := s.Verification.Send(ctx, u); err != nil {
		l.Warn("failed to send verification code", "user_id", u.ID, "error", err)
	}
	return u, nil
}

// Login checks the password and issues an access token. Unverified
// accounts may sign in; the session gate keeps them out of presence.
func (s *AccountService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return LoginResult{}, err
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, ErrUserNotFound
		}
		return LoginResult{}, err
	}

	if err := s.Hasher.Verify(password, u.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			slogx.FromContext(ctx).Info("login rejected", "user_id", u.ID)
			return LoginResult{}, ErrWrongPassword
		}
		return LoginResult{}, err
	}

	token, ttl, err := s.Tokens.Issue(u, s.now().UTC())
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign access token: %w", err)
	}
	return LoginResult{User: u, AccessToken: token, ExpiresIn: ttl}, nil
}

// Profile fetches the account behind an access token subject.
func (s *AccountService) Profile(ctx context.Context, uid string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, uid)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	return u, err
}

// ProfileUsername returns the profile username for uid, empty when unset.
func (s *AccountService) ProfileUsername(ctx context.Context, uid string) (string, error) {
	u, err := s.Profile(ctx, uid)
	if err != nil {
		return "", err
	}
	return u.Username, nil
}

// UpdateProfile replaces the username and display name of uid.
func (s *AccountService) UpdateProfile(ctx context.Context, uid, username, displayName string) (domain.User, error) {
	username = strings.TrimSpace(username)
	displayName = strings.TrimSpace(displayName)
	if len(username) > 64 || len(displayName) > 128 {
		return domain.User{}, ErrInvalidRequest
	}

	if err := s.Store.Users().UpdateProfile(ctx, uid, username, displayName); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return s.Profile(ctx, uid)
}
