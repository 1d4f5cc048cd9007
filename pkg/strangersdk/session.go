package strangersdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/stranger/pkg/presence"
	"github.com/aussiebroadwan/stranger/pkg/presence/wire"
)

// refreshBuffer renews the token this long before it expires.
const refreshBuffer = 30 * time.Second

// Session is a logged-in account. It is safe for concurrent use.
type Session struct {
	client *Client
	login  func(ctx context.Context) (*LoginResponse, error)

	mu            sync.RWMutex
	accessToken   string
	expiresAt     time.Time
	userID        string
	emailVerified bool
	displayName   string
}

func newSession(c *Client, lr *LoginResponse, login func(ctx context.Context) (*LoginResponse, error)) *Session {
	s := &Session{client: c, login: login}
	s.apply(lr)
	return s
}

func (s *Session) apply(lr *LoginResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = lr.AccessToken
	s.expiresAt = time.Now().Add(time.Duration(lr.ExpiresIn)*time.Second - refreshBuffer)
	s.userID = lr.UserID
	s.emailVerified = lr.EmailVerified
	s.displayName = lr.DisplayName
}

// UserID returns the account id.
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// EmailVerified reports the verification state carried by the current token.
func (s *Session) EmailVerified() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emailVerified
}

// Refresh logs in again, picking up a verification that happened after
// the current token was issued.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.RLock()
	login := s.login
	s.mu.RUnlock()
	if login == nil {
		return ErrSessionClosed
	}

	lr, err := login(ctx)
	if err != nil {
		return err
	}
	s.apply(lr)
	return nil
}

// Token returns a valid access token, logging in again when it is about
// to expire. Its signature matches wsclient.TokenSource.
func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	if s.login == nil {
		s.mu.RUnlock()
		return "", ErrSessionClosed
	}
	if time.Now().Before(s.expiresAt) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	if err := s.Refresh(ctx); err != nil {
		return "", fmt.Errorf("refresh session: %w", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken, nil
}

// Close forgets the credentials. Later calls fail with ErrSessionClosed.
func (s *Session) Close() {
	s.mu.Lock()
	s.login = nil
	s.accessToken = ""
	s.mu.Unlock()
}

func (s *Session) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return nil, err
	}
	return s.client.doRequest(ctx, method, path, body, token)
}

// Me returns the caller's profile.
func (s *Session) Me(ctx context.Context) (*ProfileResponse, error) {
	resp, err := s.do(ctx, http.MethodGet, "/v1/me", nil)
	if err != nil {
		return nil, err
	}

	var out ProfileResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile replaces the caller's username and display name.
func (s *Session) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*ProfileResponse, error) {
	resp, err := s.do(ctx, http.MethodPatch, "/v1/me", req)
	if err != nil {
		return nil, err
	}

	var out ProfileResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// OnlineUsernames asks the server for its current online list. Requires a
// verified account.
func (s *Session) OnlineUsernames(ctx context.Context) (*OnlineResponse, error) {
	resp, err := s.do(ctx, http.MethodGet, "/v1/presence/online", nil)
	if err != nil {
		return nil, err
	}

	var out OnlineResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// RealtimeURL returns the websocket address of the realtime endpoint.
func (s *Session) RealtimeURL() string {
	base := s.client.BaseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + wire.Path
}

// Identity fetches the profile and returns it in the shape the presence
// gate expects.
func (s *Session) Identity(ctx context.Context) (presence.Identity, error) {
	me, err := s.Me(ctx)
	if err != nil {
		return presence.Identity{}, err
	}
	// The realtime hub trusts the token's claim, not the profile.
	if me.EmailVerified && !s.EmailVerified() {
		if err := s.Refresh(ctx); err != nil {
			return presence.Identity{}, err
		}
	}
	return presence.Identity{
		UID:           me.UserID,
		EmailVerified: me.EmailVerified,
		DisplayName:   me.DisplayName,
	}, nil
}

// Profiles returns a presence.ProfileLookup backed by /v1/me. It can only
// resolve the session's own account.
func (s *Session) Profiles() presence.ProfileLookup {
	return sessionProfiles{s}
}

var errForeignProfile = errors.New("strangersdk: only the session's own profile can be read")

type sessionProfiles struct{ s *Session }

func (p sessionProfiles) ProfileUsername(ctx context.Context, uid string) (string, error) {
	if uid != p.s.UserID() {
		return "", errForeignProfile
	}
	me, err := p.s.Me(ctx)
	if err != nil {
		return "", err
	}
	return me.Username, nil
}
