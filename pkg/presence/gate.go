package presence

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/stranger/pkg/slogx"
)

// ErrVerificationRequired is returned by Gate.Enter for identities whose email
// is not verified. Callers should route the user to verification.
var ErrVerificationRequired = errors.New("presence: email verification required")

// Identity is what the auth provider knows about the signed-in user.
type Identity struct {
	UID           string
	EmailVerified bool
	DisplayName   string
}

// ProfileLookup returns the username stored in a user's profile document, or
// an empty string when the profile has none.
type ProfileLookup interface {
	ProfileUsername(ctx context.Context, uid string) (string, error)
}

// Gate admits verified identities to presence tracking.
type Gate struct {
	Tracker  *Tracker
	Profiles ProfileLookup // optional
	Logger   *slog.Logger
}

// Enter starts presence for id. Unverified identities get
// ErrVerificationRequired and nothing is written.
func (g *Gate) Enter(ctx context.Context, id Identity) (*Session, error) {
	if id.UID == "" {
		return nil, ErrEmptyUID
	}
	if !id.EmailVerified {
		return nil, ErrVerificationRequired
	}

	username := ResolveUsername(g.profileUsername(ctx, id.UID), id.DisplayName)
	return g.Tracker.Start(ctx, id.UID, username)
}

func (g *Gate) profileUsername(ctx context.Context, uid string) string {
	if g.Profiles == nil {
		return ""
	}
	name, err := g.Profiles.ProfileUsername(ctx, uid)
	if err != nil {
		g.logger(ctx).Warn("profile lookup failed, using display name", "uid", uid, "err", err)
		return ""
	}
	return name
}

func (g *Gate) logger(ctx context.Context) *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slogx.FromContext(ctx)
}
