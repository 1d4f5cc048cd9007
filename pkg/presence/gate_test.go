package presence_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aussiebroadwan/stranger/pkg/presence"
	"github.com/stretchr/testify/require"
)

type profileMap struct {
	names map[string]string
	err   error
}

func (p profileMap) ProfileUsername(_ context.Context, uid string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return p.names[uid], nil
}

func TestGateRejectsUnverifiedWithoutWriting(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := presence.NewMemoryDatabase()
	t.Cleanup(db.Close)
	client := db.NewClient()
	client.Connect()

	gate := &presence.Gate{Tracker: &presence.Tracker{Backend: client}}
	session, err := gate.Enter(ctx, presence.Identity{UID: "u1", EmailVerified: false, DisplayName: "Neo"})
	require.ErrorIs(t, err, presence.ErrVerificationRequired)
	require.Nil(t, session)

	db.Flush()
	require.Zero(t, client.Writes())
	require.Empty(t, db.Records())
	_, armed := client.Armed("u1")
	require.False(t, armed)
}

func TestGateResolvesUsername(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		profiles presence.ProfileLookup
		display  string
		want     string
	}{
		{
			name:     "profile username",
			profiles: profileMap{names: map[string]string{"u1": "the_one"}},
			display:  "Thomas",
			want:     "the_one",
		},
		{
			name:     "display name when profile is blank",
			profiles: profileMap{names: map[string]string{}},
			display:  "Thomas",
			want:     "Thomas",
		},
		{
			name:     "display name when lookup fails",
			profiles: profileMap{err: errors.New("store down")},
			display:  "Thomas",
			want:     "Thomas",
		},
		{
			name:     "anonymous without profiles or display name",
			profiles: nil,
			display:  "",
			want:     presence.AnonymousUsername,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			db := presence.NewMemoryDatabase()
			defer db.Close()
			client := db.NewClient()
			client.Connect()

			gate := &presence.Gate{
				Tracker:  &presence.Tracker{Backend: client},
				Profiles: tt.profiles,
			}
			session, err := gate.Enter(ctx, presence.Identity{UID: "u1", EmailVerified: true, DisplayName: tt.display})
			require.NoError(t, err)
			defer session.Stop(ctx)

			require.Equal(t, tt.want, session.Username())
			db.Flush()
			rec, ok := db.Record("u1")
			require.True(t, ok)
			require.Equal(t, tt.want, rec.Username)
		})
	}
}
