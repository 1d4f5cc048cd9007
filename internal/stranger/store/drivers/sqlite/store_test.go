package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/stranger/internal/stranger/domain"
	"github.com/aussiebroadwan/stranger/internal/stranger/store"
	"github.com/aussiebroadwan/stranger/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore("file:" + filepath.Join(t.TempDir(), "stranger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())
	return s
}

func newUser(email string) domain.User {
	return domain.User{
		ID:           idx.New().String(),
		Email:        email,
		Username:     "neo",
		DisplayName:  "Thomas Anderson",
		PasswordHash: "$argon2id$dummy",
		VerifySecret: "JBSWY3DPEHPK3PXP",
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(context.Background()))
}

func TestUsersCreateAndGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	u := newUser("Neo@Example.com ")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	got, err := s.Users().GetUserByEmail(ctx, "neo@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, "neo@example.com", got.Email)
	require.Equal(t, "neo", got.Username)
	require.False(t, got.EmailVerified())
	require.False(t, got.CreatedAt.IsZero())

	byID, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, got, byID)

	n, err := s.Users().CountUsers(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestUsersNotFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Users().GetUserByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Users().GetUserByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.ErrorIs(t, s.Users().MarkEmailVerified(ctx, "missing", time.Now()), store.ErrNotFound)
	require.ErrorIs(t, s.Users().UpdateProfile(ctx, "missing", "a", "b"), store.ErrNotFound)
	require.ErrorIs(t, s.Users().UpdateVerifySecret(ctx, "missing", "S"), store.ErrNotFound)
}

func TestUsersDuplicateEmail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Users().CreateUser(ctx, newUser("trinity@example.com")))
	err := s.Users().CreateUser(ctx, newUser("TRINITY@example.com"))
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestMarkEmailVerifiedKeepsFirstTimestamp(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	u := newUser("morpheus@example.com")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, s.Users().MarkEmailVerified(ctx, u.ID, first))
	require.NoError(t, s.Users().MarkEmailVerified(ctx, u.ID, first.Add(time.Hour)))

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, got.EmailVerified())
	require.True(t, first.Equal(*got.EmailVerifiedAt))
}

func TestUpdateProfileAndSecret(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	u := newUser("oracle@example.com")
	require.NoError(t, s.Users().CreateUser(ctx, u))
	require.NoError(t, s.Users().UpdateProfile(ctx, u.ID, "oracle", "The Oracle"))
	require.NoError(t, s.Users().UpdateVerifySecret(ctx, u.ID, "NEWSECRET"))

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "oracle", got.Username)
	require.Equal(t, "The Oracle", got.DisplayName)
	require.Equal(t, "NEWSECRET", got.VerifySecret)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.Users().CreateUser(ctx, newUser("smith@example.com")))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Users().GetUserByEmail(ctx, "smith@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().CreateUser(ctx, newUser("smith@example.com"))
	}))
	_, err = s.Users().GetUserByEmail(ctx, "smith@example.com")
	require.NoError(t, err)
}
