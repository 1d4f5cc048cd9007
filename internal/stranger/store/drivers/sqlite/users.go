package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/aussiebroadwan/stranger/internal/stranger/domain"
)

type usersRepo struct {
	q *queries
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row, err := r.q.GetUserByID(ctx, id)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row, err := r.q.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}

	err := r.q.CreateUser(ctx, userRow{
		ID:              u.ID,
		Email:           strings.ToLower(strings.TrimSpace(u.Email)),
		Username:        u.Username,
		DisplayName:     u.DisplayName,
		PasswordHash:    u.PasswordHash,
		EmailVerifiedAt: mapOptionalTime(u.EmailVerifiedAt),
		VerifySecret:    u.VerifySecret,
		CreatedAt:       u.CreatedAt.UTC(),
		UpdatedAt:       u.UpdatedAt.UTC(),
	})
	return mapConstraint(err)
}

func (r *usersRepo) MarkEmailVerified(ctx context.Context, id string, at time.Time) error {
	return mustAffect(r.q.MarkEmailVerified(ctx, id, at.UTC()))
}

func (r *usersRepo) UpdateVerifySecret(ctx context.Context, id, secret string) error {
	return mustAffect(r.q.UpdateVerifySecret(ctx, id, secret, time.Now().UTC()))
}

func (r *usersRepo) UpdateProfile(ctx context.Context, id, username, displayName string) error {
	return mustAffect(r.q.UpdateProfile(ctx, id, username, displayName, time.Now().UTC()))
}

func (r *usersRepo) CountUsers(ctx context.Context) (int64, error) {
	return r.q.CountUsers(ctx)
}
