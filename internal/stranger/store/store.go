package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/stranger/internal/stranger/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the accounts database. Drivers expose sub-repositories so a
// transaction-scoped Store can be handed to the same code.
type Store interface {
	Users() Users

	ApplyMigrations() error

	// Tx starts a transaction. The caller must Commit or Rollback.
	Tx(ctx context.Context) (Tx, error)

	// WithTx commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transaction-scoped Store.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail matches the lower-cased address.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// MarkEmailVerified sets email_verified_at unless it is already set.
	MarkEmailVerified(ctx context.Context, id string, at time.Time) error

	UpdateVerifySecret(ctx context.Context, id, secret string) error

	// UpdateProfile replaces username and display name.
	UpdateProfile(ctx context.Context, id, username, displayName string) error

	CountUsers(ctx context.Context) (int64, error)
}
