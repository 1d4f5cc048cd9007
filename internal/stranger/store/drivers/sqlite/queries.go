package sqlite

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries holds the SQL for every repository, bound to a DB or Tx.
type queries struct {
	db DBTX
}

const userColumns = `id, email, username, display_name, password_hash,
	email_verified_at, verify_secret, created_at, updated_at`

type userRow struct {
	ID              string
	Email           string
	Username        string
	DisplayName     string
	PasswordHash    string
	EmailVerifiedAt sql.NullTime
	VerifySecret    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func scanUser(row *sql.Row) (userRow, error) {
	var u userRow
	err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.DisplayName, &u.PasswordHash,
		&u.EmailVerifiedAt, &u.VerifySecret, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *queries) GetUserByID(ctx context.Context, id string) (userRow, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = ?`

func (q *queries) GetUserByEmail(ctx context.Context, email string) (userRow, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const createUser = `INSERT INTO users (` + userColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *queries) CreateUser(ctx context.Context, u userRow) error {
	_, err := q.db.ExecContext(ctx, createUser,
		u.ID, u.Email, u.Username, u.DisplayName, u.PasswordHash,
		u.EmailVerifiedAt, u.VerifySecret, u.CreatedAt, u.UpdatedAt,
	)
	return err
}

const markEmailVerified = `UPDATE users
SET email_verified_at = COALESCE(email_verified_at, ?), updated_at = ?
WHERE id = ?`

func (q *queries) MarkEmailVerified(ctx context.Context, id string, at time.Time) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, markEmailVerified, at, at, id))
}

const updateVerifySecret = `UPDATE users SET verify_secret = ?, updated_at = ? WHERE id = ?`

func (q *queries) UpdateVerifySecret(ctx context.Context, id, secret string, now time.Time) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, updateVerifySecret, secret, now, id))
}

const updateProfile = `UPDATE users SET username = ?, display_name = ?, updated_at = ? WHERE id = ?`

func (q *queries) UpdateProfile(ctx context.Context, id, username, displayName string, now time.Time) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, updateProfile, username, displayName, now, id))
}

const countUsers = `SELECT COUNT(*) FROM users`

func (q *queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countUsers).Scan(&n)
	return n, err
}

func rowsAffected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
