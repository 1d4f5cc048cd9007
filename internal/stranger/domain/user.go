package domain

import "time"

// User is an account plus its profile document.
type User struct {
	ID           string
	Email        string // lower-cased, unique
	Username     string // profile username, may be empty
	DisplayName  string // provider display name, may be empty
	PasswordHash string // argon2id PHC string

	// EmailVerifiedAt is nil until the verification code is accepted.
	EmailVerifiedAt *time.Time

	// VerifySecret is the base32 TOTP secret behind emailed codes.
	VerifySecret string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u User) EmailVerified() bool { return u.EmailVerifiedAt != nil }
