package service

import "errors"

// Error values double as the wire error codes.
var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrInvalidEmail   = errors.New("invalid_email")
	ErrWeakPassword   = errors.New("weak_password")
	ErrEmailTaken     = errors.New("email_taken")
	ErrUserNotFound   = errors.New("user_not_found")
	ErrWrongPassword  = errors.New("wrong_password")
	ErrInvalidCode    = errors.New("invalid_code")
)
