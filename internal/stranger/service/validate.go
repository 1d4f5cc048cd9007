package service

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MinPasswordLength is the shortest password Register accepts.
const MinPasswordLength = 8

var validate = validator.New(validator.WithRequiredStructEnabled())

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateEmail reports ErrInvalidEmail for anything that is not a single
// address.
func validateEmail(email string) error {
	if err := validate.Var(email, "required,email,max=254"); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

// validationError maps the first failed field onto a service error.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return ErrInvalidRequest
	}
	switch verrs[0].Field() {
	case "Email":
		return ErrInvalidEmail
	case "Password":
		return ErrWeakPassword
	default:
		return ErrInvalidRequest
	}
}
