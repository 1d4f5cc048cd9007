package strangersdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/stranger/pkg/httpx"
)

// Error codes carried in the "error" field of failed responses.
const (
	ErrorCodeInvalidRequest       = "invalid_request"
	ErrorCodeInvalidEmail         = "invalid_email"
	ErrorCodeWeakPassword         = "weak_password"
	ErrorCodeEmailTaken           = "email_taken"
	ErrorCodeUserNotFound         = "user_not_found"
	ErrorCodeWrongPassword        = "wrong_password"
	ErrorCodeInvalidCode          = "invalid_code"
	ErrorCodeInvalidToken         = "invalid_token"
	ErrorCodeVerificationRequired = "verification_required"
	ErrorCodeRateLimited          = "rate_limit_exceeded"
	ErrorCodeServerError          = "server_error"
)

// APIError is the error body shared by the server and the client. Handlers
// write it with WriteError; the client parses it from non-2xx responses.
type APIError struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Is matches on Code so callers can compare against the predefined errors.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Code == e.Code
}

// WriteError writes e as the JSON response.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, e)
}

// WithDescription returns a copy of e with a different description.
func (e *APIError) WithDescription(desc string) *APIError {
	cp := *e
	cp.Description = desc
	return &cp
}

var (
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required fields",
	}

	ErrInvalidEmail = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidEmail,
		Description: "the email address is badly formatted",
	}

	ErrWeakPassword = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeWeakPassword,
		Description: "password must be at least 8 characters",
	}

	ErrEmailTaken = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeEmailTaken,
		Description: "an account already exists for this email address",
	}

	// ErrUserNotFound is returned by login for an unknown email address.
	ErrUserNotFound = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeUserNotFound,
		Description: "no account exists for this email address",
	}

	ErrWrongPassword = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeWrongPassword,
		Description: "the password is incorrect",
	}

	ErrInvalidCode = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidCode,
		Description: "the verification code is invalid or expired",
	}

	ErrInvalidToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidToken,
		Description: "the access token is missing, invalid or expired",
	}

	ErrVerificationRequired = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeVerificationRequired,
		Description: "email address is not verified",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)

// ErrSessionClosed is returned by a Session whose credentials were dropped.
var ErrSessionClosed = errors.New("strangersdk: session closed")

// parseErrorResponse turns a non-2xx response into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	var e APIError
	if err := json.Unmarshal(body, &e); err == nil && e.Code != "" {
		e.StatusCode = resp.StatusCode
		return &e
	}
	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
