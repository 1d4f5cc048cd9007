package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/stranger/internal/stranger/service"
	"github.com/aussiebroadwan/stranger/pkg/slogx"
	"github.com/aussiebroadwan/stranger/pkg/strangersdk"
)

var serviceErrors = map[error]*strangersdk.APIError{
	service.ErrInvalidRequest: strangersdk.ErrInvalidRequest,
	service.ErrInvalidEmail:   strangersdk.ErrInvalidEmail,
	service.ErrWeakPassword:   strangersdk.ErrWeakPassword,
	service.ErrEmailTaken:     strangersdk.ErrEmailTaken,
	service.ErrUserNotFound:   strangersdk.ErrUserNotFound,
	service.ErrWrongPassword:  strangersdk.ErrWrongPassword,
	service.ErrInvalidCode:    strangersdk.ErrInvalidCode,
}

// writeServiceError maps a service error onto its API error. Anything
// unrecognised is logged and reported as server_error.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for target, apiErr := range serviceErrors {
		if errors.Is(err, target) {
			apiErr.WriteError(w)
			return
		}
	}
	slogx.FromContext(r.Context()).Error("request failed", "err", err)
	strangersdk.ErrServerError.WriteError(w)
}
