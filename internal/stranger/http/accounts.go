package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/stranger/internal/stranger/domain"
	"github.com/aussiebroadwan/stranger/internal/stranger/service"
	"github.com/aussiebroadwan/stranger/pkg/httpx"
	"github.com/aussiebroadwan/stranger/pkg/slogx"
	"github.com/aussiebroadwan/stranger/pkg/strangersdk"
)

type RegisterHandler struct {
	Accounts *service.AccountService
}

// ServeHTTP godoc
//
//	@Summary		Register an account
//	@Description	Creates an unverified account and emails a verification code.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		strangersdk.RegisterRequest		true	"email, password, optional username and display name"
//	@Success		201		{object}	strangersdk.RegisterResponse	"user_id"
//	@Failure		400		{object}	strangersdk.ErrorResponse		"invalid_request, invalid_email, weak_password"
//	@Failure		409		{object}	strangersdk.ErrorResponse		"email_taken"
//	@Failure		429		{object}	strangersdk.ErrorResponse		"rate_limit_exceeded"
//	@Router			/v1/register [post].
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req strangersdk.RegisterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		strangersdk.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
		return
	}

	u, err := h.Accounts.Register(r.Context(), service.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		Username:    req.Username,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	slogx.FromContext(r.Context()).Info("account registered", "user_id", u.ID)
	httpx.WriteJSON(w, http.StatusCreated, strangersdk.RegisterResponse{UserID: u.ID})
}

type LoginHandler struct {
	Accounts *service.AccountService
}

// ServeHTTP godoc
//
//	@Summary		Log in
//	@Description	Exchanges email and password for an access token. Unverified accounts can log in;
//	@Description	presence and the online list require a verified token.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		strangersdk.LoginRequest	true	"email, password"
//	@Success		200		{object}	strangersdk.LoginResponse	"access token and account summary"
//	@Failure		400		{object}	strangersdk.ErrorResponse	"invalid_request, invalid_email"
//	@Failure		401		{object}	strangersdk.ErrorResponse	"user_not_found, wrong_password"
//	@Failure		429		{object}	strangersdk.ErrorResponse	"rate_limit_exceeded"
//	@Router			/v1/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req strangersdk.LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		strangersdk.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
		return
	}

	res, err := h.Accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, strangersdk.LoginResponse{
		AccessToken:   res.AccessToken,
		TokenType:     "Bearer",
		ExpiresIn:     int(res.ExpiresIn.Seconds()),
		UserID:        res.User.ID,
		EmailVerified: res.User.EmailVerified(),
		DisplayName:   res.User.DisplayName,
	})
}

type VerifyHandler struct {
	Verification *service.VerificationService
}

// HandleVerify godoc
//
//	@Summary		Verify an email address
//	@Description	Accepts the emailed code. Tokens issued before verification still carry
//	@Description	email_verified=false; log in again to get a verified token.
//	@Tags			Accounts
//	@Accept			json
//	@Param			request	body	strangersdk.VerifyRequest	true	"email, code"
//	@Success		204
//	@Failure		400	{object}	strangersdk.ErrorResponse	"invalid_request, invalid_email, invalid_code"
//	@Failure		429	{object}	strangersdk.ErrorResponse	"rate_limit_exceeded"
//	@Router			/v1/verify [post].
func (h *VerifyHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req strangersdk.VerifyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		strangersdk.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
		return
	}

	err := h.Verification.Verify(r.Context(), req.Email, req.Code)
	if errors.Is(err, service.ErrUserNotFound) {
		err = service.ErrInvalidCode
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleResend godoc
//
//	@Summary		Resend the verification code
//	@Description	Always accepted for a well-formed address, whether or not it needs verifying.
//	@Tags			Accounts
//	@Accept			json
//	@Param			request	body	strangersdk.ResendRequest	true	"email"
//	@Success		202
//	@Failure		400	{object}	strangersdk.ErrorResponse	"invalid_request, invalid_email"
//	@Failure		429	{object}	strangersdk.ErrorResponse	"rate_limit_exceeded"
//	@Router			/v1/verify/resend [post].
func (h *VerifyHandler) HandleResend(w http.ResponseWriter, r *http.Request) {
	var req strangersdk.ResendRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		strangersdk.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
		return
	}

	if err := h.Verification.Resend(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.NoCache(w)
	w.WriteHeader(http.StatusAccepted)
}

type ProfileHandler struct {
	Accounts *service.AccountService
}

// HandleGet godoc
//
//	@Summary		Get the caller's profile
//	@Tags			Accounts
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	strangersdk.ProfileResponse	"profile"
//	@Failure		401	{object}	strangersdk.ErrorResponse	"invalid_token"
//	@Failure		404	{object}	strangersdk.ErrorResponse	"user_not_found"
//	@Router			/v1/me [get].
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	uid, ok := httpx.UserIDFromContext(r.Context())
	if !ok {
		strangersdk.ErrInvalidToken.WriteError(w)
		return
	}

	u, err := h.Accounts.Profile(r.Context(), uid)
	if err != nil {
		writeProfileError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, profileResponse(u))
}

// HandleUpdate godoc
//
//	@Summary		Update the caller's profile
//	@Description	Replaces username and display name. The presence username is resolved at sign-in,
//	@Description	so a change shows up in the online list from the next session on.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		strangersdk.UpdateProfileRequest	true	"username, display_name"
//	@Success		200		{object}	strangersdk.ProfileResponse			"updated profile"
//	@Failure		400		{object}	strangersdk.ErrorResponse			"invalid_request"
//	@Failure		401		{object}	strangersdk.ErrorResponse			"invalid_token"
//	@Router			/v1/me [patch].
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	uid, ok := httpx.UserIDFromContext(r.Context())
	if !ok {
		strangersdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req strangersdk.UpdateProfileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		strangersdk.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
		return
	}

	u, err := h.Accounts.UpdateProfile(r.Context(), uid, req.Username, req.DisplayName)
	if err != nil {
		writeProfileError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, profileResponse(u))
}

// writeProfileError reports a deleted account as 404 rather than the
// login-flavoured 401.
func writeProfileError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, service.ErrUserNotFound) {
		httpx.WriteJSON(w, http.StatusNotFound, strangersdk.ErrUserNotFound)
		return
	}
	writeServiceError(w, r, err)
}

func profileResponse(u domain.User) strangersdk.ProfileResponse {
	return strangersdk.ProfileResponse{
		UserID:        u.ID,
		Email:         u.Email,
		Username:      u.Username,
		DisplayName:   u.DisplayName,
		EmailVerified: u.EmailVerified(),
	}
}
