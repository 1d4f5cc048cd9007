package strangersdk

import "github.com/aussiebroadwan/stranger/pkg/jwtx"

// ErrorResponse documents the error body.
type ErrorResponse struct {
	Error            string `json:"error" example:"invalid_request"`
	ErrorDescription string `json:"error_description" example:"the request is malformed or missing required fields"`
}

// RegisterRequest creates an account. Username and DisplayName are optional.
type RegisterRequest struct {
	Email       string `json:"email" example:"neo@example.com"`
	Password    string `json:"password" example:"correct horse battery staple"`
	Username    string `json:"username,omitempty" example:"neo"`
	DisplayName string `json:"display_name,omitempty" example:"Thomas Anderson"`
}

type RegisterResponse struct {
	UserID string `json:"user_id" example:"01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV"`
}

type LoginRequest struct {
	Email    string `json:"email" example:"neo@example.com"`
	Password string `json:"password" example:"correct horse battery staple"`
}

type LoginResponse struct {
	AccessToken   string `json:"access_token"`
	TokenType     string `json:"token_type" example:"Bearer"`
	ExpiresIn     int    `json:"expires_in" example:"3600"`
	UserID        string `json:"user_id" example:"01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV"`
	EmailVerified bool   `json:"email_verified"`
	DisplayName   string `json:"display_name,omitempty" example:"Thomas Anderson"`
}

type VerifyRequest struct {
	Email string `json:"email" example:"neo@example.com"`
	Code  string `json:"code" example:"123456"`
}

type ResendRequest struct {
	Email string `json:"email" example:"neo@example.com"`
}

// ProfileResponse is the caller's account profile.
type ProfileResponse struct {
	UserID        string `json:"user_id" example:"01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV"`
	Email         string `json:"email" example:"neo@example.com"`
	Username      string `json:"username,omitempty" example:"neo"`
	DisplayName   string `json:"display_name,omitempty" example:"Thomas Anderson"`
	EmailVerified bool   `json:"email_verified"`
}

// UpdateProfileRequest replaces both profile fields.
type UpdateProfileRequest struct {
	Username    string `json:"username" example:"neo"`
	DisplayName string `json:"display_name" example:"Thomas Anderson"`
}

// OnlineResponse lists the distinct usernames currently online.
type OnlineResponse struct {
	Count     int      `json:"count" example:"2"`
	Usernames []string `json:"usernames" example:"neo,trinity"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status" example:"ok"`
	Uptime  string        `json:"uptime,omitempty" example:"1h23m45s"`
	Version string        `json:"version,omitempty" example:"0.1.0"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports each dependency checked by /readyz.
type HealthChecks struct {
	Database    string `json:"database" example:"ok"`
	StatusStore string `json:"status_store" example:"ok"`
	Signer      string `json:"signer" example:"ok"`
}

// JWKSResponse is the public key set that verifies access tokens.
type JWKSResponse jwtx.JWKS
