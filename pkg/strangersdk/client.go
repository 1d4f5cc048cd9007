package strangersdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Client talks to the unauthenticated endpoints and opens Sessions.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient returns a client for the service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Register creates an account and triggers a verification email.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/register", req, "")
	if err != nil {
		return nil, err
	}

	var out RegisterResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for a Session. The session logs in again
// with the same credentials once its token is about to expire.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	login := func(ctx context.Context) (*LoginResponse, error) {
		resp, err := c.doRequest(ctx, http.MethodPost, "/v1/login", LoginRequest{Email: email, Password: password}, "")
		if err != nil {
			return nil, err
		}
		var out LoginResponse
		if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
			return nil, err
		}
		return &out, nil
	}

	lr, err := login(ctx)
	if err != nil {
		return nil, err
	}
	return newSession(c, lr, login), nil
}

// Verify submits the emailed verification code.
func (c *Client) Verify(ctx context.Context, email, code string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/verify", VerifyRequest{Email: email, Code: code}, "")
	if err != nil {
		return err
	}
	return expectStatus(resp, http.StatusNoContent)
}

// ResendVerification asks for a fresh code. The server accepts the request
// whether or not the address belongs to an unverified account.
func (c *Client) ResendVerification(ctx context.Context, email string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/verify/resend", ResendRequest{Email: email}, "")
	if err != nil {
		return err
	}
	return expectStatus(resp, http.StatusAccepted)
}
