package mmmapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/AyushLimaye7/login-registration-dashboard/internal/contracts"
)

// AuthResult is a successful login or registration.
// User is nil when the API only returned a token.
type AuthResult struct {
	User      *contracts.User
	Token     string
	TokenType string
}

// authResponse accepts both {user, token} and {access_token, token_type}
type authResponse struct {
	User        json.RawMessage `json:"user"`
	Token       string          `json:"token"`
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
}

func (r authResponse) result() (*AuthResult, error) {
	res := &AuthResult{Token: r.Token, TokenType: r.TokenType}
	if res.Token == "" {
		res.Token = r.AccessToken
	}
	if res.Token == "" {
		return nil, &contracts.MalformedResponse{Detail: "auth response without token"}
	}
	if res.TokenType == "" {
		res.TokenType = "bearer"
	}

	if len(r.User) == 0 || string(r.User) == "null" {
		return res, nil
	}

	var user contracts.User
	if err := json.Unmarshal(r.User, &user); err == nil && user.Username != "" {
		res.User = &user
		return res, nil
	}

	// Some deployments answer with the bare username
	var username string
	if err := json.Unmarshal(r.User, &username); err == nil && username != "" {
		res.User = &contracts.User{Username: username}
		return res, nil
	}

	return nil, &contracts.MalformedResponse{Detail: "auth response user field"}
}

// Login sends POST /api/auth/login
func (c *Client) Login(ctx context.Context, req contracts.LoginRequest) (*AuthResult, error) {
	var resp authResponse
	if err := c.post(ctx, "/api/auth/login", "", req, &resp); err != nil {
		return nil, err
	}
	return resp.result()
}

// Register sends POST /api/auth/register
func (c *Client) Register(ctx context.Context, req contracts.RegisterRequest) (*AuthResult, error) {
	var resp authResponse
	if err := c.post(ctx, "/api/auth/register", "", req, &resp); err != nil {
		return nil, err
	}
	return resp.result()
}

// Me resolves the identity behind token via GET /api/auth/me
func (c *Client) Me(ctx context.Context, token string) (*contracts.User, error) {
	if token == "" {
		return nil, contracts.ErrMissingToken
	}

	var user contracts.User
	if err := c.get(ctx, "/api/auth/me", token, &user); err != nil {
		return nil, err
	}
	if user.Username == "" {
		return nil, &contracts.MalformedResponse{Detail: "user without username"}
	}
	return &user, nil
}

// Logout asks the API to revoke token. APIs without a logout endpoint answer 404/405,
// which counts as success since there is nothing to revoke.
func (c *Client) Logout(ctx context.Context, token string) error {
	err := c.post(ctx, "/api/auth/logout", token, nil, nil)
	if err == nil {
		return nil
	}

	var svc *contracts.ServiceError
	if errors.As(err, &svc) {
		if svc.StatusCode == http.StatusNotFound || svc.StatusCode == http.StatusMethodNotAllowed {
			return nil
		}
	}
	return err
}
