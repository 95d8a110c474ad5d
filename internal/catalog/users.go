package catalog

import (
	"context"
	"fmt"
	"net/http"

	"voltmart/internal/domain"
)

// RegisterRequest is the account payload proxied to the upstream user API.
type RegisterRequest struct {
	Name     string `json:"name"`
	LastName string `json:"lastName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Address  string `json:"address,omitempty"`
}

// LoginResult is what the upstream auth endpoint returns: the token the
// gateway passes through untouched plus the authenticated user.
type LoginResult struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// RegisterUser creates an account upstream. Password handling stays
// entirely on the backend.
func (c *Client) RegisterUser(ctx context.Context, req *RegisterRequest) (*domain.User, error) {
	if req == nil || req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrBadRequest)
	}
	var user domain.User
	if err := c.do(ctx, http.MethodPost, "/users", req, &user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return &user, nil
}

// Login authenticates against the upstream auth endpoint.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrBadRequest)
	}
	var result LoginResult
	payload := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", payload, &result); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return &result, nil
}

// RequestPasswordReset asks the upstream to email a reset link. The token
// in that link never passes through the gateway until the user submits it.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrBadRequest)
	}
	payload := map[string]string{"email": email}
	if err := c.do(ctx, http.MethodPost, "/auth/forgot-password", payload, nil); err != nil {
		return fmt.Errorf("failed to request password reset: %w", err)
	}
	return nil
}

// ResetPassword redeems an emailed reset token for a new password.
func (c *Client) ResetPassword(ctx context.Context, token, email, newPassword string) error {
	if token == "" || email == "" || newPassword == "" {
		return fmt.Errorf("%w: token, email and new password are required", ErrBadRequest)
	}
	payload := map[string]string{
		"token":       token,
		"email":       email,
		"newPassword": newPassword,
	}
	if err := c.do(ctx, http.MethodPost, "/auth/reset-password", payload, nil); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	return nil
}

// UserByID fetches a user profile.
func (c *Client) UserByID(ctx context.Context, userID int64) (*domain.User, error) {
	if userID <= 0 {
		return nil, ErrInvalidID
	}
	var user domain.User
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d", userID), nil, &user); err != nil {
		return nil, fmt.Errorf("failed to fetch user %d: %w", userID, err)
	}
	return &user, nil
}
