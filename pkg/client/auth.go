package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prospectcrm/prospect/pkg/models"
)

// RegisterRequest represents an account registration request.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a password sign-in request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// MicrosoftLinkRequest carries OAuth tokens obtained from the Microsoft
// identity platform to attach to the authenticated account.
type MicrosoftLinkRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse represents an authentication response.
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates a new account and signs it in.
func (c *Client) Register(ctx context.Context, name, email, password string) (*AuthResponse, error) {
	req := RegisterRequest{
		Name:     name,
		Email:    email,
		Password: password,
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/auth/register", req)
	if err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}

	var result AuthResponse
	if err := decodeResponse(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to decode register response: %w", err)
	}

	// Automatically set the auth token for subsequent requests
	c.SetAuthToken(result.Token)

	return &result, nil
}

// Login authenticates an existing user.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	req := LoginRequest{
		Email:    email,
		Password: password,
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/auth/login", req)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}

	var result AuthResponse
	if err := decodeResponse(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}

	c.SetAuthToken(result.Token)

	return &result, nil
}

// Logout ends the current session.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/auth/logout", nil)
	if err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}

	if err := decodeResponse(resp, nil); err != nil {
		return fmt.Errorf("failed to process logout response: %w", err)
	}

	c.SetAuthToken("")

	return nil
}

// CurrentUser retrieves the currently authenticated user.
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/auth/me", nil)
	if err != nil {
		return nil, fmt.Errorf("current user request failed: %w", err)
	}

	var result models.User
	if err := decodeResponse(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to decode current user response: %w", err)
	}

	return &result, nil
}

// LinkMicrosoft stores Microsoft OAuth tokens on the authenticated account,
// enabling the OneDrive document and note mirroring features.
func (c *Client) LinkMicrosoft(ctx context.Context, accessToken, refreshToken string) (*models.User, error) {
	req := MicrosoftLinkRequest{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/auth/microsoft", req)
	if err != nil {
		return nil, fmt.Errorf("microsoft link request failed: %w", err)
	}

	var result models.User
	if err := decodeResponse(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to decode microsoft link response: %w", err)
	}

	return &result, nil
}
