package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// DefaultTokenEndpoint is the Microsoft identity platform token endpoint used
// to exchange a refresh token for a new access token.
const DefaultTokenEndpoint = "https://login.microsoftonline.com/common/oauth2/v2.0/token"

// TokenSource supplies the bearer token attached to every request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// RefreshableTokenSource can obtain a replacement token after the current one
// is rejected. The client calls Refresh once on a 401 response and retries
// the request with the new token.
type RefreshableTokenSource interface {
	TokenSource
	Refresh(ctx context.Context) (string, error)
}

// StaticTokenSource returns a TokenSource that always yields tok. Useful in
// tests and for short-lived CLI invocations.
func StaticTokenSource(tok string) TokenSource {
	return staticTokenSource(tok)
}

type staticTokenSource string

func (s staticTokenSource) Token(ctx context.Context) (string, error) {
	return string(s), nil
}

// MicrosoftTokenSource holds a Microsoft OAuth access/refresh token pair and
// renews it through the identity platform when the access token expires.
// Persist, when set, is invoked with the renewed pair so the caller can write
// it back to durable storage. Safe for concurrent use.
type MicrosoftTokenSource struct {
	ClientID     string
	ClientSecret string

	// Endpoint overrides DefaultTokenEndpoint. Tests point it at a fake.
	Endpoint string

	HTTPClient *http.Client

	Persist func(ctx context.Context, accessToken, refreshToken string) error

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

// NewMicrosoftTokenSource returns a token source seeded with an existing
// token pair, typically loaded from the owning user's record.
func NewMicrosoftTokenSource(clientID, clientSecret, accessToken, refreshToken string) *MicrosoftTokenSource {
	return &MicrosoftTokenSource{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		accessToken:  accessToken,
		refreshToken: refreshToken,
	}
}

func (s *MicrosoftTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accessToken == "" {
		return "", &Error{Op: "token", Message: "no access token; Microsoft account not linked"}
	}
	return s.accessToken, nil
}

// Refresh exchanges the refresh token for a new access token. The identity
// platform may rotate the refresh token; when it does, the new one replaces
// the old.
func (s *MicrosoftTokenSource) Refresh(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refreshToken == "" {
		return "", &Error{Op: "refresh", Message: "no refresh token; Microsoft account not linked"}
	}

	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = DefaultTokenEndpoint
	}
	form := url.Values{
		"client_id":     {s.ClientID},
		"client_secret": {s.ClientSecret},
		"refresh_token": {s.refreshToken},
		"grant_type":    {"refresh_token"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	hc := s.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return "", &Error{Op: "refresh", Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &Error{Op: "refresh", StatusCode: resp.StatusCode, Message: "token refresh rejected"}
	}

	var body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", &Error{Op: "refresh", Message: fmt.Sprintf("decoding token response: %v", err)}
	}

	s.accessToken = body.AccessToken
	if body.RefreshToken != "" {
		s.refreshToken = body.RefreshToken
	}
	if s.Persist != nil {
		if err := s.Persist(ctx, s.accessToken, s.refreshToken); err != nil {
			return "", fmt.Errorf("persisting refreshed tokens: %w", err)
		}
	}
	return s.accessToken, nil
}
