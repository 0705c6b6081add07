package prospect

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/prospectcrm/prospect/pkg/client"
	"github.com/prospectcrm/prospect/pkg/models"
	"github.com/prospectcrm/prospect/pkg/store"
)

// handleRegister creates a new account and signs it in, returning a bearer
// token alongside the created user.
//
// POST /api/auth/register
func (a *App) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req client.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || req.Email == "" {
		respondError(w, http.StatusBadRequest, "Name and email are required")
		return
	}
	if len(req.Password) < 8 {
		respondError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
	}

	ctx := r.Context()
	if err := a.store.CreateUser(ctx, user); err != nil {
		var verr *store.ValidationError
		if errors.As(err, &verr) {
			respondError(w, http.StatusBadRequest, verr.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	token, err := a.sessions.create(user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	a.logger.Info().Str("email", user.Email).Msg("user registered")
	respondJSON(w, http.StatusCreated, client.AuthResponse{Token: token, User: user})
}

// handleLogin authenticates by email and password.
//
// POST /api/auth/login
func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req client.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	ctx := r.Context()
	user, err := a.store.GetUserByEmail(ctx, strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// A missing user and a wrong password produce the same response so the
	// endpoint cannot be used to probe which emails are registered.
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := a.sessions.create(user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, client.AuthResponse{Token: token, User: user})
}

// handleLogout revokes the presented session token. Always succeeds; an
// unknown token is already logged out.
//
// POST /api/auth/logout
func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := getTokenFromHeader(r); token != "" {
		a.sessions.revoke(token)
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// handleGetCurrentUser returns the authenticated user.
//
// GET /api/auth/me
func (a *App) handleGetCurrentUser(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, currentUser(r))
}

// handleLinkMicrosoft stores Microsoft OAuth tokens on the authenticated
// account. The client completes the OAuth code flow itself; this endpoint
// only persists the resulting token pair, which the drive adapter refreshes
// as needed from then on.
//
// POST /api/auth/microsoft
func (a *App) handleLinkMicrosoft(w http.ResponseWriter, r *http.Request) {
	var req client.MicrosoftLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.AccessToken == "" {
		respondError(w, http.StatusBadRequest, "access_token is required")
		return
	}

	user := currentUser(r)
	user.MicrosoftAccessToken = req.AccessToken
	user.MicrosoftRefreshToken = req.RefreshToken

	ctx := r.Context()
	if err := a.store.UpdateUser(ctx, user); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	a.logger.Info().Str("email", user.Email).Msg("microsoft account linked")
	respondJSON(w, http.StatusOK, user)
}
