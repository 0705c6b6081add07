package prospect

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
	"sync"

	"github.com/prospectcrm/prospect/pkg/models"
)

// sessionStore maps opaque bearer tokens to user ids. It is in-memory and
// per-process; sessions do not survive a restart. A multi-instance
// deployment would need a shared store (Redis, database) behind the same
// interface.
type sessionStore struct {
	mu     sync.RWMutex
	tokens map[string]models.UserID
}

func newSessionStore() *sessionStore {
	return &sessionStore{tokens: make(map[string]models.UserID)}
}

// create issues a new token for the user.
func (s *sessionStore) create(id models.UserID) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.tokens[token] = id
	s.mu.Unlock()
	return token, nil
}

func (s *sessionStore) lookup(token string) (models.UserID, bool) {
	s.mu.RLock()
	id, ok := s.tokens[token]
	s.mu.RUnlock()
	return id, ok
}

func (s *sessionStore) revoke(token string) {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
}

// generateToken returns a 64-character hex token with 256 bits of entropy,
// safe to carry in HTTP headers and JSON.
func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// getTokenFromHeader extracts the bearer token from the Authorization header.
func getTokenFromHeader(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const bearerPrefix = "Bearer "
	if strings.HasPrefix(auth, bearerPrefix) {
		return auth[len(bearerPrefix):]
	}
	return auth
}

type contextKey string

const userContextKey contextKey = "user"

// requireAuth resolves the bearer token to a user record and stores it in
// the request context. Requests without a valid session get 401 before any
// handler runs.
func (a *App) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := getTokenFromHeader(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		id, ok := a.sessions.lookup(token)
		if !ok {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		// The session holds only the id; the record is fetched fresh so
		// rotated Microsoft tokens are seen immediately.
		user, err := a.store.GetUser(r.Context(), id)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if user == nil {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentUser returns the authenticated user placed by requireAuth. Only
// valid on routes behind the middleware.
func currentUser(r *http.Request) *models.User {
	return r.Context().Value(userContextKey).(*models.User)
}
