package prospect

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Router builds the full API route table. Exposed separately from Run so
// tests can mount the handler on an httptest server.
//
// # API Endpoints
//
// Health check:
//
//	GET  /api/health                               - Service health status
//
// Authentication:
//
//	POST /api/auth/register                        - Register new account
//	POST /api/auth/login                           - Authenticate by password
//	POST /api/auth/logout                          - End session
//	GET  /api/auth/me                              - Current authenticated user
//	POST /api/auth/microsoft                       - Link Microsoft OAuth tokens
//
// Businesses:
//
//	POST   /api/businesses                         - Create business
//	GET    /api/businesses                         - List own businesses
//	GET    /api/businesses/{id}                    - Get business
//	PUT    /api/businesses/{id}                    - Update business
//	DELETE /api/businesses/{id}                    - Delete business and children
//	GET    /api/businesses/{id}/contacts           - List business contacts
//	GET    /api/businesses/{id}/notes              - List business notes
//	GET    /api/businesses/{id}/documents          - List business documents
//	GET    /api/businesses/{id}/tasks              - List business tasks
//	GET    /api/businesses/{id}/articles           - List business articles
//
// Contacts:
//
//	POST   /api/contacts                           - Create contact
//	GET    /api/contacts/search?q=                 - Search contacts
//	GET    /api/contacts/{id}                      - Get contact
//	PUT    /api/contacts/{id}                      - Update contact
//	DELETE /api/contacts/{id}                      - Delete contact
//	POST   /api/contacts/{id}/interactions         - Log interaction
//	DELETE /api/contacts/{id}/interactions/{index} - Remove interaction
//
// Notes:
//
//	POST   /api/notes                              - Create note
//	GET    /api/notes/search?q=                    - Search notes
//	GET    /api/notes/{id}                         - Get note
//	GET    /api/notes/{id}/html                    - Rendered HTML projection
//	PUT    /api/notes/{id}                         - Update note
//	DELETE /api/notes/{id}                         - Delete note
//
// Documents:
//
//	POST   /api/documents                          - Upload file (multipart)
//	GET    /api/documents/{id}                     - Get metadata
//	GET    /api/documents/{id}/download            - Stream file content
//	POST   /api/documents/{id}/share               - Create sharing link
//	DELETE /api/documents/{id}                     - Delete document
//
// Tasks and articles follow the same CRUD shape under /api/tasks and
// /api/articles.
func (a *App) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(a.logRequests)

	api := router.PathPrefix("/api").Subrouter()

	// Open routes: health and authentication entry points
	api.HandleFunc("/health", a.handleHealth).Methods("GET")
	api.HandleFunc("/auth/register", a.handleRegister).Methods("POST")
	api.HandleFunc("/auth/login", a.handleLogin).Methods("POST")
	api.HandleFunc("/auth/logout", a.handleLogout).Methods("POST")

	// Everything else requires a session
	authed := api.NewRoute().Subrouter()
	authed.Use(a.requireAuth)

	authed.HandleFunc("/auth/me", a.handleGetCurrentUser).Methods("GET")
	authed.HandleFunc("/auth/microsoft", a.handleLinkMicrosoft).Methods("POST")

	// Business routes
	authed.HandleFunc("/businesses", a.handleCreateBusiness).Methods("POST")
	authed.HandleFunc("/businesses", a.handleListBusinesses).Methods("GET")
	authed.HandleFunc("/businesses/{id}", a.handleGetBusiness).Methods("GET")
	authed.HandleFunc("/businesses/{id}", a.handleUpdateBusiness).Methods("PUT")
	authed.HandleFunc("/businesses/{id}", a.handleDeleteBusiness).Methods("DELETE")
	authed.HandleFunc("/businesses/{id}/contacts", a.handleListBusinessContacts).Methods("GET")
	authed.HandleFunc("/businesses/{id}/notes", a.handleListBusinessNotes).Methods("GET")
	authed.HandleFunc("/businesses/{id}/documents", a.handleListBusinessDocuments).Methods("GET")
	authed.HandleFunc("/businesses/{id}/tasks", a.handleListBusinessTasks).Methods("GET")
	authed.HandleFunc("/businesses/{id}/articles", a.handleListBusinessArticles).Methods("GET")

	// Contact routes; search registers before {id} so "search" never
	// parses as an id
	authed.HandleFunc("/contacts", a.handleCreateContact).Methods("POST")
	authed.HandleFunc("/contacts/search", a.handleSearchContacts).Methods("GET")
	authed.HandleFunc("/contacts/{id}", a.handleGetContact).Methods("GET")
	authed.HandleFunc("/contacts/{id}", a.handleUpdateContact).Methods("PUT")
	authed.HandleFunc("/contacts/{id}", a.handleDeleteContact).Methods("DELETE")
	authed.HandleFunc("/contacts/{id}/interactions", a.handleAddInteraction).Methods("POST")
	authed.HandleFunc("/contacts/{id}/interactions/{index}", a.handleRemoveInteraction).Methods("DELETE")

	// Note routes
	authed.HandleFunc("/notes", a.handleCreateNote).Methods("POST")
	authed.HandleFunc("/notes/search", a.handleSearchNotes).Methods("GET")
	authed.HandleFunc("/notes/{id}", a.handleGetNote).Methods("GET")
	authed.HandleFunc("/notes/{id}/html", a.handleGetNoteHTML).Methods("GET")
	authed.HandleFunc("/notes/{id}", a.handleUpdateNote).Methods("PUT")
	authed.HandleFunc("/notes/{id}", a.handleDeleteNote).Methods("DELETE")

	// Document routes
	authed.HandleFunc("/documents", a.handleUploadDocument).Methods("POST")
	authed.HandleFunc("/documents/{id}", a.handleGetDocument).Methods("GET")
	authed.HandleFunc("/documents/{id}/download", a.handleDownloadDocument).Methods("GET")
	authed.HandleFunc("/documents/{id}/share", a.handleShareDocument).Methods("POST")
	authed.HandleFunc("/documents/{id}", a.handleDeleteDocument).Methods("DELETE")

	// Task routes
	authed.HandleFunc("/tasks", a.handleCreateTask).Methods("POST")
	authed.HandleFunc("/tasks", a.handleListTasks).Methods("GET")
	authed.HandleFunc("/tasks/{id}", a.handleGetTask).Methods("GET")
	authed.HandleFunc("/tasks/{id}", a.handleUpdateTask).Methods("PUT")
	authed.HandleFunc("/tasks/{id}", a.handleDeleteTask).Methods("DELETE")

	// Article routes
	authed.HandleFunc("/articles", a.handleCreateArticle).Methods("POST")
	authed.HandleFunc("/articles", a.handleListArticles).Methods("GET")
	authed.HandleFunc("/articles/{id}", a.handleGetArticle).Methods("GET")
	authed.HandleFunc("/articles/{id}", a.handleUpdateArticle).Methods("PUT")
	authed.HandleFunc("/articles/{id}", a.handleDeleteArticle).Methods("DELETE")

	return router
}

// logRequests is the zerolog access-log middleware.
func (a *App) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		a.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

// Run starts the HTTP server and blocks until the context is cancelled or a
// fatal server error occurs. On cancellation, active requests get up to 5
// seconds to complete before the listener closes.
func (a *App) Run(ctx context.Context, cmd *RunCommand) error {
	addr := fmt.Sprintf(":%s", a.config.ServerPort)
	a.logger.Info().Str("addr", addr).Str("store", a.config.Store).Msg("starting prospect server")

	server := &http.Server{
		Addr:    addr,
		Handler: a.Router(),
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}
