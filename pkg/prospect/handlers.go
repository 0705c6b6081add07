package prospect

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/prospectcrm/prospect/pkg/models"
	"github.com/prospectcrm/prospect/pkg/store"
)

// respondJSON sends a JSON response with the given status. A nil payload
// produces an empty body.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_, _ = w.Write(response)
	}
}

// respondError sends a standardized JSON error response:
//
//	{"error": "error message here"}
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondStoreError maps store errors onto HTTP statuses. Validation
// failures are the client's fault, missing records are 404, anything else is
// a server error. Handlers branch on error kinds, never on message text.
func respondStoreError(w http.ResponseWriter, err error) {
	var verr *store.ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "Record not found")
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// requireBusiness loads a business owned by the caller and writes a 404 when
// it does not exist or belongs to someone else. The two cases are
// indistinguishable on the wire.
func (a *App) requireBusiness(w http.ResponseWriter, r *http.Request, id models.BusinessID) (*models.Business, bool) {
	business, err := a.store.GetBusiness(r.Context(), currentUser(r).ID, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	if business == nil {
		respondError(w, http.StatusNotFound, "Business not found")
		return nil, false
	}
	return business, true
}

// handleHealth reports service status for load balancers and monitoring.
//
// GET /api/health
func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"store":  a.config.Store,
	})
}

// Business handlers provide CRUD over the root record of the research
// hierarchy. Every business belongs to the authenticated user; ids of other
// users' businesses behave as if they do not exist.

// handleCreateBusiness creates a business owned by the caller.
//
// POST /api/businesses
func (a *App) handleCreateBusiness(w http.ResponseWriter, r *http.Request) {
	var business models.Business
	if err := json.NewDecoder(r.Body).Decode(&business); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if business.Name == "" {
		respondError(w, http.StatusBadRequest, "name: must not be empty")
		return
	}
	if business.Stage == "" {
		business.Stage = models.StageResearching
	}
	business.UserID = currentUser(r).ID

	if err := a.store.CreateBusiness(r.Context(), &business); err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, business)
}

// handleGetBusiness retrieves a business by ID.
//
// GET /api/businesses/{id}
func (a *App) handleGetBusiness(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseBusinessID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid business ID")
		return
	}

	business, ok := a.requireBusiness(w, r, id)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, business)
}

// handleListBusinesses lists the caller's businesses.
//
// GET /api/businesses
func (a *App) handleListBusinesses(w http.ResponseWriter, r *http.Request) {
	businesses, err := a.store.ListBusinesses(r.Context(), currentUser(r).ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, businesses)
}

// handleUpdateBusiness replaces a business record. The owner and creation
// time are preserved by the store regardless of the payload.
//
// PUT /api/businesses/{id}
func (a *App) handleUpdateBusiness(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseBusinessID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid business ID")
		return
	}

	var business models.Business
	if err := json.NewDecoder(r.Body).Decode(&business); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if business.Name == "" {
		respondError(w, http.StatusBadRequest, "name: must not be empty")
		return
	}
	business.ID = id

	if err := a.store.UpdateBusiness(r.Context(), currentUser(r).ID, &business); err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, business)
}

// handleDeleteBusiness deletes a business together with its contacts,
// notes, documents, tasks and articles. Remote files referenced by deleted
// documents are left in place; only the metadata goes.
//
// DELETE /api/businesses/{id}
func (a *App) handleDeleteBusiness(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseBusinessID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid business ID")
		return
	}

	if err := a.store.DeleteBusiness(r.Context(), currentUser(r).ID, id); err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
