package prospect

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/prospectcrm/prospect/pkg/models"
)

// Contact handlers manage the people attached to businesses, including the
// embedded interaction log and the primary-contact flag.

// handleCreateContact creates a contact under one of the caller's
// businesses. A company id pointing at someone else's business is reported
// as not found, the same as a nonexistent one.
//
// POST /api/contacts
func (a *App) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	var contact models.Contact
	if err := json.NewDecoder(r.Body).Decode(&contact); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if contact.FirstName == "" || contact.LastName == "" {
		respondError(w, http.StatusBadRequest, "first_name, last_name: must not be empty")
		return
	}
	if _, ok := a.requireBusiness(w, r, contact.CompanyID); !ok {
		return
	}
	if contact.RelationshipStrength == "" {
		contact.RelationshipStrength = models.RelationshipNew
	}
	contact.UserID = currentUser(r).ID

	if err := a.store.CreateContact(r.Context(), &contact); err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, contact)
}

// handleGetContact retrieves a contact by ID.
//
// GET /api/contacts/{id}
func (a *App) handleGetContact(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseContactID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid contact ID")
		return
	}

	contact, err := a.store.GetContact(r.Context(), currentUser(r).ID, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if contact == nil {
		respondError(w, http.StatusNotFound, "Contact not found")
		return
	}

	respondJSON(w, http.StatusOK, contact)
}

// handleListBusinessContacts lists contacts for a business.
//
// GET /api/businesses/{id}/contacts
func (a *App) handleListBusinessContacts(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseBusinessID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid business ID")
		return
	}
	if _, ok := a.requireBusiness(w, r, id); !ok {
		return
	}

	contacts, err := a.store.ListContacts(r.Context(), currentUser(r).ID, &id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, contacts)
}

// handleUpdateContact replaces a contact record. Moving the contact to a
// different business requires that business to be the caller's too.
//
// PUT /api/contacts/{id}
func (a *App) handleUpdateContact(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseContactID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid contact ID")
		return
	}

	var contact models.Contact
	if err := json.NewDecoder(r.Body).Decode(&contact); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if contact.FirstName == "" || contact.LastName == "" {
		respondError(w, http.StatusBadRequest, "first_name, last_name: must not be empty")
		return
	}
	if _, ok := a.requireBusiness(w, r, contact.CompanyID); !ok {
		return
	}
	contact.ID = id

	if err := a.store.UpdateContact(r.Context(), currentUser(r).ID, &contact); err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, contact)
}

// handleDeleteContact deletes a contact.
//
// DELETE /api/contacts/{id}
func (a *App) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseContactID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid contact ID")
		return
	}

	if err := a.store.DeleteContact(r.Context(), currentUser(r).ID, id); err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// handleSearchContacts searches the caller's contacts by name, email or
// position substring.
//
// GET /api/contacts/search?q=
func (a *App) handleSearchContacts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "Query parameter 'q' is required")
		return
	}

	contacts, err := a.store.SearchContacts(r.Context(), currentUser(r).ID, query)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, contacts)
}

// handleAddInteraction appends a touchpoint to a contact's interaction log
// and advances LastContacted to the interaction date when it is newer.
//
// POST /api/contacts/{id}/interactions
func (a *App) handleAddInteraction(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseContactID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid contact ID")
		return
	}

	var interaction models.Interaction
	if err := json.NewDecoder(r.Body).Decode(&interaction); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if interaction.Type == "" {
		interaction.Type = models.InteractionOther
	}
	if interaction.Date.IsZero() {
		interaction.Date = time.Now()
	}

	ctx := r.Context()
	owner := currentUser(r).ID
	contact, err := a.store.GetContact(ctx, owner, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if contact == nil {
		respondError(w, http.StatusNotFound, "Contact not found")
		return
	}

	contact.Interactions = append(contact.Interactions, interaction)
	if contact.LastContacted == nil || interaction.Date.After(*contact.LastContacted) {
		contact.LastContacted = &interaction.Date
	}

	if err := a.store.UpdateContact(ctx, owner, contact); err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, contact)
}

// handleRemoveInteraction removes the interaction at the given zero-based
// index. LastContacted is not recomputed; it records the latest touch even
// if that log entry is pruned.
//
// DELETE /api/contacts/{id}/interactions/{index}
func (a *App) handleRemoveInteraction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := models.ParseContactID(vars["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid contact ID")
		return
	}
	index, err := strconv.Atoi(vars["index"])
	if err != nil || index < 0 {
		respondError(w, http.StatusBadRequest, "Invalid interaction index")
		return
	}

	ctx := r.Context()
	owner := currentUser(r).ID
	contact, err := a.store.GetContact(ctx, owner, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if contact == nil {
		respondError(w, http.StatusNotFound, "Contact not found")
		return
	}
	if index >= len(contact.Interactions) {
		respondError(w, http.StatusNotFound, "Interaction not found")
		return
	}

	contact.Interactions = append(contact.Interactions[:index], contact.Interactions[index+1:]...)

	if err := a.store.UpdateContact(ctx, owner, contact); err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, contact)
}
