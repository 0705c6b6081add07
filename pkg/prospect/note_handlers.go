package prospect

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/prospectcrm/prospect/pkg/client"
	"github.com/prospectcrm/prospect/pkg/content"
	"github.com/prospectcrm/prospect/pkg/models"
)

// Note handlers manage rich-text research notes. Content travels as the
// serialized block document; the server validates it on every write so the
// store never holds anything the renderer cannot read.

// noteFolder is the OneDrive folder receiving plain-text note mirrors.
const noteFolder = "Prospect Notes"

// handleCreateNote creates a note under one of the caller's businesses.
// When the caller has a linked Microsoft account, a plain-text export is
// mirrored to OneDrive; mirror failure does not fail the request.
//
// POST /api/notes
func (a *App) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var note models.Note
	if err := json.NewDecoder(r.Body).Decode(&note); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if note.Title == "" {
		respondError(w, http.StatusBadRequest, "title: must not be empty")
		return
	}

	doc, err := content.Unmarshal(note.Content)
	if err != nil {
		var malformed *content.MalformedContentError
		if errors.As(err, &malformed) {
			respondError(w, http.StatusBadRequest, malformed.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if _, ok := a.requireBusiness(w, r, note.BusinessID); !ok {
		return
	}
	user := currentUser(r)
	note.UserID = user.ID

	ctx := r.Context()
	if err := a.store.CreateNote(ctx, &note); err != nil {
		respondStoreError(w, err)
		return
	}

	a.mirrorNote(ctx, user, &note, doc)

	respondJSON(w, http.StatusCreated, note)
}

// handleGetNote retrieves a note by ID.
//
// GET /api/notes/{id}
func (a *App) handleGetNote(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseNoteID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid note ID")
		return
	}

	note, err := a.store.GetNote(r.Context(), currentUser(r).ID, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if note == nil {
		respondError(w, http.StatusNotFound, "Note not found")
		return
	}

	respondJSON(w, http.StatusOK, note)
}

// handleGetNoteHTML returns the rendered read-only projection of a note.
// Malformed stored content renders as a placeholder instead of erroring, so
// a note stays readable even if its content was corrupted.
//
// GET /api/notes/{id}/html
func (a *App) handleGetNoteHTML(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseNoteID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid note ID")
		return
	}

	note, err := a.store.GetNote(r.Context(), currentUser(r).ID, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if note == nil {
		respondError(w, http.StatusNotFound, "Note not found")
		return
	}

	respondJSON(w, http.StatusOK, client.NoteHTMLResponse{
		ID:    note.ID,
		Title: note.Title,
		HTML:  content.RenderStored(note.Content),
	})
}

// handleListBusinessNotes lists notes for a business.
//
// GET /api/businesses/{id}/notes
func (a *App) handleListBusinessNotes(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseBusinessID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid business ID")
		return
	}
	if _, ok := a.requireBusiness(w, r, id); !ok {
		return
	}

	notes, err := a.store.ListNotes(r.Context(), currentUser(r).ID, &id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, notes)
}

// handleUpdateNote replaces a note. Reparenting onto a business the caller
// does not own fails before anything is written, so a failed update never
// leaves a partially moved note.
//
// PUT /api/notes/{id}
func (a *App) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseNoteID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid note ID")
		return
	}

	var note models.Note
	if err := json.NewDecoder(r.Body).Decode(&note); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if note.Title == "" {
		respondError(w, http.StatusBadRequest, "title: must not be empty")
		return
	}

	doc, err := content.Unmarshal(note.Content)
	if err != nil {
		var malformed *content.MalformedContentError
		if errors.As(err, &malformed) {
			respondError(w, http.StatusBadRequest, malformed.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if _, ok := a.requireBusiness(w, r, note.BusinessID); !ok {
		return
	}
	note.ID = id
	user := currentUser(r)

	ctx := r.Context()
	if err := a.store.UpdateNote(ctx, user.ID, &note); err != nil {
		respondStoreError(w, err)
		return
	}

	a.mirrorNote(ctx, user, &note, doc)

	respondJSON(w, http.StatusOK, note)
}

// handleDeleteNote deletes a note. The OneDrive mirror, if any, is removed
// best-effort.
//
// DELETE /api/notes/{id}
func (a *App) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseNoteID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid note ID")
		return
	}

	ctx := r.Context()
	user := currentUser(r)
	note, err := a.store.GetNote(ctx, user.ID, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if note == nil {
		respondError(w, http.StatusNotFound, "Note not found")
		return
	}

	if err := a.store.DeleteNote(ctx, user.ID, id); err != nil {
		respondStoreError(w, err)
		return
	}

	if note.DriveFileID != "" {
		if d := a.driveFor(user); d != nil {
			if err := d.Delete(ctx, note.DriveFileID); err != nil {
				a.logger.Warn().Err(err).Str("note", id.String()).Msg("failed to remove note mirror")
			}
		}
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// handleSearchNotes searches the caller's notes by title or tag substring.
//
// GET /api/notes/search?q=
func (a *App) handleSearchNotes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "Query parameter 'q' is required")
		return
	}

	notes, err := a.store.SearchNotes(r.Context(), currentUser(r).ID, query)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, notes)
}

// mirrorNote uploads a plain-text export of the note to the user's OneDrive
// and records the file handle on the note. Failures are logged and swallowed:
// the note is already persisted and remote storage is an optional extra.
func (a *App) mirrorNote(ctx context.Context, user *models.User, note *models.Note, doc content.Content) {
	d := a.driveFor(user)
	if d == nil {
		return
	}

	file, err := d.Upload(ctx, []string{noteFolder}, note.Title+".txt", "text/plain", []byte(content.PlainText(doc)))
	if err != nil {
		a.logger.Warn().Err(err).Str("note", note.ID.String()).Msg("failed to mirror note to OneDrive")
		return
	}

	note.DriveFileID = file.ID
	note.DriveFileURL = file.ViewURL
	if err := a.store.UpdateNote(ctx, user.ID, note); err != nil {
		a.logger.Warn().Err(err).Str("note", note.ID.String()).Msg("failed to record note mirror handle")
	}
}
