package prospect

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/prospectcrm/prospect/pkg/client"
	"github.com/prospectcrm/prospect/pkg/models"
)

// Document handlers manage files held in the user's OneDrive. The store
// keeps only metadata; every byte of file content lives remotely, so these
// endpoints require a linked Microsoft account.

// documentFolder is the OneDrive root folder for uploaded documents. Files
// are filed under documentFolder/Business - <name>[/<category>].
const documentFolder = "Prospect Documents"

// maxUploadBytes caps in-memory multipart parsing at 32 MiB.
const maxUploadBytes = 32 << 20

// handleUploadDocument accepts a multipart upload, stores the file in
// OneDrive and persists the metadata record.
//
// POST /api/documents
// Form fields: business_id, name, description, category, file
func (a *App) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	d := a.driveFor(user)
	if d == nil {
		respondError(w, http.StatusBadRequest, "Microsoft account not linked")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart payload")
		return
	}

	businessID, err := models.ParseBusinessID(r.FormValue("business_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid business ID")
		return
	}
	business, ok := a.requireBusiness(w, r, businessID)
	if !ok {
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}
	category := r.FormValue("category")

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	segments := []string{documentFolder, "Business - " + business.Name}
	if category != "" {
		segments = append(segments, category)
	}

	ctx := r.Context()
	remote, err := d.Upload(ctx, segments, header.Filename, contentType, data)
	if err != nil {
		a.logger.Error().Err(err).Str("business", businessID.String()).Msg("document upload failed")
		respondError(w, http.StatusBadGateway, "Remote storage rejected the upload")
		return
	}

	doc := &models.Document{
		Name:         name,
		Description:  r.FormValue("description"),
		Category:     category,
		FileType:     contentType,
		FileSize:     remote.Size,
		DriveFileID:  remote.ID,
		DriveFileURL: remote.ViewURL,
		BusinessID:   businessID,
		UserID:       user.ID,
	}
	if doc.FileSize == 0 {
		doc.FileSize = int64(len(data))
	}

	if err := a.store.CreateDocument(ctx, doc); err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, doc)
}

// handleGetDocument retrieves a document's metadata by ID.
//
// GET /api/documents/{id}
func (a *App) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseDocumentID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid document ID")
		return
	}

	doc, err := a.store.GetDocument(r.Context(), currentUser(r).ID, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if doc == nil {
		respondError(w, http.StatusNotFound, "Document not found")
		return
	}

	respondJSON(w, http.StatusOK, doc)
}

// handleListBusinessDocuments lists documents for a business.
//
// GET /api/businesses/{id}/documents
func (a *App) handleListBusinessDocuments(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseBusinessID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid business ID")
		return
	}
	if _, ok := a.requireBusiness(w, r, id); !ok {
		return
	}

	docs, err := a.store.ListDocuments(r.Context(), currentUser(r).ID, &id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, docs)
}

// handleDownloadDocument streams the file content through the API so the
// client never needs its own Graph credentials.
//
// GET /api/documents/{id}/download
func (a *App) handleDownloadDocument(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseDocumentID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid document ID")
		return
	}

	ctx := r.Context()
	user := currentUser(r)
	doc, err := a.store.GetDocument(ctx, user.ID, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if doc == nil {
		respondError(w, http.StatusNotFound, "Document not found")
		return
	}

	d := a.driveFor(user)
	if d == nil {
		respondError(w, http.StatusBadRequest, "Microsoft account not linked")
		return
	}

	body, err := d.Download(ctx, doc.DriveFileID)
	if err != nil {
		a.logger.Error().Err(err).Str("document", id.String()).Msg("document download failed")
		respondError(w, http.StatusBadGateway, "Remote storage unavailable")
		return
	}
	defer body.Close()

	if doc.FileType != "" {
		w.Header().Set("Content-Type", doc.FileType)
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Name+`"`)
	_, _ = io.Copy(w, body)
}

// handleShareDocument creates an anonymous view link for the document.
//
// POST /api/documents/{id}/share
func (a *App) handleShareDocument(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseDocumentID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid document ID")
		return
	}

	ctx := r.Context()
	user := currentUser(r)
	doc, err := a.store.GetDocument(ctx, user.ID, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if doc == nil {
		respondError(w, http.StatusNotFound, "Document not found")
		return
	}

	d := a.driveFor(user)
	if d == nil {
		respondError(w, http.StatusBadRequest, "Microsoft account not linked")
		return
	}

	link, err := d.Share(ctx, doc.DriveFileID, "view", "anonymous")
	if err != nil {
		a.logger.Error().Err(err).Str("document", id.String()).Msg("share link creation failed")
		respondError(w, http.StatusBadGateway, "Remote storage unavailable")
		return
	}

	respondJSON(w, http.StatusOK, client.ShareResponse{URL: link})
}

// handleDeleteDocument deletes the metadata record and removes the remote
// file best-effort. A file that cannot be removed remotely is logged and
// orphaned rather than blocking the delete.
//
// DELETE /api/documents/{id}
func (a *App) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseDocumentID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid document ID")
		return
	}

	ctx := r.Context()
	user := currentUser(r)
	doc, err := a.store.GetDocument(ctx, user.ID, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if doc == nil {
		respondError(w, http.StatusNotFound, "Document not found")
		return
	}

	if err := a.store.DeleteDocument(ctx, user.ID, id); err != nil {
		respondStoreError(w, err)
		return
	}

	if d := a.driveFor(user); d != nil {
		if err := d.Delete(ctx, doc.DriveFileID); err != nil {
			a.logger.Warn().Err(err).Str("document", id.String()).Msg("failed to remove remote file")
		}
	}

	respondJSON(w, http.StatusNoContent, nil)
}
