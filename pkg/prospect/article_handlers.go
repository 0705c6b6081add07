package prospect

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/prospectcrm/prospect/pkg/models"
)

// News article handlers manage saved press mentions attached to businesses.

// handleCreateArticle saves an article against one of the caller's
// businesses. SavedAt defaults to now when the payload omits it.
//
// POST /api/articles
func (a *App) handleCreateArticle(w http.ResponseWriter, r *http.Request) {
	var article models.NewsArticle
	if err := json.NewDecoder(r.Body).Decode(&article); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if article.Title == "" {
		respondError(w, http.StatusBadRequest, "title: must not be empty")
		return
	}
	if _, ok := a.requireBusiness(w, r, article.BusinessID); !ok {
		return
	}
	article.UserID = currentUser(r).ID

	if err := a.store.CreateArticle(r.Context(), &article); err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, article)
}

// handleGetArticle retrieves a saved article by ID.
//
// GET /api/articles/{id}
func (a *App) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseArticleID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid article ID")
		return
	}

	article, err := a.store.GetArticle(r.Context(), currentUser(r).ID, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if article == nil {
		respondError(w, http.StatusNotFound, "Article not found")
		return
	}

	respondJSON(w, http.StatusOK, article)
}

// handleListArticles lists every article the caller has saved, across all
// businesses.
//
// GET /api/articles
func (a *App) handleListArticles(w http.ResponseWriter, r *http.Request) {
	articles, err := a.store.ListArticles(r.Context(), currentUser(r).ID, nil)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, articles)
}

// handleListBusinessArticles lists articles saved for a business.
//
// GET /api/businesses/{id}/articles
func (a *App) handleListBusinessArticles(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseBusinessID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid business ID")
		return
	}
	if _, ok := a.requireBusiness(w, r, id); !ok {
		return
	}

	articles, err := a.store.ListArticles(r.Context(), currentUser(r).ID, &id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, articles)
}

// handleUpdateArticle replaces a saved article.
//
// PUT /api/articles/{id}
func (a *App) handleUpdateArticle(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseArticleID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid article ID")
		return
	}

	var article models.NewsArticle
	if err := json.NewDecoder(r.Body).Decode(&article); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if article.Title == "" {
		respondError(w, http.StatusBadRequest, "title: must not be empty")
		return
	}
	if _, ok := a.requireBusiness(w, r, article.BusinessID); !ok {
		return
	}
	article.ID = id

	if err := a.store.UpdateArticle(r.Context(), currentUser(r).ID, &article); err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, article)
}

// handleDeleteArticle deletes a saved article.
//
// DELETE /api/articles/{id}
func (a *App) handleDeleteArticle(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseArticleID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid article ID")
		return
	}

	if err := a.store.DeleteArticle(r.Context(), currentUser(r).ID, id); err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
