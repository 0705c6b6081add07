package prospect

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/prospectcrm/prospect/pkg/models"
)

// Task handlers manage follow-up items. Tasks may stand alone or reference
// one of the caller's businesses.

// handleCreateTask creates a task. An absent business id is fine; a present
// one must reference the caller's business.
//
// POST /api/tasks
func (a *App) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var task models.Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if task.Title == "" {
		respondError(w, http.StatusBadRequest, "title: must not be empty")
		return
	}
	if task.BusinessID != nil {
		if _, ok := a.requireBusiness(w, r, *task.BusinessID); !ok {
			return
		}
	}
	if task.Status == "" {
		task.Status = models.TaskTodo
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	task.UserID = currentUser(r).ID

	if err := a.store.CreateTask(r.Context(), &task); err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, task)
}

// handleGetTask retrieves a task by ID.
//
// GET /api/tasks/{id}
func (a *App) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseTaskID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid task ID")
		return
	}

	task, err := a.store.GetTask(r.Context(), currentUser(r).ID, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if task == nil {
		respondError(w, http.StatusNotFound, "Task not found")
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// handleListTasks lists all of the caller's tasks.
//
// GET /api/tasks
func (a *App) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := a.store.ListTasks(r.Context(), currentUser(r).ID, nil)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, tasks)
}

// handleListBusinessTasks lists tasks referencing a business.
//
// GET /api/businesses/{id}/tasks
func (a *App) handleListBusinessTasks(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseBusinessID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid business ID")
		return
	}
	if _, ok := a.requireBusiness(w, r, id); !ok {
		return
	}

	tasks, err := a.store.ListTasks(r.Context(), currentUser(r).ID, &id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, tasks)
}

// handleUpdateTask replaces a task record.
//
// PUT /api/tasks/{id}
func (a *App) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseTaskID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid task ID")
		return
	}

	var task models.Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if task.Title == "" {
		respondError(w, http.StatusBadRequest, "title: must not be empty")
		return
	}
	if task.BusinessID != nil {
		if _, ok := a.requireBusiness(w, r, *task.BusinessID); !ok {
			return
		}
	}
	if task.Status == "" {
		task.Status = models.TaskTodo
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	task.ID = id

	if err := a.store.UpdateTask(r.Context(), currentUser(r).ID, &task); err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// handleDeleteTask deletes a task.
//
// DELETE /api/tasks/{id}
func (a *App) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseTaskID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid task ID")
		return
	}

	if err := a.store.DeleteTask(r.Context(), currentUser(r).ID, id); err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
