// Package projects provides HTTP handlers for the project resource.
package projects

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/good-yellow-bee/taskdeck/internal/metrics"
	"github.com/good-yellow-bee/taskdeck/internal/models"
	"github.com/good-yellow-bee/taskdeck/internal/storage"
)

// Response helpers (handler packages cannot import the api package without a
// cycle through the router, so each carries its own)
type errorResponse struct {
	Error errorBody `json:"error"`
}
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
type dataResponse struct {
	Data any `json:"data"`
}

const (
	errCodeBadRequest       = "BAD_REQUEST"
	errCodeValidationFailed = "VALIDATION_FAILED"
	errCodeNotFound         = "NOT_FOUND"
	errCodeConflict         = "CONFLICT"
	errCodeInternalError    = "INTERNAL_ERROR"
)

func jsonError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: errorBody{Code: code, Message: message}})
}

func jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(dataResponse{Data: data})
}

func jsonCreated(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(dataResponse{Data: data})
}

// ProjectResponse is the wire shape of a project.
type ProjectResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
	TaskCount   int64  `json:"task_count"`
}

// DeleteResponse reports how many tasks the cascade removed.
type DeleteResponse struct {
	TasksDeleted int64 `json:"tasks_deleted"`
}

type Handler struct {
	storage storage.Storage
}

func NewHandler(store storage.Storage) *Handler {
	return &Handler{storage: store}
}

// Request types
type CreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateRequest uses pointer fields so an absent field is distinguishable
// from an explicitly empty one; only supplied fields are merged.
type UpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// List returns all projects, optionally filtered by name substring.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	nameFilter := r.URL.Query().Get("name")
	list, err := h.storage.Projects().List(ctx, nameFilter)
	if err != nil {
		log.Printf("list projects error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	resp := make([]*ProjectResponse, len(list))
	for i, p := range list {
		resp[i] = projectToResponse(p)
	}
	jsonOK(w, resp)
}

// Create creates a new project.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}

	if err := ValidateName(req.Name); err != nil {
		jsonError(w, http.StatusUnprocessableEntity, errCodeValidationFailed, err.Error())
		return
	}

	ctx := r.Context()

	// Check name uniqueness
	existing, err := h.storage.Projects().GetByName(ctx, strings.TrimSpace(req.Name))
	if err != nil {
		log.Printf("create project error: check name: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	if existing != nil {
		jsonError(w, http.StatusConflict, errCodeConflict, "project name already exists")
		return
	}

	project := models.NewProject(strings.TrimSpace(req.Name), strings.TrimSpace(req.Description))

	if err := h.storage.Projects().Create(ctx, project); err != nil {
		// A concurrent create can win the name between check and insert
		if errors.Is(err, storage.ErrDuplicateName) {
			jsonError(w, http.StatusConflict, errCodeConflict, "project name already exists")
			return
		}
		log.Printf("create project error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	metrics.ProjectsCreatedTotal.Inc()
	log.Printf("project created: %s (%d)", project.Name, project.ID)
	jsonCreated(w, projectToResponse(project))
}

// GetByID returns a project by ID with its task count.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	project, err := h.storage.Projects().GetByID(ctx, id)
	if err != nil {
		log.Printf("get project error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	if project == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "project not found")
		return
	}

	jsonOK(w, projectToResponse(project))
}

// Update merges the supplied fields into a project.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	project, err := h.storage.Projects().GetByID(ctx, id)
	if err != nil {
		log.Printf("update project error: get: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	if project == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "project not found")
		return
	}

	if req.Name != nil {
		if err := ValidateName(*req.Name); err != nil {
			jsonError(w, http.StatusUnprocessableEntity, errCodeValidationFailed, err.Error())
			return
		}
		name := strings.TrimSpace(*req.Name)
		// Check uniqueness against other projects
		existing, err := h.storage.Projects().GetByName(ctx, name)
		if err != nil {
			log.Printf("update project error: check name: %v", err)
			jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
			return
		}
		if existing != nil && existing.ID != id {
			jsonError(w, http.StatusConflict, errCodeConflict, "project name already exists")
			return
		}
		project.Name = name
	}
	if req.Description != nil {
		project.Description = strings.TrimSpace(*req.Description)
	}

	if err := h.storage.Projects().Update(ctx, project); err != nil {
		if errors.Is(err, storage.ErrDuplicateName) {
			jsonError(w, http.StatusConflict, errCodeConflict, "project name already exists")
			return
		}
		log.Printf("update project error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	log.Printf("project updated: %s (%d)", project.Name, project.ID)
	jsonOK(w, projectToResponse(project))
}

// Delete removes a project and all its tasks, reporting the cascade count.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	project, err := h.storage.Projects().GetByID(ctx, id)
	if err != nil {
		log.Printf("delete project error: get: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	if project == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "project not found")
		return
	}

	tasksDeleted, err := h.storage.Projects().Delete(ctx, id)
	if err != nil {
		log.Printf("delete project error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	metrics.ProjectsDeletedTotal.Inc()
	if tasksDeleted > 0 {
		metrics.TasksCascadeDeletedTotal.Add(float64(tasksDeleted))
	}
	log.Printf("project deleted: %s (%d), %d tasks removed", project.Name, id, tasksDeleted)
	jsonOK(w, DeleteResponse{TasksDeleted: tasksDeleted})
}

// parseID reads the {id} route parameter. A non-numeric id cannot reference
// any project, so it reports not found rather than bad request.
func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "project not found")
		return 0, false
	}
	return id, true
}

func projectToResponse(p *models.Project) *ProjectResponse {
	return &ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		TaskCount:   p.TaskCount,
	}
}
