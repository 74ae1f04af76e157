// Package tasks provides HTTP handlers for the task resource.
package tasks

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

// Response helpers (same pattern as projects)
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

// TaskResponse is the wire shape of a task.
type TaskResponse struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	ProjectID   int64  `json:"project_id"`
	CreatedAt   string `json:"created_at"`
}

// CompleteAllResponse reports how many tasks a bulk completion changed.
type CompleteAllResponse struct {
	TasksCompleted int64 `json:"tasks_completed"`
}

type Handler struct {
	storage storage.Storage
}

func NewHandler(store storage.Storage) *Handler {
	return &Handler{storage: store}
}

// Request types
type CreateRequest struct {
	ProjectID   int64  `json:"project_id"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
}

// UpdateRequest uses pointer fields so only supplied fields are merged.
// Supplying project_id moves the task to another project.
type UpdateRequest struct {
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	ProjectID   *int64  `json:"project_id"`
}

// List returns tasks matching all supplied query filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, err.Error())
		return
	}
	h.list(w, r, filter)
}

// ListByProject returns tasks of one project, honoring the remaining filters.
func (h *Handler) ListByProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.requireProject(w, r)
	if !ok {
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, err.Error())
		return
	}
	filter.ProjectID = &projectID
	h.list(w, r, filter)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, filter storage.TaskFilter) {
	list, err := h.storage.Tasks().List(r.Context(), filter)
	if err != nil {
		log.Printf("list tasks error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	resp := make([]*TaskResponse, len(list))
	for i, t := range list {
		resp[i] = taskToResponse(t)
	}
	jsonOK(w, resp)
}

// Create creates a task under the project named in the request body.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}
	h.create(w, r, req)
}

// CreateInProject creates a task under the project named in the path,
// overriding any project_id in the body.
func (h *Handler) CreateInProject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "project not found")
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}
	req.ProjectID = id
	h.create(w, r, req)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, req CreateRequest) {
	if err := ValidateDescription(req.Description); err != nil {
		jsonError(w, http.StatusUnprocessableEntity, errCodeValidationFailed, err.Error())
		return
	}

	task := models.NewTask(req.ProjectID, strings.TrimSpace(req.Description))
	if req.Status != "" {
		status := models.Status(req.Status)
		if !status.Valid() {
			jsonError(w, http.StatusUnprocessableEntity, errCodeValidationFailed, "status must be pending, in_progress, or done")
			return
		}
		task.Status = status
	}
	if req.Priority != "" {
		priority := models.Priority(req.Priority)
		if !priority.Valid() {
			jsonError(w, http.StatusUnprocessableEntity, errCodeValidationFailed, "priority must be low, medium, or high")
			return
		}
		task.Priority = priority
	}

	ctx := r.Context()

	// A task referencing a nonexistent project is caller-supplied bad data,
	// reported as a client error rather than a server fault.
	project, err := h.storage.Projects().GetByID(ctx, req.ProjectID)
	if err != nil {
		log.Printf("create task error: check project: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	if project == nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "project does not exist")
		return
	}

	if err := h.storage.Tasks().Create(ctx, task); err != nil {
		if errors.Is(err, storage.ErrProjectMissing) {
			jsonError(w, http.StatusBadRequest, errCodeBadRequest, "project does not exist")
			return
		}
		log.Printf("create task error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	metrics.TasksCreatedTotal.Inc()
	log.Printf("task created: %d in project %d", task.ID, task.ProjectID)
	jsonCreated(w, taskToResponse(task))
}

// GetByID returns a task by ID.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	task, err := h.storage.Tasks().GetByID(r.Context(), id)
	if err != nil {
		log.Printf("get task error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	if task == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "task not found")
		return
	}

	jsonOK(w, taskToResponse(task))
}

// Update merges the supplied fields into a task.
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
	task, err := h.storage.Tasks().GetByID(ctx, id)
	if err != nil {
		log.Printf("update task error: get: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	if task == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "task not found")
		return
	}

	wasDone := task.Status == models.StatusDone

	if req.Description != nil {
		if err := ValidateDescription(*req.Description); err != nil {
			jsonError(w, http.StatusUnprocessableEntity, errCodeValidationFailed, err.Error())
			return
		}
		task.Description = strings.TrimSpace(*req.Description)
	}
	if req.Status != nil {
		status := models.Status(*req.Status)
		if !status.Valid() {
			jsonError(w, http.StatusUnprocessableEntity, errCodeValidationFailed, "status must be pending, in_progress, or done")
			return
		}
		task.Status = status
	}
	if req.Priority != nil {
		priority := models.Priority(*req.Priority)
		if !priority.Valid() {
			jsonError(w, http.StatusUnprocessableEntity, errCodeValidationFailed, "priority must be low, medium, or high")
			return
		}
		task.Priority = priority
	}
	if req.ProjectID != nil {
		project, err := h.storage.Projects().GetByID(ctx, *req.ProjectID)
		if err != nil {
			log.Printf("update task error: check project: %v", err)
			jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
			return
		}
		if project == nil {
			jsonError(w, http.StatusBadRequest, errCodeBadRequest, "project does not exist")
			return
		}
		task.ProjectID = *req.ProjectID
	}

	if err := h.storage.Tasks().Update(ctx, task); err != nil {
		if errors.Is(err, storage.ErrProjectMissing) {
			jsonError(w, http.StatusBadRequest, errCodeBadRequest, "project does not exist")
			return
		}
		log.Printf("update task error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	if !wasDone && task.Status == models.StatusDone {
		metrics.TasksCompletedTotal.Inc()
	}
	log.Printf("task updated: %d", task.ID)
	jsonOK(w, taskToResponse(task))
}

// Delete removes a task.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	task, err := h.storage.Tasks().GetByID(ctx, id)
	if err != nil {
		log.Printf("delete task error: get: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	if task == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "task not found")
		return
	}

	if err := h.storage.Tasks().Delete(ctx, id); err != nil {
		log.Printf("delete task error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	log.Printf("task deleted: %d", id)
	w.WriteHeader(http.StatusNoContent)
}

// CompleteAll transitions every non-done task to done in one call.
func (h *Handler) CompleteAll(w http.ResponseWriter, r *http.Request) {
	changed, err := h.storage.Tasks().CompleteAll(r.Context())
	if err != nil {
		log.Printf("complete all error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	if changed > 0 {
		metrics.TasksCompletedTotal.Add(float64(changed))
	}
	log.Printf("complete all: %d tasks changed", changed)
	jsonOK(w, CompleteAllResponse{TasksCompleted: changed})
}

// requireProject resolves the {id} route parameter to an existing project.
func (h *Handler) requireProject(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "project not found")
		return 0, false
	}

	project, err := h.storage.Projects().GetByID(r.Context(), id)
	if err != nil {
		log.Printf("check project error: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return 0, false
	}
	if project == nil {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "project not found")
		return 0, false
	}
	return id, true
}

// parseID reads the {id} route parameter for a task.
func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		jsonError(w, http.StatusNotFound, errCodeNotFound, "task not found")
		return 0, false
	}
	return id, true
}

func taskToResponse(t *models.Task) *TaskResponse {
	return &TaskResponse{
		ID:          t.ID,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		ProjectID:   t.ProjectID,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
	}
}
