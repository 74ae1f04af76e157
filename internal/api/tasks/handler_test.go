package tasks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/good-yellow-bee/taskdeck/internal/models"
	"github.com/good-yellow-bee/taskdeck/internal/storage"
)

// Mock repositories
type mockTaskRepository struct {
	tasks       []*models.Task
	nextID      int64
	createError error
	getError    error
	updateError error
	deleteError error
	listError   error
}

func (m *mockTaskRepository) Create(ctx context.Context, task *models.Task) error {
	if m.createError != nil {
		return m.createError
	}
	m.nextID++
	task.ID = m.nextID
	m.tasks = append(m.tasks, task)
	return nil
}

func (m *mockTaskRepository) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	for _, t := range m.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, nil
}

func (m *mockTaskRepository) Update(ctx context.Context, task *models.Task) error {
	if m.updateError != nil {
		return m.updateError
	}
	for i, t := range m.tasks {
		if t.ID == task.ID {
			m.tasks[i] = task
			return nil
		}
	}
	return nil
}

func (m *mockTaskRepository) Delete(ctx context.Context, id int64) error {
	if m.deleteError != nil {
		return m.deleteError
	}
	for i, t := range m.tasks {
		if t.ID == id {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockTaskRepository) List(ctx context.Context, filter storage.TaskFilter) ([]*models.Task, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	var result []*models.Task
	for _, t := range m.tasks {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && t.Priority != *filter.Priority {
			continue
		}
		if filter.ProjectID != nil && t.ProjectID != *filter.ProjectID {
			continue
		}
		if filter.Text != "" && !strings.Contains(strings.ToLower(t.Description), strings.ToLower(filter.Text)) {
			continue
		}
		result = append(result, t)
	}
	return result, nil
}

func (m *mockTaskRepository) CompleteAll(ctx context.Context) (int64, error) {
	if m.updateError != nil {
		return 0, m.updateError
	}
	var changed int64
	for _, t := range m.tasks {
		if t.Status != models.StatusDone {
			t.Status = models.StatusDone
			changed++
		}
	}
	return changed, nil
}

type mockProjectRepository struct {
	projects []*models.Project
	getError error
}

func (m *mockProjectRepository) Create(ctx context.Context, p *models.Project) error { return nil }

func (m *mockProjectRepository) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	for _, p := range m.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (m *mockProjectRepository) GetByName(ctx context.Context, name string) (*models.Project, error) {
	return nil, nil
}

func (m *mockProjectRepository) Update(ctx context.Context, p *models.Project) error { return nil }

func (m *mockProjectRepository) Delete(ctx context.Context, id int64) (int64, error) { return 0, nil }

func (m *mockProjectRepository) List(ctx context.Context, nameFilter string) ([]*models.Project, error) {
	return m.projects, nil
}

type mockStorage struct {
	taskRepo    *mockTaskRepository
	projectRepo *mockProjectRepository
}

func (m *mockStorage) Open() error                         { return nil }
func (m *mockStorage) Close() error                        { return nil }
func (m *mockStorage) Migrate() error                      { return nil }
func (m *mockStorage) Projects() storage.ProjectRepository { return m.projectRepo }
func (m *mockStorage) Tasks() storage.TaskRepository       { return m.taskRepo }
func (m *mockStorage) Stats() storage.StatsRepository      { return nil }

func newMockStorage() (*mockStorage, *mockTaskRepository, *mockProjectRepository) {
	taskRepo := &mockTaskRepository{}
	projectRepo := &mockProjectRepository{}
	return &mockStorage{taskRepo: taskRepo, projectRepo: projectRepo}, taskRepo, projectRepo
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestList_All(t *testing.T) {
	mockStore, mockRepo, _ := newMockStorage()
	now := time.Now()
	mockRepo.tasks = []*models.Task{
		{ID: 1, Description: "Write docs", Status: models.StatusPending, Priority: models.PriorityMedium, ProjectID: 1, CreatedAt: now},
		{ID: 2, Description: "Fix bug", Status: models.StatusDone, Priority: models.PriorityHigh, ProjectID: 2, CreatedAt: now},
	}

	handler := NewHandler(mockStore)
	req := httptest.NewRequest("GET", "/api/v1/tasks", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		Data []*TaskResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if len(resp.Data) != 2 {
		t.Errorf("items count = %d, want 2", len(resp.Data))
	}
}

func TestList_StatusFilter(t *testing.T) {
	mockStore, mockRepo, _ := newMockStorage()
	now := time.Now()
	mockRepo.tasks = []*models.Task{
		{ID: 1, Description: "Write docs", Status: models.StatusPending, Priority: models.PriorityMedium, ProjectID: 1, CreatedAt: now},
		{ID: 2, Description: "Fix bug", Status: models.StatusDone, Priority: models.PriorityHigh, ProjectID: 1, CreatedAt: now},
	}

	handler := NewHandler(mockStore)
	req := httptest.NewRequest("GET", "/api/v1/tasks?status=done", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		Data []*TaskResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if len(resp.Data) != 1 {
		t.Fatalf("items count = %d, want 1", len(resp.Data))
	}
	if resp.Data[0].Status != "done" {
		t.Errorf("status = %q, want 'done'", resp.Data[0].Status)
	}
}

func TestList_InvalidFilters(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"unknown status", "?status=archived"},
		{"unknown priority", "?priority=urgent"},
		{"bad project_id", "?project_id=abc"},
		{"bad order", "?order=sideways"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockStore, _, _ := newMockStorage()
			handler := NewHandler(mockStore)

			req := httptest.NewRequest("GET", "/api/v1/tasks"+tt.query, nil)
			rec := httptest.NewRecorder()

			handler.List(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d; body: %s", rec.Code, http.StatusBadRequest, rec.Body.String())
			}
		})
	}
}

func TestCreate_Defaults(t *testing.T) {
	mockStore, _, mockProjects := newMockStorage()
	mockProjects.projects = []*models.Project{
		{ID: 1, Name: "Alpha", CreatedAt: time.Now()},
	}

	handler := NewHandler(mockStore)
	body := `{"project_id": 1, "description": "Write docs"}`
	req := httptest.NewRequest("POST", "/api/v1/tasks", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var resp struct {
		Data *TaskResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.Data.Status != "pending" {
		t.Errorf("status = %q, want 'pending'", resp.Data.Status)
	}
	if resp.Data.Priority != "medium" {
		t.Errorf("priority = %q, want 'medium'", resp.Data.Priority)
	}
	if resp.Data.ProjectID != 1 {
		t.Errorf("project_id = %d, want 1", resp.Data.ProjectID)
	}
}

func TestCreate_ExplicitStatusAndPriority(t *testing.T) {
	mockStore, _, mockProjects := newMockStorage()
	mockProjects.projects = []*models.Project{
		{ID: 1, Name: "Alpha", CreatedAt: time.Now()},
	}

	handler := NewHandler(mockStore)
	body := `{"project_id": 1, "description": "Ship release", "status": "in_progress", "priority": "high"}`
	req := httptest.NewRequest("POST", "/api/v1/tasks", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var resp struct {
		Data *TaskResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.Data.Status != "in_progress" {
		t.Errorf("status = %q, want 'in_progress'", resp.Data.Status)
	}
	if resp.Data.Priority != "high" {
		t.Errorf("priority = %q, want 'high'", resp.Data.Priority)
	}
}

func TestCreate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing description", `{"project_id": 1}`},
		{"whitespace description", `{"project_id": 1, "description": "   "}`},
		{"invalid status", `{"project_id": 1, "description": "Task", "status": "archived"}`},
		{"invalid priority", `{"project_id": 1, "description": "Task", "priority": "urgent"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockStore, _, mockProjects := newMockStorage()
			mockProjects.projects = []*models.Project{
				{ID: 1, Name: "Alpha", CreatedAt: time.Now()},
			}
			handler := NewHandler(mockStore)

			req := httptest.NewRequest("POST", "/api/v1/tasks", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			handler.Create(rec, req)

			if rec.Code != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want %d; body: %s", rec.Code, http.StatusUnprocessableEntity, rec.Body.String())
			}
		})
	}
}

func TestCreate_MissingProject(t *testing.T) {
	mockStore, mockRepo, _ := newMockStorage()
	handler := NewHandler(mockStore)

	body := `{"project_id": 42, "description": "Orphan task"}`
	req := httptest.NewRequest("POST", "/api/v1/tasks", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d; body: %s", rec.Code, http.StatusBadRequest, rec.Body.String())
	}
	if len(mockRepo.tasks) != 0 {
		t.Errorf("tasks count = %d, want 0", len(mockRepo.tasks))
	}
}

func TestCreateInProject_PathOverridesBody(t *testing.T) {
	mockStore, _, mockProjects := newMockStorage()
	mockProjects.projects = []*models.Project{
		{ID: 3, Name: "Gamma", CreatedAt: time.Now()},
	}

	handler := NewHandler(mockStore)
	body := `{"project_id": 99, "description": "Nested create"}`
	req := httptest.NewRequest("POST", "/api/v1/projects/3/tasks", strings.NewReader(body))
	req = withURLParam(req, "id", "3")
	rec := httptest.NewRecorder()

	handler.CreateInProject(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var resp struct {
		Data *TaskResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.Data.ProjectID != 3 {
		t.Errorf("project_id = %d, want 3", resp.Data.ProjectID)
	}
}

func TestListByProject_NotFound(t *testing.T) {
	mockStore, _, _ := newMockStorage()
	handler := NewHandler(mockStore)

	req := httptest.NewRequest("GET", "/api/v1/projects/42/tasks", nil)
	req = withURLParam(req, "id", "42")
	rec := httptest.NewRecorder()

	handler.ListByProject(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestListByProject_FiltersToProject(t *testing.T) {
	mockStore, mockRepo, mockProjects := newMockStorage()
	now := time.Now()
	mockProjects.projects = []*models.Project{
		{ID: 1, Name: "Alpha", CreatedAt: now},
	}
	mockRepo.tasks = []*models.Task{
		{ID: 1, Description: "In alpha", Status: models.StatusPending, Priority: models.PriorityMedium, ProjectID: 1, CreatedAt: now},
		{ID: 2, Description: "Elsewhere", Status: models.StatusPending, Priority: models.PriorityMedium, ProjectID: 2, CreatedAt: now},
	}

	handler := NewHandler(mockStore)
	req := httptest.NewRequest("GET", "/api/v1/projects/1/tasks", nil)
	req = withURLParam(req, "id", "1")
	rec := httptest.NewRecorder()

	handler.ListByProject(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		Data []*TaskResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if len(resp.Data) != 1 {
		t.Fatalf("items count = %d, want 1", len(resp.Data))
	}
	if resp.Data[0].ProjectID != 1 {
		t.Errorf("project_id = %d, want 1", resp.Data[0].ProjectID)
	}
}

func TestGetByID_Found(t *testing.T) {
	mockStore, mockRepo, _ := newMockStorage()
	mockRepo.tasks = []*models.Task{
		{ID: 7, Description: "Review PR", Status: models.StatusInProgress, Priority: models.PriorityLow, ProjectID: 1, CreatedAt: time.Now()},
	}

	handler := NewHandler(mockStore)
	req := httptest.NewRequest("GET", "/api/v1/tasks/7", nil)
	req = withURLParam(req, "id", "7")
	rec := httptest.NewRecorder()

	handler.GetByID(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		Data *TaskResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.Data.ID != 7 {
		t.Errorf("id = %d, want 7", resp.Data.ID)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	mockStore, _, _ := newMockStorage()
	handler := NewHandler(mockStore)

	req := httptest.NewRequest("GET", "/api/v1/tasks/99", nil)
	req = withURLParam(req, "id", "99")
	rec := httptest.NewRecorder()

	handler.GetByID(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestGetByID_NonNumericID(t *testing.T) {
	mockStore, _, _ := newMockStorage()
	handler := NewHandler(mockStore)

	req := httptest.NewRequest("GET", "/api/v1/tasks/abc", nil)
	req = withURLParam(req, "id", "abc")
	rec := httptest.NewRecorder()

	handler.GetByID(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestUpdate_MergesFields(t *testing.T) {
	mockStore, mockRepo, _ := newMockStorage()
	mockRepo.tasks = []*models.Task{
		{ID: 1, Description: "Original", Status: models.StatusPending, Priority: models.PriorityMedium, ProjectID: 1, CreatedAt: time.Now()},
	}

	handler := NewHandler(mockStore)
	body := `{"status": "done"}`
	req := httptest.NewRequest("PUT", "/api/v1/tasks/1", strings.NewReader(body))
	req = withURLParam(req, "id", "1")
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp struct {
		Data *TaskResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.Data.Status != "done" {
		t.Errorf("status = %q, want 'done'", resp.Data.Status)
	}
	if resp.Data.Description != "Original" {
		t.Errorf("description = %q, want 'Original'", resp.Data.Description)
	}
	if resp.Data.Priority != "medium" {
		t.Errorf("priority = %q, want 'medium'", resp.Data.Priority)
	}
}

func TestUpdate_MoveToMissingProject(t *testing.T) {
	mockStore, mockRepo, _ := newMockStorage()
	mockRepo.tasks = []*models.Task{
		{ID: 1, Description: "Movable", Status: models.StatusPending, Priority: models.PriorityMedium, ProjectID: 1, CreatedAt: time.Now()},
	}

	handler := NewHandler(mockStore)
	body := `{"project_id": 42}`
	req := httptest.NewRequest("PUT", "/api/v1/tasks/1", strings.NewReader(body))
	req = withURLParam(req, "id", "1")
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d; body: %s", rec.Code, http.StatusBadRequest, rec.Body.String())
	}
}

func TestUpdate_InvalidStatus(t *testing.T) {
	mockStore, mockRepo, _ := newMockStorage()
	mockRepo.tasks = []*models.Task{
		{ID: 1, Description: "Task", Status: models.StatusPending, Priority: models.PriorityMedium, ProjectID: 1, CreatedAt: time.Now()},
	}

	handler := NewHandler(mockStore)
	body := `{"status": "archived"}`
	req := httptest.NewRequest("PUT", "/api/v1/tasks/1", strings.NewReader(body))
	req = withURLParam(req, "id", "1")
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d; body: %s", rec.Code, http.StatusUnprocessableEntity, rec.Body.String())
	}
}

func TestUpdate_NotFound(t *testing.T) {
	mockStore, _, _ := newMockStorage()
	handler := NewHandler(mockStore)

	body := `{"description": "Updated"}`
	req := httptest.NewRequest("PUT", "/api/v1/tasks/99", strings.NewReader(body))
	req = withURLParam(req, "id", "99")
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestDelete_Success(t *testing.T) {
	mockStore, mockRepo, _ := newMockStorage()
	mockRepo.tasks = []*models.Task{
		{ID: 1, Description: "Doomed", Status: models.StatusPending, Priority: models.PriorityMedium, ProjectID: 1, CreatedAt: time.Now()},
	}

	handler := NewHandler(mockStore)
	req := httptest.NewRequest("DELETE", "/api/v1/tasks/1", nil)
	req = withURLParam(req, "id", "1")
	rec := httptest.NewRecorder()

	handler.Delete(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if len(mockRepo.tasks) != 0 {
		t.Errorf("tasks count = %d, want 0", len(mockRepo.tasks))
	}
}

func TestDelete_NotFound(t *testing.T) {
	mockStore, _, _ := newMockStorage()
	handler := NewHandler(mockStore)

	req := httptest.NewRequest("DELETE", "/api/v1/tasks/99", nil)
	req = withURLParam(req, "id", "99")
	rec := httptest.NewRecorder()

	handler.Delete(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestCompleteAll_CountsChanges(t *testing.T) {
	mockStore, mockRepo, _ := newMockStorage()
	now := time.Now()
	mockRepo.tasks = []*models.Task{
		{ID: 1, Description: "A", Status: models.StatusPending, Priority: models.PriorityMedium, ProjectID: 1, CreatedAt: now},
		{ID: 2, Description: "B", Status: models.StatusInProgress, Priority: models.PriorityMedium, ProjectID: 1, CreatedAt: now},
		{ID: 3, Description: "C", Status: models.StatusDone, Priority: models.PriorityMedium, ProjectID: 1, CreatedAt: now},
	}

	handler := NewHandler(mockStore)
	req := httptest.NewRequest("PUT", "/api/v1/tasks/complete_all", nil)
	rec := httptest.NewRecorder()

	handler.CompleteAll(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		Data *CompleteAllResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.Data.TasksCompleted != 2 {
		t.Errorf("tasks_completed = %d, want 2", resp.Data.TasksCompleted)
	}
}

func TestCompleteAll_Empty(t *testing.T) {
	mockStore, _, _ := newMockStorage()
	handler := NewHandler(mockStore)

	req := httptest.NewRequest("PUT", "/api/v1/tasks/complete_all", nil)
	rec := httptest.NewRecorder()

	handler.CompleteAll(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		Data *CompleteAllResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.Data.TasksCompleted != 0 {
		t.Errorf("tasks_completed = %d, want 0", resp.Data.TasksCompleted)
	}
}
