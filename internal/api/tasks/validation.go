package tasks

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/good-yellow-bee/taskdeck/internal/models"
	"github.com/good-yellow-bee/taskdeck/internal/storage"
)

const maxDescriptionLength = 500

// ValidateDescription checks a task description from a request body.
func ValidateDescription(description string) error {
	trimmed := strings.TrimSpace(description)
	if trimmed == "" {
		return fmt.Errorf("description is required")
	}
	if len(trimmed) > maxDescriptionLength {
		return fmt.Errorf("description must be %d characters or less", maxDescriptionLength)
	}
	return nil
}

// parseFilter builds a task filter from query parameters. All filters
// compose with AND. Unknown enum or order values are rejected.
func parseFilter(r *http.Request) (storage.TaskFilter, error) {
	var filter storage.TaskFilter
	q := r.URL.Query()

	if v := q.Get("status"); v != "" {
		status := models.Status(v)
		if !status.Valid() {
			return filter, fmt.Errorf("invalid status filter: %q", v)
		}
		filter.Status = &status
	}
	if v := q.Get("priority"); v != "" {
		priority := models.Priority(v)
		if !priority.Valid() {
			return filter, fmt.Errorf("invalid priority filter: %q", v)
		}
		filter.Priority = &priority
	}
	if v := q.Get("project_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return filter, fmt.Errorf("invalid project_id filter: %q", v)
		}
		filter.ProjectID = &id
	}
	filter.Text = strings.TrimSpace(q.Get("text"))

	switch v := q.Get("order"); v {
	case "", "asc":
	case "desc":
		filter.Descending = true
	default:
		return filter, fmt.Errorf("invalid order: %q (want asc or desc)", v)
	}

	return filter, nil
}
