package models

import (
	"time"
)

// Project groups tasks under a unique name.
type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	// TaskCount is computed on read by counting child tasks; it is not stored.
	TaskCount int64 `json:"task_count"`
}

// NewProject creates a new Project with an initialized creation timestamp.
func NewProject(name, description string) *Project {
	return &Project{
		Name:        name,
		Description: description,
		CreatedAt:   time.Now(),
	}
}
