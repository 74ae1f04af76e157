package models

import (
	"time"
)

// Status is the workflow state of a task. Any status may transition to any
// other via an explicit update; there are no automatic transitions.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Priority is the urgency level of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task belongs to exactly one project. Deleting the project deletes its tasks.
type Task struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	ProjectID   int64     `json:"project_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewTask creates a Task with defaulted status/priority and a creation timestamp.
func NewTask(projectID int64, description string) *Task {
	return &Task{
		Description: description,
		Status:      StatusPending,
		Priority:    PriorityMedium,
		ProjectID:   projectID,
		CreatedAt:   time.Now(),
	}
}
