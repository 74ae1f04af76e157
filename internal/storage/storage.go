// Package storage provides database storage interfaces and implementations.
package storage

import (
	"context"
	"errors"

	"github.com/good-yellow-bee/taskdeck/internal/models"
)

// Sentinel errors for constraint violations surfaced by the engine. Handlers
// pre-validate, so hitting these means a concurrent write slipped in between
// the check and the statement.
var (
	// ErrDuplicateName is returned when an insert or update violates the
	// unique project name constraint.
	ErrDuplicateName = errors.New("project name already exists")

	// ErrProjectMissing is returned when a task write references a project
	// id that does not exist.
	ErrProjectMissing = errors.New("referenced project does not exist")
)

// Storage is the main interface for database operations.
type Storage interface {
	// Open initializes the database connection.
	Open() error
	// Close closes the database connection.
	Close() error
	// Migrate runs database migrations.
	Migrate() error

	// Repository accessors
	Projects() ProjectRepository
	Tasks() TaskRepository
	Stats() StatsRepository
}

// ProjectRepository defines operations for project management.
// Lookups return (nil, nil) when no row matches.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id int64) (*models.Project, error)
	GetByName(ctx context.Context, name string) (*models.Project, error)
	Update(ctx context.Context, project *models.Project) error
	// Delete removes the project and, by cascade, its tasks. It returns the
	// number of tasks removed alongside the project.
	Delete(ctx context.Context, id int64) (int64, error)
	// List returns projects ordered by id, each annotated with its task
	// count. A non-empty nameFilter keeps only projects whose name contains
	// the filter substring (case-insensitive).
	List(ctx context.Context, nameFilter string) ([]*models.Project, error)
}

// TaskFilter narrows a task listing. Nil/empty fields are ignored; supplied
// fields are combined with logical AND.
type TaskFilter struct {
	Status    *models.Status
	Priority  *models.Priority
	ProjectID *int64
	// Text is a case-insensitive substring match against the description.
	Text string
	// Descending sorts by created_at descending instead of ascending.
	Descending bool
}

// TaskRepository defines operations for task management.
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id int64) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter TaskFilter) ([]*models.Task, error)
	// CompleteAll transitions every task not already done to done and
	// returns the number of rows actually changed.
	CompleteAll(ctx context.Context) (int64, error)
}

// StatsRepository defines read-only aggregate queries over current store
// contents. Nothing here is persisted separately.
type StatsRepository interface {
	// ProjectSummary returns (nil, nil) when the project does not exist.
	ProjectSummary(ctx context.Context, projectID int64) (*models.ProjectSummary, error)
	GlobalSummary(ctx context.Context) (*models.GlobalSummary, error)
}
