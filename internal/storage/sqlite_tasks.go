package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/good-yellow-bee/taskdeck/internal/models"
)

const tasksTable = "tasks"

type sqliteTaskRepo struct {
	db *sql.DB
}

func (r *sqliteTaskRepo) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (description, status, priority, project_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		task.Description, task.Status, task.Priority,
		task.ProjectID, task.CreatedAt,
	)
	if err != nil {
		if mapped := mapConstraintError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("task insert id: %w", err)
	}
	task.ID = id
	return nil
}

func (r *sqliteTaskRepo) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	query := `
		SELECT id, description, status, priority, project_id, created_at
		FROM tasks WHERE id = ?
	`
	task := &models.Task{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&task.ID, &task.Description, &task.Status, &task.Priority,
		&task.ProjectID, &task.CreatedAt,
	)
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task by id: %w", err)
	}
	return task, nil
}

func (r *sqliteTaskRepo) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks SET description = ?, status = ?, priority = ?, project_id = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		task.Description, task.Status, task.Priority, task.ProjectID,
		task.ID,
	)
	if err != nil {
		if mapped := mapConstraintError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("update task: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task not found: %d", task.ID)
	}
	return nil
}

func (r *sqliteTaskRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task not found: %d", id)
	}
	return nil
}

func (r *sqliteTaskRepo) List(ctx context.Context, filter TaskFilter) ([]*models.Task, error) {
	builder := sq.Select("id", "description", "status", "priority", "project_id", "created_at").
		From(tasksTable)

	if filter.Status != nil {
		builder = builder.Where(sq.Eq{"status": *filter.Status})
	}
	if filter.Priority != nil {
		builder = builder.Where(sq.Eq{"priority": *filter.Priority})
	}
	if filter.ProjectID != nil {
		builder = builder.Where(sq.Eq{"project_id": *filter.ProjectID})
	}
	if filter.Text != "" {
		builder = builder.Where("description LIKE ?", "%"+filter.Text+"%")
	}

	// id is the monotonic secondary key; created_at alone has second-level
	// resolution and collides within a clock tick.
	if filter.Descending {
		builder = builder.OrderBy("created_at DESC", "id DESC")
	} else {
		builder = builder.OrderBy("created_at ASC", "id ASC")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list tasks query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task := &models.Task{}
		err := rows.Scan(
			&task.ID, &task.Description, &task.Status, &task.Priority,
			&task.ProjectID, &task.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (r *sqliteTaskRepo) CompleteAll(ctx context.Context) (int64, error) {
	// Only rows whose status changes are touched, so the affected count is
	// the changed count and a repeat run reports zero.
	result, err := r.db.ExecContext(ctx,
		"UPDATE tasks SET status = ? WHERE status != ?",
		models.StatusDone, models.StatusDone,
	)
	if err != nil {
		return 0, fmt.Errorf("complete all tasks: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("complete all affected rows: %w", err)
	}
	return rows, nil
}
