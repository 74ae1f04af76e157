package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/good-yellow-bee/taskdeck/internal/models"
)

type sqliteProjectRepo struct {
	db *sql.DB
}

func (r *sqliteProjectRepo) Create(ctx context.Context, project *models.Project) error {
	query := `
		INSERT INTO projects (name, description, created_at)
		VALUES (?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		project.Name, project.Description, project.CreatedAt,
	)
	if err != nil {
		if mapped := mapConstraintError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("insert project: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("project insert id: %w", err)
	}
	project.ID = id
	return nil
}

func (r *sqliteProjectRepo) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	query := `
		SELECT p.id, p.name, p.description, p.created_at, COUNT(t.id)
		FROM projects p
		LEFT JOIN tasks t ON t.project_id = p.id
		WHERE p.id = ?
		GROUP BY p.id
	`
	project := &models.Project{}
	var description sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&project.ID, &project.Name, &description,
		&project.CreatedAt, &project.TaskCount,
	)
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project by id: %w", err)
	}
	project.Description = description.String
	return project, nil
}

func (r *sqliteProjectRepo) GetByName(ctx context.Context, name string) (*models.Project, error) {
	query := `
		SELECT id, name, description, created_at
		FROM projects WHERE name = ?
	`
	project := &models.Project{}
	var description sql.NullString
	err := r.db.QueryRowContext(ctx, query, name).Scan(
		&project.ID, &project.Name, &description, &project.CreatedAt,
	)
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project by name: %w", err)
	}
	project.Description = description.String
	return project, nil
}

func (r *sqliteProjectRepo) Update(ctx context.Context, project *models.Project) error {
	query := `
		UPDATE projects SET name = ?, description = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		project.Name, project.Description, project.ID,
	)
	if err != nil {
		if mapped := mapConstraintError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("update project: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("project not found: %d", project.ID)
	}
	return nil
}

func (r *sqliteProjectRepo) Delete(ctx context.Context, id int64) (int64, error) {
	// Count the children before deleting the parent so the caller can report
	// how many tasks the cascade removed. Both statements share a
	// transaction so no task is counted twice or missed.
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delete project: %w", err)
	}
	defer tx.Rollback()

	var taskCount int64
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tasks WHERE project_id = ?", id,
	).Scan(&taskCount)
	if err != nil {
		return 0, fmt.Errorf("count project tasks: %w", err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return 0, fmt.Errorf("delete project: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return 0, fmt.Errorf("project not found: %d", id)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete project: %w", err)
	}
	return taskCount, nil
}

func (r *sqliteProjectRepo) List(ctx context.Context, nameFilter string) ([]*models.Project, error) {
	builder := sq.Select("p.id", "p.name", "p.description", "p.created_at", "COUNT(t.id)").
		From("projects p").
		LeftJoin("tasks t ON t.project_id = p.id").
		GroupBy("p.id").
		OrderBy("p.id")

	if nameFilter != "" {
		builder = builder.Where("p.name LIKE ?", "%"+nameFilter+"%")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list projects query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		project := &models.Project{}
		var description sql.NullString
		err := rows.Scan(
			&project.ID, &project.Name, &description,
			&project.CreatedAt, &project.TaskCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		project.Description = description.String
		projects = append(projects, project)
	}
	return projects, rows.Err()
}
