package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/good-yellow-bee/taskdeck/internal/models"
)

type sqliteStatsRepo struct {
	db *sql.DB
}

func (r *sqliteStatsRepo) ProjectSummary(ctx context.Context, projectID int64) (*models.ProjectSummary, error) {
	summary := &models.ProjectSummary{ProjectID: projectID}

	err := r.db.QueryRowContext(ctx,
		"SELECT name FROM projects WHERE id = ?", projectID,
	).Scan(&summary.ProjectName)
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project name: %w", err)
	}

	byStatus, err := r.statusCounts(ctx, &projectID)
	if err != nil {
		return nil, err
	}
	summary.ByStatus = byStatus
	summary.TotalTasks = byStatus.Total()

	rows, err := r.db.QueryContext(ctx,
		"SELECT priority, COUNT(*) FROM tasks WHERE project_id = ? GROUP BY priority",
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("count tasks by priority: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var priority models.Priority
		var count int64
		if err := rows.Scan(&priority, &count); err != nil {
			return nil, fmt.Errorf("scan priority count: %w", err)
		}
		switch priority {
		case models.PriorityLow:
			summary.ByPriority.Low = count
		case models.PriorityMedium:
			summary.ByPriority.Medium = count
		case models.PriorityHigh:
			summary.ByPriority.High = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan priority counts: %w", err)
	}

	return summary, nil
}

func (r *sqliteStatsRepo) GlobalSummary(ctx context.Context) (*models.GlobalSummary, error) {
	summary := &models.GlobalSummary{}

	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects").Scan(&summary.TotalProjects)
	if err != nil {
		return nil, fmt.Errorf("count projects: %w", err)
	}

	byStatus, err := r.statusCounts(ctx, nil)
	if err != nil {
		return nil, err
	}
	summary.TasksByStatus = byStatus
	summary.TotalTasks = byStatus.Total()

	if summary.TotalProjects == 0 {
		return summary, nil
	}

	// Highest task count wins, ties broken by lowest project id. Projects
	// with zero tasks still count, so a store with projects but no tasks
	// reports the lowest-id project with count 0.
	top := &models.ProjectTaskCount{}
	err = r.db.QueryRowContext(ctx, `
		SELECT p.id, p.name, COUNT(t.id) AS task_count
		FROM projects p
		LEFT JOIN tasks t ON t.project_id = p.id
		GROUP BY p.id
		ORDER BY task_count DESC, p.id ASC
		LIMIT 1
	`).Scan(&top.ProjectID, &top.Name, &top.TaskCount)
	if err != nil {
		return nil, fmt.Errorf("get project with most tasks: %w", err)
	}
	summary.ProjectWithMostTasks = top

	return summary, nil
}

// statusCounts buckets task counts by status, optionally scoped to a project.
func (r *sqliteStatsRepo) statusCounts(ctx context.Context, projectID *int64) (models.StatusCounts, error) {
	var counts models.StatusCounts

	query := "SELECT status, COUNT(*) FROM tasks GROUP BY status"
	args := []any{}
	if projectID != nil {
		query = "SELECT status, COUNT(*) FROM tasks WHERE project_id = ? GROUP BY status"
		args = append(args, *projectID)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return counts, fmt.Errorf("count tasks by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status models.Status
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return counts, fmt.Errorf("scan status count: %w", err)
		}
		switch status {
		case models.StatusPending:
			counts.Pending = count
		case models.StatusInProgress:
			counts.InProgress = count
		case models.StatusDone:
			counts.Done = count
		}
	}
	if err := rows.Err(); err != nil {
		return counts, fmt.Errorf("scan status counts: %w", err)
	}
	return counts, nil
}
