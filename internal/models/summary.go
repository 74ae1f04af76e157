package models

// StatusCounts buckets task counts by status. All buckets are always present,
// zero-filled when no task matches.
type StatusCounts struct {
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"in_progress"`
	Done       int64 `json:"done"`
}

// Total returns the sum across all status buckets.
func (c StatusCounts) Total() int64 {
	return c.Pending + c.InProgress + c.Done
}

// PriorityCounts buckets task counts by priority.
type PriorityCounts struct {
	Low    int64 `json:"low"`
	Medium int64 `json:"medium"`
	High   int64 `json:"high"`
}

// ProjectSummary is the per-project task rollup.
type ProjectSummary struct {
	ProjectID   int64          `json:"project_id"`
	ProjectName string         `json:"project_name"`
	TotalTasks  int64          `json:"total_tasks"`
	ByStatus    StatusCounts   `json:"by_status"`
	ByPriority  PriorityCounts `json:"by_priority"`
}

// ProjectTaskCount identifies a project together with its task count.
type ProjectTaskCount struct {
	ProjectID int64  `json:"project_id"`
	Name      string `json:"name"`
	TaskCount int64  `json:"task_count"`
}

// GlobalSummary is the store-wide rollup. ProjectWithMostTasks is nil only
// when there are no projects; ties are broken by lowest project id.
type GlobalSummary struct {
	TotalProjects        int64             `json:"total_projects"`
	TotalTasks           int64             `json:"total_tasks"`
	TasksByStatus        StatusCounts      `json:"tasks_by_status"`
	ProjectWithMostTasks *ProjectTaskCount `json:"project_with_most_tasks"`
}
