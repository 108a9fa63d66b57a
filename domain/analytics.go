package domain

import "time"

// ProjectAnalytics reports task counts for the current calendar month and the
// signed delta against the previous one. Differences are current minus
// previous, never an absolute value.
type ProjectAnalytics struct {
	TaskCount           int64 `json:"taskCount"`
	TaskDifference      int64 `json:"taskDifference"`
	AssignedTaskCount   int64 `json:"assignedTaskCount"`
	AssignedTaskDiff    int64 `json:"assignedTaskDifference"`
	IncompleteTaskCount int64 `json:"incompleteTaskCount"`
	IncompleteTaskDiff  int64 `json:"incompleteTaskDifference"`
	CompletedTaskCount  int64 `json:"completedTaskCount"`
	CompletedTaskDiff   int64 `json:"completedTaskDifference"`
	OverdueTaskCount    int64 `json:"overdueTaskCount"`
	OverdueTaskDiff     int64 `json:"overdueTaskDifference"`
}

// CountFilter is the predicate for counting tasks inside one creation
// window. The window is half-open: CreatedFrom inclusive, CreatedTo
// exclusive. Optional fields narrow the count.
type CountFilter struct {
	ProjectID   string
	CreatedFrom time.Time
	CreatedTo   time.Time
	AssigneeID  string
	Status      *TaskStatus
	StatusNot   *TaskStatus
	DueBefore   *time.Time
}

// monthWindow returns the UTC calendar month containing now, shifted by
// offset months. offset 0 is the current month, -1 the previous one.
func monthWindow(now time.Time, offset int) (time.Time, time.Time) {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, offset, 0)
	return start, start.AddDate(0, 1, 0)
}
