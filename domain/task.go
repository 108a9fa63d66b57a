package domain

import (
	"fmt"
	"strings"
	"time"
)

// TaskStatus is the workflow column a task sits in.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusInReview   TaskStatus = "IN_REVIEW"
	StatusDone       TaskStatus = "DONE"
)

// Valid reports whether s is one of the known workflow columns.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusInReview, StatusDone:
		return true
	}
	return false
}

// ParseTaskStatus converts a raw string into a TaskStatus.
func ParseTaskStatus(raw string) (TaskStatus, error) {
	s := TaskStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown task status %q", raw)
	}
	return s, nil
}

// Position bounds for manual drag ordering. New tasks are placed one step
// above the current workspace minimum; reorder requests must stay in range.
const (
	PositionStep = 1000
	PositionMin  = 1000
	PositionMax  = 1_000_000
)

// Task is the unit being ordered on a board.
type Task struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Status      TaskStatus `json:"status"`
	WorkspaceID string     `json:"workspaceId"`
	ProjectID   string     `json:"projectId"`
	AssigneeID  string     `json:"assigneeId"`
	Description string     `json:"description,omitempty"`
	DueDate     time.Time  `json:"dueDate"`
	Position    int        `json:"position"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskDetail is a task joined with its owning project and assignee.
type TaskDetail struct {
	Task
	Project  Project  `json:"project"`
	Assignee Assignee `json:"assignee"`
}

// Assignee is the membership record a task is assigned to, enriched with the
// underlying user's name and email.
type Assignee struct {
	Member
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CreateTaskInput carries the fields accepted when creating a task. Position
// is never part of the input; it is derived from the workspace contents.
type CreateTaskInput struct {
	Name        string     `json:"name"`
	Status      TaskStatus `json:"status"`
	WorkspaceID string     `json:"workspaceId"`
	ProjectID   string     `json:"projectId"`
	AssigneeID  string     `json:"assigneeId"`
	DueDate     time.Time  `json:"dueDate"`
	Description string     `json:"description,omitempty"`
}

// Validate checks the input against the declared shape.
func (in CreateTaskInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return &ValidationError{Field: "name", Reason: "required"}
	}
	if !in.Status.Valid() {
		return &ValidationError{Field: "status", Reason: "unknown status"}
	}
	if in.WorkspaceID == "" {
		return &ValidationError{Field: "workspaceId", Reason: "required"}
	}
	if in.ProjectID == "" {
		return &ValidationError{Field: "projectId", Reason: "required"}
	}
	if in.AssigneeID == "" {
		return &ValidationError{Field: "assigneeId", Reason: "required"}
	}
	if in.DueDate.IsZero() {
		return &ValidationError{Field: "dueDate", Reason: "required"}
	}
	return nil
}

// UpdateTaskInput carries the fields accepted on a direct task edit.
// WorkspaceID must match the stored task; tasks do not move between
// workspaces through an edit.
type UpdateTaskInput struct {
	Name        string     `json:"name"`
	Status      TaskStatus `json:"status"`
	WorkspaceID string     `json:"workspaceId"`
	ProjectID   string     `json:"projectId"`
	AssigneeID  string     `json:"assigneeId"`
	DueDate     time.Time  `json:"dueDate"`
	Description string     `json:"description,omitempty"`
}

func (in UpdateTaskInput) Validate() error {
	return CreateTaskInput(in).Validate()
}

// ReorderEntry is one element of a bulk reorder batch.
type ReorderEntry struct {
	ID       string     `json:"id"`
	Status   TaskStatus `json:"status"`
	Position int        `json:"position"`
}

// TaskFilter selects tasks for the list query. WorkspaceID is mandatory,
// everything else narrows the result. DueDate matches the UTC calendar day
// [00:00, next 00:00).
type TaskFilter struct {
	WorkspaceID string
	ProjectID   string
	AssigneeID  string
	Status      *TaskStatus
	Search      string
	DueDate     *time.Time
}
