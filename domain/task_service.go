package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TaskStorage defines the persistence operations the task service needs.
// FindMembership and the lookup methods return nil (not an error) when the
// record is absent.
type TaskStorage interface {
	FindMembership(ctx context.Context, workspaceID, userID string) (*Member, error)
	FindMinPosition(ctx context.Context, workspaceID string) (pos int, found bool, err error)
	CreateTask(ctx context.Context, t *Task) error
	GetTask(ctx context.Context, id string) (*TaskDetail, error)
	FindTasksByIDs(ctx context.Context, ids []string) ([]Task, error)
	ListTasks(ctx context.Context, f TaskFilter) ([]TaskDetail, error)
	UpdateTask(ctx context.Context, t *Task) error
	DeleteTask(ctx context.Context, id, workspaceID string) error
	// UpdateTasksAtomically applies every entry in one transaction and
	// returns the updated rows in batch order. Either all updates apply or
	// none do.
	UpdateTasksAtomically(ctx context.Context, batch []ReorderEntry) ([]Task, error)
}

// TaskService implements task creation, querying, editing and the bulk
// reorder protocol. Every operation takes the resolved caller identity as an
// explicit input and re-checks workspace membership before touching data.
type TaskService struct{ st TaskStorage }

func NewTaskService(st TaskStorage) TaskService { return TaskService{st: st} }

// Create assigns the new task a position relative to the workspace minimum
// and persists it. The scan is workspace-wide, not per-column: an empty
// workspace yields position 1000, otherwise min+1000.
func (s TaskService) Create(ctx context.Context, userID string, in CreateTaskInput) (Task, error) {
	if err := in.Validate(); err != nil {
		return Task{}, err
	}
	member, err := s.st.FindMembership(ctx, in.WorkspaceID, userID)
	if err != nil {
		return Task{}, err
	}
	if member == nil {
		return Task{}, ErrUnauthorized
	}

	pos := PositionMin
	min, found, err := s.st.FindMinPosition(ctx, in.WorkspaceID)
	if err != nil {
		return Task{}, err
	}
	if found {
		pos = min + PositionStep
	}

	now := time.Now().UTC()
	task := Task{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Status:      in.Status,
		WorkspaceID: in.WorkspaceID,
		ProjectID:   in.ProjectID,
		AssigneeID:  in.AssigneeID,
		Description: in.Description,
		DueDate:     in.DueDate,
		Position:    pos,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.st.CreateTask(ctx, &task); err != nil {
		return Task{}, err
	}
	return task, nil
}

// List returns the workspace's tasks matching the filter, newest first, each
// joined with its project and assignee.
func (s TaskService) List(ctx context.Context, userID string, f TaskFilter) ([]TaskDetail, error) {
	if f.WorkspaceID == "" {
		return nil, &ValidationError{Field: "workspaceId", Reason: "required"}
	}
	if f.Status != nil && !f.Status.Valid() {
		return nil, &ValidationError{Field: "status", Reason: "unknown status"}
	}
	member, err := s.st.FindMembership(ctx, f.WorkspaceID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrUnauthorized
	}
	return s.st.ListTasks(ctx, f)
}

// Get fetches a single task with its joined project and assignee.
func (s TaskService) Get(ctx context.Context, userID, id string) (*TaskDetail, error) {
	detail, err := s.st.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, ErrTaskNotFound
	}
	member, err := s.st.FindMembership(ctx, detail.WorkspaceID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrUnauthorized
	}
	return detail, nil
}

// Update edits a task's fields in place. Position and workspace are not
// touched; moving between columns goes through BulkReorder.
func (s TaskService) Update(ctx context.Context, userID, id string, in UpdateTaskInput) (Task, error) {
	if err := in.Validate(); err != nil {
		return Task{}, err
	}
	detail, err := s.st.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if detail == nil {
		return Task{}, ErrTaskNotFound
	}
	if in.WorkspaceID != detail.WorkspaceID {
		return Task{}, &ValidationError{Field: "workspaceId", Reason: "tasks cannot change workspace"}
	}
	member, err := s.st.FindMembership(ctx, detail.WorkspaceID, userID)
	if err != nil {
		return Task{}, err
	}
	if member == nil {
		return Task{}, ErrUnauthorized
	}

	task := detail.Task
	task.Name = in.Name
	task.Status = in.Status
	task.ProjectID = in.ProjectID
	task.AssigneeID = in.AssigneeID
	task.DueDate = in.DueDate
	task.Description = in.Description
	task.UpdatedAt = time.Now().UTC()
	if err := s.st.UpdateTask(ctx, &task); err != nil {
		return Task{}, err
	}
	return task, nil
}

// Delete removes a task. Dependent records are an external concern; nothing
// cascades here.
func (s TaskService) Delete(ctx context.Context, userID, id string) error {
	tasks, err := s.st.FindTasksByIDs(ctx, []string{id})
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return ErrTaskNotFound
	}
	member, err := s.st.FindMembership(ctx, tasks[0].WorkspaceID, userID)
	if err != nil {
		return err
	}
	if member == nil {
		return ErrUnauthorized
	}
	return s.st.DeleteTask(ctx, id, tasks[0].WorkspaceID)
}

// BulkReorder commits a drag-and-drop rearrangement: every entry's status and
// position is applied in one transaction. Validation is fail-closed; the
// batch is rejected wholesale before any write when an id does not resolve,
// the tasks span more than one workspace, or the caller is not a member of
// that workspace.
func (s TaskService) BulkReorder(ctx context.Context, userID string, batch []ReorderEntry) ([]Task, error) {
	if _, err := s.authorizeBatch(ctx, userID, batch); err != nil {
		return nil, err
	}
	return s.st.UpdateTasksAtomically(ctx, batch)
}

// ReplayReorder answers a retried commit without re-applying it. The batch
// passes the same admission sequence as a fresh commit; the current rows of
// the referenced tasks are returned unchanged.
func (s TaskService) ReplayReorder(ctx context.Context, userID string, batch []ReorderEntry) ([]Task, error) {
	return s.authorizeBatch(ctx, userID, batch)
}

// authorizeBatch runs the reorder admission sequence: shape validation,
// resolving every id, the single-workspace requirement, then membership. The
// resolved tasks are returned in batch order.
func (s TaskService) authorizeBatch(ctx context.Context, userID string, batch []ReorderEntry) ([]Task, error) {
	if len(batch) == 0 {
		return nil, &ValidationError{Field: "tasks", Reason: "empty batch"}
	}
	ids := make([]string, 0, len(batch))
	seen := make(map[string]struct{}, len(batch))
	for _, e := range batch {
		if e.ID == "" {
			return nil, &ValidationError{Field: "tasks.id", Reason: "required"}
		}
		if !e.Status.Valid() {
			return nil, &ValidationError{Field: "tasks.status", Reason: "unknown status"}
		}
		if e.Position < PositionMin || e.Position > PositionMax {
			return nil, &ValidationError{Field: "tasks.position", Reason: "out of range"}
		}
		if _, dup := seen[e.ID]; dup {
			return nil, &ValidationError{Field: "tasks.id", Reason: "duplicate id"}
		}
		seen[e.ID] = struct{}{}
		ids = append(ids, e.ID)
	}

	tasks, err := s.st.FindTasksByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(tasks) < len(ids) {
		return nil, ErrTaskNotFound
	}

	workspaceID := tasks[0].WorkspaceID
	for _, t := range tasks[1:] {
		if t.WorkspaceID != workspaceID {
			return nil, ErrMixedWorkspaces
		}
	}

	member, err := s.st.FindMembership(ctx, workspaceID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrUnauthorized
	}

	byID := make(map[string]Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	out := make([]Task, 0, len(batch))
	for _, e := range batch {
		out = append(out, byID[e.ID])
	}
	return out, nil
}
