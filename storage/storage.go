package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tracklane-api/domain"
)

// Store provides access to the relational schema through GORM.
type Store struct {
	db *gorm.DB
}

// New opens a Postgres-backed Store from the given DSN.
func New(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Migrate creates or updates the schema. Intended for local development; the
// deployed schema is provisioned externally.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&userRow{}, &workspaceRow{}, &memberRow{}, &projectRow{}, &taskRow{})
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// FindMembership returns the caller's membership record in the workspace, or
// nil when none exists.
func (s *Store) FindMembership(ctx context.Context, workspaceID, userID string) (*domain.Member, error) {
	var row memberRow
	err := s.db.WithContext(ctx).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m := memberFromRow(row)
	return &m, nil
}

// FindMinPosition returns the lowest position among all tasks in the
// workspace. The scan is workspace-wide regardless of status column.
func (s *Store) FindMinPosition(ctx context.Context, workspaceID string) (int, bool, error) {
	var row taskRow
	err := s.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("position ASC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return row.Position, true, nil
}

// CreateTask inserts a single task row.
func (s *Store) CreateTask(ctx context.Context, t *domain.Task) error {
	row := rowFromTask(t)
	return s.db.WithContext(ctx).Omit("Project", "Assignee").Create(&row).Error
}

// GetTask fetches one task with its project and assignee joined, or nil when
// it does not exist.
func (s *Store) GetTask(ctx context.Context, id string) (*domain.TaskDetail, error) {
	var row taskRow
	err := s.db.WithContext(ctx).
		Preload("Project").
		Preload("Assignee").
		Preload("Assignee.User").
		Where("id = ?", id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	detail := detailFromRow(row)
	return &detail, nil
}

// FindTasksByIDs resolves the given ids; missing ids are simply absent from
// the result.
func (s *Store) FindTasksByIDs(ctx context.Context, ids []string) ([]domain.Task, error) {
	var rows []taskRow
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	tasks := make([]domain.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, taskFromRow(r))
	}
	return tasks, nil
}

// ListTasks returns the workspace's tasks matching the filter, newest first,
// with project and assignee preloaded.
func (s *Store) ListTasks(ctx context.Context, f domain.TaskFilter) ([]domain.TaskDetail, error) {
	q := s.db.WithContext(ctx).
		Model(&taskRow{}).
		Where("workspace_id = ?", f.WorkspaceID)
	if f.ProjectID != "" {
		q = q.Where("project_id = ?", f.ProjectID)
	}
	if f.AssigneeID != "" {
		q = q.Where("assignee_id = ?", f.AssigneeID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", string(*f.Status))
	}
	if f.Search != "" {
		q = q.Where("name ILIKE ?", "%"+escapeLike(f.Search)+"%")
	}
	if f.DueDate != nil {
		from, to := dayWindow(*f.DueDate)
		q = q.Where("due_date >= ? AND due_date < ?", from, to)
	}

	var rows []taskRow
	err := q.Preload("Project").
		Preload("Assignee").
		Preload("Assignee.User").
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	details := make([]domain.TaskDetail, 0, len(rows))
	for _, r := range rows {
		details = append(details, detailFromRow(r))
	}
	return details, nil
}

// UpdateTask writes the task's editable fields.
func (s *Store) UpdateTask(ctx context.Context, t *domain.Task) error {
	return s.db.WithContext(ctx).
		Model(&taskRow{}).
		Where("id = ?", t.ID).
		Updates(map[string]any{
			"name":        t.Name,
			"status":      string(t.Status),
			"project_id":  t.ProjectID,
			"assignee_id": t.AssigneeID,
			"due_date":    t.DueDate,
			"description": t.Description,
			"updated_at":  t.UpdatedAt,
		}).Error
}

// DeleteTask removes a single task row. Nothing cascades.
func (s *Store) DeleteTask(ctx context.Context, id, workspaceID string) error {
	return s.db.WithContext(ctx).
		Where("id = ? AND workspace_id = ?", id, workspaceID).
		Delete(&taskRow{}).Error
}

// UpdateTasksAtomically applies every entry of a reorder batch inside one
// transaction. A missing row aborts the transaction so no partial rearranged
// state is ever visible.
func (s *Store) UpdateTasksAtomically(ctx context.Context, batch []domain.ReorderEntry) ([]domain.Task, error) {
	now := time.Now().UTC()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, e := range batch {
			res := tx.Model(&taskRow{}).
				Where("id = ?", e.ID).
				Updates(map[string]any{
					"status":     string(e.Status),
					"position":   e.Position,
					"updated_at": now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return domain.ErrTaskNotFound
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(batch))
	for i, e := range batch {
		ids[i] = e.ID
	}
	rows, err := s.FindTasksByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Task, len(rows))
	for _, t := range rows {
		byID[t.ID] = t
	}
	out := make([]domain.Task, 0, len(batch))
	for _, e := range batch {
		if t, ok := byID[e.ID]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

// GetProject returns the project, or nil when it does not exist.
func (s *Store) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	var row projectRow
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.Project{
		ID:          row.ID,
		Name:        row.Name,
		ImageURL:    row.ImageURL,
		WorkspaceID: row.WorkspaceID,
	}, nil
}

// CountTasks counts tasks matching the analytics predicate.
func (s *Store) CountTasks(ctx context.Context, f domain.CountFilter) (int64, error) {
	q := s.db.WithContext(ctx).
		Model(&taskRow{}).
		Where("project_id = ?", f.ProjectID).
		Where("created_at >= ? AND created_at < ?", f.CreatedFrom, f.CreatedTo)
	if f.AssigneeID != "" {
		q = q.Where("assignee_id = ?", f.AssigneeID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", string(*f.Status))
	}
	if f.StatusNot != nil {
		q = q.Where("status <> ?", string(*f.StatusNot))
	}
	if f.DueBefore != nil {
		q = q.Where("due_date < ?", *f.DueBefore)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// dayWindow maps a calendar date to the half-open UTC interval
// [00:00 that day, 00:00 next day).
func dayWindow(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	from := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 0, 1)
}

// escapeLike neutralizes LIKE wildcards in a user-supplied search term.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
