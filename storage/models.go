package storage

import (
	"time"

	"tracklane-api/domain"
)

// Row types mirror the relational schema. Workspaces, members, projects and
// users are owned by external collaborators; this service only reads them for
// membership checks and list joins.

type taskRow struct {
	ID          string `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	Status      string `gorm:"not null;index"`
	WorkspaceID string `gorm:"not null;index"`
	ProjectID   string `gorm:"not null;index"`
	AssigneeID  string `gorm:"not null;index"`
	Description string
	DueDate     time.Time
	Position    int `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Project  projectRow `gorm:"foreignKey:ProjectID"`
	Assignee memberRow  `gorm:"foreignKey:AssigneeID"`
}

func (taskRow) TableName() string { return "tasks" }

type memberRow struct {
	ID          string `gorm:"primaryKey"`
	UserID      string `gorm:"not null;index"`
	WorkspaceID string `gorm:"not null;index"`
	Role        string `gorm:"not null"`

	User userRow `gorm:"foreignKey:UserID"`
}

func (memberRow) TableName() string { return "members" }

type projectRow struct {
	ID          string `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	ImageURL    string
	WorkspaceID string `gorm:"not null;index"`
}

func (projectRow) TableName() string { return "projects" }

type workspaceRow struct {
	ID       string `gorm:"primaryKey"`
	Name     string `gorm:"not null"`
	UserID   string `gorm:"not null"`
	ImageURL string
}

func (workspaceRow) TableName() string { return "workspaces" }

type userRow struct {
	ID    string `gorm:"primaryKey"`
	Name  string
	Email string `gorm:"index"`
}

func (userRow) TableName() string { return "users" }

func rowFromTask(t *domain.Task) taskRow {
	return taskRow{
		ID:          t.ID,
		Name:        t.Name,
		Status:      string(t.Status),
		WorkspaceID: t.WorkspaceID,
		ProjectID:   t.ProjectID,
		AssigneeID:  t.AssigneeID,
		Description: t.Description,
		DueDate:     t.DueDate,
		Position:    t.Position,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func taskFromRow(r taskRow) domain.Task {
	return domain.Task{
		ID:          r.ID,
		Name:        r.Name,
		Status:      domain.TaskStatus(r.Status),
		WorkspaceID: r.WorkspaceID,
		ProjectID:   r.ProjectID,
		AssigneeID:  r.AssigneeID,
		Description: r.Description,
		DueDate:     r.DueDate,
		Position:    r.Position,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func detailFromRow(r taskRow) domain.TaskDetail {
	return domain.TaskDetail{
		Task: taskFromRow(r),
		Project: domain.Project{
			ID:          r.Project.ID,
			Name:        r.Project.Name,
			ImageURL:    r.Project.ImageURL,
			WorkspaceID: r.Project.WorkspaceID,
		},
		Assignee: domain.Assignee{
			Member: domain.Member{
				ID:          r.Assignee.ID,
				UserID:      r.Assignee.UserID,
				WorkspaceID: r.Assignee.WorkspaceID,
				Role:        domain.MemberRole(r.Assignee.Role),
			},
			Name:  r.Assignee.User.Name,
			Email: r.Assignee.User.Email,
		},
	}
}

func memberFromRow(r memberRow) domain.Member {
	return domain.Member{
		ID:          r.ID,
		UserID:      r.UserID,
		WorkspaceID: r.WorkspaceID,
		Role:        domain.MemberRole(r.Role),
	}
}
