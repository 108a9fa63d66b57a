package domain

import (
	"context"
	"time"
)

// AnalyticsStorage defines the persistence operations the analytics service
// needs. GetProject returns nil when the project does not exist.
type AnalyticsStorage interface {
	GetProject(ctx context.Context, id string) (*Project, error)
	FindMembership(ctx context.Context, workspaceID, userID string) (*Member, error)
	CountTasks(ctx context.Context, f CountFilter) (int64, error)
}

// AnalyticsService derives month-over-month task metrics for a project.
type AnalyticsService struct {
	st  AnalyticsStorage
	now func() time.Time
}

func NewAnalyticsService(st AnalyticsStorage) AnalyticsService {
	return AnalyticsService{st: st, now: time.Now}
}

// ProjectAnalytics counts the project's tasks for the current and previous
// UTC calendar months and pairs each current count with its signed delta.
// Windows are recomputed from the request instant on every call.
func (s AnalyticsService) ProjectAnalytics(ctx context.Context, userID, projectID string) (ProjectAnalytics, error) {
	if projectID == "" {
		return ProjectAnalytics{}, &ValidationError{Field: "projectId", Reason: "required"}
	}
	project, err := s.st.GetProject(ctx, projectID)
	if err != nil {
		return ProjectAnalytics{}, err
	}
	if project == nil {
		return ProjectAnalytics{}, ErrProjectNotFound
	}
	member, err := s.st.FindMembership(ctx, project.WorkspaceID, userID)
	if err != nil {
		return ProjectAnalytics{}, err
	}
	if member == nil {
		return ProjectAnalytics{}, ErrUnauthorized
	}

	now := s.now()
	current, err := s.countWindow(ctx, projectID, member.ID, now, 0)
	if err != nil {
		return ProjectAnalytics{}, err
	}
	previous, err := s.countWindow(ctx, projectID, member.ID, now, -1)
	if err != nil {
		return ProjectAnalytics{}, err
	}

	return ProjectAnalytics{
		TaskCount:           current.total,
		TaskDifference:      current.total - previous.total,
		AssignedTaskCount:   current.assigned,
		AssignedTaskDiff:    current.assigned - previous.assigned,
		IncompleteTaskCount: current.incomplete,
		IncompleteTaskDiff:  current.incomplete - previous.incomplete,
		CompletedTaskCount:  current.completed,
		CompletedTaskDiff:   current.completed - previous.completed,
		OverdueTaskCount:    current.overdue,
		OverdueTaskDiff:     current.overdue - previous.overdue,
	}, nil
}

type windowCounts struct {
	total      int64
	assigned   int64
	incomplete int64
	completed  int64
	overdue    int64
}

func (s AnalyticsService) countWindow(ctx context.Context, projectID, memberID string, now time.Time, offset int) (windowCounts, error) {
	from, to := monthWindow(now, offset)
	base := CountFilter{ProjectID: projectID, CreatedFrom: from, CreatedTo: to}

	var counts windowCounts
	var err error

	if counts.total, err = s.st.CountTasks(ctx, base); err != nil {
		return windowCounts{}, err
	}

	assigned := base
	assigned.AssigneeID = memberID
	if counts.assigned, err = s.st.CountTasks(ctx, assigned); err != nil {
		return windowCounts{}, err
	}

	done := StatusDone
	incomplete := base
	incomplete.StatusNot = &done
	if counts.incomplete, err = s.st.CountTasks(ctx, incomplete); err != nil {
		return windowCounts{}, err
	}

	completed := base
	completed.Status = &done
	if counts.completed, err = s.st.CountTasks(ctx, completed); err != nil {
		return windowCounts{}, err
	}

	overdue := incomplete
	dueBefore := now.UTC()
	overdue.DueBefore = &dueBefore
	if counts.overdue, err = s.st.CountTasks(ctx, overdue); err != nil {
		return windowCounts{}, err
	}

	return counts, nil
}
