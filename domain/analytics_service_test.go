package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// fixedNow pins the request instant so month windows are deterministic:
// current month March 2024, previous month February 2024.
var fixedNow = time.Date(2024, 3, 18, 10, 30, 0, 0, time.UTC)

func analyticsFixture() (*fakeStore, AnalyticsService) {
	st := newFakeStore()
	st.addMember("m1", "w1", "u1", RoleMember)
	st.projects["p1"] = Project{ID: "p1", Name: "Core", WorkspaceID: "w1"}
	svc := NewAnalyticsService(st)
	svc.now = func() time.Time { return fixedNow }
	return st, svc
}

func seedTasks(st *fakeStore, month time.Time, n int, status TaskStatus) {
	for i := 0; i < n; i++ {
		st.addTask(Task{
			ID:          fmt.Sprintf("%s-%s-%d", month.Format("2006-01"), status, i),
			WorkspaceID: "w1",
			ProjectID:   "p1",
			Name:        "seeded",
			Status:      status,
			CreatedAt:   month.Add(time.Duration(i) * time.Hour),
			DueDate:     fixedNow.AddDate(0, 0, 7),
		})
	}
}

func TestProjectAnalyticsDeltaSign(t *testing.T) {
	st, svc := analyticsFixture()
	current := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	previous := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)
	seedTasks(st, current, 5, StatusTodo)
	seedTasks(st, previous, 8, StatusTodo)

	got, err := svc.ProjectAnalytics(context.Background(), "u1", "p1")
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if got.TaskCount != 5 {
		t.Fatalf("expected current count 5, got %d", got.TaskCount)
	}
	// The delta is signed, current minus previous: 5 - 8 = -3.
	if got.TaskDifference != -3 {
		t.Fatalf("expected difference -3, got %d", got.TaskDifference)
	}
}

func TestProjectAnalyticsCompletedAndIncomplete(t *testing.T) {
	st, svc := analyticsFixture()
	current := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	seedTasks(st, current, 3, StatusDone)
	seedTasks(st, current, 2, StatusInProgress)
	seedTasks(st, current, 1, StatusTodo)

	got, err := svc.ProjectAnalytics(context.Background(), "u1", "p1")
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if got.CompletedTaskCount != 3 {
		t.Fatalf("expected 3 completed, got %d", got.CompletedTaskCount)
	}
	if got.IncompleteTaskCount != 3 {
		t.Fatalf("expected 3 incomplete, got %d", got.IncompleteTaskCount)
	}
	if got.TaskCount != 6 {
		t.Fatalf("expected 6 total, got %d", got.TaskCount)
	}
	if got.CompletedTaskDiff != 3 || got.IncompleteTaskDiff != 3 {
		t.Fatalf("expected positive deltas against empty previous month, got %+v", got)
	}
}

func TestProjectAnalyticsOverdueExcludesDone(t *testing.T) {
	st, svc := analyticsFixture()
	created := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	pastDue := fixedNow.AddDate(0, 0, -3)

	st.addTask(Task{ID: "late", WorkspaceID: "w1", ProjectID: "p1", Name: "late",
		Status: StatusTodo, CreatedAt: created, DueDate: pastDue})
	st.addTask(Task{ID: "late-done", WorkspaceID: "w1", ProjectID: "p1", Name: "late done",
		Status: StatusDone, CreatedAt: created, DueDate: pastDue})
	st.addTask(Task{ID: "future", WorkspaceID: "w1", ProjectID: "p1", Name: "future",
		Status: StatusTodo, CreatedAt: created, DueDate: fixedNow.AddDate(0, 0, 3)})

	got, err := svc.ProjectAnalytics(context.Background(), "u1", "p1")
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if got.OverdueTaskCount != 1 {
		t.Fatalf("expected 1 overdue, got %d", got.OverdueTaskCount)
	}
}

func TestProjectAnalyticsAssignedUsesCallerMembership(t *testing.T) {
	st, svc := analyticsFixture()
	st.addMember("m2", "w1", "u2", RoleMember)
	created := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

	st.addTask(Task{ID: "mine", WorkspaceID: "w1", ProjectID: "p1", Name: "mine",
		Status: StatusTodo, AssigneeID: "m1", CreatedAt: created, DueDate: fixedNow.AddDate(0, 0, 7)})
	st.addTask(Task{ID: "theirs", WorkspaceID: "w1", ProjectID: "p1", Name: "theirs",
		Status: StatusTodo, AssigneeID: "m2", CreatedAt: created, DueDate: fixedNow.AddDate(0, 0, 7)})

	got, err := svc.ProjectAnalytics(context.Background(), "u1", "p1")
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if got.AssignedTaskCount != 1 {
		t.Fatalf("expected 1 assigned to caller, got %d", got.AssignedTaskCount)
	}
}

func TestProjectAnalyticsWindowEdges(t *testing.T) {
	st, svc := analyticsFixture()
	// First instant of the current month is inside the window; the first
	// instant of the next month is not.
	st.addTask(Task{ID: "edge-in", WorkspaceID: "w1", ProjectID: "p1", Name: "in",
		Status: StatusTodo, CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), DueDate: fixedNow})
	st.addTask(Task{ID: "edge-out", WorkspaceID: "w1", ProjectID: "p1", Name: "out",
		Status: StatusTodo, CreatedAt: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), DueDate: fixedNow})

	got, err := svc.ProjectAnalytics(context.Background(), "u1", "p1")
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if got.TaskCount != 1 {
		t.Fatalf("expected only the in-window task, got %d", got.TaskCount)
	}
}

func TestProjectAnalyticsProjectNotFound(t *testing.T) {
	_, svc := analyticsFixture()

	_, err := svc.ProjectAnalytics(context.Background(), "u1", "ghost")
	if !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestProjectAnalyticsRequiresMembership(t *testing.T) {
	_, svc := analyticsFixture()

	_, err := svc.ProjectAnalytics(context.Background(), "outsider", "p1")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestMonthWindow(t *testing.T) {
	from, to := monthWindow(fixedNow, 0)
	if !from.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) || !to.Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("current window wrong: %v .. %v", from, to)
	}
	from, to = monthWindow(fixedNow, -1)
	if !from.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) || !to.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("previous window wrong: %v .. %v", from, to)
	}

	// January rolls back across the year boundary.
	jan := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	from, to = monthWindow(jan, -1)
	if !from.Equal(time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)) || !to.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("year boundary window wrong: %v .. %v", from, to)
	}
}
