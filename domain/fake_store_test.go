package domain

import (
	"context"
	"sort"
	"strings"
	"time"
)

type fakeUser struct {
	name  string
	email string
}

// fakeStore is an in-memory TaskStorage/AnalyticsStorage used by the service
// tests. UpdateTasksAtomically mirrors the real store's all-or-nothing
// contract: it verifies the whole batch before applying anything.
type fakeStore struct {
	members  map[string]Member
	tasks    map[string]Task
	projects map[string]Project
	users    map[string]fakeUser

	minPositionCalls int
	createCalls      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		members:  map[string]Member{},
		tasks:    map[string]Task{},
		projects: map[string]Project{},
		users:    map[string]fakeUser{},
	}
}

func (f *fakeStore) addMember(id, workspaceID, userID string, role MemberRole) Member {
	m := Member{ID: id, UserID: userID, WorkspaceID: workspaceID, Role: role}
	f.members[workspaceID+"/"+userID] = m
	return m
}

func (f *fakeStore) addTask(t Task) Task {
	f.tasks[t.ID] = t
	return t
}

func (f *fakeStore) FindMembership(ctx context.Context, workspaceID, userID string) (*Member, error) {
	m, ok := f.members[workspaceID+"/"+userID]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (f *fakeStore) FindMinPosition(ctx context.Context, workspaceID string) (int, bool, error) {
	f.minPositionCalls++
	min := 0
	found := false
	for _, t := range f.tasks {
		if t.WorkspaceID != workspaceID {
			continue
		}
		if !found || t.Position < min {
			min = t.Position
			found = true
		}
	}
	return min, found, nil
}

func (f *fakeStore) CreateTask(ctx context.Context, t *Task) error {
	f.createCalls++
	f.tasks[t.ID] = *t
	return nil
}

func (f *fakeStore) GetTask(ctx context.Context, id string) (*TaskDetail, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, nil
	}
	d := f.detail(t)
	return &d, nil
}

func (f *fakeStore) FindTasksByIDs(ctx context.Context, ids []string) ([]Task, error) {
	out := []Task{}
	for _, id := range ids {
		if t, ok := f.tasks[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) ListTasks(ctx context.Context, filter TaskFilter) ([]TaskDetail, error) {
	out := []TaskDetail{}
	for _, t := range f.tasks {
		if t.WorkspaceID != filter.WorkspaceID {
			continue
		}
		if filter.ProjectID != "" && t.ProjectID != filter.ProjectID {
			continue
		}
		if filter.AssigneeID != "" && t.AssigneeID != filter.AssigneeID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(t.Name), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.DueDate != nil {
			d := filter.DueDate.UTC()
			from := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
			to := from.AddDate(0, 0, 1)
			if t.DueDate.Before(from) || !t.DueDate.Before(to) {
				continue
			}
		}
		out = append(out, f.detail(t))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeStore) UpdateTask(ctx context.Context, t *Task) error {
	if _, ok := f.tasks[t.ID]; !ok {
		return ErrTaskNotFound
	}
	f.tasks[t.ID] = *t
	return nil
}

func (f *fakeStore) DeleteTask(ctx context.Context, id, workspaceID string) error {
	delete(f.tasks, id)
	return nil
}

func (f *fakeStore) UpdateTasksAtomically(ctx context.Context, batch []ReorderEntry) ([]Task, error) {
	for _, e := range batch {
		if _, ok := f.tasks[e.ID]; !ok {
			return nil, ErrTaskNotFound
		}
	}
	out := make([]Task, 0, len(batch))
	for _, e := range batch {
		t := f.tasks[e.ID]
		t.Status = e.Status
		t.Position = e.Position
		f.tasks[e.ID] = t
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeStore) GetProject(ctx context.Context, id string) (*Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakeStore) CountTasks(ctx context.Context, filter CountFilter) (int64, error) {
	var n int64
	for _, t := range f.tasks {
		if t.ProjectID != filter.ProjectID {
			continue
		}
		if t.CreatedAt.Before(filter.CreatedFrom) || !t.CreatedAt.Before(filter.CreatedTo) {
			continue
		}
		if filter.AssigneeID != "" && t.AssigneeID != filter.AssigneeID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.StatusNot != nil && t.Status == *filter.StatusNot {
			continue
		}
		if filter.DueBefore != nil && !t.DueDate.Before(*filter.DueBefore) {
			continue
		}
		n++
	}
	return n, nil
}

func (f *fakeStore) detail(t Task) TaskDetail {
	d := TaskDetail{Task: t}
	if p, ok := f.projects[t.ProjectID]; ok {
		d.Project = p
	}
	for _, m := range f.members {
		if m.ID == t.AssigneeID {
			d.Assignee = Assignee{Member: m}
			if u, ok := f.users[m.UserID]; ok {
				d.Assignee.Name = u.name
				d.Assignee.Email = u.email
			}
			break
		}
	}
	return d
}
