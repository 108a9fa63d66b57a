package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"tracklane-api/domain"
)

type backend interface {
	ListTasks(ctx context.Context, f domain.TaskFilter) ([]domain.TaskDetail, error)
	CreateTask(ctx context.Context, t *domain.Task) error
	UpdateTask(ctx context.Context, t *domain.Task) error
	DeleteTask(ctx context.Context, id, workspaceID string) error
	UpdateTasksAtomically(ctx context.Context, batch []domain.ReorderEntry) ([]domain.Task, error)
}

// Cache wraps a Store with Redis-backed caching for the unfiltered
// per-workspace task list. Filtered queries always go to the database; any
// task mutation evicts the workspace's cached list.
type Cache struct {
	*Store
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper using the provided Redis client and TTL.
// A nil client or zero TTL degrades to a pass-through.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base store is nil")
	}
	if ttl < 0 {
		ttl = 0
	}

	c := &Cache{
		base:  base,
		redis: client,
		ttl:   ttl,
	}
	if s, ok := base.(*Store); ok {
		c.Store = s
	}
	return c
}

func (c *Cache) ListTasks(ctx context.Context, f domain.TaskFilter) ([]domain.TaskDetail, error) {
	if !cacheable(f) {
		return c.base.ListTasks(ctx, f)
	}
	if details, ok := c.loadFromCache(ctx, f.WorkspaceID); ok {
		return details, nil
	}
	details, err := c.base.ListTasks(ctx, f)
	if err != nil {
		return nil, err
	}
	c.store(ctx, f.WorkspaceID, details)
	return details, nil
}

func (c *Cache) CreateTask(ctx context.Context, t *domain.Task) error {
	if err := c.base.CreateTask(ctx, t); err != nil {
		return err
	}
	c.evict(ctx, t.WorkspaceID)
	return nil
}

func (c *Cache) UpdateTask(ctx context.Context, t *domain.Task) error {
	if err := c.base.UpdateTask(ctx, t); err != nil {
		return err
	}
	c.evict(ctx, t.WorkspaceID)
	return nil
}

func (c *Cache) DeleteTask(ctx context.Context, id, workspaceID string) error {
	if err := c.base.DeleteTask(ctx, id, workspaceID); err != nil {
		return err
	}
	c.evict(ctx, workspaceID)
	return nil
}

func (c *Cache) UpdateTasksAtomically(ctx context.Context, batch []domain.ReorderEntry) ([]domain.Task, error) {
	tasks, err := c.base.UpdateTasksAtomically(ctx, batch)
	if err != nil {
		return nil, err
	}
	evicted := map[string]struct{}{}
	for _, t := range tasks {
		if _, done := evicted[t.WorkspaceID]; done {
			continue
		}
		evicted[t.WorkspaceID] = struct{}{}
		c.evict(ctx, t.WorkspaceID)
	}
	return tasks, nil
}

// cacheable reports whether the filter is the plain workspace listing that
// the cache serves.
func cacheable(f domain.TaskFilter) bool {
	return f.ProjectID == "" && f.AssigneeID == "" && f.Status == nil &&
		f.Search == "" && f.DueDate == nil
}

func (c *Cache) loadFromCache(ctx context.Context, workspaceID string) ([]domain.TaskDetail, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, tasksCacheKey(workspaceID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing store without failing.
			_ = c.redis.Del(ctx, tasksCacheKey(workspaceID)).Err()
		}
		return nil, false
	}
	var details []domain.TaskDetail
	if err := json.Unmarshal(data, &details); err != nil {
		_ = c.redis.Del(ctx, tasksCacheKey(workspaceID)).Err()
		return nil, false
	}
	return details, true
}

func (c *Cache) store(ctx context.Context, workspaceID string, details []domain.TaskDetail) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(details)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, tasksCacheKey(workspaceID), data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, workspaceID string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, tasksCacheKey(workspaceID)).Result()
}

func tasksCacheKey(workspaceID string) string {
	return "workspace-tasks:" + workspaceID
}
