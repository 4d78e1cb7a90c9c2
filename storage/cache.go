package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"tasknotes-api/domain"
)

type backend interface {
	FetchTasks(ctx context.Context, userID string) ([]domain.Task, error)
	GetTask(ctx context.Context, userID, id string) (domain.Task, error)
	InsertTask(ctx context.Context, userID string, t domain.Task) error
	UpdateTask(ctx context.Context, userID, id string, patch domain.TaskPatch, updatedAt time.Time) (domain.Task, error)
	DeleteTask(ctx context.Context, userID, id string) error

	FetchNotes(ctx context.Context, userID string) ([]domain.Note, error)
	GetNote(ctx context.Context, userID, id string) (domain.Note, error)
	InsertNote(ctx context.Context, userID string, n domain.Note) error
	UpdateNote(ctx context.Context, userID, id string, patch domain.NotePatch, updatedAt time.Time) (domain.Note, error)
	DeleteNote(ctx context.Context, userID, id string) error

	EnqueueChange(ctx context.Context, ev domain.ChangeEvent) error
}

// Cache wraps a Storage instance with Redis-backed caching for the per-user
// list reads. Any mutation by a user evicts that user's cached lists. Redis
// failures degrade to uncached reads, never to request failures.
type Cache struct {
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching Storage wrapper using the provided Redis client
// and TTL.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) FetchTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	if tasks, ok := loadList[domain.Task](ctx, c, tasksCacheKey(userID)); ok {
		return tasks, nil
	}
	tasks, err := c.base.FetchTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.storeList(ctx, tasksCacheKey(userID), tasks)
	return tasks, nil
}

func (c *Cache) FetchNotes(ctx context.Context, userID string) ([]domain.Note, error) {
	if notes, ok := loadList[domain.Note](ctx, c, notesCacheKey(userID)); ok {
		return notes, nil
	}
	notes, err := c.base.FetchNotes(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.storeList(ctx, notesCacheKey(userID), notes)
	return notes, nil
}

func (c *Cache) GetTask(ctx context.Context, userID, id string) (domain.Task, error) {
	return c.base.GetTask(ctx, userID, id)
}

func (c *Cache) GetNote(ctx context.Context, userID, id string) (domain.Note, error) {
	return c.base.GetNote(ctx, userID, id)
}

func (c *Cache) InsertTask(ctx context.Context, userID string, t domain.Task) error {
	if err := c.base.InsertTask(ctx, userID, t); err != nil {
		return err
	}
	c.evict(ctx, userID)
	return nil
}

func (c *Cache) UpdateTask(ctx context.Context, userID, id string, patch domain.TaskPatch, updatedAt time.Time) (domain.Task, error) {
	task, err := c.base.UpdateTask(ctx, userID, id, patch, updatedAt)
	if err != nil {
		return domain.Task{}, err
	}
	c.evict(ctx, userID)
	return task, nil
}

func (c *Cache) DeleteTask(ctx context.Context, userID, id string) error {
	if err := c.base.DeleteTask(ctx, userID, id); err != nil {
		return err
	}
	c.evict(ctx, userID)
	return nil
}

func (c *Cache) InsertNote(ctx context.Context, userID string, n domain.Note) error {
	if err := c.base.InsertNote(ctx, userID, n); err != nil {
		return err
	}
	c.evict(ctx, userID)
	return nil
}

func (c *Cache) UpdateNote(ctx context.Context, userID, id string, patch domain.NotePatch, updatedAt time.Time) (domain.Note, error) {
	note, err := c.base.UpdateNote(ctx, userID, id, patch, updatedAt)
	if err != nil {
		return domain.Note{}, err
	}
	c.evict(ctx, userID)
	return note, nil
}

func (c *Cache) DeleteNote(ctx context.Context, userID, id string) error {
	if err := c.base.DeleteNote(ctx, userID, id); err != nil {
		return err
	}
	c.evict(ctx, userID)
	return nil
}

func (c *Cache) EnqueueChange(ctx context.Context, ev domain.ChangeEvent) error {
	return c.base.EnqueueChange(ctx, ev)
}

func loadList[T any](ctx context.Context, c *Cache, key string) ([]T, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, key).Err()
		}
		return nil, false
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return nil, false
	}
	return items, true
}

func (c *Cache) storeList(ctx context.Context, key string, items any) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(items)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, userID string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, tasksCacheKey(userID), notesCacheKey(userID)).Result()
}

func tasksCacheKey(userID string) string {
	return "tasks:" + userID
}

func notesCacheKey(userID string) string {
	return "notes:" + userID
}
