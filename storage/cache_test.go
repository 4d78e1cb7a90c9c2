package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"tasknotes-api/domain"
)

type stubBackend struct {
	fetchTasksFn func(ctx context.Context, userID string) ([]domain.Task, error)
	fetchNotesFn func(ctx context.Context, userID string) ([]domain.Note, error)
	insertTaskFn func(ctx context.Context, userID string, t domain.Task) error
	updateTaskFn func(ctx context.Context, userID, id string, patch domain.TaskPatch, updatedAt time.Time) (domain.Task, error)
	deleteTaskFn func(ctx context.Context, userID, id string) error
}

func (s *stubBackend) FetchTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	if s.fetchTasksFn == nil {
		return nil, errors.New("unexpected FetchTasks call")
	}
	return s.fetchTasksFn(ctx, userID)
}

func (s *stubBackend) GetTask(ctx context.Context, userID, id string) (domain.Task, error) {
	return domain.Task{}, errors.New("unexpected GetTask call")
}

func (s *stubBackend) InsertTask(ctx context.Context, userID string, t domain.Task) error {
	if s.insertTaskFn == nil {
		return errors.New("unexpected InsertTask call")
	}
	return s.insertTaskFn(ctx, userID, t)
}

func (s *stubBackend) UpdateTask(ctx context.Context, userID, id string, patch domain.TaskPatch, updatedAt time.Time) (domain.Task, error) {
	if s.updateTaskFn == nil {
		return domain.Task{}, errors.New("unexpected UpdateTask call")
	}
	return s.updateTaskFn(ctx, userID, id, patch, updatedAt)
}

func (s *stubBackend) DeleteTask(ctx context.Context, userID, id string) error {
	if s.deleteTaskFn == nil {
		return errors.New("unexpected DeleteTask call")
	}
	return s.deleteTaskFn(ctx, userID, id)
}

func (s *stubBackend) FetchNotes(ctx context.Context, userID string) ([]domain.Note, error) {
	if s.fetchNotesFn == nil {
		return nil, errors.New("unexpected FetchNotes call")
	}
	return s.fetchNotesFn(ctx, userID)
}

func (s *stubBackend) GetNote(ctx context.Context, userID, id string) (domain.Note, error) {
	return domain.Note{}, errors.New("unexpected GetNote call")
}

func (s *stubBackend) InsertNote(ctx context.Context, userID string, n domain.Note) error {
	return errors.New("unexpected InsertNote call")
}

func (s *stubBackend) UpdateNote(ctx context.Context, userID, id string, patch domain.NotePatch, updatedAt time.Time) (domain.Note, error) {
	return domain.Note{}, errors.New("unexpected UpdateNote call")
}

func (s *stubBackend) DeleteNote(ctx context.Context, userID, id string) error {
	return errors.New("unexpected DeleteNote call")
}

func (s *stubBackend) EnqueueChange(ctx context.Context, ev domain.ChangeEvent) error {
	return errors.New("unexpected EnqueueChange call")
}

func newTestCache(t *testing.T, base backend, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewCache(base, client, ttl), mr
}

func TestCacheFetchTasksMissThenHit(t *testing.T) {
	ctx := context.Background()
	userID := "user-1"
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	expected := []domain.Task{{ID: "t1", Title: "Write code", Priority: domain.PriorityHigh, Status: domain.StatusTodo, CreatedAt: created, UpdatedAt: created}}

	var calls int
	cache, mr := newTestCache(t, &stubBackend{
		fetchTasksFn: func(ctx context.Context, uid string) ([]domain.Task, error) {
			calls++
			if uid != userID {
				t.Fatalf("unexpected user id: %s", uid)
			}
			return append([]domain.Task(nil), expected...), nil
		},
	}, time.Minute)

	tasks, err := cache.FetchTasks(ctx, userID)
	if err != nil {
		t.Fatalf("fetch tasks: %v", err)
	}
	if !reflect.DeepEqual(tasks, expected) {
		t.Fatalf("unexpected tasks: %#v", tasks)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call to backend, got %d", calls)
	}
	if ttl := mr.TTL(tasksCacheKey(userID)); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected TTL: %v", ttl)
	}

	cached, err := cache.FetchTasks(ctx, userID)
	if err != nil {
		t.Fatalf("fetch cached tasks: %v", err)
	}
	if !reflect.DeepEqual(cached, expected) {
		t.Fatalf("unexpected cached tasks: %#v", cached)
	}
	if calls != 1 {
		t.Fatalf("expected cached fetch to avoid backend, calls=%d", calls)
	}
}

func TestCacheFetchNotesMissThenHit(t *testing.T) {
	ctx := context.Background()
	userID := "user-2"
	created := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)
	expected := []domain.Note{{ID: "n1", Title: "Meeting notes", CreatedAt: created, UpdatedAt: created}}

	var calls int
	cache, _ := newTestCache(t, &stubBackend{
		fetchNotesFn: func(ctx context.Context, uid string) ([]domain.Note, error) {
			calls++
			return append([]domain.Note(nil), expected...), nil
		},
	}, time.Minute)

	for i := 0; i < 2; i++ {
		notes, err := cache.FetchNotes(ctx, userID)
		if err != nil {
			t.Fatalf("fetch notes: %v", err)
		}
		if !reflect.DeepEqual(notes, expected) {
			t.Fatalf("unexpected notes: %#v", notes)
		}
	}
	if calls != 1 {
		t.Fatalf("expected 1 call to backend, got %d", calls)
	}
}

func TestCacheMutationsEvict(t *testing.T) {
	ctx := context.Background()
	userID := "user-3"

	var fetches int
	backend := &stubBackend{
		fetchTasksFn: func(ctx context.Context, uid string) ([]domain.Task, error) {
			fetches++
			return []domain.Task{{ID: "t1", Title: "cached"}}, nil
		},
		insertTaskFn: func(ctx context.Context, uid string, task domain.Task) error { return nil },
		deleteTaskFn: func(ctx context.Context, uid, id string) error { return nil },
		updateTaskFn: func(ctx context.Context, uid, id string, patch domain.TaskPatch, updatedAt time.Time) (domain.Task, error) {
			return domain.Task{ID: id}, nil
		},
	}
	cache, mr := newTestCache(t, backend, time.Minute)

	if _, err := cache.FetchTasks(ctx, userID); err != nil {
		t.Fatalf("prime cache: %v", err)
	}
	if !mr.Exists(tasksCacheKey(userID)) {
		t.Fatal("expected cached task list")
	}

	if err := cache.InsertTask(ctx, userID, domain.Task{ID: "t2", Title: "new"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if mr.Exists(tasksCacheKey(userID)) {
		t.Fatal("insert should evict cached task list")
	}

	if _, err := cache.FetchTasks(ctx, userID); err != nil {
		t.Fatalf("re-prime cache: %v", err)
	}
	if _, err := cache.UpdateTask(ctx, userID, "t1", domain.TaskPatch{}, time.Now()); err != nil {
		t.Fatalf("update: %v", err)
	}
	if mr.Exists(tasksCacheKey(userID)) {
		t.Fatal("update should evict cached task list")
	}

	if _, err := cache.FetchTasks(ctx, userID); err != nil {
		t.Fatalf("re-prime cache: %v", err)
	}
	if err := cache.DeleteTask(ctx, userID, "t1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists(tasksCacheKey(userID)) {
		t.Fatal("delete should evict cached task list")
	}

	if fetches != 3 {
		t.Fatalf("expected 3 backend fetches, got %d", fetches)
	}
}

func TestCacheBackendErrorNotCached(t *testing.T) {
	ctx := context.Background()
	wantErr := errors.New("tables down")

	cache, mr := newTestCache(t, &stubBackend{
		fetchTasksFn: func(ctx context.Context, uid string) ([]domain.Task, error) {
			return nil, wantErr
		},
	}, time.Minute)

	if _, err := cache.FetchTasks(ctx, "user-4"); !errors.Is(err, wantErr) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if mr.Exists(tasksCacheKey("user-4")) {
		t.Fatal("failed fetch must not populate the cache")
	}
}

func TestCacheCorruptEntryFallsThrough(t *testing.T) {
	ctx := context.Background()
	userID := "user-5"

	var calls int
	cache, mr := newTestCache(t, &stubBackend{
		fetchTasksFn: func(ctx context.Context, uid string) ([]domain.Task, error) {
			calls++
			return []domain.Task{{ID: "t1"}}, nil
		},
	}, time.Minute)

	if err := mr.Set(tasksCacheKey(userID), "{not json"); err != nil {
		t.Fatalf("seed corrupt entry: %v", err)
	}

	tasks, err := cache.FetchTasks(ctx, userID)
	if err != nil {
		t.Fatalf("fetch tasks: %v", err)
	}
	if len(tasks) != 1 || calls != 1 {
		t.Fatalf("expected fallthrough to backend, tasks=%d calls=%d", len(tasks), calls)
	}
}

func TestCacheNilRedisPassesThrough(t *testing.T) {
	ctx := context.Background()

	var calls int
	cache := NewCache(&stubBackend{
		fetchTasksFn: func(ctx context.Context, uid string) ([]domain.Task, error) {
			calls++
			return nil, nil
		},
	}, nil, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := cache.FetchTasks(ctx, "user-6"); err != nil {
			t.Fatalf("fetch tasks: %v", err)
		}
	}
	if calls != 2 {
		t.Fatalf("expected every fetch to hit the backend, calls=%d", calls)
	}
}
