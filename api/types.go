package api

import (
	"context"
	"time"

	"tasknotes-api/domain"
)

// Storage abstracts persistence for handlers. Every call is scoped to the
// authenticated user; implementations must never return another user's data.
type Storage interface {
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

// Authenticator is implemented by types able to extract user IDs from headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}
