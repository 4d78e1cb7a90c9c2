package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"tasknotes-api/domain"
)

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store Storage, auth Authenticator, logger *log.Logger) {
	e.GET("/api/tasks", listTasks(store, auth))
	e.GET("/api/tasks/:id", getTask(store, auth))
	e.POST("/api/tasks", createTask(store, auth, logger))
	e.PATCH("/api/tasks/:id", updateTask(store, auth, logger))
	e.DELETE("/api/tasks/:id", deleteTask(store, auth, logger))

	e.GET("/api/notes", listNotes(store, auth))
	e.GET("/api/notes/:id", getNote(store, auth))
	e.POST("/api/notes", createNote(store, auth, logger))
	e.PATCH("/api/notes/:id", updateNote(store, auth, logger))
	e.DELETE("/api/notes/:id", deleteNote(store, auth, logger))

	e.GET("/healthz", healthz())
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

// taskView decorates a task with the derived display fields the clients use
// for styling and grouping.
type taskView struct {
	domain.Task
	Overdue bool          `json:"overdue"`
	Bucket  domain.Bucket `json:"bucket"`
}

func newTaskView(t domain.Task, now time.Time) taskView {
	return taskView{
		Task:    t,
		Overdue: domain.IsOverdue(t.DueDate, t.Status, now),
		Bucket:  domain.BucketOf(t.DueDate, t.Status, now),
	}
}

func taskViews(tasks []domain.Task, now time.Time) []taskView {
	views := make([]taskView, len(tasks))
	for i, t := range tasks {
		views[i] = newTaskView(t, now)
	}
	return views
}

// publishChange records a mutation on the change feed. Enqueue failures are
// logged and swallowed, the write itself has already succeeded.
func publishChange(ctx context.Context, store Storage, logger *log.Logger, userID, entityType, entityID, action string) {
	ev := domain.ChangeEvent{
		UserID:     userID,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Timestamp:  time.Now().UnixMilli(),
	}
	if err := store.EnqueueChange(ctx, ev); err != nil {
		logger.WithFields(log.Fields{
			"entity": entityType,
			"id":     entityID,
			"action": action,
		}).WithError(err).Warn("change event not enqueued")
	}
}
