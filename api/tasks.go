package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"tasknotes-api/domain"
	"tasknotes-api/storage"
)

type tasksResponse struct {
	Tasks []taskView `json:"tasks"`
}

func listTasks(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		state, err := parseViewState(c)
		if err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		tasks, err := store.FetchTasks(ctx, userID)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		derived := domain.Derive(tasks, state)
		return c.JSON(http.StatusOK, tasksResponse{Tasks: taskViews(derived, time.Now())})
	}
}

func getTask(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		task, err := store.GetTask(ctx, userID, c.Param("id"))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return c.String(http.StatusNotFound, "task not found")
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, newTaskView(task, time.Now()))
	}
}

func createTask(store Storage, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var req createTaskRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		if err := req.validate(); err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}

		now := time.Now().UTC()
		task := domain.Task{
			ID:          uuid.NewString(),
			Title:       req.Title,
			Description: req.Description,
			Priority:    req.Priority,
			Status:      req.Status,
			DueDate:     req.DueDate,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := store.InsertTask(ctx, userID, task); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to create task")
		}
		publishChange(ctx, store, logger, userID, domain.EntityTask, task.ID, domain.ActionCreated)
		return c.JSON(http.StatusCreated, newTaskView(task, now))
	}
}

func updateTask(store Storage, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var patch domain.TaskPatch
		if err := decodeBody(c, &patch); err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		if err := validateTaskPatch(&patch); err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}

		id := c.Param("id")
		task, err := store.UpdateTask(ctx, userID, id, patch, time.Now().UTC())
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return c.String(http.StatusNotFound, "task not found")
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to update task")
		}
		publishChange(ctx, store, logger, userID, domain.EntityTask, id, domain.ActionUpdated)
		return c.JSON(http.StatusOK, newTaskView(task, time.Now()))
	}
}

func deleteTask(store Storage, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		id := c.Param("id")
		if err := store.DeleteTask(ctx, userID, id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return c.String(http.StatusNotFound, "task not found")
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to delete task")
		}
		publishChange(ctx, store, logger, userID, domain.EntityTask, id, domain.ActionDeleted)
		return c.NoContent(http.StatusNoContent)
	}
}
