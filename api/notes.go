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

type notesResponse struct {
	Notes []domain.Note `json:"notes"`
}

func listNotes(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		notes, err := store.FetchNotes(ctx, userID)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		derived := domain.DeriveNotes(notes, c.QueryParam("search"))
		return c.JSON(http.StatusOK, notesResponse{Notes: derived})
	}
}

func getNote(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		note, err := store.GetNote(ctx, userID, c.Param("id"))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return c.String(http.StatusNotFound, "note not found")
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, note)
	}
}

func createNote(store Storage, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var req createNoteRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		if err := req.validate(); err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}

		now := time.Now().UTC()
		note := domain.Note{
			ID:        uuid.NewString(),
			Title:     req.Title,
			Content:   req.Content,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := store.InsertNote(ctx, userID, note); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to create note")
		}
		publishChange(ctx, store, logger, userID, domain.EntityNote, note.ID, domain.ActionCreated)
		return c.JSON(http.StatusCreated, note)
	}
}

func updateNote(store Storage, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var patch domain.NotePatch
		if err := decodeBody(c, &patch); err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		if err := validateNotePatch(&patch); err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}

		id := c.Param("id")
		note, err := store.UpdateNote(ctx, userID, id, patch, time.Now().UTC())
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return c.String(http.StatusNotFound, "note not found")
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to update note")
		}
		publishChange(ctx, store, logger, userID, domain.EntityNote, id, domain.ActionUpdated)
		return c.JSON(http.StatusOK, note)
	}
}

func deleteNote(store Storage, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		id := c.Param("id")
		if err := store.DeleteNote(ctx, userID, id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return c.String(http.StatusNotFound, "note not found")
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to delete note")
		}
		publishChange(ctx, store, logger, userID, domain.EntityNote, id, domain.ActionDeleted)
		return c.NoContent(http.StatusNoContent)
	}
}
