package api

import (
	"errors"
	"io"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"

	"tasknotes-api/domain"
)

const requestBodyMaxSize = 64 * 1024 // 64 KiB

var errInvalidBody = errors.New("invalid body")

func decodeBody(c echo.Context, dst any) error {
	lr := io.LimitReader(c.Request().Body, requestBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errInvalidBody
	}
	return nil
}

type createTaskRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Priority    domain.Priority `json:"priority"`
	Status      domain.Status   `json:"status"`
	DueDate     string          `json:"dueDate"`
}

// validate normalizes the request in place: the title is trimmed, priority
// defaults to medium and status to todo when omitted.
func (r *createTaskRequest) validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return errors.New("title is required")
	}
	if r.Priority == "" {
		r.Priority = domain.PriorityMedium
	} else if !r.Priority.Valid() {
		return errors.New("invalid priority")
	}
	if r.Status == "" {
		r.Status = domain.StatusTodo
	} else if !r.Status.Valid() {
		return errors.New("invalid status")
	}
	if r.DueDate != "" {
		if _, ok := domain.ParseDueDate(r.DueDate); !ok {
			return errors.New("invalid due date, expected YYYY-MM-DD")
		}
	}
	return nil
}

func validateTaskPatch(p *domain.TaskPatch) error {
	if p.Empty() {
		return errors.New("no fields to update")
	}
	if p.Title != nil {
		trimmed := strings.TrimSpace(*p.Title)
		if trimmed == "" {
			return errors.New("title must not be empty")
		}
		p.Title = &trimmed
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return errors.New("invalid priority")
	}
	if p.Status != nil && !p.Status.Valid() {
		return errors.New("invalid status")
	}
	if p.DueDate != nil && *p.DueDate != "" {
		if _, ok := domain.ParseDueDate(*p.DueDate); !ok {
			return errors.New("invalid due date, expected YYYY-MM-DD")
		}
	}
	return nil
}

type createNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (r *createNoteRequest) validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return errors.New("title is required")
	}
	return nil
}

func validateNotePatch(p *domain.NotePatch) error {
	if p.Empty() {
		return errors.New("no fields to update")
	}
	if p.Title != nil {
		trimmed := strings.TrimSpace(*p.Title)
		if trimmed == "" {
			return errors.New("title must not be empty")
		}
		p.Title = &trimmed
	}
	return nil
}

// parseViewState builds the list view state from query parameters. Unknown
// enum values are rejected rather than silently ignored.
func parseViewState(c echo.Context) (domain.FilterSortState, error) {
	var state domain.FilterSortState
	state.Search = c.QueryParam("search")
	if v := c.QueryParam("status"); v != "" {
		s := domain.Status(v)
		if !s.Valid() {
			return state, errors.New("invalid status filter")
		}
		state.Status = s
	}
	if v := c.QueryParam("priority"); v != "" {
		p := domain.Priority(v)
		if !p.Valid() {
			return state, errors.New("invalid priority filter")
		}
		state.Priority = p
	}
	if v := c.QueryParam("sortBy"); v != "" {
		k := domain.SortKey(v)
		if !k.Valid() {
			return state, errors.New("invalid sort key")
		}
		state.SortBy = k
	}
	return state, nil
}
