package domain

import (
	"sort"
	"strings"
)

// SortKey selects the ordering of a derived task list.
type SortKey string

const (
	// SortByCreated orders newest first. It is the default.
	SortByCreated SortKey = "created"
	// SortByDue orders soonest due date first, tasks without one last.
	SortByDue SortKey = "due"
)

// Valid reports whether k is a known sort key.
func (k SortKey) Valid() bool {
	switch k {
	case SortByCreated, SortByDue:
		return true
	}
	return false
}

// FilterSortState holds the ephemeral view controls driving a task list.
// The zero value means no search, no filters, newest first.
type FilterSortState struct {
	Search   string
	Status   Status
	Priority Priority
	SortBy   SortKey
}

// Derive returns the filtered, ordered subset of tasks for the given view
// state. It is pure: the input slice is never mutated and ties keep their
// input order.
func Derive(tasks []Task, state FilterSortState) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if state.matches(t) {
			out = append(out, t)
		}
	}
	switch state.SortBy {
	case SortByDue:
		sort.SliceStable(out, func(i, j int) bool { return dueBefore(out[i], out[j]) })
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	return out
}

func (s FilterSortState) matches(t Task) bool {
	if !matchesSearch(s.Search, t.Title, t.Description) {
		return false
	}
	if s.Status != "" && t.Status != s.Status {
		return false
	}
	if s.Priority != "" && t.Priority != s.Priority {
		return false
	}
	return true
}

// dueBefore orders tasks by ascending due date. A task without a parseable
// due date sorts after every task that has one; two undated tasks are equal.
func dueBefore(a, b Task) bool {
	ad, aok := a.Due()
	bd, bok := b.Due()
	switch {
	case !aok:
		return false
	case !bok:
		return true
	default:
		return ad.Before(bd)
	}
}

// DeriveNotes returns notes matching the search text, newest first.
func DeriveNotes(notes []Note, search string) []Note {
	out := make([]Note, 0, len(notes))
	for _, n := range notes {
		if matchesSearch(search, n.Title, n.Content) {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// matchesSearch reports whether the needle is a case-insensitive substring of
// the title or of the body. An empty needle matches everything; an empty body
// only matches through the title.
func matchesSearch(needle, title, body string) bool {
	if needle == "" {
		return true
	}
	needle = strings.ToLower(needle)
	if strings.Contains(strings.ToLower(title), needle) {
		return true
	}
	return body != "" && strings.Contains(strings.ToLower(body), needle)
}
