package domain

import "testing"

func TestEnumValidation(t *testing.T) {
	for _, p := range []Priority{PriorityLow, PriorityMedium, PriorityHigh} {
		if !p.Valid() {
			t.Fatalf("priority %q should be valid", p)
		}
	}
	if Priority("urgent").Valid() {
		t.Fatal("unknown priority accepted")
	}

	for _, s := range []Status{StatusTodo, StatusInProgress, StatusDone} {
		if !s.Valid() {
			t.Fatalf("status %q should be valid", s)
		}
	}
	if Status("blocked").Valid() {
		t.Fatal("unknown status accepted")
	}

	if !SortByCreated.Valid() || !SortByDue.Valid() || SortKey("priority").Valid() {
		t.Fatal("sort key validation broken")
	}
}

func TestStatusLabels(t *testing.T) {
	if StatusInProgress.Label() != "In Progress" {
		t.Fatalf("unexpected label %q", StatusInProgress.Label())
	}
	if PriorityHigh.Label() != "High" {
		t.Fatalf("unexpected label %q", PriorityHigh.Label())
	}
}

func TestParseDueDate(t *testing.T) {
	d, ok := ParseDueDate("2024-01-10")
	if !ok {
		t.Fatal("valid date rejected")
	}
	if d.Year() != 2024 || d.Month() != 1 || d.Day() != 10 {
		t.Fatalf("unexpected parse result: %v", d)
	}

	for _, bad := range []string{"", "2024-1-10", "10-01-2024", "tomorrow"} {
		if _, ok := ParseDueDate(bad); ok {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestPatchEmpty(t *testing.T) {
	if !(TaskPatch{}).Empty() || !(NotePatch{}).Empty() {
		t.Fatal("zero patch should be empty")
	}
	title := "x"
	if (TaskPatch{Title: &title}).Empty() || (NotePatch{Title: &title}).Empty() {
		t.Fatal("patch with fields should not be empty")
	}
}
