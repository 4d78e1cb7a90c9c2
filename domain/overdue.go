package domain

import "time"

// Bucket groups tasks for display.
type Bucket string

const (
	BucketOverdue  Bucket = "overdue"
	BucketUpcoming Bucket = "upcoming"
	BucketDone     Bucket = "done"
)

// IsOverdue reports whether a task with the given due date and status has
// fully elapsed as of now. The due date itself is not overdue until its
// calendar day is over: the boundary is the end of that day in now's
// location. A done task is never overdue, nor is one without a parseable
// due date.
func IsOverdue(dueDate string, status Status, now time.Time) bool {
	if status == StatusDone {
		return false
	}
	due, ok := ParseDueDate(dueDate)
	if !ok {
		return false
	}
	endOfDay := time.Date(due.Year(), due.Month(), due.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), now.Location())
	return now.After(endOfDay)
}

// BucketOf classifies a task into its display bucket.
func BucketOf(dueDate string, status Status, now time.Time) Bucket {
	switch {
	case status == StatusDone:
		return BucketDone
	case IsOverdue(dueDate, status, now):
		return BucketOverdue
	default:
		return BucketUpcoming
	}
}
