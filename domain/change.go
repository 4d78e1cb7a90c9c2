package domain

// Entity type discriminators used on the change feed.
const (
	EntityTask = "task"
	EntityNote = "note"
)

// Actions recorded on the change feed.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// ChangeEvent describes a mutation applied to a user's data. Events are
// enqueued best-effort after each successful write so downstream consumers
// can react without polling the tables.
type ChangeEvent struct {
	UserID     string `json:"userId"`
	EntityType string `json:"entityType"`
	EntityID   string `json:"entityId"`
	Action     string `json:"action"`
	Timestamp  int64  `json:"timestamp"`
}
