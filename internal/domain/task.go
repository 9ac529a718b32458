package domain

import (
	"encoding/json"
	"time"
)

// TaskStatus represents the state of a queued background task.
type TaskStatus string

const (
	TaskStatusPending TaskStatus = "pending"
	TaskStatusRunning TaskStatus = "running"
	// TaskStatusDead marks a task that exhausted its retry budget.
	// Dead tasks stay in the table for inspection.
	TaskStatusDead TaskStatus = "dead"
)

// Task types handled by the indexer.
const (
	TaskTypeIndexPost           = "index-post"
	TaskTypeUpdatePost          = "update-post"
	TaskTypeDeletePost          = "delete-post"
	TaskTypeUpdateCategoryPosts = "update-category-posts"
	TaskTypeReindexAll          = "reindex-all"
)

// Task is a durable unit of background work. Completed tasks are removed
// from the queue; only pending, running, and dead tasks persist.
type Task struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	Status      TaskStatus      `json:"status"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	LastError   string          `json:"last_error,omitempty"`
	RunAt       time.Time       `json:"run_at"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// AttemptsExhausted returns true once the task has used its retry budget.
func (t *Task) AttemptsExhausted() bool {
	return t.Attempts >= t.MaxAttempts
}

// PostTaskPayload carries the post ID for single-post index tasks.
type PostTaskPayload struct {
	PostID int64 `json:"post_id"`
}

// CategoryTaskPayload carries the category ID for cascade tasks.
type CategoryTaskPayload struct {
	CategoryID int64 `json:"category_id"`
}
