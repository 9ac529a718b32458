package service

import (
	"context"
	"log/slog"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	"github.com/inkwellapp/inkwell-server/internal/queue"
)

// Dispatcher enqueues index synchronization tasks after content writes.
//
// Dispatch happens after the database write commits, so a task always sees
// durable data when it runs. Enqueue failures are logged and swallowed: the
// write already succeeded, and a reindex sweep can repair a missed update.
type Dispatcher struct {
	queue  *queue.Queue
	logger *slog.Logger
}

// NewDispatcher creates a new dispatcher.
func NewDispatcher(q *queue.Queue, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		queue:  q,
		logger: logger,
	}
}

// PostCreated schedules indexing for a newly created post.
func (d *Dispatcher) PostCreated(ctx context.Context, postID int64) {
	d.enqueue(ctx, domain.TaskTypeIndexPost, domain.PostTaskPayload{PostID: postID})
}

// PostUpdated schedules reindexing for an updated post.
func (d *Dispatcher) PostUpdated(ctx context.Context, postID int64) {
	d.enqueue(ctx, domain.TaskTypeUpdatePost, domain.PostTaskPayload{PostID: postID})
}

// PostDeleted schedules removal of a post from the index.
func (d *Dispatcher) PostDeleted(ctx context.Context, postID int64) {
	d.enqueue(ctx, domain.TaskTypeDeletePost, domain.PostTaskPayload{PostID: postID})
}

// CategoryUpdated schedules reindexing for every post in a category. Posts
// denormalize the category name into their index documents, so a rename
// fans out.
func (d *Dispatcher) CategoryUpdated(ctx context.Context, categoryID int64) {
	d.enqueue(ctx, domain.TaskTypeUpdateCategoryPosts, domain.CategoryTaskPayload{CategoryID: categoryID})
}

// ReindexAll schedules a full rebuild of the search index.
func (d *Dispatcher) ReindexAll(ctx context.Context) {
	d.enqueue(ctx, domain.TaskTypeReindexAll, struct{}{})
}

func (d *Dispatcher) enqueue(ctx context.Context, taskType string, payload any) {
	taskID, err := d.queue.Enqueue(ctx, taskType, payload)
	if err != nil {
		d.logger.Error("failed to enqueue index task",
			"type", taskType,
			"error", err,
		)
		return
	}

	d.logger.Debug("enqueued index task", "type", taskType, "task_id", taskID)
}
