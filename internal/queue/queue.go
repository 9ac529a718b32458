// Package queue runs durable background tasks backed by the tasks table.
//
// Delivery is at-least-once: a task stays in the table until its handler
// succeeds, so handlers must be idempotent. Tasks whose handlers keep
// failing are retried with exponential backoff and dead-lettered once
// their attempt budget is exhausted.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	"github.com/inkwellapp/inkwell-server/internal/id"
	"github.com/inkwellapp/inkwell-server/internal/store"
)

// Handler processes one task. A nil return completes the task; an error
// schedules a retry (or dead-letters the task on the final attempt).
type Handler func(ctx context.Context, task *domain.Task) error

// Options configures the queue.
type Options struct {
	Workers      int           // Concurrent workers (default 2)
	MaxAttempts  int           // Attempts before dead-lettering (default 3)
	PollInterval time.Duration // Fallback poll cadence (default 5s)
	Logger       *slog.Logger
}

// Queue dispatches persisted tasks to registered handlers.
type Queue struct {
	tasks        store.TaskStore
	logger       *slog.Logger
	workers      int
	maxAttempts  int
	pollInterval time.Duration

	mu       sync.RWMutex
	handlers map[string]Handler

	// Worker management
	ctx       context.Context //nolint:containedctx // Context needed for worker lifecycle management
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	jobNotify chan struct{} // Signal that new tasks are available
}

// New creates a queue over the given task store.
func New(tasks store.TaskStore, opts Options) *Queue {
	if opts.Workers < 1 {
		opts.Workers = 2
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 3
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Queue{
		tasks:        tasks,
		logger:       opts.Logger,
		workers:      opts.Workers,
		maxAttempts:  opts.MaxAttempts,
		pollInterval: opts.PollInterval,
		handlers:     make(map[string]Handler),
		ctx:          ctx,
		cancel:       cancel,
		jobNotify:    make(chan struct{}, 1),
	}
}

// Register binds a handler to a task type. Must be called before Start.
func (q *Queue) Register(taskType string, h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[taskType] = h
}

// Start recovers tasks orphaned by a previous crash and launches the
// worker pool.
func (q *Queue) Start() {
	q.recoverStalledTasks()

	q.logger.Info("starting task workers", slog.Int("workers", q.workers))
	for i := range q.workers {
		q.wg.Add(1)
		go q.worker(i)
	}
}

// Stop shuts the workers down and waits for in-flight tasks to finish.
func (q *Queue) Stop() {
	q.logger.Info("stopping task queue")
	q.cancel()
	q.wg.Wait()
	q.logger.Info("task queue stopped")
}

// Enqueue persists a new task and wakes the workers. The payload is
// JSON-encoded.
func (q *Queue) Enqueue(ctx context.Context, taskType string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	taskID, err := id.Generate("task")
	if err != nil {
		return "", fmt.Errorf("generate task id: %w", err)
	}

	now := time.Now()
	task := &domain.Task{
		ID:          taskID,
		Type:        taskType,
		Payload:     data,
		Status:      domain.TaskStatusPending,
		MaxAttempts: q.maxAttempts,
		RunAt:       now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := q.tasks.EnqueueTask(ctx, task); err != nil {
		return "", fmt.Errorf("enqueue task: %w", err)
	}

	q.logger.Debug("enqueued task",
		slog.String("task_id", taskID),
		slog.String("type", taskType),
	)

	q.Notify()
	return taskID, nil
}

// Notify signals workers that new tasks may be available.
func (q *Queue) Notify() {
	select {
	case q.jobNotify <- struct{}{}:
	default:
		// Already notified
	}
}

func (q *Queue) worker(workerID int) {
	defer q.wg.Done()

	q.logger.Debug("task worker started", slog.Int("worker_id", workerID))

	for {
		select {
		case <-q.ctx.Done():
			q.logger.Debug("task worker stopping", slog.Int("worker_id", workerID))
			return
		case <-q.jobNotify:
			q.drainDueTasks(workerID)
		case <-time.After(q.pollInterval):
			// Periodic check in case a notification was missed.
			q.drainDueTasks(workerID)
		}
	}
}

// drainDueTasks processes due tasks until none are left or the queue stops.
func (q *Queue) drainDueTasks(workerID int) {
	for {
		if q.ctx.Err() != nil {
			return
		}
		if !q.processNextTask(workerID) {
			return
		}
	}
}

// processNextTask claims and runs one due task. Returns false when no work
// was found.
func (q *Queue) processNextTask(workerID int) bool {
	ctx := q.ctx

	due, err := q.tasks.ListDueTasks(ctx, time.Now(), 10)
	if err != nil {
		q.logger.Error("failed to list due tasks", slog.Any("error", err))
		return false
	}
	if len(due) == 0 {
		return false
	}

	for _, task := range due {
		claimed, err := q.tasks.ClaimTask(ctx, task.ID)
		if err != nil {
			q.logger.Error("failed to claim task", slog.String("task_id", task.ID), slog.Any("error", err))
			continue
		}
		if !claimed {
			// Another worker got it first.
			continue
		}

		task.Attempts++
		q.runTask(ctx, workerID, task)
		return true
	}

	return false
}

func (q *Queue) runTask(ctx context.Context, workerID int, task *domain.Task) {
	q.mu.RLock()
	handler, ok := q.handlers[task.Type]
	q.mu.RUnlock()

	if !ok {
		// No handler will ever appear mid-run; dead-letter immediately.
		q.logger.Error("no handler for task type",
			slog.String("task_id", task.ID),
			slog.String("type", task.Type),
		)
		if err := q.tasks.DeadLetterTask(ctx, task.ID, "no handler registered for type "+task.Type); err != nil {
			q.logger.Error("failed to dead-letter task", slog.String("task_id", task.ID), slog.Any("error", err))
		}
		return
	}

	q.logger.Info("running task",
		slog.Int("worker_id", workerID),
		slog.String("task_id", task.ID),
		slog.String("type", task.Type),
		slog.Int("attempt", task.Attempts),
	)

	if err := handler(ctx, task); err != nil {
		q.handleTaskError(ctx, task, err)
		return
	}

	if err := q.tasks.CompleteTask(ctx, task.ID); err != nil {
		q.logger.Error("failed to complete task", slog.String("task_id", task.ID), slog.Any("error", err))
		return
	}

	q.logger.Info("task completed",
		slog.String("task_id", task.ID),
		slog.String("type", task.Type),
	)
}

func (q *Queue) handleTaskError(ctx context.Context, task *domain.Task, taskErr error) {
	if task.AttemptsExhausted() {
		q.logger.Error("task dead-lettered",
			slog.String("task_id", task.ID),
			slog.String("type", task.Type),
			slog.Int("attempts", task.Attempts),
			slog.Any("error", taskErr),
		)
		if err := q.tasks.DeadLetterTask(ctx, task.ID, taskErr.Error()); err != nil {
			q.logger.Error("failed to dead-letter task", slog.String("task_id", task.ID), slog.Any("error", err))
		}
		return
	}

	delay := backoffDelay(task.Attempts)
	q.logger.Warn("task failed, scheduling retry",
		slog.String("task_id", task.ID),
		slog.String("type", task.Type),
		slog.Int("attempt", task.Attempts),
		slog.Duration("retry_in", delay),
		slog.Any("error", taskErr),
	)
	if err := q.tasks.RetryTask(ctx, task.ID, taskErr.Error(), time.Now().Add(delay)); err != nil {
		q.logger.Error("failed to reschedule task", slog.String("task_id", task.ID), slog.Any("error", err))
	}
}

// backoffDelay returns the exponential retry delay for a completed attempt
// count: 30s, 1m, 2m, ... capped at 10m.
func backoffDelay(attempts int) time.Duration {
	delay := 30 * time.Second
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= 10*time.Minute {
			return 10 * time.Minute
		}
	}
	return delay
}

// recoverStalledTasks resets tasks that were running when the server
// stopped.
func (q *Queue) recoverStalledTasks() {
	recovered, err := q.tasks.RecoverStalledTasks(context.Background())
	if err != nil {
		q.logger.Error("failed to recover stalled tasks", slog.Any("error", err))
		return
	}
	if recovered > 0 {
		q.logger.Info("recovered stalled tasks", slog.Int64("count", recovered))
		q.Notify()
	}
}
