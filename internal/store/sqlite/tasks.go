package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	"github.com/inkwellapp/inkwell-server/internal/store"
)

const taskColumns = `id, type, payload, status, attempts, max_attempts, last_error, run_at, created_at, updated_at`

func scanTask(scanner interface{ Scan(dest ...any) error }) (*domain.Task, error) {
	var t domain.Task
	var payload, status string
	var lastError sql.NullString
	var runAt, createdAt, updatedAt string

	err := scanner.Scan(
		&t.ID,
		&t.Type,
		&payload,
		&status,
		&t.Attempts,
		&t.MaxAttempts,
		&lastError,
		&runAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Payload = []byte(payload)
	t.Status = domain.TaskStatus(status)
	if lastError.Valid {
		t.LastError = lastError.String
	}
	if t.RunAt, err = parseTime(runAt); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// EnqueueTask inserts a pending task.
func (s *Store) EnqueueTask(ctx context.Context, t *domain.Task) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, type, payload, status, attempts, max_attempts, last_error, run_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID,
		t.Type,
		string(t.Payload),
		string(t.Status),
		t.Attempts,
		t.MaxAttempts,
		nullString(t.LastError),
		formatTime(t.RunAt),
		formatTime(t.CreatedAt),
		formatTime(t.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// ListDueTasks returns pending tasks whose run_at has passed, oldest first.
func (s *Store) ListDueTasks(ctx context.Context, now time.Time, limit int) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE status = ? AND run_at <= ?
		ORDER BY run_at ASC, created_at ASC
		LIMIT ?`,
		string(domain.TaskStatusPending),
		formatTime(now),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query due tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

// ClaimTask transitions a pending task to running. The conditional UPDATE
// makes the claim atomic across workers; a false return means another
// worker got there first.
func (s *Store) ClaimTask(ctx context.Context, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET status = ?, attempts = attempts + 1, updated_at = ?
		WHERE id = ? AND status = ?`,
		string(domain.TaskStatusRunning),
		formatTime(time.Now()),
		id,
		string(domain.TaskStatusPending),
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CompleteTask removes a finished task from the queue.
func (s *Store) CompleteTask(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	return err
}

// RetryTask records a failed attempt and reschedules the task.
func (s *Store) RetryTask(ctx context.Context, id string, lastError string, runAt time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET status = ?, last_error = ?, run_at = ?, updated_at = ?
		WHERE id = ?`,
		string(domain.TaskStatusPending),
		lastError,
		formatTime(runAt),
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeadLetterTask marks a task dead after its attempts are exhausted.
// Dead tasks stay in the table for inspection.
func (s *Store) DeadLetterTask(ctx context.Context, id string, lastError string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET status = ?, last_error = ?, updated_at = ?
		WHERE id = ?`,
		string(domain.TaskStatusDead),
		lastError,
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// RecoverStalledTasks resets running tasks back to pending so they are
// retried after a crash. Returns the number of tasks recovered.
func (s *Store) RecoverStalledTasks(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET status = ?, run_at = ?, updated_at = ?
		WHERE status = ?`,
		string(domain.TaskStatusPending),
		formatTime(time.Now()),
		formatTime(time.Now()),
		string(domain.TaskStatusRunning),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// CountTasks returns the number of tasks in the given status.
func (s *Store) CountTasks(ctx context.Context, status domain.TaskStatus) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE status = ?`, string(status)).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
