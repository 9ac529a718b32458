package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	"github.com/inkwellapp/inkwell-server/internal/store/sqlite"
)

func newTestQueue(t *testing.T, opts Options) (*Queue, *sqlite.Store) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "queue.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	if opts.Logger == nil {
		opts.Logger = logger
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = 50 * time.Millisecond
	}

	q := New(s, opts)
	t.Cleanup(q.Stop)
	return q, s
}

func TestQueue_CompletesTask(t *testing.T) {
	q, s := newTestQueue(t, Options{Workers: 2})

	var handled atomic.Int64
	var gotPostID atomic.Int64
	q.Register(domain.TaskTypeIndexPost, func(_ context.Context, task *domain.Task) error {
		var payload domain.PostTaskPayload
		if err := json.Unmarshal(task.Payload, &payload); err != nil {
			return err
		}
		gotPostID.Store(payload.PostID)
		handled.Add(1)
		return nil
	})
	q.Start()

	taskID, err := q.Enqueue(context.Background(), domain.TaskTypeIndexPost, domain.PostTaskPayload{PostID: 7})
	require.NoError(t, err)
	assert.NotEmpty(t, taskID)

	require.Eventually(t, func() bool {
		return handled.Load() == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(7), gotPostID.Load())

	// Completed tasks are removed from the table.
	require.Eventually(t, func() bool {
		pending, err := s.CountTasks(context.Background(), domain.TaskStatusPending)
		require.NoError(t, err)
		running, err := s.CountTasks(context.Background(), domain.TaskStatusRunning)
		require.NoError(t, err)
		return pending == 0 && running == 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestQueue_DeadLettersAfterMaxAttempts(t *testing.T) {
	q, s := newTestQueue(t, Options{Workers: 1, MaxAttempts: 1})

	var attempts atomic.Int64
	q.Register(domain.TaskTypeUpdatePost, func(_ context.Context, _ *domain.Task) error {
		attempts.Add(1)
		return errors.New("index unavailable")
	})
	q.Start()

	_, err := q.Enqueue(context.Background(), domain.TaskTypeUpdatePost, domain.PostTaskPayload{PostID: 1})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		dead, err := s.CountTasks(context.Background(), domain.TaskStatusDead)
		require.NoError(t, err)
		return dead == 1
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, int64(1), attempts.Load())
}

func TestQueue_UnknownTypeIsDeadLettered(t *testing.T) {
	q, s := newTestQueue(t, Options{Workers: 1})
	q.Start()

	_, err := q.Enqueue(context.Background(), "no-such-type", domain.PostTaskPayload{PostID: 1})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		dead, err := s.CountTasks(context.Background(), domain.TaskStatusDead)
		require.NoError(t, err)
		return dead == 1
	}, 5*time.Second, 10*time.Millisecond)
}

func TestQueue_RetryReschedulesWithLastError(t *testing.T) {
	q, s := newTestQueue(t, Options{Workers: 1, MaxAttempts: 3})

	q.Register(domain.TaskTypeDeletePost, func(_ context.Context, _ *domain.Task) error {
		return errors.New("transient failure")
	})
	q.Start()

	_, err := q.Enqueue(context.Background(), domain.TaskTypeDeletePost, domain.PostTaskPayload{PostID: 3})
	require.NoError(t, err)

	// After the first failure the task is pending again with the error
	// recorded and a future run_at (backoff), so it is not yet due.
	require.Eventually(t, func() bool {
		pending, err := s.CountTasks(context.Background(), domain.TaskStatusPending)
		require.NoError(t, err)
		if pending != 1 {
			return false
		}
		due, err := s.ListDueTasks(context.Background(), time.Now().Add(time.Hour), 10)
		require.NoError(t, err)
		return len(due) == 1 && due[0].Attempts == 1 && due[0].LastError == "transient failure"
	}, 5*time.Second, 10*time.Millisecond)

	due, err := s.ListDueTasks(context.Background(), time.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, due, "retried task should be scheduled in the future")
}

func TestBackoffDelay(t *testing.T) {
	assert.Equal(t, 30*time.Second, backoffDelay(1))
	assert.Equal(t, time.Minute, backoffDelay(2))
	assert.Equal(t, 2*time.Minute, backoffDelay(3))
	assert.Equal(t, 10*time.Minute, backoffDelay(10), "delay is capped")
}
