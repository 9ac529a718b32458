// Package store defines the persistence interface for the Inkwell server
// and the errors its implementations return.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/domain"
)

// Sentinel errors returned by store implementations.
var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	// ErrInUse is returned when deleting a row that other rows still
	// reference, e.g. a category that still has posts.
	ErrInUse = errors.New("store: in use")
)

// ListPostsParams filters and paginates post listings.
type ListPostsParams struct {
	// CategoryID restricts results to one category when > 0.
	CategoryID int64
	// PublishedOnly hides drafts when true.
	PublishedOnly bool
	// Limit caps the page size; 0 means no limit.
	Limit int
	// Offset skips rows for pagination.
	Offset int
}

// PostStore persists blog posts.
type PostStore interface {
	// CreatePost inserts a post and sets its generated ID.
	CreatePost(ctx context.Context, p *domain.Post) error
	// GetPost retrieves a post with its category and author names.
	GetPost(ctx context.Context, id int64) (*domain.PostWithRelations, error)
	GetPostBySlug(ctx context.Context, slug string) (*domain.PostWithRelations, error)
	// ListPosts returns a page of posts plus the total row count for the filter.
	ListPosts(ctx context.Context, params ListPostsParams) ([]*domain.PostWithRelations, int64, error)
	UpdatePost(ctx context.Context, p *domain.Post) error
	DeletePost(ctx context.Context, id int64) error
}

// CategoryStore persists categories.
type CategoryStore interface {
	CreateCategory(ctx context.Context, c *domain.Category) error
	GetCategory(ctx context.Context, id int64) (*domain.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]*domain.CategoryWithCount, error)
	UpdateCategory(ctx context.Context, c *domain.Category) error
	// DeleteCategory removes a category. Returns ErrInUse while posts
	// still reference it.
	DeleteCategory(ctx context.Context, id int64) error
	// ListPostIDsByCategory returns the IDs of all posts in a category,
	// used to fan out reindex work after a category rename.
	ListPostIDsByCategory(ctx context.Context, categoryID int64) ([]int64, error)
}

// UserStore persists author accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// SessionStore persists refresh token sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, s *domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	// GetSessionByRefreshToken looks up the session holding a refresh
	// token hash, used during token rotation.
	GetSessionByRefreshToken(ctx context.Context, tokenHash string) (*domain.Session, error)
	// UpdateSession rewrites a session's refresh token hash and metadata.
	UpdateSession(ctx context.Context, s *domain.Session) error
	TouchSession(ctx context.Context, id string, lastSeen time.Time) error
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// TaskStore persists the background task queue.
type TaskStore interface {
	// EnqueueTask inserts a pending task.
	EnqueueTask(ctx context.Context, t *domain.Task) error
	// ListDueTasks returns pending tasks whose run_at has passed,
	// oldest first.
	ListDueTasks(ctx context.Context, now time.Time, limit int) ([]*domain.Task, error)
	// ClaimTask transitions a pending task to running. Returns false when
	// another worker claimed it first.
	ClaimTask(ctx context.Context, id string) (bool, error)
	// CompleteTask removes a finished task from the queue.
	CompleteTask(ctx context.Context, id string) error
	// RetryTask records a failed attempt and reschedules the task.
	RetryTask(ctx context.Context, id string, lastError string, runAt time.Time) error
	// DeadLetterTask marks a task dead after its attempts are exhausted.
	DeadLetterTask(ctx context.Context, id string, lastError string) error
	// RecoverStalledTasks resets running tasks back to pending. Called on
	// startup to pick up work orphaned by a crash.
	RecoverStalledTasks(ctx context.Context) (int64, error)
	// CountTasks returns the number of tasks in the given status.
	CountTasks(ctx context.Context, status domain.TaskStatus) (int64, error)
}

// Store is the full persistence interface used by the services.
type Store interface {
	PostStore
	CategoryStore
	UserStore
	SessionStore
	TaskStore

	Close() error
}
