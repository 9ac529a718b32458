package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/inkwellapp/inkwell-server/internal/auth"
	"github.com/inkwellapp/inkwell-server/internal/domain"
	"github.com/inkwellapp/inkwell-server/internal/media/images"
	"github.com/inkwellapp/inkwell-server/internal/queue"
	"github.com/inkwellapp/inkwell-server/internal/search"
	"github.com/inkwellapp/inkwell-server/internal/store"
	"github.com/inkwellapp/inkwell-server/internal/store/sqlite"
)

// testEnv wires real components together: sqlite store, bleve index, and a
// running queue with the indexer's handlers registered.
type testEnv struct {
	store      store.Store
	index      *search.Index
	queue      *queue.Queue
	dispatcher *Dispatcher
	indexer    *IndexerService
	images     *images.Storage

	posts      *PostService
	categories *CategoryService
	blog       *BlogService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tmpDir := t.TempDir()
	logger := slog.New(slog.DiscardHandler)

	testStore, err := sqlite.Open(filepath.Join(tmpDir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { testStore.Close() })

	index, err := search.NewIndex(search.Options{
		Path:   filepath.Join(tmpDir, "search", "posts.bleve"),
		Logger: logger,
	})
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })

	imageStorage, err := images.NewStorage(filepath.Join(tmpDir, "media"))
	require.NoError(t, err)

	q := queue.New(testStore, queue.Options{
		Workers:      1,
		MaxAttempts:  3,
		PollInterval: 50 * time.Millisecond,
		Logger:       logger,
	})

	indexer := NewIndexerService(testStore, index, logger)
	indexer.RegisterHandlers(q)
	q.Start()
	t.Cleanup(q.Stop)

	dispatcher := NewDispatcher(q, logger)

	return &testEnv{
		store:      testStore,
		index:      index,
		queue:      q,
		dispatcher: dispatcher,
		indexer:    indexer,
		images:     imageStorage,
		posts:      NewPostService(testStore, dispatcher, imageStorage, logger),
		categories: NewCategoryService(testStore, dispatcher, logger),
		blog:       NewBlogService(testStore, index, logger),
	}
}

func seedTestUser(t *testing.T, s store.Store, name, email string) *domain.User {
	t.Helper()

	hash, err := auth.HashPassword("correct horse battery staple")
	require.NoError(t, err)

	now := time.Now().UTC()
	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

func seedTestCategory(t *testing.T, s store.Store, name, slug string) *domain.Category {
	t.Helper()

	now := time.Now().UTC()
	category := &domain.Category{
		Name:      name,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.CreateCategory(context.Background(), category))
	return category
}

// waitForDocCount blocks until the index settles at the expected size.
func waitForDocCount(t *testing.T, index *search.Index, want uint64) {
	t.Helper()

	require.Eventually(t, func() bool {
		count, err := index.DocumentCount()
		return err == nil && count == want
	}, 5*time.Second, 20*time.Millisecond, "index never reached %d documents", want)
}
