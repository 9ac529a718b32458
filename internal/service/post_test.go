package service

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	domainerrors "github.com/inkwellapp/inkwell-server/internal/errors"
	"github.com/inkwellapp/inkwell-server/internal/store"
)

func TestPostService_CreatePost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := seedTestUser(t, env.store, "Jane Doe", "jane@example.com")
	category := seedTestCategory(t, env.store, "Technology", "technology")

	post, err := env.posts.CreatePost(ctx, user.ID, CreatePostRequest{
		Name:        "Getting Started with Go",
		Description: "An introduction to the Go programming language.",
		CategoryID:  category.ID,
		IsPublished: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "getting-started-with-go", post.Slug)
	assert.Equal(t, "Technology", post.CategoryName)
	assert.Equal(t, "Jane Doe", post.UserName)
	assert.True(t, post.IsPublished)

	// The dispatcher enqueued an indexing task; the queue picks it up.
	waitForDocCount(t, env.index, 1)
}

func TestPostService_CreatePost_DuplicateSlug(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := seedTestUser(t, env.store, "Jane Doe", "jane@example.com")
	category := seedTestCategory(t, env.store, "Technology", "technology")

	req := CreatePostRequest{
		Name:        "Getting Started with Go",
		Description: "First take.",
		CategoryID:  category.ID,
	}
	_, err := env.posts.CreatePost(ctx, user.ID, req)
	require.NoError(t, err)

	req.Description = "Second take."
	_, err = env.posts.CreatePost(ctx, user.ID, req)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrAlreadyExists))
}

// failingPostWrites wraps a store and fails every post insert.
type failingPostWrites struct {
	store.Store
}

func (f *failingPostWrites) CreatePost(_ context.Context, _ *domain.Post) error {
	return fmt.Errorf("disk I/O error")
}

func TestPostService_CreatePost_StoreFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := seedTestUser(t, env.store, "Jane Doe", "jane@example.com")
	category := seedTestCategory(t, env.store, "Technology", "technology")

	posts := NewPostService(&failingPostWrites{Store: env.store}, env.dispatcher, env.images, slog.New(slog.DiscardHandler))
	_, err := posts.CreatePost(ctx, user.ID, CreatePostRequest{
		Name:        "Doomed Post",
		Description: "Body.",
		CategoryID:  category.ID,
	})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrCreationFailed))
}

func TestPostService_CreatePost_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := seedTestUser(t, env.store, "Jane Doe", "jane@example.com")

	_, err := env.posts.CreatePost(ctx, user.ID, CreatePostRequest{
		Description: "No name given.",
		CategoryID:  1,
	})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
}

func TestPostService_CreatePost_UnknownCategory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := seedTestUser(t, env.store, "Jane Doe", "jane@example.com")

	_, err := env.posts.CreatePost(ctx, user.ID, CreatePostRequest{
		Name:        "Orphaned Post",
		Description: "Points at a category that doesn't exist.",
		CategoryID:  999,
	})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
}

func TestPostService_CreatePost_ConvertsHTMLDescription(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := seedTestUser(t, env.store, "Jane Doe", "jane@example.com")
	category := seedTestCategory(t, env.store, "Technology", "technology")

	post, err := env.posts.CreatePost(ctx, user.ID, CreatePostRequest{
		Name:        "Rich Text Post",
		Description: "<p>Hello <strong>world</strong></p>",
		CategoryID:  category.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello **world**", post.Description)
}

func TestPostService_UpdatePost_SlugFollowsNameOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := seedTestUser(t, env.store, "Jane Doe", "jane@example.com")
	category := seedTestCategory(t, env.store, "Technology", "technology")

	post, err := env.posts.CreatePost(ctx, user.ID, CreatePostRequest{
		Name:        "Original Title",
		Description: "Original body.",
		CategoryID:  category.ID,
	})
	require.NoError(t, err)

	// Editing the description keeps the published URL stable.
	newDesc := "Edited body."
	updated, err := env.posts.UpdatePost(ctx, post.ID, UpdatePostRequest{Description: &newDesc})
	require.NoError(t, err)
	assert.Equal(t, "original-title", updated.Slug)
	assert.Equal(t, "Edited body.", updated.Description)

	// Renaming regenerates the slug.
	newName := "Brand New Title"
	updated, err = env.posts.UpdatePost(ctx, post.ID, UpdatePostRequest{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "brand-new-title", updated.Slug)
}

func TestPostService_UpdatePost_NotFound(t *testing.T) {
	env := newTestEnv(t)

	name := "Whatever"
	_, err := env.posts.UpdatePost(context.Background(), 42, UpdatePostRequest{Name: &name})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestPostService_DeletePost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := seedTestUser(t, env.store, "Jane Doe", "jane@example.com")
	category := seedTestCategory(t, env.store, "Technology", "technology")

	post, err := env.posts.CreatePost(ctx, user.ID, CreatePostRequest{
		Name:        "Short Lived",
		Description: "Here today.",
		CategoryID:  category.ID,
		IsPublished: true,
	})
	require.NoError(t, err)
	waitForDocCount(t, env.index, 1)

	require.NoError(t, env.posts.DeletePost(ctx, post.ID))
	waitForDocCount(t, env.index, 0)

	err = env.posts.DeletePost(ctx, post.ID)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}
