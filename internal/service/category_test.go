package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/inkwellapp/inkwell-server/internal/errors"
)

func TestCategoryService_CreateCategory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	category, err := env.categories.CreateCategory(ctx, CreateCategoryRequest{
		Name: "Web Development & Design",
	})
	require.NoError(t, err)
	assert.Equal(t, "web-development-design", category.Slug)

	_, err = env.categories.CreateCategory(ctx, CreateCategoryRequest{
		Name: "Web Development & Design",
	})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrAlreadyExists))
}

func TestCategoryService_UpdateCategory_ReindexesPosts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := seedTestUser(t, env.store, "Jane Doe", "jane@example.com")
	category, err := env.categories.CreateCategory(ctx, CreateCategoryRequest{Name: "Technology"})
	require.NoError(t, err)

	for _, name := range []string{"First Post", "Second Post"} {
		_, err := env.posts.CreatePost(ctx, user.ID, CreatePostRequest{
			Name:        name,
			Description: "Body of " + name,
			CategoryID:  category.ID,
			IsPublished: true,
		})
		require.NoError(t, err)
	}
	waitForDocCount(t, env.index, 2)

	updated, err := env.categories.UpdateCategory(ctx, category.ID, UpdateCategoryRequest{
		Name: "Engineering",
	})
	require.NoError(t, err)
	assert.Equal(t, "engineering", updated.Slug)

	// Post documents denormalize the category name, so the rename should
	// eventually show up in search results.
	require.Eventually(t, func() bool {
		page, err := env.blog.GetPosts(ctx, GetPostsParams{Search: "post"})
		if err != nil || len(page.Posts) != 2 {
			return false
		}
		for _, p := range page.Posts {
			if p.CategoryName != "Engineering" {
				return false
			}
		}
		return true
	}, 5*time.Second, 20*time.Millisecond)
}

func TestCategoryService_DeleteCategory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := seedTestUser(t, env.store, "Jane Doe", "jane@example.com")
	category, err := env.categories.CreateCategory(ctx, CreateCategoryRequest{Name: "Technology"})
	require.NoError(t, err)

	post, err := env.posts.CreatePost(ctx, user.ID, CreatePostRequest{
		Name:        "Blocking Post",
		Description: "Keeps the category alive.",
		CategoryID:  category.ID,
	})
	require.NoError(t, err)

	err = env.categories.DeleteCategory(ctx, category.ID)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrConflict))

	require.NoError(t, env.posts.DeletePost(ctx, post.ID))
	require.NoError(t, env.categories.DeleteCategory(ctx, category.ID))

	err = env.categories.DeleteCategory(ctx, category.ID)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}
