package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/inkwellapp/inkwell-server/internal/errors"
)

func TestBlogService_GetPosts_Pagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := seedTestUser(t, env.store, "Jane Doe", "jane@example.com")
	category := seedTestCategory(t, env.store, "Technology", "technology")

	for i := 1; i <= 12; i++ {
		_, err := env.posts.CreatePost(ctx, user.ID, CreatePostRequest{
			Name:        fmt.Sprintf("Published Post %d", i),
			Description: "Body.",
			CategoryID:  category.ID,
			IsPublished: true,
		})
		require.NoError(t, err)
	}
	// Drafts stay out of the public listing.
	_, err := env.posts.CreatePost(ctx, user.ID, CreatePostRequest{
		Name:        "Unfinished Draft",
		Description: "Body.",
		CategoryID:  category.ID,
	})
	require.NoError(t, err)

	// Drafts are indexed too, carrying is_published false.
	waitForDocCount(t, env.index, 13)

	page, err := env.blog.GetPosts(ctx, GetPostsParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(12), page.Total)
	assert.Len(t, page.Posts, defaultPageSize)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 2, page.TotalPages)

	page, err = env.blog.GetPosts(ctx, GetPostsParams{Page: 2})
	require.NoError(t, err)
	assert.Len(t, page.Posts, 3)
}

func TestBlogService_GetPosts_Search(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := seedTestUser(t, env.store, "Jane Doe", "jane@example.com")
	tech := seedTestCategory(t, env.store, "Technology", "technology")
	travel := seedTestCategory(t, env.store, "Travel", "travel")

	_, err := env.posts.CreatePost(ctx, user.ID, CreatePostRequest{
		Name:        "Sourdough Baking Basics",
		Description: "Flour, water, salt.",
		CategoryID:  tech.ID,
		IsPublished: true,
	})
	require.NoError(t, err)
	_, err = env.posts.CreatePost(ctx, user.ID, CreatePostRequest{
		Name:        "Hiking in Patagonia",
		Description: "Wind and glaciers.",
		CategoryID:  travel.ID,
		IsPublished: true,
	})
	require.NoError(t, err)
	waitForDocCount(t, env.index, 2)

	page, err := env.blog.GetPosts(ctx, GetPostsParams{Search: "sourdough"})
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, "sourdough-baking-basics", page.Posts[0].Slug)
	assert.Equal(t, "Technology", page.Posts[0].CategoryName)

	// Category filter composes with the text query.
	page, err = env.blog.GetPosts(ctx, GetPostsParams{Search: "hiking", CategoryID: tech.ID})
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
}

func TestBlogService_GetPosts_ResolvesImageURL(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := seedTestUser(t, env.store, "Jane Doe", "jane@example.com")
	category := seedTestCategory(t, env.store, "Technology", "technology")

	require.NoError(t, env.images.Save("img-header.png", []byte("png bytes")))
	_, err := env.posts.CreatePost(ctx, user.ID, CreatePostRequest{
		Name:        "Post With Header",
		Description: "Body.",
		CategoryID:  category.ID,
		IsPublished: true,
		Image:       "img-header.png",
	})
	require.NoError(t, err)
	waitForDocCount(t, env.index, 1)

	page, err := env.blog.GetPosts(ctx, GetPostsParams{})
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, "img-header.png", page.Posts[0].Image)
	assert.Equal(t, "/media/posts/img-header.png", page.Posts[0].ImageURL)
}

func TestBlogService_GetPosts_SearchDegradesToEmptyPage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.True(t, env.index.DeleteIndex())

	page, err := env.blog.GetPosts(ctx, GetPostsParams{Search: "anything"})
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
	assert.Equal(t, int64(0), page.Total)
}

func TestBlogService_GetPostBySlug(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := seedTestUser(t, env.store, "Jane Doe", "jane@example.com")
	category := seedTestCategory(t, env.store, "Technology", "technology")

	_, err := env.posts.CreatePost(ctx, user.ID, CreatePostRequest{
		Name:        "Public Post",
		Description: "Visible.",
		CategoryID:  category.ID,
		IsPublished: true,
	})
	require.NoError(t, err)
	_, err = env.posts.CreatePost(ctx, user.ID, CreatePostRequest{
		Name:        "Hidden Draft",
		Description: "Not yet.",
		CategoryID:  category.ID,
	})
	require.NoError(t, err)

	post, err := env.blog.GetPostBySlug(ctx, "public-post")
	require.NoError(t, err)
	assert.Equal(t, "Public Post", post.Name)

	// Drafts 404 even though the row exists.
	_, err = env.blog.GetPostBySlug(ctx, "hidden-draft")
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))

	_, err = env.blog.GetPostBySlug(ctx, "never-existed")
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}
