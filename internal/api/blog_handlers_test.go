package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	"github.com/inkwellapp/inkwell-server/internal/service"
)

func (ts *testServer) seedPost(t *testing.T, userID, categoryID int64, name, slug string, published bool) *domain.Post {
	t.Helper()

	now := time.Now().UTC()
	post := &domain.Post{
		Name:        name,
		Slug:        slug,
		Description: "Content for " + name,
		CategoryID:  categoryID,
		UserID:      userID,
		IsPublished: published,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, ts.store.CreatePost(context.Background(), post))
	return post
}

func TestListPosts_PublishedOnly(t *testing.T) {
	ts := setupTestServer(t)
	user := ts.seedUser(t, "writer@example.com")
	category := ts.seedCategory(t, "Engineering", "engineering")

	ts.seedPost(t, user.ID, category.ID, "Published Post", "published-post", true)
	ts.seedPost(t, user.ID, category.ID, "Draft Post", "draft-post", false)

	require.NoError(t, ts.services.Indexer.ReindexAll(context.Background()))
	ts.waitForDocCount(t, 2)

	resp := ts.api.Get("/api/v1/posts")
	require.Equal(t, http.StatusOK, resp.Code)

	var page service.PostPage
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))

	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, "published-post", page.Posts[0].Slug)
	assert.Equal(t, "Engineering", page.Posts[0].CategoryName)
}

func TestListPosts_Pagination(t *testing.T) {
	ts := setupTestServer(t)
	user := ts.seedUser(t, "writer@example.com")
	category := ts.seedCategory(t, "Engineering", "engineering")

	for i := 0; i < 12; i++ {
		ts.seedPost(t, user.ID, category.ID,
			fmt.Sprintf("Post %d", i), fmt.Sprintf("post-%d", i), true)
	}

	require.NoError(t, ts.services.Indexer.ReindexAll(context.Background()))
	ts.waitForDocCount(t, 12)

	resp := ts.api.Get("/api/v1/posts?page=2&per_page=9")
	require.Equal(t, http.StatusOK, resp.Code)

	var page service.PostPage
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))

	assert.Equal(t, int64(12), page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Posts, 3)
}

func TestListPosts_Search(t *testing.T) {
	ts := setupTestServer(t)
	user := ts.seedUser(t, "writer@example.com")
	category := ts.seedCategory(t, "Baking", "baking")

	ts.seedPost(t, user.ID, category.ID, "Sourdough Starter Guide", "sourdough-starter-guide", true)
	ts.seedPost(t, user.ID, category.ID, "Croissant Lamination", "croissant-lamination", true)

	require.NoError(t, ts.services.Indexer.ReindexAll(context.Background()))
	ts.waitForDocCount(t, 2)

	resp := ts.api.Get("/api/v1/posts?search=sourdough")
	require.Equal(t, http.StatusOK, resp.Code)

	var page service.PostPage
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))

	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, "sourdough-starter-guide", page.Posts[0].Slug)
	assert.Equal(t, "Baking", page.Posts[0].CategoryName)
}

func TestGetPostBySlug(t *testing.T) {
	ts := setupTestServer(t)
	user := ts.seedUser(t, "writer@example.com")
	category := ts.seedCategory(t, "Engineering", "engineering")
	ts.seedPost(t, user.ID, category.ID, "Published Post", "published-post", true)

	resp := ts.api.Get("/api/v1/posts/published-post")
	require.Equal(t, http.StatusOK, resp.Code)

	var body PostResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "Published Post", body.Name)
	assert.Equal(t, "Engineering", body.CategoryName)
	assert.Equal(t, "Test Author", body.UserName)
}

func TestGetPostBySlug_DraftHidden(t *testing.T) {
	ts := setupTestServer(t)
	user := ts.seedUser(t, "writer@example.com")
	category := ts.seedCategory(t, "Engineering", "engineering")
	ts.seedPost(t, user.ID, category.ID, "Draft Post", "draft-post", false)

	resp := ts.api.Get("/api/v1/posts/draft-post")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestListCategories(t *testing.T) {
	ts := setupTestServer(t)
	user := ts.seedUser(t, "writer@example.com")
	engineering := ts.seedCategory(t, "Engineering", "engineering")
	ts.seedCategory(t, "Baking", "baking")

	ts.seedPost(t, user.ID, engineering.ID, "Published Post", "published-post", true)

	resp := ts.api.Get("/api/v1/categories")
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Categories []CategoryResponse `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body.Categories, 2)

	counts := map[string]int64{}
	for _, c := range body.Categories {
		counts[c.Slug] = c.PostCount
	}
	assert.Equal(t, int64(1), counts["engineering"])
	assert.Equal(t, int64(0), counts["baking"])
}
