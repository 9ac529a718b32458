package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/store"
)

func TestCreateAndGetPost(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := seedUser(t, s, "Jordan Author", "jordan@example.com")
	cat := seedCategory(t, s, "Technology", "technology")
	p := seedPost(t, s, "Understanding SQLite WAL Mode", "understanding-sqlite-wal-mode", cat.ID, user.ID)

	if p.ID == 0 {
		t.Fatal("CreatePost should set the generated ID")
	}

	got, err := s.GetPost(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}

	if got.Name != p.Name {
		t.Errorf("Name: got %q, want %q", got.Name, p.Name)
	}
	if got.Slug != p.Slug {
		t.Errorf("Slug: got %q, want %q", got.Slug, p.Slug)
	}
	if got.CategoryID != cat.ID {
		t.Errorf("CategoryID: got %d, want %d", got.CategoryID, cat.ID)
	}
	if got.CategoryName != "Technology" {
		t.Errorf("CategoryName: got %q, want %q", got.CategoryName, "Technology")
	}
	if got.UserName != "Jordan Author" {
		t.Errorf("UserName: got %q, want %q", got.UserName, "Jordan Author")
	}
	if !got.IsPublished {
		t.Error("IsPublished: expected true")
	}
	if got.CreatedAt.Unix() != p.CreatedAt.Unix() {
		t.Errorf("CreatedAt: got %v, want %v", got.CreatedAt, p.CreatedAt)
	}
}

func TestGetPost_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetPost(context.Background(), 12345)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetPostBySlug(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := seedUser(t, s, "Jordan Author", "jordan@example.com")
	cat := seedCategory(t, s, "Travel", "travel")
	p := seedPost(t, s, "A Week in Lisbon", "a-week-in-lisbon", cat.ID, user.ID)

	got, err := s.GetPostBySlug(ctx, "a-week-in-lisbon")
	if err != nil {
		t.Fatalf("GetPostBySlug: %v", err)
	}
	if got.ID != p.ID {
		t.Errorf("ID: got %d, want %d", got.ID, p.ID)
	}

	if _, err := s.GetPostBySlug(ctx, "missing-slug"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreatePost_DuplicateSlug(t *testing.T) {
	s := newTestStore(t)

	user := seedUser(t, s, "Jordan Author", "jordan@example.com")
	cat := seedCategory(t, s, "Technology", "technology")
	seedPost(t, s, "First", "same-slug", cat.ID, user.ID)

	p := seedPostValue("Second", "same-slug", cat.ID, user.ID)
	err := s.CreatePost(context.Background(), p)
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestListPosts_PaginationAndFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := seedUser(t, s, "Jordan Author", "jordan@example.com")
	tech := seedCategory(t, s, "Technology", "technology")
	travel := seedCategory(t, s, "Travel", "travel")

	for i := 0; i < 12; i++ {
		seedPost(t, s, fmt.Sprintf("Tech Post %d", i), fmt.Sprintf("tech-post-%d", i), tech.ID, user.ID)
	}
	for i := 0; i < 3; i++ {
		seedPost(t, s, fmt.Sprintf("Travel Post %d", i), fmt.Sprintf("travel-post-%d", i), travel.ID, user.ID)
	}

	// Draft posts are hidden when PublishedOnly is set.
	draft := seedPostValue("Draft", "draft-post", tech.ID, user.ID)
	draft.IsPublished = false
	if err := s.CreatePost(ctx, draft); err != nil {
		t.Fatalf("create draft: %v", err)
	}

	posts, total, err := s.ListPosts(ctx, store.ListPostsParams{PublishedOnly: true, Limit: 9})
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if total != 15 {
		t.Errorf("total: got %d, want 15", total)
	}
	if len(posts) != 9 {
		t.Errorf("page size: got %d, want 9", len(posts))
	}

	// Second page holds the remainder.
	posts, total, err = s.ListPosts(ctx, store.ListPostsParams{PublishedOnly: true, Limit: 9, Offset: 9})
	if err != nil {
		t.Fatalf("ListPosts page 2: %v", err)
	}
	if total != 15 {
		t.Errorf("total: got %d, want 15", total)
	}
	if len(posts) != 6 {
		t.Errorf("page 2 size: got %d, want 6", len(posts))
	}

	// Category filter.
	posts, total, err = s.ListPosts(ctx, store.ListPostsParams{PublishedOnly: true, CategoryID: travel.ID, Limit: 9})
	if err != nil {
		t.Fatalf("ListPosts by category: %v", err)
	}
	if total != 3 {
		t.Errorf("travel total: got %d, want 3", total)
	}
	for _, p := range posts {
		if p.CategoryID != travel.ID {
			t.Errorf("post %d has category %d, want %d", p.ID, p.CategoryID, travel.ID)
		}
	}

	// Without PublishedOnly the draft is visible.
	_, total, err = s.ListPosts(ctx, store.ListPostsParams{Limit: 100})
	if err != nil {
		t.Fatalf("ListPosts all: %v", err)
	}
	if total != 16 {
		t.Errorf("all total: got %d, want 16", total)
	}
}

func TestUpdatePost(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := seedUser(t, s, "Jordan Author", "jordan@example.com")
	cat := seedCategory(t, s, "Technology", "technology")
	p := seedPost(t, s, "Original Title", "original-title", cat.ID, user.ID)

	p.Name = "Updated Title"
	p.Slug = "updated-title"
	p.IsPublished = false
	p.UpdatedAt = time.Now().Add(time.Minute)
	if err := s.UpdatePost(ctx, p); err != nil {
		t.Fatalf("UpdatePost: %v", err)
	}

	got, err := s.GetPost(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if got.Name != "Updated Title" {
		t.Errorf("Name: got %q, want %q", got.Name, "Updated Title")
	}
	if got.Slug != "updated-title" {
		t.Errorf("Slug: got %q, want %q", got.Slug, "updated-title")
	}
	if got.IsPublished {
		t.Error("IsPublished: expected false after update")
	}
}

func TestUpdatePost_NotFound(t *testing.T) {
	s := newTestStore(t)

	user := seedUser(t, s, "Jordan Author", "jordan@example.com")
	cat := seedCategory(t, s, "Technology", "technology")

	p := seedPostValue("Ghost", "ghost", cat.ID, user.ID)
	p.ID = 999
	err := s.UpdatePost(context.Background(), p)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeletePost(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := seedUser(t, s, "Jordan Author", "jordan@example.com")
	cat := seedCategory(t, s, "Technology", "technology")
	p := seedPost(t, s, "Doomed", "doomed", cat.ID, user.ID)

	if err := s.DeletePost(ctx, p.ID); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	if _, err := s.GetPost(ctx, p.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting again reports not found.
	if err := s.DeletePost(ctx, p.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
