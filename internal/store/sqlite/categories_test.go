package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/store"
)

func TestCreateAndGetCategory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := seedCategory(t, s, "Web Development & Design", "web-development-design")
	if c.ID == 0 {
		t.Fatal("CreateCategory should set the generated ID")
	}

	got, err := s.GetCategory(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetCategory: %v", err)
	}
	if got.Name != c.Name {
		t.Errorf("Name: got %q, want %q", got.Name, c.Name)
	}
	if got.Slug != c.Slug {
		t.Errorf("Slug: got %q, want %q", got.Slug, c.Slug)
	}

	bySlug, err := s.GetCategoryBySlug(ctx, "web-development-design")
	if err != nil {
		t.Fatalf("GetCategoryBySlug: %v", err)
	}
	if bySlug.ID != c.ID {
		t.Errorf("ID: got %d, want %d", bySlug.ID, c.ID)
	}
}

func TestCreateCategory_DuplicateSlug(t *testing.T) {
	s := newTestStore(t)

	seedCategory(t, s, "Technology", "technology")

	now := time.Now()
	dup := seedCategoryValue("Tech Again", "technology", now)
	err := s.CreateCategory(context.Background(), dup)
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestListCategories_WithCounts(t *testing.T) {
	s := newTestStore(t)

	user := seedUser(t, s, "Jordan Author", "jordan@example.com")
	tech := seedCategory(t, s, "Technology", "technology")
	seedCategory(t, s, "Travel", "travel")

	seedPost(t, s, "One", "one", tech.ID, user.ID)
	seedPost(t, s, "Two", "two", tech.ID, user.ID)

	categories, err := s.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(categories))
	}

	// Sorted by name: Technology before Travel.
	if categories[0].Name != "Technology" || categories[0].PostCount != 2 {
		t.Errorf("first: got %q count %d, want Technology count 2", categories[0].Name, categories[0].PostCount)
	}
	if categories[1].Name != "Travel" || categories[1].PostCount != 0 {
		t.Errorf("second: got %q count %d, want Travel count 0", categories[1].Name, categories[1].PostCount)
	}
}

func TestUpdateCategory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := seedCategory(t, s, "Sports", "sports")

	c.Name = "Sports & Entertainment"
	c.Slug = "sports-entertainment"
	c.UpdatedAt = time.Now().Add(time.Minute)
	if err := s.UpdateCategory(ctx, c); err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}

	got, err := s.GetCategory(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetCategory: %v", err)
	}
	if got.Name != "Sports & Entertainment" {
		t.Errorf("Name: got %q, want %q", got.Name, "Sports & Entertainment")
	}
}

func TestDeleteCategory_InUse(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := seedUser(t, s, "Jordan Author", "jordan@example.com")
	cat := seedCategory(t, s, "Technology", "technology")
	p := seedPost(t, s, "Keeper", "keeper", cat.ID, user.ID)

	// A category with posts cannot be deleted.
	err := s.DeleteCategory(ctx, cat.ID)
	if !errors.Is(err, store.ErrInUse) {
		t.Fatalf("expected ErrInUse, got %v", err)
	}

	// After the post is gone the delete succeeds.
	if err := s.DeletePost(ctx, p.ID); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	if err := s.DeleteCategory(ctx, cat.ID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	if _, err := s.GetCategory(ctx, cat.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestListPostIDsByCategory(t *testing.T) {
	s := newTestStore(t)

	user := seedUser(t, s, "Jordan Author", "jordan@example.com")
	tech := seedCategory(t, s, "Technology", "technology")
	travel := seedCategory(t, s, "Travel", "travel")

	p1 := seedPost(t, s, "One", "one", tech.ID, user.ID)
	p2 := seedPost(t, s, "Two", "two", tech.ID, user.ID)
	seedPost(t, s, "Elsewhere", "elsewhere", travel.ID, user.ID)

	ids, err := s.ListPostIDsByCategory(context.Background(), tech.ID)
	if err != nil {
		t.Fatalf("ListPostIDsByCategory: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(ids))
	}
	if ids[0] != p1.ID || ids[1] != p2.ID {
		t.Errorf("ids: got %v, want [%d %d]", ids, p1.ID, p2.ID)
	}
}
