package sqlite

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedUser inserts a user and returns it with its generated ID.
func seedUser(t *testing.T, s *Store, name, email string) *domain.User {
	t.Helper()
	now := time.Now()
	u := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: "not-a-real-hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

// seedCategory inserts a category and returns it with its generated ID.
func seedCategory(t *testing.T, s *Store, name, slug string) *domain.Category {
	t.Helper()
	now := time.Now()
	c := &domain.Category{
		Name:      name,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.CreateCategory(context.Background(), c); err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return c
}

// seedPost inserts a published post and returns it with its generated ID.
func seedPost(t *testing.T, s *Store, name, slug string, categoryID, userID int64) *domain.Post {
	t.Helper()
	now := time.Now()
	p := &domain.Post{
		Name:        name,
		Slug:        slug,
		Description: "A post about " + name + ".",
		CategoryID:  categoryID,
		UserID:      userID,
		IsPublished: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.CreatePost(context.Background(), p); err != nil {
		t.Fatalf("seed post: %v", err)
	}
	return p
}

// seedCategoryValue builds a category value without inserting it.
func seedCategoryValue(name, slug string, now time.Time) *domain.Category {
	return &domain.Category{
		Name:      name,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// seedPostValue builds a post value without inserting it.
func seedPostValue(name, slug string, categoryID, userID int64) *domain.Post {
	now := time.Now()
	return &domain.Post{
		Name:        name,
		Slug:        slug,
		Description: "A post about " + name + ".",
		CategoryID:  categoryID,
		UserID:      userID,
		IsPublished: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	// Verify WAL mode is set.
	var journalMode string
	err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode)
	if err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	// Verify foreign keys are enabled.
	var fk int
	err = s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk)
	if err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("expected foreign_keys=1, got %d", fk)
	}

	// Verify tables exist.
	tables := []string{"users", "sessions", "categories", "posts", "tasks"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestOpenClose(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	// Re-open should work (schema is idempotent).
	s2, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("re-open store: %v", err)
	}
	if err := s2.Close(); err != nil {
		t.Fatalf("close re-opened store: %v", err)
	}
}
