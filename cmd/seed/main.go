// Package main provides a tool to seed the database with test blog content.
//
// It creates an author account, a handful of categories, and a batch of
// posts, then rebuilds the search index so everything is searchable
// immediately.
//
// Usage:
//
//	go run ./cmd/seed
//	go run ./cmd/seed --posts 50
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/auth"
	"github.com/inkwellapp/inkwell-server/internal/config"
	"github.com/inkwellapp/inkwell-server/internal/domain"
	"github.com/inkwellapp/inkwell-server/internal/logger"
	"github.com/inkwellapp/inkwell-server/internal/search"
	"github.com/inkwellapp/inkwell-server/internal/service"
	"github.com/inkwellapp/inkwell-server/internal/store"
	"github.com/inkwellapp/inkwell-server/internal/store/sqlite"
	"github.com/inkwellapp/inkwell-server/internal/util"
)

var (
	postCount = flag.Int("posts", 24, "Number of posts to create")
	email     = flag.String("email", "author@example.com", "Seed author email")
	password  = flag.String("password", "password123", "Seed author password")
)

var categoryNames = []string{
	"Engineering", "Design", "Product", "Culture", "Announcements",
}

var titleWords = []string{
	"Building", "Shipping", "Debugging", "Scaling", "Rethinking",
	"Migrating", "Profiling", "Testing", "Designing", "Launching",
}

var titleTopics = []string{
	"a Search Pipeline", "the Task Queue", "Our Deploy Process",
	"the Editor", "Dark Mode", "the Image Uploader", "Session Handling",
	"the Admin Dashboard", "Full-Text Search", "the Publishing Flow",
}

func main() {
	flag.Parse()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	fmt.Printf("Opening database at: %s\n", cfg.DatabasePath())

	slogger := logger.New(logger.Config{Level: slog.LevelWarn}).Logger

	s, err := sqlite.Open(cfg.DatabasePath(), slogger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	author := ensureAuthor(ctx, s)
	categories := ensureCategories(ctx, s)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	created := 0

	for i := 0; i < *postCount; i++ {
		name := fmt.Sprintf("%s %s #%d",
			titleWords[rng.Intn(len(titleWords))],
			titleTopics[rng.Intn(len(titleTopics))],
			i+1,
		)

		now := time.Now().UTC().Add(-time.Duration(rng.Intn(90*24)) * time.Hour)
		post := &domain.Post{
			Name:        name,
			Slug:        util.Slugify(name),
			Description: fmt.Sprintf("Notes from %s. This is seed content for local development.", name),
			CategoryID:  categories[rng.Intn(len(categories))].ID,
			UserID:      author.ID,
			IsPublished: rng.Float32() > 0.2, // roughly one draft in five
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := s.CreatePost(ctx, post); err != nil {
			log.Printf("Skipping post %q: %v", name, err)
			continue
		}
		created++
	}

	fmt.Printf("Created %d posts\n", created)

	// Rebuild the index so the seeded posts are searchable right away.
	index, err := search.NewIndex(search.Options{
		Path:   cfg.Search.IndexPath,
		Logger: slogger,
	})
	if err != nil {
		log.Fatalf("Failed to open search index: %v", err)
	}
	defer index.Close()

	indexer := service.NewIndexerService(s, index, slogger)
	if err := indexer.ReindexAll(ctx); err != nil {
		log.Fatalf("Failed to rebuild search index: %v", err)
	}

	count, _ := index.DocumentCount()
	fmt.Printf("Search index rebuilt, %d documents\n", count)
	fmt.Printf("\nLogin with %s / %s\n", *email, *password)
}

func ensureAuthor(ctx context.Context, s store.Store) *domain.User {
	if user, err := s.GetUserByEmail(ctx, *email); err == nil {
		fmt.Printf("Using existing author: %s\n", user.Email)
		return user
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		Name:         "Seed Author",
		Email:        *email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.CreateUser(ctx, user); err != nil {
		log.Fatalf("Failed to create author: %v", err)
	}

	fmt.Printf("Created author: %s\n", user.Email)
	return user
}

func ensureCategories(ctx context.Context, s store.Store) []*domain.Category {
	categories := make([]*domain.Category, 0, len(categoryNames))

	for _, name := range categoryNames {
		slug := util.Slugify(name)
		if existing, err := s.GetCategoryBySlug(ctx, slug); err == nil {
			categories = append(categories, existing)
			continue
		}

		now := time.Now().UTC()
		category := &domain.Category{
			Name:      name,
			Slug:      slug,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.CreateCategory(ctx, category); err != nil {
			log.Fatalf("Failed to create category %q: %v", name, err)
		}
		categories = append(categories, category)
	}

	fmt.Printf("Ensured %d categories\n", len(categories))
	return categories
}
