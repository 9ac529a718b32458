package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	domainerrors "github.com/inkwellapp/inkwell-server/internal/errors"
	"github.com/inkwellapp/inkwell-server/internal/search"
	"github.com/inkwellapp/inkwell-server/internal/store"
)

const (
	defaultPageSize = 9
	maxPageSize     = 100
)

// BlogService is the public read facade. Listings come from the search
// index; post detail and category listings come from the store.
type BlogService struct {
	store  store.Store
	index  *search.Index
	logger *slog.Logger
}

// NewBlogService creates a new blog service.
func NewBlogService(st store.Store, index *search.Index, logger *slog.Logger) *BlogService {
	return &BlogService{
		store:  st,
		index:  index,
		logger: logger,
	}
}

// GetPostsParams filters the public post listing.
type GetPostsParams struct {
	CategoryID int64
	Search     string
	Page       int
	PerPage    int
}

// PostView is the public shape of a post in listings.
type PostView struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	CategoryID   int64     `json:"category_id"`
	CategoryName string    `json:"category_name"`
	UserName     string    `json:"user_name"`
	Image        string    `json:"image,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PostPage is one page of the public post listing.
type PostPage struct {
	Posts      []PostView `json:"posts"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	PerPage    int        `json:"per_page"`
	TotalPages int        `json:"total_pages"`
}

// GetPosts returns a page of published posts, newest first. The listing is
// served entirely from the search index, accepting eventual consistency
// against the database; a text query narrows the set without changing the
// order. A failed search degrades to an empty page rather than erroring,
// since a broken index shouldn't take the listing down with it.
func (s *BlogService) GetPosts(ctx context.Context, params GetPostsParams) (*PostPage, error) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	perPage := params.PerPage
	if perPage < 1 {
		perPage = defaultPageSize
	}
	if perPage > maxPageSize {
		perPage = maxPageSize
	}
	offset := (page - 1) * perPage

	return s.searchPosts(ctx, params.Search, params.CategoryID, page, perPage, offset)
}

func (s *BlogService) searchPosts(ctx context.Context, query string, categoryID int64, page, perPage, offset int) (*PostPage, error) {
	result, err := s.index.SearchPosts(ctx, search.SearchParams{
		Query:      query,
		CategoryID: categoryID,
		Limit:      perPage,
		Offset:     offset,
	})
	if err != nil {
		s.logger.Error("search failed, serving empty page", "query", query, "error", err)
		return newPostPage([]PostView{}, 0, page, perPage), nil
	}

	views := make([]PostView, 0, len(result.Hits))
	for _, hit := range result.Hits {
		views = append(views, hitToView(hit))
	}

	//nolint:gosec // Hit counts are nowhere near overflow
	return newPostPage(views, int64(result.Total), page, perPage), nil
}

// GetPostBySlug returns a published post. Drafts are not found.
func (s *BlogService) GetPostBySlug(ctx context.Context, slug string) (*domain.PostWithRelations, error) {
	post, err := s.store.GetPostBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("post %q not found", slug)
		}
		return nil, err
	}
	if !post.IsPublished {
		return nil, domainerrors.NotFoundf("post %q not found", slug)
	}
	return post, nil
}

// ListCategories returns all categories with post counts.
func (s *BlogService) ListCategories(ctx context.Context) ([]*domain.CategoryWithCount, error) {
	return s.store.ListCategories(ctx)
}

func newPostPage(views []PostView, total int64, page, perPage int) *PostPage {
	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	return &PostPage{
		Posts:      views,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
	}
}

func hitToView(hit search.PostHit) PostView {
	createdAt, _ := time.Parse(time.RFC3339, hit.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, hit.UpdatedAt)

	view := PostView{
		ID:           hit.ID,
		Name:         hit.Name,
		Slug:         hit.Slug,
		Description:  hit.Description,
		CategoryID:   hit.CategoryID,
		CategoryName: hit.CategoryName,
		UserName:     hit.UserName,
		Image:        hit.Image,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
	if hit.Image != "" {
		view.ImageURL = "/media/posts/" + hit.Image
	}
	return view
}
