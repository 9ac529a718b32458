package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	"github.com/inkwellapp/inkwell-server/internal/service"
)

func (s *Server) registerBlogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listPosts",
		Method:      http.MethodGet,
		Path:        "/api/v1/posts",
		Summary:     "List published posts",
		Description: "Returns a page of published posts, optionally filtered by category or full-text search",
		Tags:        []string{"Blog"},
	}, s.handleListPosts)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPostBySlug",
		Method:      http.MethodGet,
		Path:        "/api/v1/posts/{slug}",
		Summary:     "Get post",
		Description: "Returns a single published post by slug",
		Tags:        []string{"Blog"},
	}, s.handleGetPostBySlug)

	huma.Register(s.api, huma.Operation{
		OperationID: "listCategories",
		Method:      http.MethodGet,
		Path:        "/api/v1/categories",
		Summary:     "List categories",
		Description: "Returns all categories with their post counts",
		Tags:        []string{"Blog"},
	}, s.handleListCategories)
}

// === DTOs ===

// ListPostsInput holds public listing filters.
type ListPostsInput struct {
	Search     string `query:"search" doc:"Full-text search query"`
	CategoryID int64  `query:"category_id" doc:"Restrict to one category"`
	Page       int    `query:"page" doc:"Page number, starting at 1"`
	PerPage    int    `query:"per_page" doc:"Page size"`
}

// ListPostsOutput wraps a post page for Huma.
type ListPostsOutput struct {
	Body service.PostPage
}

// GetPostInput identifies a post by slug.
type GetPostInput struct {
	Slug string `path:"slug" doc:"Post slug"`
}

// PostResponse is the public shape of a full post.
type PostResponse struct {
	ID           int64     `json:"id" doc:"Post ID"`
	Name         string    `json:"name" doc:"Post title"`
	Slug         string    `json:"slug" doc:"URL slug"`
	Description  string    `json:"description" doc:"Post body in Markdown"`
	CategoryID   int64     `json:"category_id" doc:"Category ID"`
	CategoryName string    `json:"category_name" doc:"Category name"`
	UserName     string    `json:"user_name" doc:"Author name"`
	IsPublished  bool      `json:"is_published" doc:"Whether the post is published"`
	Image        string    `json:"image,omitempty" doc:"Stored image filename"`
	ImageURL     string    `json:"image_url,omitempty" doc:"Public image URL"`
	CreatedAt    time.Time `json:"created_at" doc:"Creation timestamp"`
	UpdatedAt    time.Time `json:"updated_at" doc:"Last update timestamp"`
}

// PostOutput wraps a post response for Huma.
type PostOutput struct {
	Body PostResponse
}

// CategoryResponse is the public shape of a category.
type CategoryResponse struct {
	ID        int64  `json:"id" doc:"Category ID"`
	Name      string `json:"name" doc:"Category name"`
	Slug      string `json:"slug" doc:"URL slug"`
	PostCount int64  `json:"post_count" doc:"Number of posts in the category"`
}

// ListCategoriesOutput wraps the category listing for Huma.
type ListCategoriesOutput struct {
	Body struct {
		Categories []CategoryResponse `json:"categories" doc:"All categories"`
	}
}

// === Handlers ===

func (s *Server) handleListPosts(ctx context.Context, input *ListPostsInput) (*ListPostsOutput, error) {
	page, err := s.services.Blog.GetPosts(ctx, service.GetPostsParams{
		CategoryID: input.CategoryID,
		Search:     input.Search,
		Page:       input.Page,
		PerPage:    input.PerPage,
	})
	if err != nil {
		return nil, err
	}

	return &ListPostsOutput{Body: *page}, nil
}

func (s *Server) handleGetPostBySlug(ctx context.Context, input *GetPostInput) (*PostOutput, error) {
	post, err := s.services.Blog.GetPostBySlug(ctx, input.Slug)
	if err != nil {
		return nil, err
	}

	return &PostOutput{Body: mapPost(post)}, nil
}

func (s *Server) handleListCategories(ctx context.Context, _ *struct{}) (*ListCategoriesOutput, error) {
	categories, err := s.services.Blog.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	out := &ListCategoriesOutput{}
	out.Body.Categories = make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		out.Body.Categories = append(out.Body.Categories, CategoryResponse{
			ID:        c.ID,
			Name:      c.Name,
			Slug:      c.Slug,
			PostCount: c.PostCount,
		})
	}
	return out, nil
}

func mapPost(post *domain.PostWithRelations) PostResponse {
	resp := PostResponse{
		ID:           post.ID,
		Name:         post.Name,
		Slug:         post.Slug,
		Description:  post.Description,
		CategoryID:   post.CategoryID,
		CategoryName: post.CategoryName,
		UserName:     post.UserName,
		IsPublished:  post.IsPublished,
		Image:        post.Image,
		CreatedAt:    post.CreatedAt,
		UpdatedAt:    post.UpdatedAt,
	}
	if post.Image != "" {
		resp.ImageURL = "/media/posts/" + post.Image
	}
	return resp
}
