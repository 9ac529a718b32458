package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/inkwellapp/inkwell-server/internal/service"
	"github.com/inkwellapp/inkwell-server/internal/store"
)

func (s *Server) registerAdminRoutes() {
	// Posts
	huma.Register(s.api, huma.Operation{
		OperationID: "adminListPosts",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/posts",
		Summary:     "List posts (admin)",
		Description: "Returns a page of posts, drafts included",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminListPosts)

	huma.Register(s.api, huma.Operation{
		OperationID:   "adminCreatePost",
		Method:        http.MethodPost,
		Path:          "/api/v1/admin/posts",
		Summary:       "Create post",
		Tags:          []string{"Admin"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleAdminCreatePost)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminGetPost",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/posts/{id}",
		Summary:     "Get post (admin)",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminGetPost)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminUpdatePost",
		Method:      http.MethodPatch,
		Path:        "/api/v1/admin/posts/{id}",
		Summary:     "Update post",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminUpdatePost)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminDeletePost",
		Method:      http.MethodDelete,
		Path:        "/api/v1/admin/posts/{id}",
		Summary:     "Delete post",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminDeletePost)

	huma.Register(s.api, huma.Operation{
		OperationID:   "adminUploadImage",
		Method:        http.MethodPost,
		Path:          "/api/v1/admin/posts/image",
		Summary:       "Upload post image",
		Description:   "Accepts a raw image body (JPEG, PNG, GIF, WebP) and returns the stored filename",
		Tags:          []string{"Admin"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleAdminUploadImage)

	// Categories
	huma.Register(s.api, huma.Operation{
		OperationID:   "adminCreateCategory",
		Method:        http.MethodPost,
		Path:          "/api/v1/admin/categories",
		Summary:       "Create category",
		Tags:          []string{"Admin"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleAdminCreateCategory)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminUpdateCategory",
		Method:      http.MethodPatch,
		Path:        "/api/v1/admin/categories/{id}",
		Summary:     "Update category",
		Description: "Renames a category; posts in it are reindexed in the background",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminUpdateCategory)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminDeleteCategory",
		Method:      http.MethodDelete,
		Path:        "/api/v1/admin/categories/{id}",
		Summary:     "Delete category",
		Description: "Deletes an empty category; categories with posts cannot be deleted",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminDeleteCategory)

	// Search maintenance
	huma.Register(s.api, huma.Operation{
		OperationID: "adminReindexSearch",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/search/reindex",
		Summary:     "Rebuild search index",
		Description: "Rebuilds the search index from the database, in the background unless sync=true",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminReindexSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminRefreshSearch",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/search/refresh",
		Summary:     "Refresh search index",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminRefreshSearch)
}

// === DTOs ===

// AdminListPostsInput holds admin listing filters.
type AdminListPostsInput struct {
	CategoryID int64 `query:"category_id" doc:"Restrict to one category"`
	Page       int   `query:"page" doc:"Page number, starting at 1"`
	PerPage    int   `query:"per_page" doc:"Page size"`
}

// AdminListPostsOutput wraps the admin post listing for Huma.
type AdminListPostsOutput struct {
	Body struct {
		Posts []PostResponse `json:"posts" doc:"Posts, drafts included"`
		Total int64          `json:"total" doc:"Total matching posts"`
	}
}

// CreatePostInput wraps the create request for Huma.
type CreatePostInput struct {
	Body service.CreatePostRequest
}

// PostIDInput identifies a post by numeric ID.
type PostIDInput struct {
	ID int64 `path:"id" doc:"Post ID"`
}

// UpdatePostInput wraps the partial update request for Huma.
type UpdatePostInput struct {
	ID   int64 `path:"id" doc:"Post ID"`
	Body service.UpdatePostRequest
}

// UploadImageInput carries a raw image body.
type UploadImageInput struct {
	RawBody []byte
}

// UploadImageOutput wraps the upload result for Huma.
type UploadImageOutput struct {
	Body struct {
		Filename string `json:"filename" doc:"Stored filename, reference it from a post's image field"`
		URL      string `json:"url" doc:"Public URL"`
		BlurHash string `json:"blur_hash,omitempty" doc:"BlurHash placeholder"`
	}
}

// CreateCategoryInput wraps the create request for Huma.
type CreateCategoryInput struct {
	Body service.CreateCategoryRequest
}

// CategoryIDInput identifies a category by numeric ID.
type CategoryIDInput struct {
	ID int64 `path:"id" doc:"Category ID"`
}

// UpdateCategoryInput wraps the rename request for Huma.
type UpdateCategoryInput struct {
	ID   int64 `path:"id" doc:"Category ID"`
	Body service.UpdateCategoryRequest
}

// CategoryOutput wraps a category response for Huma.
type CategoryOutput struct {
	Body CategoryResponse
}

// ReindexSearchInput holds the reindex mode flag.
type ReindexSearchInput struct {
	Sync bool `query:"sync" doc:"Run the rebuild before responding instead of in the background"`
}

// === Handlers ===

func (s *Server) handleAdminListPosts(ctx context.Context, input *AdminListPostsInput) (*AdminListPostsOutput, error) {
	if _, err := s.RequireUser(ctx); err != nil {
		return nil, err
	}

	page := input.Page
	if page < 1 {
		page = 1
	}
	perPage := input.PerPage
	if perPage < 1 {
		perPage = 20
	}

	posts, total, err := s.services.Post.ListPosts(ctx, store.ListPostsParams{
		CategoryID: input.CategoryID,
		Limit:      perPage,
		Offset:     (page - 1) * perPage,
	})
	if err != nil {
		return nil, err
	}

	out := &AdminListPostsOutput{}
	out.Body.Total = total
	out.Body.Posts = make([]PostResponse, 0, len(posts))
	for _, p := range posts {
		out.Body.Posts = append(out.Body.Posts, mapPost(p))
	}
	return out, nil
}

func (s *Server) handleAdminCreatePost(ctx context.Context, input *CreatePostInput) (*PostOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	post, err := s.services.Post.CreatePost(ctx, user.ID, input.Body)
	if err != nil {
		return nil, err
	}

	return &PostOutput{Body: mapPost(post)}, nil
}

func (s *Server) handleAdminGetPost(ctx context.Context, input *PostIDInput) (*PostOutput, error) {
	if _, err := s.RequireUser(ctx); err != nil {
		return nil, err
	}

	post, err := s.services.Post.GetPost(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &PostOutput{Body: mapPost(post)}, nil
}

func (s *Server) handleAdminUpdatePost(ctx context.Context, input *UpdatePostInput) (*PostOutput, error) {
	if _, err := s.RequireUser(ctx); err != nil {
		return nil, err
	}

	post, err := s.services.Post.UpdatePost(ctx, input.ID, input.Body)
	if err != nil {
		return nil, err
	}

	return &PostOutput{Body: mapPost(post)}, nil
}

func (s *Server) handleAdminDeletePost(ctx context.Context, input *PostIDInput) (*MessageOutput, error) {
	if _, err := s.RequireUser(ctx); err != nil {
		return nil, err
	}

	if err := s.services.Post.DeletePost(ctx, input.ID); err != nil {
		return nil, err
	}

	out := &MessageOutput{}
	out.Body.Message = "post deleted"
	return out, nil
}

func (s *Server) handleAdminUploadImage(ctx context.Context, input *UploadImageInput) (*UploadImageOutput, error) {
	if _, err := s.RequireUser(ctx); err != nil {
		return nil, err
	}

	processed, err := s.storage.ImageProcessor.Process(input.RawBody)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity("invalid image", err)
	}

	out := &UploadImageOutput{}
	out.Body.Filename = processed.Filename
	out.Body.URL = "/media/posts/" + processed.Filename
	out.Body.BlurHash = processed.BlurHash
	return out, nil
}

func (s *Server) handleAdminCreateCategory(ctx context.Context, input *CreateCategoryInput) (*CategoryOutput, error) {
	if _, err := s.RequireUser(ctx); err != nil {
		return nil, err
	}

	category, err := s.services.Category.CreateCategory(ctx, input.Body)
	if err != nil {
		return nil, err
	}

	return &CategoryOutput{Body: CategoryResponse{
		ID:   category.ID,
		Name: category.Name,
		Slug: category.Slug,
	}}, nil
}

func (s *Server) handleAdminUpdateCategory(ctx context.Context, input *UpdateCategoryInput) (*CategoryOutput, error) {
	if _, err := s.RequireUser(ctx); err != nil {
		return nil, err
	}

	category, err := s.services.Category.UpdateCategory(ctx, input.ID, input.Body)
	if err != nil {
		return nil, err
	}

	return &CategoryOutput{Body: CategoryResponse{
		ID:   category.ID,
		Name: category.Name,
		Slug: category.Slug,
	}}, nil
}

func (s *Server) handleAdminDeleteCategory(ctx context.Context, input *CategoryIDInput) (*MessageOutput, error) {
	if _, err := s.RequireUser(ctx); err != nil {
		return nil, err
	}

	if err := s.services.Category.DeleteCategory(ctx, input.ID); err != nil {
		return nil, err
	}

	out := &MessageOutput{}
	out.Body.Message = "category deleted"
	return out, nil
}

func (s *Server) handleAdminReindexSearch(ctx context.Context, input *ReindexSearchInput) (*MessageOutput, error) {
	if _, err := s.RequireUser(ctx); err != nil {
		return nil, err
	}

	out := &MessageOutput{}
	if input.Sync {
		if err := s.services.Indexer.ReindexAll(ctx); err != nil {
			return nil, err
		}
		out.Body.Message = "search index rebuilt"
		return out, nil
	}

	s.services.Dispatcher.ReindexAll(ctx)
	out.Body.Message = "search index rebuild scheduled"
	return out, nil
}

func (s *Server) handleAdminRefreshSearch(ctx context.Context, _ *struct{}) (*MessageOutput, error) {
	if _, err := s.RequireUser(ctx); err != nil {
		return nil, err
	}

	if err := s.services.Indexer.RefreshIndex(ctx); err != nil {
		return nil, err
	}

	out := &MessageOutput{}
	out.Body.Message = "search index refreshed"
	return out, nil
}
