package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	domainerrors "github.com/inkwellapp/inkwell-server/internal/errors"
	"github.com/inkwellapp/inkwell-server/internal/media/images"
	"github.com/inkwellapp/inkwell-server/internal/store"
	"github.com/inkwellapp/inkwell-server/internal/util"
	"github.com/inkwellapp/inkwell-server/internal/validation"
)

// PostService orchestrates post writes and notifies the dispatcher so the
// search index follows the database.
type PostService struct {
	store        store.Store
	dispatcher   *Dispatcher
	imageStorage *images.Storage
	logger       *slog.Logger
	validator    *validation.Validator
}

// NewPostService creates a new post service.
func NewPostService(st store.Store, dispatcher *Dispatcher, imageStorage *images.Storage, logger *slog.Logger) *PostService {
	return &PostService{
		store:        st,
		dispatcher:   dispatcher,
		imageStorage: imageStorage,
		logger:       logger,
		validator:    validation.New(),
	}
}

// CreatePostRequest contains fields for creating a post.
type CreatePostRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=255"`
	Description string `json:"description" validate:"required"`
	CategoryID  int64  `json:"category_id" validate:"required,gt=0"`
	IsPublished bool   `json:"is_published" required:"false"`
	// Image is a stored filename returned by the image upload endpoint.
	Image string `json:"image" required:"false"`
}

// CreatePost creates a post for the given author. The slug is derived from
// the name, and HTML descriptions are converted to Markdown before storage.
func (s *PostService) CreatePost(ctx context.Context, userID int64, req CreatePostRequest) (*domain.PostWithRelations, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.store.GetCategory(ctx, req.CategoryID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.Validationf("category %d does not exist", req.CategoryID)
		}
		return nil, fmt.Errorf("check category: %w", err)
	}

	if req.Image != "" && !s.imageStorage.Exists(req.Image) {
		return nil, domainerrors.Validationf("image %q has not been uploaded", req.Image)
	}

	now := time.Now().UTC()
	post := &domain.Post{
		Name:        req.Name,
		Slug:        util.Slugify(req.Name),
		Description: normalizeDescription(req.Description),
		CategoryID:  req.CategoryID,
		UserID:      userID,
		IsPublished: req.IsPublished,
		Image:       req.Image,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreatePost(ctx, post); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("a post with this slug already exists")
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.Validation("referenced category or author does not exist")
		}
		return nil, domainerrors.CreationFailed("failed to create post", err)
	}

	s.logger.Info("post created", "post_id", post.ID, "slug", post.Slug, "published", post.IsPublished)
	s.dispatcher.PostCreated(ctx, post.ID)

	return s.store.GetPost(ctx, post.ID)
}

// UpdatePostRequest contains fields for updating a post. Nil fields are left
// unchanged.
type UpdatePostRequest struct {
	Name        *string `json:"name" required:"false"`
	Description *string `json:"description" required:"false"`
	CategoryID  *int64  `json:"category_id" required:"false"`
	IsPublished *bool   `json:"is_published" required:"false"`
	Image       *string `json:"image" required:"false"`
}

// UpdatePost applies a partial update. The slug is regenerated only when the
// name changes, which keeps published URLs stable across content edits.
func (s *PostService) UpdatePost(ctx context.Context, postID int64, req UpdatePostRequest) (*domain.PostWithRelations, error) {
	existing, err := s.store.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("post %d not found", postID)
		}
		return nil, fmt.Errorf("load post: %w", err)
	}

	post := existing.Post
	oldImage := post.Image

	if req.Name != nil && *req.Name != post.Name {
		if *req.Name == "" {
			return nil, domainerrors.Validation("name cannot be empty")
		}
		post.Name = *req.Name
		post.Slug = util.Slugify(*req.Name)
	}
	if req.Description != nil {
		if *req.Description == "" {
			return nil, domainerrors.Validation("description cannot be empty")
		}
		post.Description = normalizeDescription(*req.Description)
	}
	if req.CategoryID != nil && *req.CategoryID != post.CategoryID {
		if _, err := s.store.GetCategory(ctx, *req.CategoryID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, domainerrors.Validationf("category %d does not exist", *req.CategoryID)
			}
			return nil, fmt.Errorf("check category: %w", err)
		}
		post.CategoryID = *req.CategoryID
	}
	if req.IsPublished != nil {
		post.IsPublished = *req.IsPublished
	}
	if req.Image != nil {
		if *req.Image != "" && !s.imageStorage.Exists(*req.Image) {
			return nil, domainerrors.Validationf("image %q has not been uploaded", *req.Image)
		}
		post.Image = *req.Image
	}

	post.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdatePost(ctx, &post); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("a post with this slug already exists")
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("post %d not found", postID)
		}
		return nil, fmt.Errorf("update post: %w", err)
	}

	// The replaced image file is orphaned once the row no longer points at it.
	if req.Image != nil && oldImage != "" && oldImage != post.Image {
		if err := s.imageStorage.Delete(oldImage); err != nil {
			s.logger.Warn("failed to delete replaced image", "filename", oldImage, "error", err)
		}
	}

	s.logger.Info("post updated", "post_id", postID, "slug", post.Slug)
	s.dispatcher.PostUpdated(ctx, postID)

	return s.store.GetPost(ctx, postID)
}

// DeletePost removes a post, its stored image, and schedules index cleanup.
func (s *PostService) DeletePost(ctx context.Context, postID int64) error {
	existing, err := s.store.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFoundf("post %d not found", postID)
		}
		return fmt.Errorf("load post: %w", err)
	}

	if err := s.store.DeletePost(ctx, postID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFoundf("post %d not found", postID)
		}
		return fmt.Errorf("delete post: %w", err)
	}

	if existing.Image != "" {
		if err := s.imageStorage.Delete(existing.Image); err != nil {
			s.logger.Warn("failed to delete post image", "filename", existing.Image, "error", err)
		}
	}

	s.logger.Info("post deleted", "post_id", postID, "slug", existing.Slug)
	s.dispatcher.PostDeleted(ctx, postID)

	return nil
}

// GetPost returns a post by ID, drafts included. Admin use.
func (s *PostService) GetPost(ctx context.Context, postID int64) (*domain.PostWithRelations, error) {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("post %d not found", postID)
		}
		return nil, err
	}
	return post, nil
}

// ListPosts returns a page of posts plus the total count, drafts included.
// Admin use.
func (s *PostService) ListPosts(ctx context.Context, params store.ListPostsParams) ([]*domain.PostWithRelations, int64, error) {
	return s.store.ListPosts(ctx, params)
}
