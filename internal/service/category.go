package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	domainerrors "github.com/inkwellapp/inkwell-server/internal/errors"
	"github.com/inkwellapp/inkwell-server/internal/store"
	"github.com/inkwellapp/inkwell-server/internal/util"
	"github.com/inkwellapp/inkwell-server/internal/validation"
)

// CategoryService orchestrates category operations.
type CategoryService struct {
	store      store.Store
	dispatcher *Dispatcher
	logger     *slog.Logger
	validator  *validation.Validator
}

// NewCategoryService creates a new category service.
func NewCategoryService(st store.Store, dispatcher *Dispatcher, logger *slog.Logger) *CategoryService {
	return &CategoryService{
		store:      st,
		dispatcher: dispatcher,
		logger:     logger,
		validator:  validation.New(),
	}
}

// CreateCategoryRequest contains fields for creating a category.
type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

// CreateCategory creates a new category with a slug derived from its name.
func (s *CategoryService) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*domain.Category, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	category := &domain.Category{
		Name:      req.Name,
		Slug:      util.Slugify(req.Name),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateCategory(ctx, category); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("a category with this slug already exists")
		}
		return nil, domainerrors.CreationFailed("failed to create category", err)
	}

	s.logger.Info("category created", "category_id", category.ID, "slug", category.Slug)
	return category, nil
}

// UpdateCategoryRequest contains fields for updating a category.
type UpdateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

// UpdateCategory renames a category. The rename fans out to the index via
// the dispatcher because post documents denormalize the category name.
func (s *CategoryService) UpdateCategory(ctx context.Context, categoryID int64, req UpdateCategoryRequest) (*domain.Category, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	category, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("category %d not found", categoryID)
		}
		return nil, fmt.Errorf("load category: %w", err)
	}

	renamed := category.Name != req.Name
	category.Name = req.Name
	category.Slug = util.Slugify(req.Name)
	category.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateCategory(ctx, category); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("a category with this slug already exists")
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("category %d not found", categoryID)
		}
		return nil, fmt.Errorf("update category: %w", err)
	}

	s.logger.Info("category updated", "category_id", categoryID, "slug", category.Slug)
	if renamed {
		s.dispatcher.CategoryUpdated(ctx, categoryID)
	}

	return category, nil
}

// DeleteCategory removes an empty category. Categories that still have posts
// cannot be deleted.
func (s *CategoryService) DeleteCategory(ctx context.Context, categoryID int64) error {
	if err := s.store.DeleteCategory(ctx, categoryID); err != nil {
		if errors.Is(err, store.ErrInUse) {
			return domainerrors.Conflict("category still has posts")
		}
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFoundf("category %d not found", categoryID)
		}
		return fmt.Errorf("delete category: %w", err)
	}

	s.logger.Info("category deleted", "category_id", categoryID)
	return nil
}

// GetCategory returns a single category.
func (s *CategoryService) GetCategory(ctx context.Context, categoryID int64) (*domain.Category, error) {
	category, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("category %d not found", categoryID)
		}
		return nil, err
	}
	return category, nil
}

// ListCategories returns all categories with their post counts.
func (s *CategoryService) ListCategories(ctx context.Context) ([]*domain.CategoryWithCount, error) {
	return s.store.ListCategories(ctx)
}
