package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/adampos/medialender/internal/apperror"
	"github.com/adampos/medialender/internal/model"
	"github.com/adampos/medialender/internal/repository"
)

const MaxCategoryNameLength = 100

// CategoryService handles the per-account category catalog.
type CategoryService struct {
	categories repository.CategoryRepository
	logger     *slog.Logger
}

func NewCategoryService(categories repository.CategoryRepository, logger *slog.Logger) *CategoryService {
	return &CategoryService{categories: categories, logger: logger}
}

func (s *CategoryService) Create(ctx context.Context, userID, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("categoryName", "category name is required")
	}
	if len(name) > MaxCategoryNameLength {
		return nil, apperror.ValidationFailed("categoryName",
			fmt.Sprintf("category name must be %d characters or less", MaxCategoryNameLength))
	}

	category := &model.Category{UserID: userID, Name: name}
	if err := s.categories.CreateCategory(ctx, category); err != nil {
		s.logger.Error("failed to create category",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating category: %w", err)
	}

	s.logger.Info("category created",
		slog.String("id", category.ID),
		slog.String("userID", userID),
	)
	return category, nil
}

// GetByID returns the category if it belongs to the calling account.
func (s *CategoryService) GetByID(ctx context.Context, userID, id string) (*model.Category, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "category ID is required")
	}

	category, err := s.categories.GetCategoryByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if category.UserID != userID {
		return nil, apperror.Forbidden("category belongs to another account")
	}
	return category, nil
}

func (s *CategoryService) List(ctx context.Context, userID string) ([]model.Category, error) {
	return s.categories.ListCategoriesByUser(ctx, userID)
}

func (s *CategoryService) Update(ctx context.Context, userID, id, name string) (*model.Category, error) {
	category, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("categoryName", "category name is required")
	}
	if len(name) > MaxCategoryNameLength {
		return nil, apperror.ValidationFailed("categoryName",
			fmt.Sprintf("category name must be %d characters or less", MaxCategoryNameLength))
	}

	category.Name = name
	if err := s.categories.UpdateCategory(ctx, category); err != nil {
		s.logger.Error("failed to update category",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating category: %w", err)
	}
	return category, nil
}

// Delete removes the category. Links to media are cascaded away; the media
// themselves are untouched.
func (s *CategoryService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.GetByID(ctx, userID, id); err != nil {
		return err
	}

	if err := s.categories.DeleteCategory(ctx, id); err != nil {
		s.logger.Error("failed to delete category",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting category: %w", err)
	}

	s.logger.Info("category deleted", slog.String("id", id), slog.String("userID", userID))
	return nil
}
