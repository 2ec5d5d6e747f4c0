package services

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/models"
	"storefront/internal/repositories"
	pkgerrors "storefront/pkg/errors"
)

type CategoryInput struct {
	Name        string  `json:"name" validate:"required,min=2,max=100"`
	Slug        string  `json:"slug" validate:"max=120"`
	Description string  `json:"description"`
	Image       string  `json:"image" validate:"max=500"`
	ParentID    *string `json:"parentId"`
	IsActive    *bool   `json:"isActive"`
	SortOrder   int     `json:"sortOrder"`
}

type CategoryService struct {
	repo repositories.CategoryRepository
}

func NewCategoryService(repo repositories.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) List(ctx context.Context, filter repositories.CategoryFilter) ([]models.Category, error) {
	categories, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list categories")
	}
	return categories, nil
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Name is required")
	}
	category := &models.Category{
		Name:        name,
		Description: in.Description,
		Image:       in.Image,
		IsActive:    true,
		SortOrder:   in.SortOrder,
	}
	if in.IsActive != nil {
		category.IsActive = *in.IsActive
	}
	if in.ParentID != nil && *in.ParentID != "" {
		if _, err := s.repo.GetByID(ctx, *in.ParentID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "Parent category not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load parent category")
		}
		parent := *in.ParentID
		category.ParentID = &parent
	}

	if in.Slug != "" {
		category.Slug = strings.TrimSpace(in.Slug)
	} else {
		generated, err := uniqueSlug(ctx, name, s.repo.ExistsBySlug)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to generate slug")
		}
		category.Slug = generated
	}

	if err := s.repo.Create(ctx, category); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Category slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create category")
	}
	return category, nil
}
