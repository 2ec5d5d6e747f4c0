package repositories

import (
	"context"
	"fmt"

	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CategoryFilter struct {
	ParentOnly      bool
	IncludeInactive bool
}

type CategoryRepository interface {
	List(ctx context.Context, filter CategoryFilter) ([]models.Category, error)
	GetByID(ctx context.Context, id string) (*models.Category, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, category *models.Category) error
}

type GORMCategoryRepository struct {
	db *gorm.DB
}

func NewGORMCategoryRepository(db *gorm.DB) *GORMCategoryRepository {
	return &GORMCategoryRepository{db: db}
}

func (r *GORMCategoryRepository) List(ctx context.Context, filter CategoryFilter) ([]models.Category, error) {
	q := r.db.WithContext(ctx).Model(&models.Category{})
	if !filter.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}
	if filter.ParentOnly {
		q = q.Where("parent_id IS NULL")
	}
	var categories []models.Category
	if err := q.Order("sort_order ASC").Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (r *GORMCategoryRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, translate(err, "get category %s", id)
	}
	return &category, nil
}

func (r *GORMCategoryRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Category{}).Where("slug = ?", slug).Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to check category slug: %w", err)
	}
	return n > 0, nil
}

func (r *GORMCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	if category.ID == "" {
		category.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return translate(err, "create category %s", category.Name)
	}
	return nil
}
