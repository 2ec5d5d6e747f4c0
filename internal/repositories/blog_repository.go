package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"storefront/internal/models"
	"storefront/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BlogFilter struct {
	// Status is matched exactly; empty means any status.
	Status       models.PostStatus
	CategorySlug string
	Search       string
	Tag          string
}

type BlogRepository interface {
	ListPosts(ctx context.Context, filter BlogFilter, page pagination.Params) ([]models.BlogPost, int64, error)
	GetPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error)
	IncrementViews(ctx context.Context, id string) error
	PostSlugExists(ctx context.Context, slug string) (bool, error)
	// CreatePost inserts the post and bumps its category's post count.
	CreatePost(ctx context.Context, post *models.BlogPost) error
	ListCategories(ctx context.Context) ([]models.BlogCategory, error)
	GetCategoryByID(ctx context.Context, id string) (*models.BlogCategory, error)
	CreateCategory(ctx context.Context, category *models.BlogCategory) error
}

type GORMBlogRepository struct {
	db *gorm.DB
}

func NewGORMBlogRepository(db *gorm.DB) *GORMBlogRepository {
	return &GORMBlogRepository{db: db}
}

func (r *GORMBlogRepository) ListPosts(ctx context.Context, f BlogFilter, page pagination.Params) ([]models.BlogPost, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.BlogPost{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.CategorySlug != "" {
		q = q.Where("category_id IN (?)",
			r.db.Model(&models.BlogCategory{}).Select("id").Where("slug = ?", f.CategorySlug))
	}
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		like := "%" + term + "%"
		q = q.Where("(LOWER(title) LIKE ? OR LOWER(excerpt) LIKE ? OR LOWER(content) LIKE ?)", like, like, like)
	}
	if f.Tag != "" {
		quoted, _ := json.Marshal(f.Tag)
		q = q.Where("tags LIKE ?", "%"+string(quoted)+"%")
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}
	var posts []models.BlogPost
	err := q.Session(&gorm.Session{}).
		Order("published_at DESC").
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&posts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, total, nil
}

func (r *GORMBlogRepository) GetPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	var post models.BlogPost
	if err := r.db.WithContext(ctx).First(&post, "slug = ?", slug).Error; err != nil {
		return nil, translate(err, "get post %s", slug)
	}
	return &post, nil
}

func (r *GORMBlogRepository) IncrementViews(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Model(&models.BlogPost{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
	if err != nil {
		return fmt.Errorf("failed to increment views for %s: %w", id, err)
	}
	return nil
}

func (r *GORMBlogRepository) PostSlugExists(ctx context.Context, slug string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.BlogPost{}).Where("slug = ?", slug).Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to check post slug: %w", err)
	}
	return n > 0, nil
}

func (r *GORMBlogRepository) CreatePost(ctx context.Context, post *models.BlogPost) error {
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return translate(err, "create post %s", post.Slug)
		}
		if post.CategoryID == "" {
			return nil
		}
		res := tx.Model(&models.BlogCategory{}).
			Where("id = ?", post.CategoryID).
			UpdateColumn("post_count", gorm.Expr("post_count + 1"))
		if res.Error != nil {
			return fmt.Errorf("failed to bump post count: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("blog category %s: %w", post.CategoryID, ErrNotFound)
		}
		return nil
	})
}

func (r *GORMBlogRepository) ListCategories(ctx context.Context) ([]models.BlogCategory, error) {
	var categories []models.BlogCategory
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list blog categories: %w", err)
	}
	return categories, nil
}

func (r *GORMBlogRepository) GetCategoryByID(ctx context.Context, id string) (*models.BlogCategory, error) {
	var category models.BlogCategory
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, translate(err, "get blog category %s", id)
	}
	return &category, nil
}

func (r *GORMBlogRepository) CreateCategory(ctx context.Context, category *models.BlogCategory) error {
	if category.ID == "" {
		category.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return translate(err, "create blog category %s", category.Name)
	}
	return nil
}
