package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"
	pkgerrors "storefront/pkg/errors"
	"storefront/pkg/logger"
	"storefront/pkg/pagination"
)

type BlogPostInput struct {
	Title         string   `json:"title" validate:"required,min=3,max=200"`
	Slug          string   `json:"slug" validate:"max=220"`
	Excerpt       string   `json:"excerpt" validate:"max=500"`
	Content       string   `json:"content" validate:"required"`
	FeaturedImage string   `json:"featuredImage" validate:"max=500"`
	CategoryID    string   `json:"categoryId"`
	Tags          []string `json:"tags"`
	Status        string   `json:"status" validate:"omitempty,oneof=draft published archived"`
}

type BlogCategoryInput struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Description string `json:"description"`
}

type BlogService struct {
	repo repositories.BlogRepository
	log  *logger.Logger
	now  func() time.Time
}

func NewBlogService(repo repositories.BlogRepository, log *logger.Logger) *BlogService {
	if log == nil {
		log = logger.Nop()
	}
	return &BlogService{repo: repo, log: log, now: utcNow}
}

// ListPosts defaults to published posts.
func (s *BlogService) ListPosts(ctx context.Context, filter repositories.BlogFilter, page pagination.Params) ([]models.BlogPost, pagination.Meta, error) {
	if filter.Status == "" {
		filter.Status = models.PostPublished
	}
	if !filter.Status.IsValid() {
		return nil, pagination.Meta{}, pkgerrors.Newf(pkgerrors.CodeValidation, "Invalid post status: %s", filter.Status)
	}
	page = page.Normalize(pagination.DefaultLimit)
	posts, total, err := s.repo.ListPosts(ctx, filter, page)
	if err != nil {
		return nil, pagination.Meta{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list posts")
	}
	return posts, pagination.NewMeta(page, total), nil
}

// GetPost returns a published post and counts the view.
func (s *BlogService) GetPost(ctx context.Context, slug string) (*models.BlogPost, error) {
	post, err := s.repo.GetPostBySlug(ctx, slug)
	if err != nil {
		return nil, notFoundOr(err, "Post not found", "failed to load post")
	}
	if post.Status != models.PostPublished {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Post not found")
	}
	if err := s.repo.IncrementViews(ctx, post.ID); err != nil {
		s.log.Error(s.log.WithField(ctx, "post_id", post.ID), "failed to count view", err)
	} else {
		post.Views++
	}
	return post, nil
}

func (s *BlogService) CreatePost(ctx context.Context, authorID string, in BlogPostInput) (*models.BlogPost, error) {
	status := models.PostDraft
	if in.Status != "" {
		parsed, err := models.ParsePostStatus(in.Status)
		if err != nil {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "Invalid post status: %s", in.Status)
		}
		status = parsed
	}
	post := &models.BlogPost{
		Title:         strings.TrimSpace(in.Title),
		Excerpt:       in.Excerpt,
		Content:       in.Content,
		FeaturedImage: in.FeaturedImage,
		AuthorID:      authorID,
		CategoryID:    in.CategoryID,
		Tags:          normalizeTags(in.Tags),
		Status:        status,
	}
	if status == models.PostPublished {
		now := s.now()
		post.PublishedAt = &now
	}

	if in.Slug != "" {
		post.Slug = strings.TrimSpace(in.Slug)
	} else {
		generated, err := uniqueSlug(ctx, post.Title, s.repo.PostSlugExists)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to generate slug")
		}
		post.Slug = generated
	}

	if err := s.repo.CreatePost(ctx, post); err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicate):
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Post slug already exists")
		case errors.Is(err, repositories.ErrNotFound):
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Blog category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create post")
	}
	return post, nil
}

func (s *BlogService) ListCategories(ctx context.Context) ([]models.BlogCategory, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list blog categories")
	}
	return categories, nil
}

func (s *BlogService) CreateCategory(ctx context.Context, in BlogCategoryInput) (*models.BlogCategory, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Name is required")
	}
	category := &models.BlogCategory{
		Name:        name,
		Slug:        slugOf(name),
		Description: in.Description,
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Blog category already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create blog category")
	}
	return category, nil
}
