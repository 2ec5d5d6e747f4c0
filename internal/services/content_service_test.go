package services_test

import (
	"context"
	"testing"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
	pkgerrors "storefront/pkg/errors"
	"storefront/pkg/pagination"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCategoryService_Create(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)
	svc := services.NewCategoryService(repositories.NewGORMCategoryRepository(f.db))

	parent, err := svc.Create(ctx, services.CategoryInput{Name: "Home & Kitchen"})
	require.NoError(t, err)
	assert.Equal(t, "home-and-kitchen", parent.Slug)
	assert.True(t, parent.IsActive)

	dup, err := svc.Create(ctx, services.CategoryInput{Name: "Home & Kitchen", ParentID: &parent.ID})
	require.NoError(t, err)
	assert.Equal(t, "home-and-kitchen-2", dup.Slug)

	missing := "nope"
	_, err = svc.Create(ctx, services.CategoryInput{Name: "Orphan", ParentID: &missing})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	roots, err := svc.List(ctx, repositories.CategoryFilter{ParentOnly: true})
	require.NoError(t, err)
	assert.Len(t, roots, 1)
}

func TestBlogService(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)
	svc := services.NewBlogService(repositories.NewGORMBlogRepository(f.db), nil)

	cat, err := svc.CreateCategory(ctx, services.BlogCategoryInput{Name: "Style Guides"})
	require.NoError(t, err)
	assert.Equal(t, "style-guides", cat.Slug)

	post, err := svc.CreatePost(ctx, "admin-1", services.BlogPostInput{
		Title:      "Ten Ways To Wear Linen",
		Content:    "linen is great",
		CategoryID: cat.ID,
		Tags:       []string{"Linen"},
		Status:     "published",
	})
	require.NoError(t, err)
	assert.Equal(t, "ten-ways-to-wear-linen", post.Slug)
	require.NotNil(t, post.PublishedAt)

	draft, err := svc.CreatePost(ctx, "admin-1", services.BlogPostInput{Title: "Ten Ways To Wear Linen", Content: "soon"})
	require.NoError(t, err)
	assert.Equal(t, "ten-ways-to-wear-linen-2", draft.Slug)
	assert.Equal(t, models.PostDraft, draft.Status)
	assert.Nil(t, draft.PublishedAt)

	_, err = svc.CreatePost(ctx, "admin-1", services.BlogPostInput{Title: "Lost", Content: "x", CategoryID: "missing"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	got, err := svc.GetPost(ctx, post.Slug)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Views)

	_, err = svc.GetPost(ctx, draft.Slug)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	posts, meta, err := svc.ListPosts(ctx, repositories.BlogFilter{}, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, posts, 1)
	assert.Equal(t, int64(1), meta.Total)

	categories, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, 1, categories[0].PostCount)
}

func TestTestimonialService(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)
	svc := services.NewTestimonialService(repositories.NewGORMTestimonialRepository(f.db))

	_, err := svc.Create(ctx, services.TestimonialInput{Name: "Ravi", Rating: 0, Content: "Lovely fabrics"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	inactive := false
	_, err = svc.Create(ctx, services.TestimonialInput{Name: "Ravi", Rating: 5, Content: "Lovely fabrics"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, services.TestimonialInput{Name: "Meera", Rating: 4, Content: "Fast delivery", IsActive: &inactive})
	require.NoError(t, err)

	visible, err := svc.List(ctx, false, 0)
	require.NoError(t, err)
	assert.Len(t, visible, 1)

	all, err := svc.List(ctx, true, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestContactService(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture(t)
	svc := services.NewContactService(repositories.NewGORMContactRepository(f.db), f.events, nil)

	msg, err := svc.Submit(ctx, services.ContactInput{
		Name:    "Asha",
		Email:   "Asha@Example.com",
		Subject: "Sizing",
		Message: "Do you stock XS sizes?",
	})
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", msg.Email)
	f.events.AssertCalled(t, "Publish", mock.Anything, services.EventContactSubmitted, mock.MatchedBy(func(e services.ContactEvent) bool {
		return e.ID == msg.ID && e.Subject == "Sizing"
	}))

	unread := false
	list, meta, err := svc.List(ctx, &unread, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, services.DefaultContactPageSize, meta.Limit)

	read, err := svc.MarkRead(ctx, msg.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	_, err = svc.MarkRead(ctx, "missing")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}
