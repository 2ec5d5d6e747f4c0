package services

import (
	"context"
	"strings"

	"storefront/internal/models"
	"storefront/internal/repositories"
	pkgerrors "storefront/pkg/errors"
)

const (
	DefaultTestimonialLimit = 10
	maxTestimonialLimit     = 50
)

type TestimonialInput struct {
	Name      string `json:"name" validate:"required,min=2,max=100"`
	Email     string `json:"email" validate:"omitempty,email"`
	Avatar    string `json:"avatar" validate:"max=500"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Title     string `json:"title" validate:"max=200"`
	Content   string `json:"content" validate:"required,min=10"`
	IsActive  *bool  `json:"isActive"`
	SortOrder int    `json:"sortOrder"`
}

type TestimonialService struct {
	repo repositories.TestimonialRepository
}

func NewTestimonialService(repo repositories.TestimonialRepository) *TestimonialService {
	return &TestimonialService{repo: repo}
}

func (s *TestimonialService) List(ctx context.Context, includeInactive bool, limit int) ([]models.Testimonial, error) {
	if limit <= 0 {
		limit = DefaultTestimonialLimit
	}
	if limit > maxTestimonialLimit {
		limit = maxTestimonialLimit
	}
	items, err := s.repo.List(ctx, includeInactive, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list testimonials")
	}
	return items, nil
}

func (s *TestimonialService) Create(ctx context.Context, in TestimonialInput) (*models.Testimonial, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Rating must be between 1 and 5")
	}
	t := &models.Testimonial{
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Avatar:    in.Avatar,
		Rating:    in.Rating,
		Title:     in.Title,
		Content:   strings.TrimSpace(in.Content),
		IsActive:  true,
		SortOrder: in.SortOrder,
	}
	if in.IsActive != nil {
		t.IsActive = *in.IsActive
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create testimonial")
	}
	return t, nil
}
