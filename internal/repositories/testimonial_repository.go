package repositories

import (
	"context"
	"fmt"

	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TestimonialRepository interface {
	List(ctx context.Context, includeInactive bool, limit int) ([]models.Testimonial, error)
	Create(ctx context.Context, t *models.Testimonial) error
}

type GORMTestimonialRepository struct {
	db *gorm.DB
}

func NewGORMTestimonialRepository(db *gorm.DB) *GORMTestimonialRepository {
	return &GORMTestimonialRepository{db: db}
}

func (r *GORMTestimonialRepository) List(ctx context.Context, includeInactive bool, limit int) ([]models.Testimonial, error) {
	q := r.db.WithContext(ctx).Model(&models.Testimonial{})
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	var items []models.Testimonial
	if err := q.Order("sort_order ASC").Order("created_at DESC").Limit(limit).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list testimonials: %w", err)
	}
	return items, nil
}

func (r *GORMTestimonialRepository) Create(ctx context.Context, t *models.Testimonial) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return translate(err, "create testimonial")
	}
	return nil
}
