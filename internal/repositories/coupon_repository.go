package repositories

import (
	"context"
	"fmt"

	"storefront/internal/models"
	"storefront/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CouponRepository interface {
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	GetByID(ctx context.Context, id string) (*models.Coupon, error)
	List(ctx context.Context, page pagination.Params) ([]models.Coupon, int64, error)
	Create(ctx context.Context, coupon *models.Coupon) error
	Update(ctx context.Context, coupon *models.Coupon) error
	Delete(ctx context.Context, id string) error
}

type GORMCouponRepository struct {
	db *gorm.DB
}

func NewGORMCouponRepository(db *gorm.DB) *GORMCouponRepository {
	return &GORMCouponRepository{db: db}
}

func (r *GORMCouponRepository) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).First(&coupon, "code = ?", code).Error; err != nil {
		return nil, translate(err, "get coupon %s", code)
	}
	return &coupon, nil
}

func (r *GORMCouponRepository) GetByID(ctx context.Context, id string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).First(&coupon, "id = ?", id).Error; err != nil {
		return nil, translate(err, "get coupon %s", id)
	}
	return &coupon, nil
}

func (r *GORMCouponRepository) List(ctx context.Context, page pagination.Params) ([]models.Coupon, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Coupon{})
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count coupons: %w", err)
	}
	var coupons []models.Coupon
	if err := q.Session(&gorm.Session{}).Order("created_at DESC").Offset(page.Offset()).Limit(page.Limit).Find(&coupons).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list coupons: %w", err)
	}
	return coupons, total, nil
}

func (r *GORMCouponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	if coupon.ID == "" {
		coupon.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(coupon).Error; err != nil {
		return translate(err, "create coupon %s", coupon.Code)
	}
	return nil
}

// Update writes the editable columns. usage_count is owned by order placement.
func (r *GORMCouponRepository) Update(ctx context.Context, coupon *models.Coupon) error {
	res := r.db.WithContext(ctx).Model(coupon).
		Select("*").
		Omit("id", "created_at", "usage_count").
		Updates(coupon)
	if res.Error != nil {
		return translate(res.Error, "update coupon %s", coupon.ID)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update coupon %s: %w", coupon.ID, ErrNotFound)
	}
	return nil
}

func (r *GORMCouponRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Coupon{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete coupon: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete coupon %s: %w", id, ErrNotFound)
	}
	return nil
}
