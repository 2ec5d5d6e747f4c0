package repositories

import (
	"context"
	"fmt"

	"storefront/internal/models"
	"storefront/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

func (r *GORMOrderRepository) Place(ctx context.Context, order *models.Order, reservations []Reservation, couponID string) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, res := range reservations {
			if err := reserve(tx, res); err != nil {
				return err
			}
		}

		if couponID != "" {
			result := tx.Model(&models.Coupon{}).
				Where("id = ? AND is_active = ? AND (usage_limit IS NULL OR usage_count < usage_limit)", couponID, true).
				Update("usage_count", gorm.Expr("usage_count + 1"))
			if result.Error != nil {
				return fmt.Errorf("failed to consume coupon: %w", result.Error)
			}
			if result.RowsAffected == 0 {
				return ErrCouponExhausted
			}
		}

		if err := tx.Create(order).Error; err != nil {
			return translate(err, "create order")
		}
		return nil
	})
}

// reserve decrements stock only if enough is left. Backorder lines may take
// the quantity below what is on hand and floor at zero.
func reserve(tx *gorm.DB, res Reservation) error {
	q := tx.Model(&models.Product{}).Where("id = ?", res.ProductID)
	if res.Backorder {
		q = q.Where("(inventory_allow_backorders = ? OR inventory_quantity >= ?)", true, res.Quantity)
	} else {
		q = q.Where("inventory_quantity >= ?", res.Quantity)
	}
	result := q.Update("inventory_quantity", gorm.Expr(
		"CASE WHEN inventory_quantity >= ? THEN inventory_quantity - ? ELSE 0 END",
		res.Quantity, res.Quantity,
	))
	if result.Error != nil {
		return fmt.Errorf("failed to reserve stock for %s: %w", res.ProductID, result.Error)
	}
	if result.RowsAffected == 0 {
		return &InsufficientStockError{ProductID: res.ProductID, Name: res.Name}
	}
	return nil
}

func (r *GORMOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, translate(err, "get order %s", id)
	}
	return &order, nil
}

func (r *GORMOrderRepository) GetForUser(ctx context.Context, id, userID string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, translate(err, "get order %s", id)
	}
	return &order, nil
}

func (r *GORMOrderRepository) List(ctx context.Context, filter OrderFilter, page pagination.Params) ([]models.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []models.Order
	err := q.Session(&gorm.Session{}).
		Order("created_at DESC").
		Order("id").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

func (r *GORMOrderRepository) Transition(ctx context.Context, id string, from models.OrderStatus, changes map[string]any) error {
	result := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(changes)
	if result.Error != nil {
		return translate(result.Error, "failed to update order %s", id)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("update order %s: %w", id, ErrStaleOrder)
	}
	return nil
}
