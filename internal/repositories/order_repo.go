package repositories

import (
	"context"

	"storefront/internal/models"
	"storefront/pkg/pagination"
)

// Reservation is a stock decrement applied when an order is placed.
type Reservation struct {
	ProductID string
	Name      string
	Quantity  int
	// Backorder lets the decrement floor at zero instead of failing.
	Backorder bool
}

// OrderFilter narrows order listings. Empty fields are ignored.
type OrderFilter struct {
	UserID string
	Status models.OrderStatus
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// Place reserves stock, consumes the coupon (if couponID is set) and
	// inserts the order in one transaction. Nothing is written if any step fails.
	Place(ctx context.Context, order *models.Order, reservations []Reservation, couponID string) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	// GetForUser returns the order only if it belongs to userID.
	GetForUser(ctx context.Context, id, userID string) (*models.Order, error)
	List(ctx context.Context, filter OrderFilter, page pagination.Params) ([]models.Order, int64, error)
	// Transition applies changes only while the order is still in status from.
	Transition(ctx context.Context, id string, from models.OrderStatus, changes map[string]any) error
}
