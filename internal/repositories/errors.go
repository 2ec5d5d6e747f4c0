package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrCouponExhausted is returned when a coupon hit its usage limit between
	// evaluation and order placement.
	ErrCouponExhausted = errors.New("coupon usage limit reached")
	// ErrStaleOrder is returned when an order changed status concurrently.
	ErrStaleOrder = errors.New("order was modified concurrently")
)

// InsufficientStockError reports the line whose conditional stock decrement
// matched no row.
type InsufficientStockError struct {
	ProductID string
	Name      string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (%s)", e.ProductID, e.Name)
}

// translate maps GORM sentinel errors onto the repository's own.
func translate(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", msg, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", msg, ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}
