package services

import (
	"storefront/internal/models"
	pkgerrors "storefront/pkg/errors"
)

// orderTransitions lists the statuses reachable from each status.
// Cancelled and refunded are terminal.
var orderTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderPending:    {models.OrderProcessing, models.OrderConfirmed, models.OrderCancelled},
	models.OrderProcessing: {models.OrderConfirmed, models.OrderShipped, models.OrderCancelled, models.OrderRefunded},
	models.OrderConfirmed:  {models.OrderProcessing, models.OrderShipped, models.OrderCancelled, models.OrderRefunded},
	models.OrderShipped:    {models.OrderDelivered, models.OrderRefunded},
	models.OrderDelivered:  {models.OrderRefunded},
}

// CanTransition reports whether an order may move from one status to another.
// Staying in the same status is always allowed.
func CanTransition(from, to models.OrderStatus) bool {
	if from == to {
		return true
	}
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func checkTransition(from, to models.OrderStatus) error {
	if !to.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "Invalid order status: %s", to)
	}
	if !CanTransition(from, to) {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "cannot transition order from %s to %s", from, to)
	}
	return nil
}
