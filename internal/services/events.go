package services

import (
	"context"
	"time"

	"storefront/pkg/logger"
)

// Routing keys published on the event bus.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventPaymentCompleted   = "payment.completed"
	EventContactSubmitted   = "contact.submitted"
)

// EventPublisher sends a JSON-encodable payload under a routing key.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

type OrderEvent struct {
	OrderID     string    `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	UserID      string    `json:"userId"`
	Status      string    `json:"status"`
	Previous    string    `json:"previousStatus,omitempty"`
	Total       string    `json:"total"`
	Payment     string    `json:"paymentStatus"`
	OccurredAt  time.Time `json:"occurredAt"`
}

type ContactEvent struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// publish is best effort: a failed publish is logged and never fails the
// request that triggered it.
func publish(ctx context.Context, pub EventPublisher, log *logger.Logger, key string, payload any) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, key, payload); err != nil {
		log.Error(log.WithField(ctx, "routing_key", key), "failed to publish event", err)
	}
}

func utcNow() time.Time { return time.Now().UTC() }
