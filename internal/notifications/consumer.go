package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"storefront/internal/services"
	"storefront/pkg/logger"

	amqp "github.com/streadway/amqp"
)

// BindingKeys are the routing keys the notification queue subscribes to.
var BindingKeys = []string{"order.*", "payment.*", services.EventContactSubmitted}

// Consumer reacts to storefront events. Contact submissions are mailed to
// the shop admin; order and payment events are logged.
type Consumer struct {
	mailer  Mailer
	adminTo string
	log     *logger.Logger
}

func NewConsumer(mailer Mailer, adminTo string, log *logger.Logger) *Consumer {
	return &Consumer{mailer: mailer, adminTo: adminTo, log: log}
}

// Handle matches rabbitmq.Handler.
func (c *Consumer) Handle(ctx context.Context, msg amqp.Delivery) error {
	switch {
	case msg.RoutingKey == services.EventContactSubmitted:
		return c.contactSubmitted(ctx, msg.Body)
	case strings.HasPrefix(msg.RoutingKey, "order."), strings.HasPrefix(msg.RoutingKey, "payment."):
		return c.orderEvent(ctx, msg.RoutingKey, msg.Body)
	default:
		c.log.Warn(ctx, "ignoring unknown event")
		return nil
	}
}

func (c *Consumer) contactSubmitted(ctx context.Context, body []byte) error {
	var ev services.ContactEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		// Malformed payloads never become valid; drop them.
		c.log.Error(ctx, "malformed contact event", err)
		return nil
	}
	return c.mailer.Send(ctx, Mail{
		To:      c.adminTo,
		ReplyTo: ev.Email,
		Subject: fmt.Sprintf("[Contact] %s", ev.Subject),
		Body:    fmt.Sprintf("From: %s <%s>\n\n%s\n", ev.Name, ev.Email, ev.Message),
	})
}

func (c *Consumer) orderEvent(ctx context.Context, key string, body []byte) error {
	var ev services.OrderEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		c.log.Error(ctx, "malformed order event", err)
		return nil
	}
	c.log.Info(c.log.WithFields(ctx, map[string]any{
		"event":          key,
		"order_number":   ev.OrderNumber,
		"status":         ev.Status,
		"payment_status": ev.Payment,
		"total":          ev.Total,
	}), "order event")
	return nil
}
