package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"storefront/pkg/logger"

	amqp "github.com/streadway/amqp"
	"go.uber.org/multierr"
)

// Client holds the RabbitMQ connection and a publishing channel bound to one
// topic exchange. Consumers get channels of their own.
type Client struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	prefetch int
	log      *logger.Logger

	// amqp channels are not safe for concurrent publishing.
	mu sync.Mutex
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL      string
	Exchange string
	Prefetch int
}

const defaultPrefetch = 10

// Handler processes one delivery. Returning an error nacks the message.
type Handler func(ctx context.Context, msg amqp.Delivery) error

// NewClient connects to RabbitMQ and declares the durable topic exchange.
func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // kind
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return nil, multierr.Combine(
			fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err),
			ch.Close(),
			conn.Close(),
		)
	}

	log.Info(log.WithField(context.Background(), "exchange", cfg.Exchange), "rabbitmq client connected")

	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}
	return &Client{
		conn:     conn,
		channel:  ch,
		exchange: cfg.Exchange,
		prefetch: prefetch,
		log:      log,
	}, nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var err error
	if c.channel != nil {
		err = multierr.Append(err, c.channel.Close())
	}
	if c.conn != nil {
		err = multierr.Append(err, c.conn.Close())
	}
	return err
}

// Publish marshals payload to JSON and publishes it persistently under
// routingKey.
func (c *Client) Publish(ctx context.Context, routingKey string, payload any) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", routingKey, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	err = c.channel.Publish(
		c.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}

	c.log.Debug(c.log.WithField(ctx, "routing_key", routingKey), "event published")
	return nil
}

// Consume opens a dedicated channel, declares a durable queue, binds it to
// the exchange for each binding key and dispatches deliveries to handler
// until ctx is cancelled or the channel closes.
func (c *Client) Consume(ctx context.Context, queue string, bindingKeys []string, handler Handler) error {
	if c.conn == nil {
		return fmt.Errorf("RabbitMQ connection is not available for consumption")
	}

	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open consumer channel: %w", err)
	}
	defer ch.Close()

	msgs, err := subscribe(ch, c.exchange, queue, bindingKeys, c.prefetch)
	if err != nil {
		return err
	}

	c.log.Info(c.log.WithFields(ctx, map[string]any{"queue": queue, "prefetch": c.prefetch}), "waiting for events")
	Dispatch(ctx, msgs, handler, c.log)
	return nil
}

// consumerChannel is the part of *amqp.Channel a subscription needs.
type consumerChannel interface {
	Qos(prefetchCount, prefetchSize int, global bool) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// subscribe limits in-flight deliveries to prefetch, then declares, binds and
// starts consuming queue with manual acks.
func subscribe(ch consumerChannel, exchange, queue string, bindingKeys []string, prefetch int) (<-chan amqp.Delivery, error) {
	if err := ch.Qos(prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set prefetch: %w", err)
	}

	q, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	for _, key := range bindingKeys {
		if err := ch.QueueBind(q.Name, key, exchange, false, nil); err != nil {
			return nil, fmt.Errorf("failed to bind %s to %s: %w", q.Name, key, err)
		}
	}

	msgs, err := ch.Consume(
		q.Name, // queue
		"",     // consumer tag
		false,  // auto-ack
		false,  // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register consumer: %w", err)
	}
	return msgs, nil
}

// Dispatch runs handler for every delivery, acking on success. A failed
// message is nacked and requeued once; a redelivered failure is dropped.
func Dispatch(ctx context.Context, msgs <-chan amqp.Delivery, handler Handler, log *logger.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			msgCtx := log.WithFields(ctx, map[string]any{
				"routing_key":  msg.RoutingKey,
				"delivery_tag": msg.DeliveryTag,
			})
			if err := handler(msgCtx, msg); err != nil {
				log.Error(msgCtx, "failed to process event", err)
				if nackErr := msg.Nack(false, !msg.Redelivered); nackErr != nil {
					log.Error(msgCtx, "failed to nack event", nackErr)
				}
				continue
			}
			if ackErr := msg.Ack(false); ackErr != nil {
				log.Error(msgCtx, "failed to ack event", ackErr)
			}
		}
	}
}
