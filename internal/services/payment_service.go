package services

import (
	"context"
	"strings"
	"time"

	"storefront/internal/models"
	"storefront/internal/payments"
	"storefront/internal/repositories"
	pkgerrors "storefront/pkg/errors"
	"storefront/pkg/logger"
	"storefront/pkg/metrics"

	"github.com/shopspring/decimal"
)

// PaymentService starts and verifies provider payments for a user's orders.
type PaymentService struct {
	orders    repositories.OrderRepository
	providers *payments.Registry
	events    EventPublisher
	metrics   *metrics.ServerMetrics
	log       *logger.Logger
	now       func() time.Time
}

func NewPaymentService(
	orders repositories.OrderRepository,
	providers *payments.Registry,
	events EventPublisher,
	m *metrics.ServerMetrics,
	log *logger.Logger,
) *PaymentService {
	if log == nil {
		log = logger.Nop()
	}
	return &PaymentService{
		orders:    orders,
		providers: providers,
		events:    events,
		metrics:   m,
		log:       log,
		now:       utcNow,
	}
}

func (s *PaymentService) WithClock(now func() time.Time) *PaymentService {
	s.now = now
	return s
}

// Initiate asks the provider to start collecting amount for the order.
func (s *PaymentService) Initiate(ctx context.Context, method models.PaymentMethod, userID, orderID string, amount decimal.Decimal) (*payments.Initiation, error) {
	if strings.TrimSpace(orderID) == "" || !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Order ID and amount are required")
	}
	provider, err := s.provider(method)
	if err != nil {
		return nil, err
	}
	order, err := s.loadOrder(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if err := payable(order); err != nil {
		return nil, err
	}
	if order.Payment.Status == models.PaymentCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Order is already paid")
	}
	if !models.RoundMoney(amount).Equal(order.Total) {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "Amount does not match order total of %s", order.Total.StringFixed(2))
	}

	started, err := provider.Initiate(ctx, order, order.Total)
	s.metrics.ObservePayment(string(method), "initiate", err)
	if err != nil {
		s.log.Error(s.log.WithFields(ctx, map[string]any{"order_id": order.ID, "provider": method}), "payment initiation failed", err)
		return nil, asInternal(err, "failed to initiate payment")
	}
	// Bind the provider reference so only this order's payment can confirm it.
	if err := applyTransition(ctx, s.orders, order, map[string]any{
		"payment_provider_ref": started.Reference(),
		"payment_method":       method,
	}); err != nil {
		return nil, err
	}
	return started, nil
}

// Confirm verifies the provider callback and marks the order paid and
// confirmed. Confirming an already paid order returns it unchanged.
func (s *PaymentService) Confirm(ctx context.Context, method models.PaymentMethod, userID, orderID string, cb payments.Callback) (*models.Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Order ID is required")
	}
	provider, err := s.provider(method)
	if err != nil {
		return nil, err
	}
	order, err := s.loadOrder(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if order.Payment.Status == models.PaymentCompleted {
		return order, nil
	}
	if err := payable(order); err != nil {
		return nil, err
	}

	txID, err := provider.Confirm(ctx, order, cb)
	s.metrics.ObservePayment(string(method), "confirm", err)
	if err != nil {
		return nil, asInternal(err, "failed to verify payment")
	}

	now := s.now()
	changes := map[string]any{
		"payment_status":         models.PaymentCompleted,
		"payment_transaction_id": txID,
		"payment_paid_at":        now,
		"payment_method":         method,
	}
	switch order.Status {
	case models.OrderPending, models.OrderProcessing:
		if err := checkTransition(order.Status, models.OrderConfirmed); err != nil {
			return nil, err
		}
		changes["status"] = models.OrderConfirmed
	}
	if err := applyTransition(ctx, s.orders, order, changes); err != nil {
		return nil, err
	}

	s.log.Info(s.log.WithFields(ctx, map[string]any{"order_id": order.ID, "provider": method}), "payment confirmed")
	publish(ctx, s.events, s.log, EventPaymentCompleted, orderEvent(order, "", now))
	return order, nil
}

func (s *PaymentService) provider(method models.PaymentMethod) (payments.Provider, error) {
	provider, err := s.providers.Get(method)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "payment provider unavailable")
	}
	return provider, nil
}

func (s *PaymentService) loadOrder(ctx context.Context, orderID, userID string) (*models.Order, error) {
	order, err := s.orders.GetForUser(ctx, orderID, userID)
	if err != nil {
		return nil, notFoundOr(err, "Order not found", "failed to load order")
	}
	return order, nil
}

func payable(order *models.Order) error {
	switch order.Status {
	case models.OrderCancelled, models.OrderRefunded:
		return pkgerrors.Newf(pkgerrors.CodeValidation, "Cannot pay for a %s order", order.Status)
	}
	return nil
}

// asInternal keeps typed errors from providers and wraps anything else.
func asInternal(err error, msg string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}
