package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"
	pkgerrors "storefront/pkg/errors"
	"storefront/pkg/logger"
	"storefront/pkg/metrics"
	"storefront/pkg/pagination"

	"github.com/shopspring/decimal"
)

// CouponPolicy decides what happens to an order carrying an unusable coupon.
type CouponPolicy string

const (
	// CouponPolicySoft drops the coupon and places the order at full price.
	CouponPolicySoft CouponPolicy = "soft"
	// CouponPolicyStrict rejects the order.
	CouponPolicyStrict CouponPolicy = "strict"
)

const orderNumberAttempts = 3

type OrderItemInput struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId,omitempty"`
	Quantity  int    `json:"quantity"`
}

type CreateOrderInput struct {
	Items           []OrderItemInput `json:"items"`
	ShippingAddress *models.Address  `json:"shippingAddress"`
	BillingAddress  *models.Address  `json:"billingAddress,omitempty"`
	PaymentMethod   string           `json:"paymentMethod"`
	CouponCode      string           `json:"couponCode,omitempty"`
	Notes           string           `json:"notes,omitempty"`
}

type OrderServiceConfig struct {
	Pricing      Pricing
	CouponPolicy CouponPolicy
}

// OrderService assembles, prices and places orders and drives their status.
type OrderService struct {
	orders   repositories.OrderRepository
	products repositories.ProductRepository
	coupons  *CouponService
	pricing  Pricing
	policy   CouponPolicy
	events   EventPublisher
	metrics  *metrics.ServerMetrics
	log      *logger.Logger
	now      func() time.Time
}

func NewOrderService(
	orders repositories.OrderRepository,
	products repositories.ProductRepository,
	coupons *CouponService,
	cfg OrderServiceConfig,
	events EventPublisher,
	m *metrics.ServerMetrics,
	log *logger.Logger,
) *OrderService {
	if cfg.CouponPolicy == "" {
		cfg.CouponPolicy = CouponPolicySoft
	}
	if log == nil {
		log = logger.Nop()
	}
	return &OrderService{
		orders:   orders,
		products: products,
		coupons:  coupons,
		pricing:  cfg.Pricing,
		policy:   cfg.CouponPolicy,
		events:   events,
		metrics:  m,
		log:      log,
		now:      utcNow,
	}
}

// WithClock replaces the time source used for status timestamps.
func (s *OrderService) WithClock(now func() time.Time) *OrderService {
	s.now = now
	return s
}

// CreateOrder validates the request, prices it and places it atomically.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, in CreateOrderInput) (*models.Order, error) {
	order, err := s.createOrder(ctx, userID, in)
	if err != nil {
		s.metrics.ObserveOrder(string(pkgerrors.CodeOf(err)))
		return nil, err
	}
	s.metrics.ObserveOrder("")
	publish(ctx, s.events, s.log, EventOrderCreated, orderEvent(order, "", s.now()))
	return order, nil
}

func (s *OrderService) createOrder(ctx context.Context, userID string, in CreateOrderInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "At least one item is required")
	}
	if in.ShippingAddress == nil || in.ShippingAddress.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Shipping address is required")
	}
	if strings.TrimSpace(in.PaymentMethod) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Payment method is required")
	}
	method, err := models.ParsePaymentMethod(in.PaymentMethod)
	if err != nil {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "Invalid payment method: %s", in.PaymentMethod)
	}
	for _, item := range in.Items {
		if item.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Quantity must be at least 1")
		}
	}

	items := make(models.OrderItems, 0, len(in.Items))
	reservations := make([]repositories.Reservation, 0, len(in.Items))
	subtotal := decimal.Zero
	for _, line := range in.Items {
		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, notFoundOr(err, fmt.Sprintf("Product not found: %s", line.ProductID), "failed to load product")
		}
		if !product.IsActive {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "Product is not available: %s", product.Name)
		}
		if !product.CanFulfil(line.Quantity) {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "Insufficient stock for: %s", product.Name)
		}

		lineTotal := models.RoundMoney(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			VariantID: line.VariantID,
			Name:      product.Name,
			Quantity:  line.Quantity,
			Price:     product.Price,
			Total:     lineTotal,
		})
		subtotal = subtotal.Add(lineTotal)
		if product.Inventory.TrackInventory {
			reservations = append(reservations, repositories.Reservation{
				ProductID: product.ID,
				Name:      product.Name,
				Quantity:  line.Quantity,
				Backorder: product.Inventory.AllowBackorders,
			})
		}
	}

	var coupon *models.Coupon
	discount := decimal.Zero
	if code := NormalizeCouponCode(in.CouponCode); code != "" {
		eval, err := s.coupons.Evaluate(ctx, code, subtotal)
		if err != nil {
			return nil, err
		}
		switch {
		case eval.Valid:
			coupon, discount = eval.Coupon, eval.Discount
		case s.policy == CouponPolicyStrict:
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid coupon: %s", eval.Reason)
		default:
			s.log.Info(s.log.WithFields(ctx, map[string]any{"coupon": code, "reason": eval.Reason}), "ignoring unusable coupon")
		}
	}

	billing := *in.ShippingAddress
	if in.BillingAddress != nil && !in.BillingAddress.IsZero() {
		billing = *in.BillingAddress
	}
	order := &models.Order{
		UserID:            userID,
		Items:             items,
		ShippingAddress:   *in.ShippingAddress,
		BillingAddress:    billing,
		Status:            models.OrderPending,
		FulfillmentStatus: models.FulfillmentUnfulfilled,
		Notes:             in.Notes,
		Payment: models.Payment{
			Method: method,
			Status: models.PaymentPending,
		},
	}
	s.applyTotals(order, subtotal, discount, coupon)

	err = s.place(ctx, order, reservations, coupon)
	if errors.Is(err, repositories.ErrCouponExhausted) {
		// Another order used the last redemption after evaluation.
		if s.policy == CouponPolicyStrict {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid coupon: %s", ReasonCouponExhausted)
		}
		s.applyTotals(order, subtotal, decimal.Zero, nil)
		err = s.place(ctx, order, reservations, nil)
	}
	if err != nil {
		var stockErr *repositories.InsufficientStockError
		if errors.As(err, &stockErr) {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "Insufficient stock for: %s", stockErr.Name)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create order")
	}
	return order, nil
}

func (s *OrderService) applyTotals(order *models.Order, subtotal, discount decimal.Decimal, coupon *models.Coupon) {
	totals := s.pricing.Quote(subtotal, discount)
	order.Subtotal = totals.Subtotal
	order.ShippingCost = totals.Shipping
	order.Tax = totals.Tax
	order.Discount = totals.Discount
	order.Total = totals.Total
	order.Payment.Amount = totals.Total
	order.CouponCode = ""
	if coupon != nil {
		order.CouponCode = coupon.Code
	}
}

// place retries only when the generated order number collides.
func (s *OrderService) place(ctx context.Context, order *models.Order, reservations []repositories.Reservation, coupon *models.Coupon) error {
	couponID := ""
	if coupon != nil {
		couponID = coupon.ID
	}
	var err error
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order.OrderNumber = NewOrderNumber(s.now())
		err = s.orders.Place(ctx, order, reservations, couponID)
		if !errors.Is(err, repositories.ErrDuplicate) {
			return err
		}
	}
	return err
}

// NewOrderNumber formats ORD-<unix ms in base36>-<3 random base36 chars>, upper-cased.
func NewOrderNumber(now time.Time) string {
	suffix := strconv.FormatInt(int64(rand.Intn(36*36*36)), 36)
	for len(suffix) < 3 {
		suffix = "0" + suffix
	}
	return strings.ToUpper(fmt.Sprintf("ORD-%s-%s", strconv.FormatInt(now.UnixMilli(), 36), suffix))
}

// GetOrder returns an order owned by userID. Admins may read any order.
func (s *OrderService) GetOrder(ctx context.Context, id, userID string, isAdmin bool) (*models.Order, error) {
	var (
		order *models.Order
		err   error
	)
	if isAdmin {
		order, err = s.orders.GetByID(ctx, id)
	} else {
		order, err = s.orders.GetForUser(ctx, id, userID)
	}
	if err != nil {
		return nil, notFoundOr(err, "Order not found", "failed to load order")
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, filter repositories.OrderFilter, page pagination.Params) ([]models.Order, pagination.Meta, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, pagination.Meta{}, pkgerrors.Newf(pkgerrors.CodeValidation, "Invalid order status: %s", filter.Status)
	}
	page = page.Normalize(pagination.DefaultLimit)
	orders, total, err := s.orders.List(ctx, filter, page)
	if err != nil {
		return nil, pagination.Meta{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list orders")
	}
	return orders, pagination.NewMeta(page, total), nil
}

// UpdateStatus moves an order to status through the transition table.
func (s *OrderService) UpdateStatus(ctx context.Context, id, status, trackingNumber string) (*models.Order, error) {
	to := models.OrderStatus(status)
	if !to.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "Invalid order status: %s", status)
	}
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Order not found", "failed to load order")
	}
	if err := checkTransition(order.Status, to); err != nil {
		return nil, err
	}
	if order.Status == to {
		return order, nil
	}

	now := s.now()
	changes := map[string]any{"status": to}
	switch to {
	case models.OrderShipped:
		changes["shipped_at"] = now
		if trackingNumber != "" {
			changes["tracking_number"] = trackingNumber
		}
	case models.OrderDelivered:
		changes["delivered_at"] = now
		changes["fulfillment_status"] = models.FulfillmentFulfilled
	}

	previous := order.Status
	if err := applyTransition(ctx, s.orders, order, changes); err != nil {
		return nil, err
	}
	publish(ctx, s.events, s.log, EventOrderStatusChanged, orderEvent(order, previous, now))
	return order, nil
}

// applyTransition applies changes guarded by the order's current status and
// reloads it into order.
func applyTransition(ctx context.Context, orders repositories.OrderRepository, order *models.Order, changes map[string]any) error {
	if err := orders.Transition(ctx, order.ID, order.Status, changes); err != nil {
		switch {
		case errors.Is(err, repositories.ErrStaleOrder):
			return pkgerrors.New(pkgerrors.CodeConflict, "Order was updated concurrently, please retry")
		case errors.Is(err, repositories.ErrNotFound):
			return pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
		case errors.Is(err, repositories.ErrDuplicate):
			return pkgerrors.New(pkgerrors.CodeValidation, "Payment has already been applied to another order")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update order")
	}
	updated, err := orders.GetByID(ctx, order.ID)
	if err != nil {
		return notFoundOr(err, "Order not found", "failed to load order")
	}
	*order = *updated
	return nil
}

func orderEvent(order *models.Order, previous models.OrderStatus, at time.Time) OrderEvent {
	return OrderEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Status:      string(order.Status),
		Previous:    string(previous),
		Total:       order.Total.StringFixed(2),
		Payment:     string(order.Payment.Status),
		OccurredAt:  at,
	}
}
