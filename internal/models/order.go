package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
	OrderRefunded   OrderStatus = "refunded"
)

var validOrderStatuses = []OrderStatus{
	OrderPending,
	OrderProcessing,
	OrderConfirmed,
	OrderShipped,
	OrderDelivered,
	OrderCancelled,
	OrderRefunded,
}

func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

type PaymentMethod string

const (
	PaymentRazorpay PaymentMethod = "razorpay"
	PaymentStripe   PaymentMethod = "stripe"
	PaymentCOD      PaymentMethod = "cod"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentRazorpay, PaymentStripe, PaymentCOD:
		return true
	}
	return false
}

func ParsePaymentMethod(value string) (PaymentMethod, error) {
	m := PaymentMethod(value)
	if !m.IsValid() {
		return "", fmt.Errorf("invalid payment method %q", value)
	}
	return m, nil
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

type FulfillmentStatus string

const (
	FulfillmentUnfulfilled FulfillmentStatus = "unfulfilled"
	FulfillmentPartial     FulfillmentStatus = "partial"
	FulfillmentFulfilled   FulfillmentStatus = "fulfilled"
)

// OrderItem is a line of an order with the product name and price captured
// at purchase time.
type OrderItem struct {
	ProductID string          `json:"productId"`
	VariantID string          `json:"variantId,omitempty"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Total     decimal.Decimal `json:"total"`
}

// OrderItems is persisted as a JSON text column.
type OrderItems []OrderItem

func (items OrderItems) Value() (driver.Value, error) {
	if items == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]OrderItem(items))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (items *OrderItems) Scan(src any) error {
	return scanJSON(src, items)
}

type Payment struct {
	Method PaymentMethod `json:"method" gorm:"type:varchar(20);not null"`
	Status PaymentStatus `json:"status" gorm:"index;type:varchar(20);not null"`
	// ProviderRef is the provider's order or intent id issued at initiation.
	ProviderRef string `json:"providerRef,omitempty" gorm:"index;type:varchar(255)"`
	// TransactionID is NULL until paid; one provider payment settles one order.
	TransactionID *string         `json:"transactionId,omitempty" gorm:"uniqueIndex;type:varchar(255)"`
	PaidAt        *time.Time      `json:"paidAt,omitempty"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null"`
}

// Order is a customer purchase. Total = Subtotal + ShippingCost + Tax - Discount.
type Order struct {
	ID                string            `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderNumber       string            `json:"orderNumber" gorm:"uniqueIndex;type:varchar(40);not null"`
	UserID            string            `json:"userId" gorm:"index;type:varchar(36);not null"`
	Items             OrderItems        `json:"items" gorm:"type:text;not null"`
	ShippingAddress   Address           `json:"shippingAddress" gorm:"type:text;not null"`
	BillingAddress    Address           `json:"billingAddress" gorm:"type:text;not null"`
	Payment           Payment           `json:"payment" gorm:"embedded;embeddedPrefix:payment_"`
	Status            OrderStatus       `json:"status" gorm:"index;type:varchar(20);not null"`
	FulfillmentStatus FulfillmentStatus `json:"fulfillmentStatus" gorm:"type:varchar(20);not null"`
	Subtotal          decimal.Decimal   `json:"subtotal" gorm:"type:numeric(12,2);not null"`
	ShippingCost      decimal.Decimal   `json:"shippingCost" gorm:"type:numeric(12,2);not null"`
	Tax               decimal.Decimal   `json:"tax" gorm:"type:numeric(12,2);not null"`
	Discount          decimal.Decimal   `json:"discount" gorm:"type:numeric(12,2);not null"`
	Total             decimal.Decimal   `json:"total" gorm:"type:numeric(12,2);not null"`
	CouponCode        string            `json:"couponCode,omitempty" gorm:"type:varchar(50)"`
	Notes             string            `json:"notes,omitempty" gorm:"type:text"`
	TrackingNumber    string            `json:"trackingNumber,omitempty" gorm:"type:varchar(100)"`
	ShippedAt         *time.Time        `json:"shippedAt,omitempty"`
	DeliveredAt       *time.Time        `json:"deliveredAt,omitempty"`
	CreatedAt         time.Time         `json:"createdAt" gorm:"index"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}
