// Package payments adapts external payment processors to a common
// initiate/confirm capability.
package payments

import (
	"context"
	"fmt"

	"storefront/internal/models"
	pkgerrors "storefront/pkg/errors"

	"github.com/shopspring/decimal"
)

// Initiation is what the client needs to complete payment with a provider.
// Only the fields relevant to the provider are set.
type Initiation struct {
	Provider        models.PaymentMethod `json:"provider"`
	ProviderOrderID string               `json:"orderId,omitempty"`
	PaymentIntentID string               `json:"paymentIntentId,omitempty"`
	ClientSecret    string               `json:"clientSecret,omitempty"`
	AmountMinor     int64                `json:"amount"`
	Currency        string               `json:"currency"`
	KeyID           string               `json:"keyId,omitempty"`
}

// Reference is the provider-side id the order is bound to.
func (i *Initiation) Reference() string {
	if i.ProviderOrderID != "" {
		return i.ProviderOrderID
	}
	return i.PaymentIntentID
}

// Callback carries the provider-specific proof that a payment happened.
type Callback struct {
	RazorpayOrderID   string
	RazorpayPaymentID string
	RazorpaySignature string
	PaymentIntentID   string
}

var errForeignPayment = pkgerrors.New(pkgerrors.CodeValidation, "Payment does not belong to this order")

// Provider is one external payment processor.
type Provider interface {
	Method() models.PaymentMethod
	Initiate(ctx context.Context, order *models.Order, amount decimal.Decimal) (*Initiation, error)
	// Confirm verifies the callback for order and returns the provider's
	// transaction id.
	Confirm(ctx context.Context, order *models.Order, cb Callback) (string, error)
}

// Registry looks providers up by payment method.
type Registry struct {
	providers map[models.PaymentMethod]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[models.PaymentMethod]Provider, len(providers))}
	for _, p := range providers {
		if p != nil {
			r.providers[p.Method()] = p
		}
	}
	return r
}

func (r *Registry) Get(method models.PaymentMethod) (Provider, error) {
	if r != nil {
		if p, ok := r.providers[method]; ok {
			return p, nil
		}
	}
	return nil, fmt.Errorf("payment provider %q is not configured", method)
}

// ToMinorUnits converts a major-unit amount (rupees, dollars) to the integer
// minor unit providers expect.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
