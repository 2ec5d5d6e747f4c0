package payments

import (
	"context"

	"storefront/internal/models"
	pkgerrors "storefront/pkg/errors"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/shopspring/decimal"
)

// RazorpayOrders is the subset of the Razorpay SDK used here.
type RazorpayOrders interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Razorpay creates provider orders and verifies checkout signatures.
type Razorpay struct {
	orders   RazorpayOrders
	keyID    string
	secret   string
	currency string
}

func NewRazorpay(keyID, secret, currency string) *Razorpay {
	client := razorpay.NewClient(keyID, secret)
	return NewRazorpayWithOrders(client.Order, keyID, secret, currency)
}

// NewRazorpayWithOrders builds the provider around an injected order client.
func NewRazorpayWithOrders(orders RazorpayOrders, keyID, secret, currency string) *Razorpay {
	return &Razorpay{orders: orders, keyID: keyID, secret: secret, currency: currency}
}

func (r *Razorpay) Method() models.PaymentMethod { return models.PaymentRazorpay }

func (r *Razorpay) Initiate(_ context.Context, order *models.Order, amount decimal.Decimal) (*Initiation, error) {
	minor := ToMinorUnits(amount)
	resp, err := r.orders.Create(map[string]interface{}{
		"amount":   minor,
		"currency": r.currency,
		"receipt":  order.ID,
		"notes": map[string]interface{}{
			"orderId": order.ID,
			"userId":  order.UserID,
		},
	}, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create razorpay order")
	}

	providerOrderID, _ := resp["id"].(string)
	if providerOrderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "razorpay order response missing id")
	}
	currency, _ := resp["currency"].(string)
	if currency == "" {
		currency = r.currency
	}
	if v, ok := resp["amount"].(float64); ok {
		minor = int64(v)
	}

	return &Initiation{
		Provider:        models.PaymentRazorpay,
		ProviderOrderID: providerOrderID,
		AmountMinor:     minor,
		Currency:        currency,
		KeyID:           r.keyID,
	}, nil
}

// Confirm checks the checkout signature and that the signed Razorpay order is
// the one created for this order.
func (r *Razorpay) Confirm(_ context.Context, order *models.Order, cb Callback) (string, error) {
	if cb.RazorpayOrderID == "" || cb.RazorpayPaymentID == "" || cb.RazorpaySignature == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "Missing payment details")
	}
	if !VerifyRazorpay(r.secret, cb.RazorpayOrderID, cb.RazorpayPaymentID, cb.RazorpaySignature) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "Invalid payment signature")
	}
	if order.Payment.ProviderRef == "" || cb.RazorpayOrderID != order.Payment.ProviderRef {
		return "", errForeignPayment
	}
	return cb.RazorpayPaymentID, nil
}
