package payments

import (
	"context"
	"strings"

	"storefront/internal/models"
	pkgerrors "storefront/pkg/errors"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"
)

// StripeIntents exposes the PaymentIntent operations the provider needs.
type StripeIntents interface {
	New(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(ctx context.Context, id string) (*stripe.PaymentIntent, error)
}

type stripeIntentClient struct{}

func (stripeIntentClient) New(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if params != nil {
		params.Context = ctx
	}
	return paymentintent.New(params)
}

func (stripeIntentClient) Get(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	return paymentintent.Get(id, params)
}

// Stripe creates PaymentIntents and confirms them by re-fetching their status.
type Stripe struct {
	intents  StripeIntents
	currency string
}

func NewStripe(secretKey, currency string) *Stripe {
	stripe.Key = secretKey
	return NewStripeWithIntents(stripeIntentClient{}, currency)
}

func NewStripeWithIntents(intents StripeIntents, currency string) *Stripe {
	return &Stripe{intents: intents, currency: strings.ToLower(currency)}
}

func (s *Stripe) Method() models.PaymentMethod { return models.PaymentStripe }

func (s *Stripe) Initiate(ctx context.Context, order *models.Order, amount decimal.Decimal) (*Initiation, error) {
	minor := ToMinorUnits(amount)
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(minor),
		Currency: stripe.String(s.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("orderId", order.ID)
	params.AddMetadata("userId", order.UserID)

	intent, err := s.intents.New(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create payment intent")
	}

	return &Initiation{
		Provider:        models.PaymentStripe,
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		AmountMinor:     minor,
		Currency:        s.currency,
	}, nil
}

func (s *Stripe) Confirm(ctx context.Context, order *models.Order, cb Callback) (string, error) {
	if cb.PaymentIntentID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "Missing payment details")
	}
	if ref := order.Payment.ProviderRef; ref != "" && ref != cb.PaymentIntentID {
		return "", errForeignPayment
	}
	intent, err := s.intents.Get(ctx, cb.PaymentIntentID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to retrieve payment intent")
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "Payment not completed")
	}
	if owner, ok := intent.Metadata["orderId"]; ok && owner != "" && owner != order.ID {
		return "", errForeignPayment
	}
	return intent.ID, nil
}
