package payments

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/models"
	pkgerrors "storefront/pkg/errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"
)

type mockRazorpayOrders struct {
	mock.Mock
}

func (m *mockRazorpayOrders) Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error) {
	args := m.Called(data, extraHeaders)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

type mockIntents struct {
	mock.Mock
}

func (m *mockIntents) New(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	args := m.Called(params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.PaymentIntent), args.Error(1)
}

func (m *mockIntents) Get(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.PaymentIntent), args.Error(1)
}

var testOrder = &models.Order{ID: "order-1", UserID: "user-1"}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(11850), ToMinorUnits(decimal.RequireFromString("118.50")))
	assert.Equal(t, int64(1), ToMinorUnits(decimal.RequireFromString("0.005")))
	assert.Equal(t, int64(0), ToMinorUnits(decimal.Zero))
}

func TestVerifyRazorpay(t *testing.T) {
	sig := SignRazorpay("secret", "order_A", "pay_B")
	assert.Len(t, sig, 64)
	assert.True(t, VerifyRazorpay("secret", "order_A", "pay_B", sig))
	assert.False(t, VerifyRazorpay("secret", "order_A", "pay_C", sig))
	assert.False(t, VerifyRazorpay("other", "order_A", "pay_B", sig))
}

func TestRazorpayInitiate(t *testing.T) {
	orders := new(mockRazorpayOrders)
	provider := NewRazorpayWithOrders(orders, "rzp_test_key", "secret", "INR")

	orders.On("Create", mock.MatchedBy(func(data map[string]interface{}) bool {
		notes := data["notes"].(map[string]interface{})
		return data["amount"] == int64(11850) &&
			data["currency"] == "INR" &&
			data["receipt"] == "order-1" &&
			notes["userId"] == "user-1"
	}), map[string]string(nil)).Return(map[string]interface{}{
		"id":       "order_rzp_1",
		"amount":   float64(11850),
		"currency": "INR",
	}, nil).Once()

	got, err := provider.Initiate(context.Background(), testOrder, decimal.RequireFromString("118.50"))
	require.NoError(t, err)
	assert.Equal(t, "order_rzp_1", got.ProviderOrderID)
	assert.Equal(t, int64(11850), got.AmountMinor)
	assert.Equal(t, "rzp_test_key", got.KeyID)
	orders.AssertExpectations(t)
}

func TestRazorpayInitiateProviderFailure(t *testing.T) {
	orders := new(mockRazorpayOrders)
	provider := NewRazorpayWithOrders(orders, "key", "secret", "INR")
	orders.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("bad gateway")).Once()

	_, err := provider.Initiate(context.Background(), testOrder, decimal.NewFromInt(10))
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInternal))
}

func TestRazorpayConfirm(t *testing.T) {
	provider := NewRazorpayWithOrders(nil, "key", "secret", "INR")
	ctx := context.Background()
	initiated := &models.Order{ID: "order-1", UserID: "user-1", Payment: models.Payment{ProviderRef: "order_A"}}

	txID, err := provider.Confirm(ctx, initiated, Callback{
		RazorpayOrderID:   "order_A",
		RazorpayPaymentID: "pay_B",
		RazorpaySignature: SignRazorpay("secret", "order_A", "pay_B"),
	})
	require.NoError(t, err)
	assert.Equal(t, "pay_B", txID)

	_, err = provider.Confirm(ctx, initiated, Callback{
		RazorpayOrderID:   "order_A",
		RazorpayPaymentID: "pay_B",
		RazorpaySignature: "deadbeef",
	})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	assert.Equal(t, "Invalid payment signature", pkgerrors.PublicMessage(err))

	_, err = provider.Confirm(ctx, initiated, Callback{RazorpayOrderID: "order_A"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	// a correctly signed payment for a different gateway order
	_, err = provider.Confirm(ctx, initiated, Callback{
		RazorpayOrderID:   "order_C",
		RazorpayPaymentID: "pay_C",
		RazorpaySignature: SignRazorpay("secret", "order_C", "pay_C"),
	})
	assert.Equal(t, "Payment does not belong to this order", pkgerrors.PublicMessage(err))

	// never initiated
	_, err = provider.Confirm(ctx, testOrder, Callback{
		RazorpayOrderID:   "order_A",
		RazorpayPaymentID: "pay_B",
		RazorpaySignature: SignRazorpay("secret", "order_A", "pay_B"),
	})
	assert.Equal(t, "Payment does not belong to this order", pkgerrors.PublicMessage(err))
}

func TestStripeInitiate(t *testing.T) {
	intents := new(mockIntents)
	provider := NewStripeWithIntents(intents, "USD")

	intents.On("New", mock.MatchedBy(func(p *stripe.PaymentIntentParams) bool {
		return *p.Amount == 2500 && *p.Currency == "usd" && p.Metadata["orderId"] == "order-1"
	})).Return(&stripe.PaymentIntent{ID: "pi_1", ClientSecret: "pi_1_secret"}, nil).Once()

	got, err := provider.Initiate(context.Background(), testOrder, decimal.NewFromInt(25))
	require.NoError(t, err)
	assert.Equal(t, "pi_1_secret", got.ClientSecret)
	assert.Equal(t, "pi_1", got.PaymentIntentID)
	intents.AssertExpectations(t)
}

func TestStripeConfirm(t *testing.T) {
	intents := new(mockIntents)
	provider := NewStripeWithIntents(intents, "usd")
	ctx := context.Background()

	intents.On("Get", "pi_ok").Return(&stripe.PaymentIntent{
		ID: "pi_ok", Status: stripe.PaymentIntentStatusSucceeded, Metadata: map[string]string{"orderId": "order-1"},
	}, nil)
	intents.On("Get", "pi_pending").Return(&stripe.PaymentIntent{
		ID: "pi_pending", Status: stripe.PaymentIntentStatusProcessing,
	}, nil)
	intents.On("Get", "pi_other").Return(&stripe.PaymentIntent{
		ID: "pi_other", Status: stripe.PaymentIntentStatusSucceeded, Metadata: map[string]string{"orderId": "order-2"},
	}, nil)
	intents.On("Get", "pi_err").Return(nil, errors.New("network"))

	txID, err := provider.Confirm(ctx, testOrder, Callback{PaymentIntentID: "pi_ok"})
	require.NoError(t, err)
	assert.Equal(t, "pi_ok", txID)

	_, err = provider.Confirm(ctx, testOrder, Callback{PaymentIntentID: "pi_pending"})
	assert.Equal(t, "Payment not completed", pkgerrors.PublicMessage(err))

	_, err = provider.Confirm(ctx, testOrder, Callback{PaymentIntentID: "pi_other"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = provider.Confirm(ctx, testOrder, Callback{PaymentIntentID: "pi_err"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInternal))

	initiated := &models.Order{ID: "order-1", Payment: models.Payment{ProviderRef: "pi_ok"}}
	_, err = provider.Confirm(ctx, initiated, Callback{PaymentIntentID: "pi_other"})
	assert.Equal(t, "Payment does not belong to this order", pkgerrors.PublicMessage(err))
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry(NewStripeWithIntents(new(mockIntents), "usd"), nil)

	p, err := reg.Get(models.PaymentStripe)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStripe, p.Method())

	_, err = reg.Get(models.PaymentRazorpay)
	assert.Error(t, err)
}
