package services

import (
	"storefront/internal/models"

	"github.com/shopspring/decimal"
)

// Pricing holds the checkout charges applied on top of the item subtotal.
type Pricing struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
}

// DefaultPricing is 18% tax and a flat 50 shipping fee waived above 500.
func DefaultPricing() Pricing {
	return Pricing{
		TaxRate:               decimal.RequireFromString("0.18"),
		FreeShippingThreshold: decimal.NewFromInt(500),
		ShippingFee:           decimal.NewFromInt(50),
	}
}

type Totals struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// Quote prices a subtotal. Tax is charged on the pre-discount subtotal and
// the discount is clamped to [0, subtotal], so it never eats into shipping
// or tax.
func (p Pricing) Quote(subtotal, discount decimal.Decimal) Totals {
	subtotal = models.RoundMoney(subtotal)
	discount = models.RoundMoney(decimal.Min(decimal.Max(discount, decimal.Zero), subtotal))

	shipping := p.ShippingFee
	if subtotal.GreaterThan(p.FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := models.RoundMoney(subtotal.Mul(p.TaxRate))

	total := subtotal.Add(shipping).Add(tax).Sub(discount)
	return Totals{
		Subtotal: subtotal,
		Shipping: models.RoundMoney(shipping),
		Tax:      tax,
		Discount: discount,
		Total:    models.RoundMoney(total),
	}
}
