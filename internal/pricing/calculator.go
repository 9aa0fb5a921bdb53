package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/internal/promotions"
)

var hundred = decimal.NewFromInt(100)

// Rates holds the flat checkout constants.
type Rates struct {
	// FreeShippingThreshold is compared against the pre-discount subtotal
	// with a strict greater-than.
	FreeShippingThreshold decimal.Decimal
	ShippingFlat          decimal.Decimal
	// TaxRate applies to the pre-discount subtotal.
	TaxRate decimal.Decimal
}

// DefaultRates are the storefront's mock checkout constants.
func DefaultRates() Rates {
	return Rates{
		FreeShippingThreshold: decimal.NewFromInt(50),
		ShippingFlat:          decimal.RequireFromString("5.99"),
		TaxRate:               decimal.RequireFromString("0.08"),
	}
}

// Breakdown is the full-precision cost breakdown of a cart.
type Breakdown struct {
	Subtotal           decimal.Decimal
	Discount           decimal.Decimal
	DiscountedSubtotal decimal.Decimal
	Shipping           decimal.Decimal
	Taxes              decimal.Decimal
	GrandTotal         decimal.Decimal
}

// Equal reports whether every amount matches.
func (b Breakdown) Equal(other Breakdown) bool {
	return b.Subtotal.Equal(other.Subtotal) &&
		b.Discount.Equal(other.Discount) &&
		b.DiscountedSubtotal.Equal(other.DiscountedSubtotal) &&
		b.Shipping.Equal(other.Shipping) &&
		b.Taxes.Equal(other.Taxes) &&
		b.GrandTotal.Equal(other.GrandTotal)
}

// Calculator derives totals. It holds no state beyond its rates and is safe
// for concurrent use.
type Calculator struct {
	rates Rates
}

// NewCalculator builds a calculator with the provided rates.
func NewCalculator(rates Rates) Calculator {
	return Calculator{rates: rates}
}

// Compute maps a subtotal and optional promotion to a breakdown. Shipping and
// taxes are derived from the pre-discount subtotal, and a fixed discount
// larger than the subtotal yields a negative discounted subtotal.
func (c Calculator) Compute(subtotal decimal.Decimal, promo *promotions.Promotion) Breakdown {
	discount := Discount(subtotal, promo)
	discounted := subtotal.Sub(discount)

	shipping := c.rates.ShippingFlat
	if subtotal.GreaterThan(c.rates.FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	taxes := subtotal.Mul(c.rates.TaxRate)

	return Breakdown{
		Subtotal:           subtotal,
		Discount:           discount,
		DiscountedSubtotal: discounted,
		Shipping:           shipping,
		Taxes:              taxes,
		GrandTotal:         discounted.Add(shipping).Add(taxes),
	}
}

// Compute uses DefaultRates.
func Compute(subtotal decimal.Decimal, promo *promotions.Promotion) Breakdown {
	return NewCalculator(DefaultRates()).Compute(subtotal, promo)
}

// Discount returns the amount promo takes off subtotal.
func Discount(subtotal decimal.Decimal, promo *promotions.Promotion) decimal.Decimal {
	if promo == nil {
		return decimal.Zero
	}
	if promo.Kind == promotions.KindPercentage {
		return subtotal.Mul(promo.Value).Div(hundred)
	}
	return promo.Value
}
