package pricing

import "github.com/shopspring/decimal"

// Display is a breakdown rendered for presentation, each amount rounded to
// two decimals.
type Display struct {
	Subtotal           string `json:"subtotal"`
	Discount           string `json:"discount"`
	DiscountedSubtotal string `json:"discounted_subtotal"`
	Shipping           string `json:"shipping"`
	Taxes              string `json:"taxes"`
	GrandTotal         string `json:"grand_total"`
}

// Display rounds each amount independently.
func (b Breakdown) Display() Display {
	return Display{
		Subtotal:           Money(b.Subtotal),
		Discount:           Money(b.Discount),
		DiscountedSubtotal: Money(b.DiscountedSubtotal),
		Shipping:           Money(b.Shipping),
		Taxes:              Money(b.Taxes),
		GrandTotal:         Money(b.GrandTotal),
	}
}

// Money formats an amount with exactly two decimals.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
