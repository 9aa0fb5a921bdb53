package promotions

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind selects how a promotion's value is interpreted.
type Kind string

const (
	// KindPercentage discounts value percent of the subtotal.
	KindPercentage Kind = "percentage"
	// KindFixed discounts a flat currency amount.
	KindFixed Kind = "fixed"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindPercentage || k == KindFixed
}

// Promotion is a redeemable discount rule.
type Promotion struct {
	Code  string          `json:"code"`
	Kind  Kind            `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

// Catalog resolves promotion codes. A nil promotion with a nil error means
// the code is not recognized.
type Catalog interface {
	Lookup(ctx context.Context, code string) (*Promotion, error)
}

// CatalogFunc adapts a function to Catalog.
type CatalogFunc func(ctx context.Context, code string) (*Promotion, error)

func (fn CatalogFunc) Lookup(ctx context.Context, code string) (*Promotion, error) {
	return fn(ctx, code)
}

// NormalizeCode is the case-insensitive match key of a code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
