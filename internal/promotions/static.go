package promotions

import (
	"context"

	"github.com/shopspring/decimal"
)

// StaticCatalog serves promotions from an in-memory table.
type StaticCatalog struct {
	byCode map[string]Promotion
}

// NewStaticCatalog indexes promos by normalized code; later duplicates win.
func NewStaticCatalog(promos ...Promotion) *StaticCatalog {
	byCode := make(map[string]Promotion, len(promos))
	for _, p := range promos {
		byCode[NormalizeCode(p.Code)] = p
	}
	return &StaticCatalog{byCode: byCode}
}

// DefaultCatalog returns the storefront's built-in promotion table.
func DefaultCatalog() *StaticCatalog {
	return NewStaticCatalog(
		Promotion{Code: "DISCOUNT10", Kind: KindPercentage, Value: decimal.NewFromInt(10)},
		Promotion{Code: "SAVE5", Kind: KindFixed, Value: decimal.NewFromInt(5)},
		Promotion{Code: "WELCOME15", Kind: KindPercentage, Value: decimal.NewFromInt(15)},
	)
}

func (c *StaticCatalog) Lookup(_ context.Context, code string) (*Promotion, error) {
	promo, ok := c.byCode[NormalizeCode(code)]
	if !ok {
		return nil, nil
	}
	return &promo, nil
}
