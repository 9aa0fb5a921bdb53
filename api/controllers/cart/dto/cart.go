package cartdto

import (
	cartsvc "github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/pricing"
	"github.com/angelmondragon/storefront/internal/promotions"
)

// Cart is the full cart view returned by every cart endpoint.
type Cart struct {
	CartID    string          `json:"cart_id"`
	Items     []Line          `json:"items"`
	ItemCount int             `json:"item_count"`
	Subtotal  string          `json:"subtotal"`
	Promotion *Promotion      `json:"promotion"`
	Totals    pricing.Display `json:"totals"`
}

type Line struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	ImageURL  string `json:"image_url,omitempty"`
	Stock     *int   `json:"stock"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"line_total"`
}

type Promotion struct {
	Code  string `json:"code"`
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// CheckoutSummary is the order-summary view of the cart totals.
type CheckoutSummary struct {
	CartID    string          `json:"cart_id"`
	ItemCount int             `json:"item_count"`
	Promotion *Promotion      `json:"promotion"`
	Totals    pricing.Display `json:"totals"`
}

// PromotionResult reports the outcome of an apply.
type PromotionResult struct {
	Applied bool `json:"applied"`
	Cart    Cart `json:"cart"`
}

func NewCart(view cartsvc.View) Cart {
	items := make([]Line, 0, len(view.Lines))
	for _, line := range view.Lines {
		items = append(items, Line{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: pricing.Money(line.UnitPrice),
			ImageURL:  line.ImageURL,
			Stock:     line.Stock,
			Quantity:  line.Quantity,
			LineTotal: pricing.Money(line.LineTotal()),
		})
	}
	return Cart{
		CartID:    view.CartID,
		Items:     items,
		ItemCount: view.ItemCount,
		Subtotal:  pricing.Money(view.Subtotal),
		Promotion: newPromotion(view.Promotion),
		Totals:    view.Totals.Display(),
	}
}

func NewCheckoutSummary(view cartsvc.View) CheckoutSummary {
	return CheckoutSummary{
		CartID:    view.CartID,
		ItemCount: view.ItemCount,
		Promotion: newPromotion(view.Promotion),
		Totals:    view.Totals.Display(),
	}
}

func newPromotion(p *promotions.Promotion) *Promotion {
	if p == nil {
		return nil
	}
	return &Promotion{Code: p.Code, Kind: string(p.Kind), Value: p.Value.String()}
}
