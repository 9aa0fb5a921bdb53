package cart

import (
	"github.com/shopspring/decimal"
)

// DefaultStockCeiling caps quantities of products that report no stock.
const DefaultStockCeiling = 10

// Product is the catalog shape consumed by AddItem. Only ID, Price and Stock
// drive cart behavior; the rest is carried for display.
type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"imageUrl"`
	Stock    *int            `json:"stock,omitempty"`
}

// Line is one product entry in the cart.
type Line struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	ImageURL  string          `json:"image_url"`
	Stock     *int            `json:"stock"`
	Quantity  int             `json:"quantity"`
}

// LineTotal is unit price times quantity.
func (l Line) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l Line) clone() Line {
	l.Stock = copyIntPtr(l.Stock)
	return l
}

func newLine(p Product, quantity int) Line {
	return Line{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		ImageURL:  p.ImageURL,
		Stock:     copyIntPtr(p.Stock),
		Quantity:  quantity,
	}
}

// stockCeiling is max(stock ?? fallback, 1).
func stockCeiling(stock *int, fallback int) int {
	ceiling := fallback
	if stock != nil {
		ceiling = *stock
	}
	if ceiling < 1 {
		return 1
	}
	return ceiling
}

func clampQuantity(quantity, ceiling int) int {
	if quantity > ceiling {
		quantity = ceiling
	}
	if quantity < 1 {
		quantity = 1
	}
	return quantity
}

func copyIntPtr(src *int) *int {
	if src == nil {
		return nil
	}
	val := *src
	return &val
}
