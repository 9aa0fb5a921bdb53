package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/internal/pricing"
	"github.com/angelmondragon/storefront/internal/promotions"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// Deps are the collaborators shared by every Store of a process.
type Deps struct {
	Persister Persister
	Catalog   promotions.Catalog
	// Calculator defaults to pricing.DefaultRates when nil.
	Calculator *pricing.Calculator
	Notifier   Notifier
	Logger     *logger.Logger
	// DefaultStockCeiling applies to products without stock; zero means
	// DefaultStockCeiling.
	DefaultStockCeiling int
}

func (d Deps) validate() error {
	if d.Persister == nil {
		return fmt.Errorf("cart persister required")
	}
	if d.Catalog == nil {
		return fmt.Errorf("promotion catalog required")
	}
	return nil
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.Calculator == nil {
		calc := pricing.NewCalculator(pricing.DefaultRates())
		d.Calculator = &calc
	}
	if d.DefaultStockCeiling < 1 {
		d.DefaultStockCeiling = DefaultStockCeiling
	}
	return d
}

// Store owns the lines and active promotion of one cart session. Mutations
// are serialized, persisted before they return, and announce themselves to
// the notifier once committed.
type Store struct {
	id   string
	deps Deps

	mu    sync.Mutex
	lines []Line
	promo *promotions.Promotion
}

// NewStore builds the store for cartID and seeds it from the persister.
func NewStore(ctx context.Context, cartID string, deps Deps) (*Store, error) {
	if cartID == "" {
		return nil, fmt.Errorf("cart id required")
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}
	deps = deps.withDefaults()

	s := &Store{id: cartID, deps: deps}
	snapshot := deps.Persister.Load(ctx, cartID)
	s.lines = make([]Line, 0, len(snapshot.Items))
	for _, line := range snapshot.Items {
		// Lines written under a larger ceiling are pulled back within it.
		line = line.clone()
		line.Quantity = clampQuantity(line.Quantity, stockCeiling(line.Stock, deps.DefaultStockCeiling))
		s.lines = append(s.lines, line)
	}
	s.promo = copyPromotion(snapshot.Promotion)
	return s, nil
}

// ID returns the cart session identifier.
func (s *Store) ID() string {
	return s.id
}

// AddItem merges quantity into the product's line, creating it when absent.
// Quantities below one count as one and the result is capped at the ceiling
// of the incoming product's stock, which may shrink an existing line.
func (s *Store) AddItem(ctx context.Context, product Product, quantity int) Line {
	if quantity < 1 {
		quantity = 1
	}
	ceiling := stockCeiling(product.Stock, s.deps.DefaultStockCeiling)

	s.mu.Lock()
	var line Line
	if idx := s.indexOf(product.ID); idx >= 0 {
		existing := &s.lines[idx]
		existing.Quantity = clampQuantity(existing.Quantity+quantity, ceiling)
		existing.Stock = copyIntPtr(product.Stock)
		line = existing.clone()
	} else {
		line = newLine(product, clampQuantity(quantity, ceiling))
		s.lines = append(s.lines, line)
		line = line.clone()
	}
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.emit(ctx, Event{Kind: EventItemAdded, ProductID: line.ProductID, Name: line.Name, Quantity: line.Quantity})
	return line
}

// RemoveItem deletes the product's line. Absent lines are a no-op.
func (s *Store) RemoveItem(ctx context.Context, productID string) {
	s.mu.Lock()
	idx := s.indexOf(productID)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	removed := s.lines[idx]
	s.lines = append(s.lines[:idx:idx], s.lines[idx+1:]...)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.emit(ctx, Event{Kind: EventItemRemoved, ProductID: removed.ProductID, Name: removed.Name})
}

// SetQuantity overwrites a line's quantity, clamped to [1, ceiling]. It
// reports whether a line existed.
func (s *Store) SetQuantity(ctx context.Context, productID string, quantity int) bool {
	s.mu.Lock()
	idx := s.indexOf(productID)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	line := &s.lines[idx]
	// The ceiling is at least one, so a set never removes the line.
	line.Quantity = clampQuantity(quantity, stockCeiling(line.Stock, s.deps.DefaultStockCeiling))
	s.persistLocked(ctx)
	s.mu.Unlock()
	return true
}

// Clear drops every line and the active promotion.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.lines = nil
	s.promo = nil
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.emit(ctx, Event{Kind: EventCartCleared})
}

// ApplyPromotion activates the promotion matching code. An unknown code, or
// a catalog failure, clears whatever promotion was active and returns false.
func (s *Store) ApplyPromotion(ctx context.Context, code string) bool {
	s.mu.Lock()
	promo, err := s.deps.Catalog.Lookup(ctx, code)
	if err != nil {
		s.deps.Logger.Error(s.deps.Logger.WithField(ctx, "promotion_code", code), "cart.promotion.lookup_failed", err)
		promo = nil
	}
	s.promo = promo
	s.persistLocked(ctx)
	s.mu.Unlock()

	if promo == nil {
		s.emit(ctx, Event{Kind: EventPromotionRejected, Code: code})
		return false
	}
	s.emit(ctx, Event{Kind: EventPromotionApplied, Code: promo.Code})
	return true
}

// RemovePromotion clears the active promotion.
func (s *Store) RemovePromotion(ctx context.Context) {
	s.mu.Lock()
	s.promo = nil
	s.persistLocked(ctx)
	s.mu.Unlock()
}

// Lines returns a copy of the lines in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.linesLocked()
}

// Promotion returns a copy of the active promotion, or nil.
func (s *Store) Promotion() *promotions.Promotion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyPromotion(s.promo)
}

// ItemCount is the sum of line quantities.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return itemCount(s.lines)
}

// Subtotal is the sum of unit price times quantity.
func (s *Store) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return subtotal(s.lines)
}

// Totals prices the current cart.
func (s *Store) Totals() pricing.Breakdown {
	return s.View().Totals
}

// View is a consistent read of the whole cart.
type View struct {
	CartID    string
	Lines     []Line
	Promotion *promotions.Promotion
	ItemCount int
	Subtotal  decimal.Decimal
	Totals    pricing.Breakdown
}

// View reads lines, promotion and derived values under a single lock.
func (s *Store) View() View {
	s.mu.Lock()
	lines := s.linesLocked()
	promo := copyPromotion(s.promo)
	s.mu.Unlock()

	sub := subtotal(lines)
	return View{
		CartID:    s.id,
		Lines:     lines,
		Promotion: promo,
		ItemCount: itemCount(lines),
		Subtotal:  sub,
		Totals:    s.deps.Calculator.Compute(sub, promo),
	}
}

func (s *Store) indexOf(productID string) int {
	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) linesLocked() []Line {
	out := make([]Line, len(s.lines))
	for i, line := range s.lines {
		out[i] = line.clone()
	}
	return out
}

func (s *Store) persistLocked(ctx context.Context) {
	s.deps.Persister.Save(ctx, s.id, Snapshot{
		Items:     s.linesLocked(),
		Promotion: copyPromotion(s.promo),
	})
}

func (s *Store) emit(ctx context.Context, event Event) {
	event.CartID = s.id
	if s.deps.Notifier != nil {
		s.deps.Notifier.Notify(ctx, event)
	}
	if rec := recorderFromContext(ctx); rec != nil {
		rec.add(event)
	}
}

func itemCount(lines []Line) int {
	total := 0
	for _, line := range lines {
		total += line.Quantity
	}
	return total
}

func subtotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.LineTotal())
	}
	return total
}

func copyPromotion(p *promotions.Promotion) *promotions.Promotion {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}
