package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/angelmondragon/storefront/pkg/logger"
)

// EventKind names a user-visible cart signal.
type EventKind string

const (
	EventItemAdded         EventKind = "item_added"
	EventItemRemoved       EventKind = "item_removed"
	EventCartCleared       EventKind = "cart_cleared"
	EventPromotionApplied  EventKind = "promotion_applied"
	EventPromotionRejected EventKind = "promotion_rejected"
)

// Event is emitted after a mutation commits.
type Event struct {
	Kind      EventKind `json:"kind"`
	CartID    string    `json:"-"`
	ProductID string    `json:"product_id,omitempty"`
	Name      string    `json:"name,omitempty"`
	Quantity  int       `json:"quantity,omitempty"`
	Code      string    `json:"code,omitempty"`
}

// Message is the toast text shown for the event.
func (e Event) Message() string {
	switch e.Kind {
	case EventItemAdded:
		return fmt.Sprintf("%s added to cart", displayName(e))
	case EventItemRemoved:
		return fmt.Sprintf("%s removed from cart", displayName(e))
	case EventCartCleared:
		return "Cart cleared"
	case EventPromotionApplied:
		return fmt.Sprintf("Promotion %s applied", e.Code)
	case EventPromotionRejected:
		return fmt.Sprintf("Promotion %s is not valid", e.Code)
	}
	return string(e.Kind)
}

func displayName(e Event) string {
	if e.Name != "" {
		return e.Name
	}
	return e.ProductID
}

// Notifier receives committed cart events.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, event Event)

func (fn NotifierFunc) Notify(ctx context.Context, event Event) {
	fn(ctx, event)
}

// Notifiers fans an event out in order.
type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, event Event) {
	for _, n := range ns {
		if n != nil {
			n.Notify(ctx, event)
		}
	}
}

// LogNotifier writes each event as an info entry.
func LogNotifier(logg *logger.Logger) Notifier {
	if logg == nil {
		return Notifiers(nil)
	}
	return NotifierFunc(func(ctx context.Context, event Event) {
		ctx = logg.WithFields(ctx, map[string]any{
			"event":      string(event.Kind),
			"cart_id":    event.CartID,
			"product_id": event.ProductID,
			"quantity":   event.Quantity,
		})
		logg.Info(ctx, "cart.event")
	})
}

// EventCounter is the metrics surface MetricsNotifier reports to.
type EventCounter interface {
	IncEvent(kind string)
}

// MetricsNotifier counts events by kind.
func MetricsNotifier(counter EventCounter) Notifier {
	return NotifierFunc(func(_ context.Context, event Event) {
		counter.IncEvent(string(event.Kind))
	})
}

// Recorder collects the events emitted while serving one request.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

type recorderKey struct{}

// WithRecorder attaches a fresh recorder to ctx.
func WithRecorder(ctx context.Context) (context.Context, *Recorder) {
	rec := &Recorder{}
	return context.WithValue(ctx, recorderKey{}, rec), rec
}

func recorderFromContext(ctx context.Context) *Recorder {
	if ctx == nil {
		return nil
	}
	rec, _ := ctx.Value(recorderKey{}).(*Recorder)
	return rec
}

func (r *Recorder) add(event Event) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
