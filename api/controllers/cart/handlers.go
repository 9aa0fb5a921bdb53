package cart

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	cartdto "github.com/angelmondragon/storefront/api/controllers/cart/dto"
	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	cartsvc "github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/products"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/types"
)

// Sessions resolves the live store of a cart session.
type Sessions interface {
	Get(ctx context.Context, cartID string) (*cartsvc.Store, error)
}

// CartFetch returns the current cart.
func CartFetch(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := resolveStore(w, r, sessions, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, cartdto.NewCart(store.View()))
	}
}

// CartAddItem resolves the product from the catalog and merges it into the cart.
func CartAddItem(sessions Sessions, catalog products.Fetcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if catalog == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnavailable, "product catalog unavailable"))
			return
		}

		var payload AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, ok := resolveStore(w, r, sessions, logg)
		if !ok {
			return
		}

		product, err := catalog.GetProduct(r.Context(), payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quantity := 1
		if payload.Quantity != nil {
			quantity = *payload.Quantity
		}

		ctx, rec := cartsvc.WithRecorder(r.Context())
		store.AddItem(ctx, *product, quantity)
		writeCart(w, http.StatusOK, cartdto.NewCart(store.View()), rec)
	}
}

// CartSetQuantity overwrites the quantity of an existing line.
func CartSetQuantity(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload SetQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, ok := resolveStore(w, r, sessions, logg)
		if !ok {
			return
		}

		productID := chi.URLParam(r, "productId")
		if !store.SetQuantity(r.Context(), productID, *payload.Quantity) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found").WithDetails(map[string]any{"product_id": productID}))
			return
		}
		responses.WriteSuccess(w, cartdto.NewCart(store.View()))
	}
}

// CartRemoveItem removes a line. Removing an absent line succeeds.
func CartRemoveItem(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := resolveStore(w, r, sessions, logg)
		if !ok {
			return
		}

		ctx, rec := cartsvc.WithRecorder(r.Context())
		store.RemoveItem(ctx, chi.URLParam(r, "productId"))
		writeCart(w, http.StatusOK, cartdto.NewCart(store.View()), rec)
	}
}

// CartClear empties the cart and drops its promotion.
func CartClear(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := resolveStore(w, r, sessions, logg)
		if !ok {
			return
		}

		ctx, rec := cartsvc.WithRecorder(r.Context())
		store.Clear(ctx)
		writeCart(w, http.StatusOK, cartdto.NewCart(store.View()), rec)
	}
}

// CartApplyPromotion redeems a code. An unknown code is not an error: the
// response reports applied=false and the previous promotion is gone.
func CartApplyPromotion(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload ApplyPromotionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, ok := resolveStore(w, r, sessions, logg)
		if !ok {
			return
		}

		ctx, rec := cartsvc.WithRecorder(r.Context())
		applied := store.ApplyPromotion(ctx, validators.SanitizeString(payload.Code, 64))
		writeCart(w, http.StatusOK, cartdto.PromotionResult{
			Applied: applied,
			Cart:    cartdto.NewCart(store.View()),
		}, rec)
	}
}

// CartRemovePromotion clears the active promotion.
func CartRemovePromotion(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := resolveStore(w, r, sessions, logg)
		if !ok {
			return
		}
		store.RemovePromotion(r.Context())
		responses.WriteSuccess(w, cartdto.NewCart(store.View()))
	}
}

// CheckoutSummary returns the totals shown on the order summary and payment
// screens.
func CheckoutSummary(sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := resolveStore(w, r, sessions, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, cartdto.NewCheckoutSummary(store.View()))
	}
}

func resolveStore(w http.ResponseWriter, r *http.Request, sessions Sessions, logg *logger.Logger) (*cartsvc.Store, bool) {
	if sessions == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart sessions unavailable"))
		return nil, false
	}
	cartID := middleware.CartIDFromContext(r.Context())
	if cartID == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart session missing"))
		return nil, false
	}
	store, err := sessions.Get(r.Context(), cartID)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart"))
		return nil, false
	}
	return store, true
}

func writeCart(w http.ResponseWriter, status int, data any, rec *cartsvc.Recorder) {
	events := rec.Events()
	if len(events) == 0 {
		responses.WriteSuccessStatus(w, status, data)
		return
	}
	notices := make([]types.Notice, 0, len(events))
	for _, event := range events {
		notices = append(notices, types.Notice{Kind: string(event.Kind), Message: event.Message()})
	}
	responses.WriteSuccessWithNotices(w, status, data, notices)
}
