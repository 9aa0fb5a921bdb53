package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront/api/controllers"
	cartcontrollers "github.com/angelmondragon/storefront/api/controllers/cart"
	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/internal/products"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// Dependencies gathers what the router hands to its controllers.
type Dependencies struct {
	Sessions cartcontrollers.Sessions
	Products products.Fetcher
	// RateLimiter backs the promotion limiter; nil disables it.
	RateLimiter     middleware.RateLimitStore
	Metrics         middleware.RequestObserver
	MetricsGatherer prometheus.Gatherer
	Pingers         map[string]controllers.Pinger
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.Metrics),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})

	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	promoLimit := middleware.RateLimit(
		middleware.NewRateLimitPolicy("promotion", cfg.Promotions.RateLimitWindow, cfg.Promotions.RateLimit),
		deps.RateLimiter,
		logg,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CartSession(middleware.CartSessionOptions{
			CookieName: cfg.Cart.CookieName,
			Secure:     cfg.Cart.CookieSecure,
			TTL:        cfg.Cart.TTL,
		}, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(deps.Sessions, logg))
			r.Delete("/", cartcontrollers.CartClear(deps.Sessions, logg))

			r.Post("/items", cartcontrollers.CartAddItem(deps.Sessions, deps.Products, logg))
			r.Patch("/items/{productId}", cartcontrollers.CartSetQuantity(deps.Sessions, logg))
			r.Delete("/items/{productId}", cartcontrollers.CartRemoveItem(deps.Sessions, logg))

			r.With(promoLimit).Post("/promotion", cartcontrollers.CartApplyPromotion(deps.Sessions, logg))
			r.Delete("/promotion", cartcontrollers.CartRemovePromotion(deps.Sessions, logg))
		})

		r.Get("/checkout/summary", cartcontrollers.CheckoutSummary(deps.Sessions, logg))
	})

	return r
}
