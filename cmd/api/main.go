package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/storefront/api/controllers"
	"github.com/angelmondragon/storefront/api/routes"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/pricing"
	"github.com/angelmondragon/storefront/internal/products"
	"github.com/angelmondragon/storefront/internal/promotions"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/instance"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/migrate"
	"github.com/angelmondragon/storefront/pkg/redis"
)

const (
	shutdownTimeout = 15 * time.Second
	purgeInterval   = time.Hour
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	cartMetrics := metrics.NewCartMetrics(reg)
	pingers := map[string]controllers.Pinger{}

	var dbClient *db.Client
	if cfg.DB.Enabled() {
		client, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Close(); err != nil {
				logg.Error(context.Background(), "error closing database", err)
			}
		}()
		if err := migrate.Prepare(ctx, cfg, logg, client); err != nil {
			return err
		}
		dbClient = client
		pingers["database"] = client
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		redisClient = client
		pingers["redis"] = client
	}

	var (
		kv        cart.KeyValueStore
		snapshots *cart.SnapshotRepository
	)
	switch cfg.Cart.Backend {
	case config.CartBackendRedis:
		kv = redis.NewCartStore(redisClient, cfg.Cart.TTL)
	case config.CartBackendDatabase:
		snapshots = cart.NewSnapshotRepository(dbClient.DB(), cfg.Cart.TTL)
		kv = snapshots
	default:
		logg.Warn(ctx, "cart.memory_backend: carts do not survive restarts")
		kv = cart.NewMemoryStore()
	}

	var catalog promotions.Catalog = promotions.DefaultCatalog()
	if cfg.Promotions.Source == config.PromotionSourceDatabase {
		catalog = promotions.NewRepository(dbClient.DB())
	}

	calc := pricing.NewCalculator(pricing.Rates{
		FreeShippingThreshold: cfg.Pricing.FreeShippingThreshold,
		ShippingFlat:          cfg.Pricing.ShippingFlat,
		TaxRate:               cfg.Pricing.TaxRate,
	})
	sessions, err := cart.NewRegistry(cart.Deps{
		Persister:           cart.NewKVPersister(kv, logg, cartMetrics),
		Catalog:             catalog,
		Calculator:          &calc,
		Notifier:            cart.Notifiers{cart.LogNotifier(logg), cart.MetricsNotifier(cartMetrics)},
		Logger:              logg,
		DefaultStockCeiling: cfg.Pricing.DefaultStockCeiling,
	}, cfg.Cart.SessionCacheSize)
	if err != nil {
		return err
	}

	productClient, err := products.NewClient(cfg.Catalog, nil, logg)
	if err != nil {
		return err
	}
	pingers["catalog"] = productClient

	deps := routes.Dependencies{
		Sessions:        sessions,
		Products:        productClient,
		Metrics:         cartMetrics,
		MetricsGatherer: reg,
		Pingers:         pingers,
	}
	if redisClient != nil {
		deps.RateLimiter = redisClient
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"addr":         addr,
		"instance":     instance.GetID(),
		"cart_backend": cfg.Cart.Backend,
		"promo_source": cfg.Promotions.Source,
	})
	logg.Info(logCtx, "starting api server")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logg.Info(logCtx, "shutting down api server")
		return server.Shutdown(shutdownCtx)
	})
	if snapshots != nil {
		g.Go(func() error {
			purgeExpired(gctx, logg, snapshots, cartMetrics)
			return nil
		})
	}
	return g.Wait()
}

// purgeExpired drops expired cart snapshots until ctx is done.
func purgeExpired(ctx context.Context, logg *logger.Logger, repo *cart.SnapshotRepository, m *metrics.CartMetrics) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			deleted, err := repo.PurgeExpired(ctx)
			m.ObservePurge(deleted, time.Since(start), err)
			if err != nil {
				logg.Error(ctx, "cart.purge_failed", err)
				continue
			}
			if deleted > 0 {
				logg.Info(logg.WithField(ctx, "deleted", deleted), "cart.purge_completed")
			}
		}
	}
}
