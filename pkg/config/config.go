package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// Cart storage backends.
const (
	CartBackendRedis    = "redis"
	CartBackendDatabase = "database"
	CartBackendMemory   = "memory"
)

// Promotion catalog sources.
const (
	PromotionSourceStatic   = "static"
	PromotionSourceDatabase = "database"
)

type Config struct {
	App        AppConfig
	DB         DBConfig
	Redis      RedisConfig
	Cart       CartConfig
	Pricing    PricingConfig
	Promotions PromotionsConfig
	Catalog    CatalogConfig
	CORS       CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate reports every inconsistency at once.
func (c *Config) Validate() error {
	var err error

	switch c.Cart.Backend {
	case CartBackendRedis:
		if c.Redis.URL == "" && c.Redis.Address == "" {
			err = multierr.Append(err, fmt.Errorf("%s or %s is required for the redis cart backend", EnvRedisURL, EnvRedisAddr))
		}
	case CartBackendDatabase:
		if c.DB.DSN == "" {
			err = multierr.Append(err, fmt.Errorf("%s is required for the database cart backend", EnvDBDSN))
		}
	case CartBackendMemory:
	default:
		err = multierr.Append(err, fmt.Errorf("%s must be one of redis, database, memory (got %q)", EnvCartBackend, c.Cart.Backend))
	}

	switch c.Promotions.Source {
	case PromotionSourceStatic:
	case PromotionSourceDatabase:
		if c.DB.DSN == "" {
			err = multierr.Append(err, fmt.Errorf("%s is required for the database promotion source", EnvDBDSN))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("%s must be static or database (got %q)", EnvPromoSource, c.Promotions.Source))
	}

	if c.DB.DSN != "" && c.DB.Driver != "postgres" && c.DB.Driver != "sqlite" {
		err = multierr.Append(err, fmt.Errorf("%s must be postgres or sqlite (got %q)", EnvDBDriver, c.DB.Driver))
	}
	if c.Pricing.TaxRate.IsNegative() {
		err = multierr.Append(err, errors.New("tax rate must not be negative"))
	}
	if c.Pricing.ShippingFlat.IsNegative() {
		err = multierr.Append(err, errors.New("flat shipping must not be negative"))
	}
	if c.Pricing.DefaultStockCeiling < 1 {
		err = multierr.Append(err, errors.New("default stock ceiling must be at least 1"))
	}
	if c.Cart.SessionCacheSize < 1 {
		err = multierr.Append(err, fmt.Errorf("%s must be positive", EnvSessionCache))
	}
	if c.Promotions.RateLimit < 0 {
		err = multierr.Append(err, fmt.Errorf("%s must not be negative", EnvPromoRateLimit))
	}
	if strings.TrimSpace(c.Catalog.BaseURL) == "" {
		err = multierr.Append(err, fmt.Errorf("%s is required", EnvCatalogURL))
	}
	return err
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// Enabled reports whether a database has been configured at all.
func (d DBConfig) Enabled() bool {
	return strings.TrimSpace(d.DSN) != ""
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"2s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"2s"`
}

// Enabled reports whether a redis endpoint has been configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type CartConfig struct {
	Backend          string        `envconfig:"STOREFRONT_CART_BACKEND" default:"redis"`
	TTL              time.Duration `envconfig:"STOREFRONT_CART_TTL" default:"720h"`
	CookieName       string        `envconfig:"STOREFRONT_CART_COOKIE_NAME" default:"sf_cart_id"`
	CookieSecure     bool          `envconfig:"STOREFRONT_CART_COOKIE_SECURE" default:"true"`
	SessionCacheSize int           `envconfig:"STOREFRONT_CART_SESSION_CACHE_SIZE" default:"10000"`
}

// PricingConfig holds the flat checkout constants.
type PricingConfig struct {
	FreeShippingThreshold decimal.Decimal `envconfig:"STOREFRONT_PRICING_FREE_SHIPPING_THRESHOLD" default:"50"`
	ShippingFlat          decimal.Decimal `envconfig:"STOREFRONT_PRICING_SHIPPING_FLAT" default:"5.99"`
	TaxRate               decimal.Decimal `envconfig:"STOREFRONT_PRICING_TAX_RATE" default:"0.08"`
	DefaultStockCeiling   int             `envconfig:"STOREFRONT_PRICING_DEFAULT_STOCK_CEILING" default:"10"`
}

type PromotionsConfig struct {
	Source string `envconfig:"STOREFRONT_PROMOTIONS_SOURCE" default:"static"`
	// RateLimit caps apply attempts per cart session within RateLimitWindow;
	// zero disables the limiter. Requires redis.
	RateLimit       int           `envconfig:"STOREFRONT_PROMOTIONS_RATE_LIMIT" default:"10"`
	RateLimitWindow time.Duration `envconfig:"STOREFRONT_PROMOTIONS_RATE_LIMIT_WINDOW" default:"1m"`
}

type CatalogConfig struct {
	BaseURL string        `envconfig:"STOREFRONT_CATALOG_BASE_URL" default:"http://localhost:3001/api"`
	Timeout time.Duration `envconfig:"STOREFRONT_CATALOG_TIMEOUT" default:"5s"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"STOREFRONT_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}
