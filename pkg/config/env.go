package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv         = "STOREFRONT_APP_ENV"
	EnvPort           = "STOREFRONT_APP_PORT"
	EnvLogLevel       = "STOREFRONT_LOG_LEVEL"
	EnvLogFormat      = "STOREFRONT_LOG_FORMAT"
	EnvDBDSN          = "STOREFRONT_DB_DSN"
	EnvDBDriver       = "STOREFRONT_DB_DRIVER"
	EnvRedisURL       = "STOREFRONT_REDIS_URL"
	EnvRedisAddr      = "STOREFRONT_REDIS_ADDR"
	EnvCartBackend    = "STOREFRONT_CART_BACKEND"
	EnvCartTTL        = "STOREFRONT_CART_TTL"
	EnvCatalogURL     = "STOREFRONT_CATALOG_BASE_URL"
	EnvPromoSource    = "STOREFRONT_PROMOTIONS_SOURCE"
	EnvTaxRate        = "STOREFRONT_PRICING_TAX_RATE"
	EnvPromoRateLimit = "STOREFRONT_PROMOTIONS_RATE_LIMIT"
	EnvCORSOrigins    = "STOREFRONT_CORS_ALLOWED_ORIGINS"
	EnvAutoMigrate    = "STOREFRONT_AUTO_MIGRATE"
	EnvSessionCache   = "STOREFRONT_CART_SESSION_CACHE_SIZE"
)
