package config

const (
	EnvPrefix = "KITSTORE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv  = "KITSTORE_APP_ENV"
	EnvPort    = "KITSTORE_APP_PORT"
	EnvLogFile = "KITSTORE_LOG_FILE"

	EnvDBDSN  = "KITSTORE_DB_DSN"
	EnvDBHost = "KITSTORE_DB_HOST"
	EnvDBUser = "KITSTORE_DB_USER"
	EnvDBName = "KITSTORE_DB_NAME"

	EnvRedisURL = "KITSTORE_REDIS_URL"

	EnvJWTSecret              = "KITSTORE_JWT_SECRET"
	EnvJWTIssuer              = "KITSTORE_JWT_ISSUER"
	EnvJWTExpMins             = "KITSTORE_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "KITSTORE_REFRESH_TOKEN_TTL_MINUTES"

	EnvPaystackSecretKey = "KITSTORE_PAYSTACK_SECRET_KEY"

	EnvCheckoutDeliveryFee = "KITSTORE_CHECKOUT_DEFAULT_DELIVERY_FEE"
	EnvCheckoutTaxRate     = "KITSTORE_CHECKOUT_TAX_RATE"
	EnvCheckoutTolerance   = "KITSTORE_CHECKOUT_TOTAL_TOLERANCE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
