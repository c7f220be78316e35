package config

const EnvPrefix = "LFBAG"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	CartStoreRedis = "redis"
	CartStoreDB    = "db"

	defaultSQLiteDSN = "file:storefront.db?cache=shared"
)

const (
	EnvAppEnv        = "LFBAG_APP_ENV"
	EnvPort          = "LFBAG_APP_PORT"
	EnvDBDSN         = "LFBAG_DB_DSN"
	EnvDBDriver      = "LFBAG_DB_DRIVER"
	EnvDBHost        = "LFBAG_DB_HOST"
	EnvDBUser        = "LFBAG_DB_USER"
	EnvDBPassword    = "LFBAG_DB_PASSWORD"
	EnvDBName        = "LFBAG_DB_NAME"
	EnvRedisURL      = "LFBAG_REDIS_URL"
	EnvSessionSecret = "LFBAG_SESSION_SECRET"
	EnvBackendURL    = "LFBAG_BACKEND_URL"
	EnvExpressFee    = "LFBAG_CHECKOUT_EXPRESS_FEE"
	EnvMPPublicKey   = "LFBAG_MP_PUBLIC_KEY"
	EnvMPAccessToken = "LFBAG_MP_ACCESS_TOKEN"
	EnvCORSOrigins   = "LFBAG_CORS_ORIGINS"
	EnvCartStore     = "LFBAG_CART_STORE"
)

var dbPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

var cartStores = []string{CartStoreRedis, CartStoreDB}
