package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Session      SessionConfig
	Backend      BackendConfig
	Checkout     CheckoutConfig
	MercadoPago  MercadoPagoConfig
	ViaCEP       ViaCEPConfig
	AdminAuth    AdminAuthConfig
	CORS         CORSConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.Checkout.ExpressFeeAmount(); err != nil {
		return nil, err
	}
	if !cfg.FeatureFlags.validCartStore() {
		return nil, fmt.Errorf("%s must be one of %s", EnvCartStore, strings.Join(cartStores, ", "))
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LFBAG_APP_ENV" required:"true"`
	Port         string `envconfig:"LFBAG_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"LFBAG_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"LFBAG_LOG_FORMAT"`
	LogWarnStack bool   `envconfig:"LFBAG_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"LFBAG_DB_DSN"`
	Driver string `envconfig:"LFBAG_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"LFBAG_DB_HOST"`
	Port     int    `envconfig:"LFBAG_DB_PORT" default:"5432"`
	User     string `envconfig:"LFBAG_DB_USER"`
	Password string `envconfig:"LFBAG_DB_PASSWORD"`
	Name     string `envconfig:"LFBAG_DB_NAME"`
	SSLMode  string `envconfig:"LFBAG_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LFBAG_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"LFBAG_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"LFBAG_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LFBAG_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite dialect is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"LFBAG_REDIS_URL"`
	Address      string        `envconfig:"LFBAG_REDIS_ADDR"`
	Password     string        `envconfig:"LFBAG_REDIS_PASSWORD"`
	DB           int           `envconfig:"LFBAG_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LFBAG_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LFBAG_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LFBAG_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LFBAG_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"LFBAG_REDIS_WRITE_TIMEOUT" default:"3s"`
}

// SessionConfig drives the storefront session cookie.
type SessionConfig struct {
	Secret     string        `envconfig:"LFBAG_SESSION_SECRET" required:"true"`
	CookieName string        `envconfig:"LFBAG_SESSION_COOKIE" default:"lfbag_session"`
	MaxAge     time.Duration `envconfig:"LFBAG_SESSION_MAX_AGE" default:"720h"`
	Secure     bool          `envconfig:"LFBAG_SESSION_SECURE" default:"false"`
}

type BackendConfig struct {
	BaseURL string        `envconfig:"LFBAG_BACKEND_URL" default:"http://localhost:8000"`
	Timeout time.Duration `envconfig:"LFBAG_BACKEND_TIMEOUT" default:"10s"`
}

type CheckoutConfig struct {
	ExpressFee  string        `envconfig:"LFBAG_CHECKOUT_EXPRESS_FEE" default:"20.00"`
	Description string        `envconfig:"LFBAG_CHECKOUT_DESCRIPTION" default:"Pedido LF Bag"`
	CartTTL     time.Duration `envconfig:"LFBAG_CHECKOUT_CART_TTL" default:"720h"`
	LockTTL     time.Duration `envconfig:"LFBAG_CHECKOUT_LOCK_TTL" default:"45s"`
}

// ExpressFeeAmount parses the flat express shipping fee.
func (c CheckoutConfig) ExpressFeeAmount() (decimal.Decimal, error) {
	raw := strings.TrimSpace(c.ExpressFee)
	if raw == "" {
		return decimal.Zero, nil
	}
	fee, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", EnvExpressFee, err)
	}
	if fee.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", EnvExpressFee)
	}
	return fee, nil
}

type MercadoPagoConfig struct {
	PublicKey   string        `envconfig:"LFBAG_MP_PUBLIC_KEY"`
	AccessToken string        `envconfig:"LFBAG_MP_ACCESS_TOKEN"`
	BaseURL     string        `envconfig:"LFBAG_MP_BASE_URL" default:"https://api.mercadopago.com"`
	Timeout     time.Duration `envconfig:"LFBAG_MP_TIMEOUT" default:"10s"`
}

type ViaCEPConfig struct {
	BaseURL string        `envconfig:"LFBAG_VIACEP_URL" default:"https://viacep.com.br/ws"`
	Timeout time.Duration `envconfig:"LFBAG_VIACEP_TIMEOUT" default:"5s"`
}

// AdminAuthConfig controls the admin bearer check. An empty secret means the
// token payload is decoded without signature verification.
type AdminAuthConfig struct {
	JWTSecret string `envconfig:"LFBAG_ADMIN_JWT_SECRET"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"LFBAG_CORS_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}

type FeatureFlagsConfig struct {
	CartStore   string `envconfig:"LFBAG_CART_STORE" default:"redis"`
	AutoMigrate bool   `envconfig:"LFBAG_AUTO_MIGRATE" default:"false"`
}

// CartStoreIsDB reports whether carts persist to the relational store.
func (f FeatureFlagsConfig) CartStoreIsDB() bool {
	return strings.EqualFold(strings.TrimSpace(f.CartStore), CartStoreDB)
}

func (f FeatureFlagsConfig) validCartStore() bool {
	value := strings.ToLower(strings.TrimSpace(f.CartStore))
	for _, candidate := range cartStores {
		if candidate == value {
			return true
		}
	}
	return false
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = defaultSQLiteDSN
		return nil
	}

	missing := []string{}
	parts := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, key := range dbPartEnvVars {
		if parts[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
