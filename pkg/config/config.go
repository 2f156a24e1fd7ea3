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
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	BigQuery      BigQueryConfig
	Outbox        OutboxConfig
	Paystack      PaystackConfig
	AWS           AWSConfig
	Email         EmailConfig
	SMS           SMSConfig
	Storage       StorageConfig
	Checkout      CheckoutConfig
	Cron          CronConfig
	CORS          CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"KITSTORE_APP_ENV" required:"true"`
	Port         string `envconfig:"KITSTORE_APP_PORT" required:"true"`
	PublicURL    string `envconfig:"KITSTORE_APP_PUBLIC_URL" default:"http://localhost:3000"`
	LogLevel     string `envconfig:"KITSTORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KITSTORE_LOG_WARN_STACK" default:"false"`
	LogFile      string `envconfig:"KITSTORE_LOG_FILE"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"KITSTORE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"KITSTORE_DB_DSN"`
	Driver string `envconfig:"KITSTORE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"KITSTORE_DB_HOST"`
	LegacyPort     int    `envconfig:"KITSTORE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"KITSTORE_DB_USER"`
	LegacyPassword string `envconfig:"KITSTORE_DB_PASSWORD"`
	LegacyName     string `envconfig:"KITSTORE_DB_NAME"`
	LegacySSLMode  string `envconfig:"KITSTORE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KITSTORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KITSTORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KITSTORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KITSTORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"KITSTORE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"KITSTORE_REDIS_ADDR"`
	Password     string        `envconfig:"KITSTORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"KITSTORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KITSTORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KITSTORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KITSTORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KITSTORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KITSTORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"KITSTORE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"KITSTORE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"KITSTORE_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"KITSTORE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"KITSTORE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"KITSTORE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"KITSTORE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"KITSTORE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"KITSTORE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"KITSTORE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit       int           `envconfig:"KITSTORE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	PaymentInitWindow  time.Duration `envconfig:"KITSTORE_RATE_LIMIT_PAYMENT_INIT_WINDOW" default:"1m"`
	PaymentInitIPLimit int           `envconfig:"KITSTORE_RATE_LIMIT_PAYMENT_INIT_IP_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate          bool `envconfig:"KITSTORE_AUTO_MIGRATE" default:"false"`
	VerifyPayments       bool `envconfig:"KITSTORE_FEATURE_VERIFY_PAYMENTS" default:"true"`
	SMSNotifications     bool `envconfig:"KITSTORE_FEATURE_SMS_NOTIFICATIONS" default:"true"`
	EmailNotifications   bool `envconfig:"KITSTORE_FEATURE_EMAIL_NOTIFICATIONS" default:"true"`
	AnalyticsIngestion   bool `envconfig:"KITSTORE_FEATURE_ANALYTICS" default:"true"`
	LeagueCacheEnabled   bool `envconfig:"KITSTORE_FEATURE_LEAGUE_CACHE" default:"true"`
	StrictStatusProgress bool `envconfig:"KITSTORE_FEATURE_STRICT_STATUS" default:"true"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"KITSTORE_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"KITSTORE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"KITSTORE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"KITSTORE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic              string `envconfig:"KITSTORE_PUBSUB_ORDERS_TOPIC" default:"ks-order-events"`
	NotificationSubscription string `envconfig:"KITSTORE_PUBSUB_NOTIFICATION_SUBSCRIPTION" default:"ks-order-events-notifications"`
	AnalyticsSubscription    string `envconfig:"KITSTORE_PUBSUB_ANALYTICS_SUBSCRIPTION" default:"ks-order-events-analytics"`
}

type BigQueryConfig struct {
	Dataset     string `envconfig:"KITSTORE_BIGQUERY_DATASET" default:"kitstore"`
	OrdersTable string `envconfig:"KITSTORE_BIGQUERY_ORDERS_TABLE" default:"order_events"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"KITSTORE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"KITSTORE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"KITSTORE_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Retention      time.Duration `envconfig:"KITSTORE_OUTBOX_RETENTION" default:"720h"`
}

type PaystackConfig struct {
	SecretKey   string `envconfig:"KITSTORE_PAYSTACK_SECRET_KEY"`
	BaseURL     string `envconfig:"KITSTORE_PAYSTACK_BASE_URL" default:"https://api.paystack.co"`
	CallbackURL string `envconfig:"KITSTORE_PAYSTACK_CALLBACK_URL"`
	Currency    string `envconfig:"KITSTORE_PAYSTACK_CURRENCY" default:"GHS"`
}

type AWSConfig struct {
	Region string `envconfig:"KITSTORE_AWS_REGION" default:"eu-west-1"`
}

type EmailConfig struct {
	FromAddress  string `envconfig:"KITSTORE_EMAIL_FROM_ADDRESS"`
	FromName     string `envconfig:"KITSTORE_EMAIL_FROM_NAME" default:"KitStore"`
	AdminAddress string `envconfig:"KITSTORE_EMAIL_ADMIN_ADDRESS"`
}

// Enabled reports whether outbound email has a sender identity.
func (e EmailConfig) Enabled() bool {
	return strings.TrimSpace(e.FromAddress) != ""
}

type SMSConfig struct {
	BaseURL  string `envconfig:"KITSTORE_SMS_BASE_URL"`
	APIKey   string `envconfig:"KITSTORE_SMS_API_KEY"`
	SenderID string `envconfig:"KITSTORE_SMS_SENDER_ID" default:"KitStore"`
}

// Enabled reports whether an SMS gateway is configured.
func (s SMSConfig) Enabled() bool {
	return strings.TrimSpace(s.BaseURL) != "" && strings.TrimSpace(s.APIKey) != ""
}

type StorageConfig struct {
	Bucket          string        `envconfig:"KITSTORE_S3_BUCKET"`
	PublicBaseURL   string        `envconfig:"KITSTORE_S3_PUBLIC_BASE_URL"`
	UploadURLExpiry time.Duration `envconfig:"KITSTORE_S3_UPLOAD_URL_EXPIRY" default:"15m"`
}

type CheckoutConfig struct {
	DefaultDeliveryFee string        `envconfig:"KITSTORE_CHECKOUT_DEFAULT_DELIVERY_FEE" default:"0"`
	TaxRate            string        `envconfig:"KITSTORE_CHECKOUT_TAX_RATE" default:"0"`
	TotalTolerance     string        `envconfig:"KITSTORE_CHECKOUT_TOTAL_TOLERANCE" default:"0.50"`
	PaymentGracePeriod time.Duration `envconfig:"KITSTORE_CHECKOUT_PAYMENT_GRACE_PERIOD" default:"10m"`
	PaymentAbandonTTL  time.Duration `envconfig:"KITSTORE_CHECKOUT_PAYMENT_ABANDON_TTL" default:"24h"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"KITSTORE_CRON_INTERVAL" default:"5m"`
	LockTTL  time.Duration `envconfig:"KITSTORE_CRON_LOCK_TTL" default:"4m"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"KITSTORE_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (c CheckoutConfig) validate() error {
	_, err := c.Amounts()
	return err
}

// CheckoutAmounts holds the parsed monetary settings used when pricing orders.
type CheckoutAmounts struct {
	DefaultDeliveryFee decimal.Decimal
	TaxRate            decimal.Decimal
	TotalTolerance     decimal.Decimal
}

// Amounts parses the decimal checkout settings.
func (c CheckoutConfig) Amounts() (CheckoutAmounts, error) {
	var out CheckoutAmounts
	fields := []struct {
		env  string
		raw  string
		dest *decimal.Decimal
	}{
		{EnvCheckoutDeliveryFee, c.DefaultDeliveryFee, &out.DefaultDeliveryFee},
		{EnvCheckoutTaxRate, c.TaxRate, &out.TaxRate},
		{EnvCheckoutTolerance, c.TotalTolerance, &out.TotalTolerance},
	}
	for _, f := range fields {
		value, err := decimal.NewFromString(strings.TrimSpace(f.raw))
		if err != nil {
			return CheckoutAmounts{}, fmt.Errorf("%s must be a decimal number: %w", f.env, err)
		}
		if value.IsNegative() {
			return CheckoutAmounts{}, fmt.Errorf("%s must not be negative", f.env)
		}
		*f.dest = value
	}
	return out, nil
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
