package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Payments      PaymentsConfig
	LiqPay        LiqPayConfig
	Fondy         FondyConfig
	WayForPay     WayForPayConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"RETREATHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"RETREATHUB_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"RETREATHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RETREATHUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"RETREATHUB_DB_DSN"`
	Driver string `envconfig:"RETREATHUB_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"RETREATHUB_DB_HOST"`
	Port     int    `envconfig:"RETREATHUB_DB_PORT" default:"5432"`
	User     string `envconfig:"RETREATHUB_DB_USER"`
	Password string `envconfig:"RETREATHUB_DB_PASSWORD"`
	Name     string `envconfig:"RETREATHUB_DB_NAME"`
	SSLMode  string `envconfig:"RETREATHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RETREATHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RETREATHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RETREATHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RETREATHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either RETREATHUB_DB_DSN or host/user/name parts are required")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"RETREATHUB_REDIS_URL"`
	Address      string        `envconfig:"RETREATHUB_REDIS_ADDR"`
	Password     string        `envconfig:"RETREATHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"RETREATHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RETREATHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RETREATHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RETREATHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RETREATHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RETREATHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"RETREATHUB_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"RETREATHUB_JWT_ISSUER" default:"retreathub"`
	ExpirationMinutes int    `envconfig:"RETREATHUB_JWT_EXPIRATION_MINUTES" default:"720"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"RETREATHUB_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"RETREATHUB_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"RETREATHUB_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"RETREATHUB_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"RETREATHUB_ARGON_KEY_LEN" default:"32"`
}

// AuthRateLimitConfig throttles the credential endpoints per source IP and
// per target email. A zero limit disables the corresponding check.
type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"RETREATHUB_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"RETREATHUB_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"RETREATHUB_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"RETREATHUB_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"RETREATHUB_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"RETREATHUB_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"RETREATHUB_AUTO_MIGRATE" default:"false"`
}

// PaymentsConfig carries the provider-independent payment knobs.
type PaymentsConfig struct {
	CallbackBaseURL string        `envconfig:"RETREATHUB_PAYMENTS_CALLBACK_BASE_URL" required:"true"`
	ReturnURL       string        `envconfig:"RETREATHUB_PAYMENTS_RETURN_URL"`
	CallbackTTL     time.Duration `envconfig:"RETREATHUB_PAYMENTS_CALLBACK_DEDUP_TTL" default:"72h"`
}

type LiqPayConfig struct {
	PublicKey  string `envconfig:"RETREATHUB_LIQPAY_PUBLIC_KEY"`
	PrivateKey string `envconfig:"RETREATHUB_LIQPAY_PRIVATE_KEY"`
	Sandbox    bool   `envconfig:"RETREATHUB_LIQPAY_SANDBOX" default:"true"`
}

type FondyConfig struct {
	MerchantID string `envconfig:"RETREATHUB_FONDY_MERCHANT_ID"`
	SecretKey  string `envconfig:"RETREATHUB_FONDY_SECRET_KEY"`
}

type WayForPayConfig struct {
	MerchantAccount string `envconfig:"RETREATHUB_WAYFORPAY_MERCHANT_ACCOUNT"`
	MerchantDomain  string `envconfig:"RETREATHUB_WAYFORPAY_MERCHANT_DOMAIN"`
	SecretKey       string `envconfig:"RETREATHUB_WAYFORPAY_SECRET_KEY"`
}
