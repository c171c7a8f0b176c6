package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable consumed by the engine.
const EnvPrefix = "zikomart"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	Pricing PricingConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ZIKOMART_APP_ENV" default:"development"`
	LogLevel     string `envconfig:"ZIKOMART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ZIKOMART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"ZIKOMART_DB_DSN" required:"true"`

	MaxOpenConns    int           `envconfig:"ZIKOMART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ZIKOMART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ZIKOMART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ZIKOMART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ZIKOMART_REDIS_URL"`
	Address      string        `envconfig:"ZIKOMART_REDIS_ADDR"`
	Password     string        `envconfig:"ZIKOMART_REDIS_PASSWORD"`
	DB           int           `envconfig:"ZIKOMART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ZIKOMART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ZIKOMART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ZIKOMART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ZIKOMART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ZIKOMART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// PricingConfig carries the knobs consumed by the pricing core itself.
type PricingConfig struct {
	DefaultCurrency string        `envconfig:"ZIKOMART_DEFAULT_CURRENCY" default:"MWK"`
	RateCacheTTL    time.Duration `envconfig:"ZIKOMART_RATE_CACHE_TTL" default:"5m"`
	BracketCacheTTL time.Duration `envconfig:"ZIKOMART_BRACKET_CACHE_TTL" default:"5m"`
	PromoCacheTTL   time.Duration `envconfig:"ZIKOMART_PROMO_CACHE_TTL" default:"3m"`
	CartTokenTTL    time.Duration `envconfig:"ZIKOMART_CART_TOKEN_TTL" default:"720h"`
}

func (p PricingConfig) validate() error {
	code := strings.ToUpper(strings.TrimSpace(p.DefaultCurrency))
	if len(code) != 3 {
		return fmt.Errorf("default currency must be a 3-letter code, got %q", p.DefaultCurrency)
	}
	return nil
}

// NormalizedDefaultCurrency returns the default currency in canonical upper case.
func (p PricingConfig) NormalizedDefaultCurrency() string {
	return strings.ToUpper(strings.TrimSpace(p.DefaultCurrency))
}
