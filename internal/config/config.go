package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                string
	Port               string
	DatabaseURL        string   // postgres://... in production; sqlite path or :memory: otherwise
	RedisURL           string   // optional; enables the distributed portfolio lock and request stats
	CORSAllowedOrigins []string // exact origins, "*" allows any
	HealthAdminKey     string
	LogLevel           string
	SeedData           bool
	RevalueInterval    time.Duration // 0 disables the background revaluation job
	Price              PriceConfig
	Lock               LockConfig
}

// PriceConfig selects and tunes the market price oracle.
type PriceConfig struct {
	Source          string // mock | static | alpaca
	Jitter          float64
	Static          string // AAPL=175.5,MSFT=425.3
	AlpacaAPIKey    string
	AlpacaAPISecret string
	AlpacaDataURL   string
}

// LockConfig bounds the per-portfolio lock.
type LockConfig struct {
	Wait time.Duration
	TTL  time.Duration
}

const (
	PriceSourceMock   = "mock"
	PriceSourceStatic = "static"
	PriceSourceAlpaca = "alpaca"
)

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:4200,http://localhost:4201")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PRICE_SOURCE", PriceSourceMock)
	v.SetDefault("PRICE_JITTER", 0.05)
	v.SetDefault("LOCK_WAIT", "5s")
	v.SetDefault("LOCK_TTL", "30s")
	v.SetDefault("REVALUE_INTERVAL", "0s")

	env := v.GetString("APP_ENV")
	dbURL := v.GetString("DATABASE_URL")
	if dbURL == "" && env != "production" {
		dbURL = "stockfolio.db"
	}

	cfg := &Config{
		Env:                env,
		Port:               v.GetString("PORT"),
		DatabaseURL:        dbURL,
		RedisURL:           v.GetString("REDIS_URL"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		HealthAdminKey:     v.GetString("HEALTH_ADMIN_KEY"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		SeedData:           strings.EqualFold(v.GetString("SEED_DATA"), "true"),
		RevalueInterval:    v.GetDuration("REVALUE_INTERVAL"),
		Price: PriceConfig{
			Source:          strings.ToLower(strings.TrimSpace(v.GetString("PRICE_SOURCE"))),
			Jitter:          v.GetFloat64("PRICE_JITTER"),
			Static:          v.GetString("STATIC_PRICES"),
			AlpacaAPIKey:    v.GetString("ALPACA_API_KEY"),
			AlpacaAPISecret: v.GetString("ALPACA_API_SECRET"),
			AlpacaDataURL:   v.GetString("ALPACA_DATA_URL"),
		},
		Lock: LockConfig{
			Wait: v.GetDuration("LOCK_WAIT"),
			TTL:  v.GetDuration("LOCK_TTL"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required in production")
	}
	switch c.Price.Source {
	case PriceSourceMock:
		if c.Price.Jitter < 0 || c.Price.Jitter >= 1 {
			return fmt.Errorf("PRICE_JITTER must be in [0, 1), got %v", c.Price.Jitter)
		}
	case PriceSourceStatic:
		if strings.TrimSpace(c.Price.Static) == "" {
			return errors.New("STATIC_PRICES is required when PRICE_SOURCE=static")
		}
	case PriceSourceAlpaca:
		if c.Price.AlpacaAPIKey == "" || c.Price.AlpacaAPISecret == "" {
			return errors.New("ALPACA_API_KEY and ALPACA_API_SECRET are required when PRICE_SOURCE=alpaca")
		}
	default:
		return fmt.Errorf("unknown PRICE_SOURCE %q", c.Price.Source)
	}
	if c.Lock.Wait <= 0 {
		return errors.New("LOCK_WAIT must be positive")
	}
	if c.Lock.TTL <= 0 {
		return errors.New("LOCK_TTL must be positive")
	}
	if c.RevalueInterval < 0 {
		return errors.New("REVALUE_INTERVAL must not be negative")
	}
	return nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
