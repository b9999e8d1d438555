package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "stockfolio.db", cfg.DatabaseURL)
	assert.Equal(t, PriceSourceMock, cfg.Price.Source)
	assert.InDelta(t, 0.05, cfg.Price.Jitter, 1e-12)
	assert.Equal(t, 5*time.Second, cfg.Lock.Wait)
	assert.Equal(t, 30*time.Second, cfg.Lock.TTL)
	assert.Equal(t, time.Duration(0), cfg.RevalueInterval)
	assert.Equal(t, []string{"http://localhost:4200", "http://localhost:4201"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.SeedData)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/stocks")
	t.Setenv("PRICE_SOURCE", "STATIC")
	t.Setenv("STATIC_PRICES", "AAPL=175.5")
	t.Setenv("LOCK_WAIT", "250ms")
	t.Setenv("REVALUE_INTERVAL", "1m")
	t.Setenv("SEED_DATA", "TRUE")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, PriceSourceStatic, cfg.Price.Source)
	assert.Equal(t, 250*time.Millisecond, cfg.Lock.Wait)
	assert.Equal(t, time.Minute, cfg.RevalueInterval)
	assert.True(t, cfg.SeedData)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoad_ProductionRequiresDatabase(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			DatabaseURL: ":memory:",
			Price:       PriceConfig{Source: PriceSourceMock, Jitter: 0.05},
			Lock:        LockConfig{Wait: time.Second, TTL: time.Second},
		}
	}

	require.NoError(t, base().Validate())

	c := base()
	c.Price.Source = "bloomberg"
	assert.Error(t, c.Validate())

	c = base()
	c.Price.Jitter = 1
	assert.Error(t, c.Validate())

	c = base()
	c.Price.Source = PriceSourceStatic
	assert.Error(t, c.Validate())

	c = base()
	c.Price.Source = PriceSourceAlpaca
	c.Price.AlpacaAPIKey = "key"
	assert.Error(t, c.Validate())

	c = base()
	c.Lock.Wait = 0
	assert.Error(t, c.Validate())
}
