package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "https://fakestoreapi.com", cfg.Catalog.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Catalog.Timeout)
	assert.Equal(t, "cart", cfg.Cart.KeyPrefix)
	assert.Equal(t, "0.10", cfg.Cart.TaxRate)
	assert.Equal(t, 10000, cfg.Cart.MaxSessions)
	assert.Equal(t, 30*time.Minute, cfg.Cart.SessionIdleTimeout)
	assert.Equal(t, time.Duration(0), cfg.Redis.TTL)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "redis")
	t.Setenv("CATALOG_BASE_URL", "https://api.escuelajs.co/api/v1/")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REDIS_CART_TTL", "24h")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("CART_MAX_SESSIONS", "500")
	t.Setenv("CART_SESSION_IDLE_TIMEOUT", "5m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Storage.Driver)
	assert.Equal(t, "https://api.escuelajs.co/api/v1", cfg.Catalog.BaseURL)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 500, cfg.Cart.MaxSessions)
	assert.Equal(t, 5*time.Minute, cfg.Cart.SessionIdleTimeout)
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")

	_, err := Load()
	assert.Error(t, err)
}

func TestParseDuration_Fallback(t *testing.T) {
	assert.Equal(t, 5*time.Second, parseDuration("soon", 5*time.Second))
	assert.Equal(t, time.Minute, parseDuration("1m", 5*time.Second))
}
