package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("SHOP_JWT_SECRET", "unit-test-secret")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Empty(t, cfg.PostgresDSN)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("SHOP_JWT_SECRET", "unit-test-secret")
	t.Setenv("SHOP_HTTP_ADDR", ":8181")
	t.Setenv("SHOP_METRICS_ADDR", ":9191")
	t.Setenv("DATABASE_URL", "postgres://localhost/shop")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092,broker-2:9092")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("SHOP_TOKEN_TTL", "30m")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8181", cfg.HTTPAddr)
	assert.Equal(t, ":9191", cfg.MetricsAddr)
	assert.Equal(t, "postgres://localhost/shop", cfg.PostgresDSN)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
}

func TestConfigFromEnvRequiresSecret(t *testing.T) {
	t.Setenv("SHOP_JWT_SECRET", "")

	_, err := ConfigFromEnv()
	assert.ErrorIs(t, err, ErrJWTSecretRequired)
}

func TestConfigFromEnvRejectsBadTTL(t *testing.T) {
	t.Setenv("SHOP_JWT_SECRET", "unit-test-secret")
	t.Setenv("SHOP_TOKEN_TTL", "not-a-duration")

	_, err := ConfigFromEnv()
	assert.Error(t, err)
}
