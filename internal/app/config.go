package app

import (
	"errors"
	"os"
	"strings"
	"time"
)

// ErrJWTSecretRequired возвращается, когда приложение запускают без секрета
// для подписи токенов.
var ErrJWTSecretRequired = errors.New("SHOP_JWT_SECRET is required")

// Config описывает настройки запуска приложения.
type Config struct {
	HTTPAddr    string
	MetricsAddr string

	// PostgresDSN пустой — хранилище в памяти (режим разработки).
	PostgresDSN string
	// KafkaBrokers пустой — события остаются в outbox и не публикуются.
	KafkaBrokers []string
	// RedisAddr пустой — кэш каталога работает в памяти процесса.
	RedisAddr string

	JWTSecret string
	TokenTTL  time.Duration

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
}

// DefaultConfig возвращает базовые настройки для локального запуска.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:           ":8080",
		MetricsAddr:        ":9090",
		TokenTTL:           24 * time.Hour,
		OutboxPollInterval: 2 * time.Second,
		OutboxBatchSize:    50,
	}
}

// ConfigFromEnv собирает конфигурацию из переменных окружения поверх
// значений по умолчанию.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("SHOP_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("SHOP_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.PostgresDSN = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("SHOP_TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, err
		}
		cfg.TokenTTL = ttl
	}

	cfg.JWTSecret = os.Getenv("SHOP_JWT_SECRET")
	if cfg.JWTSecret == "" {
		return Config{}, ErrJWTSecretRequired
	}

	return cfg, nil
}
