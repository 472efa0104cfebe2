package app

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/cache"
	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
	"github.com/vladislavdragonenkov/shop/internal/storage/postgres"
)

// Dependencies содержит инфраструктурные зависимости приложения.
type Dependencies struct {
	Store    domain.Store
	Cache    cache.Cache
	Producer *kafka.Producer
	Logger   *log.Entry

	closers []func() error
}

// NewDependencies инициализирует хранилище, кэш и Kafka по конфигурации.
// Недоступный Kafka не фатален: сервис работает, события копятся в outbox.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}
	deps := &Dependencies{Logger: logger}

	if cfg.PostgresDSN != "" {
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		deps.Store = store
		deps.closers = append(deps.closers, store.Close)
		logger.Info("postgres storage initialized")
	} else {
		deps.Store = memory.NewStore()
		logger.Warn("DATABASE_URL is not set, using in-memory storage")
	}

	if cfg.RedisAddr != "" {
		c := cache.NewRedisCache(cfg.RedisAddr, "shop")
		if err := c.Ping(ctx); err != nil {
			logger.WithError(err).Warn("redis is unreachable, falling back to in-process cache")
			_ = c.Close()
			deps.Cache = cache.NewMemoryCache("shop")
		} else {
			deps.Cache = c
			deps.closers = append(deps.closers, c.Close)
			logger.WithField("addr", cfg.RedisAddr).Info("redis cache initialized")
		}
	} else {
		deps.Cache = cache.NewMemoryCache("shop")
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		} else {
			deps.Producer = producer
			deps.closers = append(deps.closers, producer.Close)
			logger.WithField("brokers", cfg.KafkaBrokers).Info("kafka producer initialized")
		}
	}

	return deps, nil
}

// Close освобождает ресурсы в порядке, обратном инициализации.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			d.Logger.WithError(err).Warn("failed to close dependency")
		}
	}
}
