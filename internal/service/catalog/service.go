package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/cache"
	"github.com/vladislavdragonenkov/shop/internal/domain"
)

const (
	cacheOpProduct = "product"
	cacheOpList    = "list"
	cacheListKey   = "all"

	defaultCacheTTL = 5 * time.Minute
)

// Service — каталог товаров. Чтения проходят через кэш, мутации каталога
// инвалидируют его. Поле Stock через Update не меняется: остаток живёт
// в ведении checkout-транзакции.
type Service struct {
	store    domain.Store
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *log.Entry
}

// NewService создаёт сервис каталога. cache может быть nil — тогда все
// чтения идут напрямую в хранилище.
func NewService(store domain.Store, c cache.Cache, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "catalog")
	}
	return &Service{
		store:    store,
		cache:    c,
		cacheTTL: defaultCacheTTL,
		logger:   logger,
	}
}

// Create добавляет товар в каталог.
func (s *Service) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	if errs := product.ValidateInvariants(); len(errs) > 0 {
		return domain.Product{}, errs[0]
	}

	created, err := s.store.Products().Create(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	s.invalidateList(ctx)
	s.logger.WithFields(log.Fields{
		"product_id": created.ID,
		"name":       created.Name,
	}).Info("product created")
	return created, nil
}

// Get возвращает товар, используя кэш.
func (s *Service) Get(ctx context.Context, id string) (domain.Product, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, s.cache.Key(cacheOpProduct, id)); err == nil {
			var product domain.Product
			if err := json.Unmarshal(raw, &product); err == nil {
				return product, nil
			}
		} else if !errors.Is(err, cache.ErrMiss) {
			s.logger.WithError(err).Debug("product cache read failed")
		}
	}

	product, err := s.store.Products().Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	s.cacheProduct(ctx, product)
	return product, nil
}

// List возвращает каталог целиком, используя кэш.
func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, s.cache.Key(cacheOpList, cacheListKey)); err == nil {
			var products []domain.Product
			if err := json.Unmarshal(raw, &products); err == nil {
				return products, nil
			}
		} else if !errors.Is(err, cache.ErrMiss) {
			s.logger.WithError(err).Debug("catalog cache read failed")
		}
	}

	products, err := s.store.Products().List(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(products); err == nil {
			_ = s.cache.Set(ctx, s.cache.Key(cacheOpList, cacheListKey), raw, s.cacheTTL)
		}
	}
	return products, nil
}

// Search ищет товары по подстроке в имени и описании. Поиск кэш не использует.
func (s *Service) Search(ctx context.Context, query string) ([]domain.Product, error) {
	if query == "" {
		return s.List(ctx)
	}
	return s.store.Products().Search(ctx, query)
}

// Update обновляет атрибуты товара. Stock игнорируется.
func (s *Service) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	if errs := product.ValidateInvariants(); len(errs) > 0 {
		return domain.Product{}, errs[0]
	}

	updated, err := s.store.Products().Update(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	s.invalidate(ctx, updated.ID)
	s.logger.WithField("product_id", updated.ID).Info("product updated")
	return updated, nil
}

// Delete удаляет товар из каталога.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Products().Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	s.logger.WithField("product_id", id).Info("product deleted")
	return nil
}

func (s *Service) cacheProduct(ctx context.Context, product domain.Product) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(product)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cache.Key(cacheOpProduct, product.ID), raw, s.cacheTTL); err != nil {
		s.logger.WithError(err).Debug("product cache write failed")
	}
}

func (s *Service) invalidate(ctx context.Context, productID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx,
		s.cache.Key(cacheOpProduct, productID),
		s.cache.Key(cacheOpList, cacheListKey)); err != nil {
		s.logger.WithError(err).Debug("cache invalidation failed")
	}
}

func (s *Service) invalidateList(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.cache.Key(cacheOpList, cacheListKey)); err != nil {
		s.logger.WithError(err).Debug("cache invalidation failed")
	}
}
