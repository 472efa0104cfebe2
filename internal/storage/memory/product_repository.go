package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

type productRepository struct {
	s    *Store
	inTx bool
}

func (r *productRepository) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	err := r.s.withWrite(r.inTx, func(d *data) error {
		if product.ID == "" {
			product.ID = uuid.NewString()
		}
		now := time.Now().UTC()
		if product.CreatedAt.IsZero() {
			product.CreatedAt = now
		}
		product.UpdatedAt = product.CreatedAt

		d.products[product.ID] = product
		d.seq(product.ID)
		return nil
	})
	if err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func (r *productRepository) Get(ctx context.Context, id string) (domain.Product, error) {
	var product domain.Product
	err := r.s.withRead(r.inTx, func(d *data) error {
		p, ok := d.products[id]
		if !ok {
			return domain.ErrProductNotFound
		}
		product = p
		return nil
	})
	return product, err
}

func (r *productRepository) List(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	err := r.s.withRead(r.inTx, func(d *data) error {
		products = collectProducts(d, func(domain.Product) bool { return true })
		return nil
	})
	return products, err
}

func (r *productRepository) Search(ctx context.Context, query string) ([]domain.Product, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	var products []domain.Product
	err := r.s.withRead(r.inTx, func(d *data) error {
		products = collectProducts(d, func(p domain.Product) bool {
			return strings.Contains(strings.ToLower(p.Name), q) ||
				strings.Contains(strings.ToLower(p.Description), q)
		})
		return nil
	})
	return products, err
}

// Update перезаписывает карточку товара; складской остаток не трогает —
// он принадлежит InventoryLedger.
func (r *productRepository) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	err := r.s.withWrite(r.inTx, func(d *data) error {
		current, ok := d.products[product.ID]
		if !ok {
			return domain.ErrProductNotFound
		}

		product.Stock = current.Stock
		product.CreatedAt = current.CreatedAt
		product.UpdatedAt = time.Now().UTC()
		d.products[product.ID] = product
		return nil
	})
	if err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	return r.s.withWrite(r.inTx, func(d *data) error {
		if _, ok := d.products[id]; !ok {
			return domain.ErrProductNotFound
		}
		delete(d.products, id)
		return nil
	})
}

func collectProducts(d *data, keep func(domain.Product) bool) []domain.Product {
	result := make([]domain.Product, 0, len(d.products))
	for _, p := range d.products {
		if keep(p) {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return d.seqs[result[i].ID] > d.seqs[result[j].ID]
	})
	return result
}

var _ domain.ProductRepository = (*productRepository)(nil)

// inventoryLedger реализует атомарный conditional decrement поверх карты
// товаров. Сериализуемость обеспечивает блокировка Store.
type inventoryLedger struct {
	s    *Store
	inTx bool
}

func (l *inventoryLedger) Reserve(ctx context.Context, productID string, qty int32) error {
	if qty <= 0 {
		return domain.ErrQuantityInvalid
	}
	return l.s.withWrite(l.inTx, func(d *data) error {
		p, ok := d.products[productID]
		if !ok {
			return domain.ErrProductNotFound
		}
		if p.Stock < qty {
			return &domain.InsufficientStockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Requested:   qty,
				Available:   p.Stock,
			}
		}
		p.Stock -= qty
		p.UpdatedAt = time.Now().UTC()
		d.products[productID] = p
		return nil
	})
}

func (l *inventoryLedger) Release(ctx context.Context, productID string, qty int32) error {
	if qty <= 0 {
		return domain.ErrQuantityInvalid
	}
	return l.s.withWrite(l.inTx, func(d *data) error {
		p, ok := d.products[productID]
		if !ok {
			return domain.ErrProductNotFound
		}
		p.Stock += qty
		p.UpdatedAt = time.Now().UTC()
		d.products[productID] = p
		return nil
	})
}

var _ domain.InventoryLedger = (*inventoryLedger)(nil)
