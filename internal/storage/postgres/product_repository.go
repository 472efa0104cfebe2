package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// productRepository — реализация domain.ProductRepository поверх PostgreSQL.
// Update поле stock не трогает: остаток мутирует только inventoryLedger.
type productRepository struct {
	q DBTX
}

const productColumns = `id, name, description, price_minor, stock, image_url, created_at, updated_at`

func (r *productRepository) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = product.CreatedAt

	const query = `
		INSERT INTO products (id, name, description, price_minor, stock, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.q.ExecContext(ctx, query,
		product.ID, product.Name, product.Description, product.PriceMinor,
		product.Stock, product.ImageURL, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		return domain.Product{}, fmt.Errorf("insert product: %w", err)
	}
	return product, nil
}

func (r *productRepository) Get(ctx context.Context, id string) (domain.Product, error) {
	const query = `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

func (r *productRepository) List(ctx context.Context) ([]domain.Product, error) {
	const query = `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC, id`
	return r.scanMany(ctx, query)
}

// Search ищет подстроку в имени и описании без учёта регистра.
func (r *productRepository) Search(ctx context.Context, query string) ([]domain.Product, error) {
	const sqlQuery = `
		SELECT ` + productColumns + `
		FROM products
		WHERE name ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%'
		ORDER BY created_at DESC, id`
	return r.scanMany(ctx, sqlQuery, query)
}

func (r *productRepository) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	product.UpdatedAt = time.Now().UTC()

	const query = `
		UPDATE products
		SET name = $2, description = $3, price_minor = $4, image_url = $5, updated_at = $6
		WHERE id = $1
		RETURNING stock`

	err := r.q.QueryRowContext(ctx, query,
		product.ID, product.Name, product.Description, product.PriceMinor,
		product.ImageURL, product.UpdatedAt).Scan(&product.Stock)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, domain.ErrProductNotFound
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("update product: %w", err)
	}
	return product, nil
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete product rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *productRepository) scanOne(row *sql.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.PriceMinor, &p.Stock, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, domain.ErrProductNotFound
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("scan product: %w", err)
	}
	return p, nil
}

func (r *productRepository) scanMany(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.PriceMinor, &p.Stock, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// inventoryLedger — атомарные операции над складским остатком.
// Reserve опирается на conditional UPDATE: проверка и списание выполняются
// одним оператором, поэтому конкурентные checkout по одному товару не могут
// увести остаток в минус.
type inventoryLedger struct {
	q DBTX
}

func (l *inventoryLedger) Reserve(ctx context.Context, productID string, qty int32) error {
	if qty <= 0 {
		return domain.ErrQuantityInvalid
	}

	const query = `
		UPDATE products
		SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2`

	res, err := l.q.ExecContext(ctx, query, productID, qty)
	if err != nil {
		return fmt.Errorf("reserve stock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reserve stock rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// Списание не прошло: различаем отсутствующий товар и нехватку остатка.
	var name string
	var available int32
	err = l.q.QueryRowContext(ctx, `SELECT name, stock FROM products WHERE id = $1`, productID).
		Scan(&name, &available)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("check stock: %w", err)
	}
	return &domain.InsufficientStockError{
		ProductID:   productID,
		ProductName: name,
		Requested:   qty,
		Available:   available,
	}
}

func (l *inventoryLedger) Release(ctx context.Context, productID string, qty int32) error {
	if qty <= 0 {
		return domain.ErrQuantityInvalid
	}

	const query = `
		UPDATE products
		SET stock = stock + $2, updated_at = now()
		WHERE id = $1`

	res, err := l.q.ExecContext(ctx, query, productID, qty)
	if err != nil {
		return fmt.Errorf("release stock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("release stock rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

var _ domain.ProductRepository = (*productRepository)(nil)
var _ domain.InventoryLedger = (*inventoryLedger)(nil)
