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

// cartRepository — реализация domain.CartRepository поверх PostgreSQL.
// Одна корзина на пользователя (unique user_id), одна позиция на пару
// (cart_id, product_id) — обе уникальности держит схема.
type cartRepository struct {
	q DBTX
}

const cartItemColumns = `id, cart_id, product_id, qty, created_at, updated_at`

func (r *cartRepository) GetByUser(ctx context.Context, userID string) (domain.Cart, error) {
	const query = `SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = $1`

	var c domain.Cart
	err := r.q.QueryRowContext(ctx, query, userID).Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("select cart: %w", err)
	}
	return c, nil
}

// Create создаёт пустую корзину. Повторный вызов для того же пользователя
// возвращает уже существующую корзину.
func (r *cartRepository) Create(ctx context.Context, userID string) (domain.Cart, error) {
	now := time.Now().UTC()
	cart := domain.Cart{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	const query = `
		INSERT INTO carts (id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO NOTHING`

	res, err := r.q.ExecContext(ctx, query, cart.ID, cart.UserID, cart.CreatedAt, cart.UpdatedAt)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("insert cart: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Cart{}, fmt.Errorf("insert cart rows affected: %w", err)
	}
	if affected == 0 {
		return r.GetByUser(ctx, userID)
	}
	return cart, nil
}

func (r *cartRepository) Items(ctx context.Context, cartID string) ([]domain.CartItem, error) {
	const query = `SELECT ` + cartItemColumns + ` FROM cart_items WHERE cart_id = $1 ORDER BY created_at, id`

	rows, err := r.q.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("select cart items: %w", err)
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.Qty, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *cartRepository) GetItem(ctx context.Context, itemID string) (domain.CartItem, error) {
	const query = `SELECT ` + cartItemColumns + ` FROM cart_items WHERE id = $1`
	return r.scanItem(r.q.QueryRowContext(ctx, query, itemID))
}

func (r *cartRepository) FindItemByProduct(ctx context.Context, cartID, productID string) (domain.CartItem, error) {
	const query = `SELECT ` + cartItemColumns + ` FROM cart_items WHERE cart_id = $1 AND product_id = $2`
	return r.scanItem(r.q.QueryRowContext(ctx, query, cartID, productID))
}

func (r *cartRepository) AddItem(ctx context.Context, item domain.CartItem) (domain.CartItem, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = item.CreatedAt

	const query = `
		INSERT INTO cart_items (id, cart_id, product_id, qty, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.q.ExecContext(ctx, query,
		item.ID, item.CartID, item.ProductID, item.Qty, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		// Конкурентная вставка той же пары (cart_id, product_id): повтор
		// операции свернётся в слияние количеств.
		if isUniqueViolation(err) {
			return domain.CartItem{}, fmt.Errorf("insert cart item: %w", domain.ErrStoreUnavailable)
		}
		return domain.CartItem{}, fmt.Errorf("insert cart item: %w", err)
	}
	return item, nil
}

func (r *cartRepository) UpdateItemQty(ctx context.Context, itemID string, qty int32) (domain.CartItem, error) {
	const query = `
		UPDATE cart_items
		SET qty = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + cartItemColumns

	item, err := r.scanItem(r.q.QueryRowContext(ctx, query, itemID, qty))
	if err != nil {
		return domain.CartItem{}, err
	}
	return item, nil
}

func (r *cartRepository) DeleteItem(ctx context.Context, itemID string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete cart item rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrCartItemNotFound
	}
	return nil
}

// Clear удаляет все позиции, сама корзина остаётся.
func (r *cartRepository) Clear(ctx context.Context, cartID string) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (r *cartRepository) scanItem(row *sql.Row) (domain.CartItem, error) {
	var item domain.CartItem
	err := row.Scan(&item.ID, &item.CartID, &item.ProductID, &item.Qty, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CartItem{}, domain.ErrCartItemNotFound
	}
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("scan cart item: %w", err)
	}
	return item, nil
}

var _ domain.CartRepository = (*cartRepository)(nil)
