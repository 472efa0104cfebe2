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

// orderRepository — реализация domain.OrderRepository поверх PostgreSQL.
// Позиции заказа неизменяемы: после Create мутируется только статус.
type orderRepository struct {
	q DBTX
}

func (r *orderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = order.CreatedAt

	const insertOrder = `
		INSERT INTO orders (id, user_id, status, total_minor, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.q.ExecContext(ctx, insertOrder,
		order.ID, order.UserID, string(order.Status), order.TotalMinor, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}

	const insertItem = `
		INSERT INTO order_items (id, order_id, product_id, qty, price_minor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	items := make([]domain.OrderItem, len(order.Items))
	for i, item := range order.Items {
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		if item.CreatedAt.IsZero() {
			item.CreatedAt = order.CreatedAt
		}
		if _, err := r.q.ExecContext(ctx, insertItem,
			item.ID, order.ID, item.ProductID, item.Qty, item.PriceMinor, item.CreatedAt); err != nil {
			return domain.Order{}, fmt.Errorf("insert order item: %w", err)
		}
		items[i] = item
	}
	order.Items = items
	return order, nil
}

func (r *orderRepository) Get(ctx context.Context, id string) (domain.Order, error) {
	const query = `SELECT id, user_id, status, total_minor, created_at, updated_at FROM orders WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetForUpdate удерживает блокировку строки заказа до конца транзакции,
// чтобы две конкурентные отмены не вернули резерв дважды.
func (r *orderRepository) GetForUpdate(ctx context.Context, id string) (domain.Order, error) {
	const query = `SELECT id, user_id, status, total_minor, created_at, updated_at FROM orders WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id)
}

func (r *orderRepository) getOne(ctx context.Context, query, id string) (domain.Order, error) {
	var order domain.Order
	var status string
	err := r.q.QueryRowContext(ctx, query, id).
		Scan(&order.ID, &order.UserID, &status, &order.TotalMinor, &order.CreatedAt, &order.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}
	order.Status = domain.OrderStatus(status)

	items, err := r.itemsFor(ctx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Items = items
	return order, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	const query = `
		SELECT id, user_id, status, total_minor, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id`
	return r.listOrders(ctx, query, userID)
}

func (r *orderRepository) ListAll(ctx context.Context) ([]domain.Order, error) {
	const query = `
		SELECT id, user_id, status, total_minor, created_at, updated_at
		FROM orders
		ORDER BY created_at DESC, id`
	return r.listOrders(ctx, query)
}

func (r *orderRepository) listOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var order domain.Order
		var status string
		if err := rows.Scan(&order.ID, &order.UserID, &status, &order.TotalMinor, &order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		order.Status = domain.OrderStatus(status)
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := r.itemsFor(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (r *orderRepository) itemsFor(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	const query = `
		SELECT id, product_id, qty, price_minor, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at, id`

	rows, err := r.q.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Qty, &item.PriceMinor, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	const query = `UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`

	res, err := r.q.ExecContext(ctx, query, id, string(status))
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order status rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)
