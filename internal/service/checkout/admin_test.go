package checkout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

func TestUpdateOrderStatusLifecycle(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	book := seedProduct(t, store, "Book", 1500, 10)
	seedCart(t, store, "user-1", map[string]int32{book.ID: 3})

	order, err := svc.CreateOrder(ctx, "user-1")
	require.NoError(t, err)

	got, err := svc.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusProcessing, "")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, got.Status)

	got, err = svc.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusCompleted, "")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCompleted, got.Status)

	// Исполнение не возвращает товар: он ушёл покупателю.
	product, err := store.Products().Get(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(7), product.Stock)
}

func TestUpdateOrderStatusToCancelledRestocks(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	book := seedProduct(t, store, "Book", 1500, 10)
	seedCart(t, store, "user-1", map[string]int32{book.ID: 3})

	order, err := svc.CreateOrder(ctx, "user-1")
	require.NoError(t, err)

	_, err = svc.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusCancelled, "fraud check failed")
	require.NoError(t, err)

	product, err := store.Products().Get(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(10), product.Stock)

	events, err := store.Timeline().List(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, TimelineOrderCancelled, events[1].Type)
	assert.Equal(t, "fraud check failed", events[1].Reason)
}

func TestUpdateOrderStatusOutOfCancelledReservesAgain(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	book := seedProduct(t, store, "Book", 1500, 10)
	seedCart(t, store, "user-1", map[string]int32{book.ID: 3})

	order, err := svc.CreateOrder(ctx, "user-1")
	require.NoError(t, err)

	_, err = svc.CancelOrder(ctx, order.ID, "user-1", domain.RoleUser)
	require.NoError(t, err)

	// Административное "воскрешение" заказа снова списывает резерв.
	got, err := svc.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusProcessing, "customer changed their mind")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, got.Status)

	product, err := store.Products().Get(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(7), product.Stock)
}

func TestUpdateOrderStatusOutOfCancelledFailsWithoutStock(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	book := seedProduct(t, store, "Book", 1500, 3)
	seedCart(t, store, "user-1", map[string]int32{book.ID: 3})

	order, err := svc.CreateOrder(ctx, "user-1")
	require.NoError(t, err)
	_, err = svc.CancelOrder(ctx, order.ID, "user-1", domain.RoleUser)
	require.NoError(t, err)

	// Другой покупатель забирает весь вернувшийся остаток.
	seedCart(t, store, "user-2", map[string]int32{book.ID: 3})
	_, err = svc.CreateOrder(ctx, "user-2")
	require.NoError(t, err)

	// Воскресить первый заказ нечем: перевод отклоняется, статус не меняется.
	_, err = svc.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusProcessing, "")
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	got, err := store.Orders().Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, got.Status)
}

func TestUpdateOrderStatusNoopOnSameStatus(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	book := seedProduct(t, store, "Book", 1500, 10)
	seedCart(t, store, "user-1", map[string]int32{book.ID: 2})

	order, err := svc.CreateOrder(ctx, "user-1")
	require.NoError(t, err)

	got, err := svc.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusPending, "")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, got.Status)

	// Пере-применение того же статуса не трогает склад и timeline.
	product, err := store.Products().Get(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(8), product.Stock)

	events, err := store.Timeline().List(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestUpdateOrderStatusRejectsUnknownStatus(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.UpdateOrderStatus(context.Background(), "order-1", domain.OrderStatus("shipped"), "")
	assert.ErrorIs(t, err, domain.ErrInvalidOrderStatus)
}

func TestUpdateOrderStatusUnknownOrder(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.UpdateOrderStatus(context.Background(), "missing", domain.OrderStatusProcessing, "")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}
