package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/shop/internal/cache"
	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return NewService(store, cache.NewMemoryCache("shop-test"), nil), store
}

func TestCreateAndGet(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.Product{
		Name:       "Keyboard",
		PriceMinor: 4500,
		Stock:      12,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Keyboard", got.Name)
	assert.Equal(t, int64(4500), got.PriceMinor)

	// Второй Get обслуживается из кэша.
	cached, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, got, cached)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.Product{Name: "", PriceMinor: 100})
	assert.ErrorIs(t, err, domain.ErrProductNameEmpty)

	_, err = svc.Create(ctx, domain.Product{Name: "X", PriceMinor: -1})
	assert.ErrorIs(t, err, domain.ErrPriceNegative)

	_, err = svc.Create(ctx, domain.Product{Name: "X", PriceMinor: 1, Stock: -5})
	assert.ErrorIs(t, err, domain.ErrStockNegative)
}

func TestUpdateInvalidatesCache(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.Product{Name: "Keyboard", PriceMinor: 4500, Stock: 12})
	require.NoError(t, err)

	// Прогреваем кэш.
	_, err = svc.Get(ctx, created.ID)
	require.NoError(t, err)

	created.PriceMinor = 5000
	_, err = svc.Update(ctx, created)
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), got.PriceMinor, "stale cached price must be invalidated")
}

func TestUpdateDoesNotTouchStock(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.Product{Name: "Keyboard", PriceMinor: 4500, Stock: 12})
	require.NoError(t, err)

	created.Stock = 999
	created.PriceMinor = 4600
	updated, err := svc.Update(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, int32(12), updated.Stock, "stock is owned by the inventory ledger")

	got, err := store.Products().Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(12), got.Stock)
}

func TestListAndSearch(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.Product{Name: "Mechanical Keyboard", PriceMinor: 9000, Stock: 3})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.Product{Name: "Mouse", Description: "wireless keyboard companion", PriceMinor: 3000, Stock: 7})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.Product{Name: "Monitor", PriceMinor: 30000, Stock: 2})
	require.NoError(t, err)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// Поиск без учёта регистра по имени и описанию.
	found, err := svc.Search(ctx, "KEYBOARD")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	// Пустой запрос эквивалентен списку.
	found, err = svc.Search(ctx, "")
	require.NoError(t, err)
	assert.Len(t, found, 3)
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.Product{Name: "Keyboard", PriceMinor: 4500, Stock: 12})
	require.NoError(t, err)

	// Прогреваем кэш, затем удаляем.
	_, err = svc.Get(ctx, created.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, created.ID), domain.ErrProductNotFound)
}

func TestWorksWithoutCache(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.Product{Name: "Keyboard", PriceMinor: 4500, Stock: 12})
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}
