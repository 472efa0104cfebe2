package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

func TestIntegrationInventoryReserve(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	ctx := context.Background()

	product, err := store.Products().Create(ctx, domain.Product{
		Name:       "Keyboard",
		PriceMinor: 4990,
		Stock:      3,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	if err := store.Inventory().Reserve(ctx, product.ID, 2); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	err = store.Inventory().Reserve(ctx, product.ID, 2)
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	var stockErr *domain.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if stockErr.Available != 1 {
		t.Errorf("Available = %d, want 1", stockErr.Available)
	}

	if err := store.Inventory().Release(ctx, product.ID, 2); err != nil {
		t.Fatalf("release: %v", err)
	}
	got, err := store.Products().Get(ctx, product.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if got.Stock != 3 {
		t.Errorf("stock = %d, want 3", got.Stock)
	}
}

func TestIntegrationWithinTxRollsBack(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	ctx := context.Background()

	product, err := store.Products().Create(ctx, domain.Product{
		Name:       "Monitor",
		PriceMinor: 19900,
		Stock:      10,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	boom := errors.New("boom")
	err = store.WithinTx(ctx, func(tx domain.Tx) error {
		if err := tx.Inventory().Reserve(ctx, product.ID, 5); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got, err := store.Products().Get(ctx, product.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if got.Stock != 10 {
		t.Errorf("stock = %d, want 10 (rollback)", got.Stock)
	}
}

func TestIntegrationConcurrentReserve(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	ctx := context.Background()

	product, err := store.Products().Create(ctx, domain.Product{
		Name:       "Headphones",
		PriceMinor: 12900,
		Stock:      5,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	const attempts = 20
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- store.WithinTx(ctx, func(tx domain.Tx) error {
				return tx.Inventory().Reserve(ctx, product.ID, 1)
			})
		}()
	}
	wg.Wait()
	close(results)

	var succeeded int
	for err := range results {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, domain.ErrInsufficientStock) && !domain.IsTransient(err) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded > 5 {
		t.Fatalf("oversold: %d reservations committed with stock 5", succeeded)
	}

	got, err := store.Products().Get(ctx, product.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if got.Stock != int32(5-succeeded) {
		t.Errorf("stock = %d, want %d", got.Stock, 5-succeeded)
	}
}

func TestIntegrationIdempotencyKeys(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	ctx := context.Background()
	repo := store.Idempotency()
	ttl := time.Now().Add(time.Hour)

	if _, err := repo.CreateProcessing(ctx, "key-1", "hash-1", ttl); err != nil {
		t.Fatalf("create processing: %v", err)
	}

	existing, err := repo.CreateProcessing(ctx, "key-1", "hash-1", ttl)
	if !errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists) {
		t.Fatalf("expected ErrIdempotencyKeyAlreadyExists, got %v", err)
	}
	if existing.RequestHash != "hash-1" {
		t.Errorf("RequestHash = %q, want hash-1", existing.RequestHash)
	}

	if _, err := repo.CreateProcessing(ctx, "key-1", "hash-2", ttl); !errors.Is(err, domain.ErrIdempotencyHashMismatch) {
		t.Fatalf("expected ErrIdempotencyHashMismatch, got %v", err)
	}

	if err := repo.MarkDone(ctx, "key-1", []byte(`{"ok":true}`), 201); err != nil {
		t.Fatalf("mark done: %v", err)
	}
	got, err := repo.Get(ctx, "key-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.IdempotencyStatusDone || got.HTTPStatus != 201 {
		t.Errorf("record = %+v, want done/201", got)
	}
}

func TestIntegrationCartUniqueConstraints(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	ctx := context.Background()

	user, err := store.Users().Create(ctx, domain.User{
		Email:        "alice@example.com",
		Name:         "Alice",
		PasswordHash: "x",
		Role:         domain.RoleUser,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	first, err := store.Carts().Create(ctx, user.ID)
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}
	second, err := store.Carts().Create(ctx, user.ID)
	if err != nil {
		t.Fatalf("create cart again: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("second create returned a different cart: %s vs %s", first.ID, second.ID)
	}
}
