package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

type cartRepository struct {
	s    *Store
	inTx bool
}

func (r *cartRepository) GetByUser(ctx context.Context, userID string) (domain.Cart, error) {
	var cart domain.Cart
	err := r.s.withRead(r.inTx, func(d *data) error {
		cartID, ok := d.cartByUser[userID]
		if !ok {
			return domain.ErrCartNotFound
		}
		cart = d.carts[cartID]
		return nil
	})
	return cart, err
}

func (r *cartRepository) Create(ctx context.Context, userID string) (domain.Cart, error) {
	var cart domain.Cart
	err := r.s.withWrite(r.inTx, func(d *data) error {
		// Unique-ограничение на user_id: вторую корзину не создаём.
		if cartID, ok := d.cartByUser[userID]; ok {
			cart = d.carts[cartID]
			return nil
		}

		now := time.Now().UTC()
		cart = domain.Cart{
			ID:        uuid.NewString(),
			UserID:    userID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		d.carts[cart.ID] = cart
		d.cartByUser[userID] = cart.ID
		d.seq(cart.ID)
		return nil
	})
	return cart, err
}

func (r *cartRepository) Items(ctx context.Context, cartID string) ([]domain.CartItem, error) {
	var items []domain.CartItem
	err := r.s.withRead(r.inTx, func(d *data) error {
		items = make([]domain.CartItem, 0)
		for _, item := range d.cartItems {
			if item.CartID == cartID {
				items = append(items, item)
			}
		}
		// Позиции отдаём в порядке добавления.
		sort.Slice(items, func(i, j int) bool {
			return d.seqs[items[i].ID] < d.seqs[items[j].ID]
		})
		return nil
	})
	return items, err
}

func (r *cartRepository) GetItem(ctx context.Context, itemID string) (domain.CartItem, error) {
	var item domain.CartItem
	err := r.s.withRead(r.inTx, func(d *data) error {
		it, ok := d.cartItems[itemID]
		if !ok {
			return domain.ErrCartItemNotFound
		}
		item = it
		return nil
	})
	return item, err
}

func (r *cartRepository) FindItemByProduct(ctx context.Context, cartID, productID string) (domain.CartItem, error) {
	var item domain.CartItem
	err := r.s.withRead(r.inTx, func(d *data) error {
		for _, it := range d.cartItems {
			if it.CartID == cartID && it.ProductID == productID {
				item = it
				return nil
			}
		}
		return domain.ErrCartItemNotFound
	})
	return item, err
}

func (r *cartRepository) AddItem(ctx context.Context, item domain.CartItem) (domain.CartItem, error) {
	err := r.s.withWrite(r.inTx, func(d *data) error {
		if _, ok := d.carts[item.CartID]; !ok {
			return domain.ErrCartNotFound
		}
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		now := time.Now().UTC()
		item.CreatedAt = now
		item.UpdatedAt = now

		d.cartItems[item.ID] = item
		d.seq(item.ID)
		return nil
	})
	if err != nil {
		return domain.CartItem{}, err
	}
	return item, nil
}

func (r *cartRepository) UpdateItemQty(ctx context.Context, itemID string, qty int32) (domain.CartItem, error) {
	var item domain.CartItem
	err := r.s.withWrite(r.inTx, func(d *data) error {
		it, ok := d.cartItems[itemID]
		if !ok {
			return domain.ErrCartItemNotFound
		}
		it.Qty = qty
		it.UpdatedAt = time.Now().UTC()
		d.cartItems[itemID] = it
		item = it
		return nil
	})
	return item, err
}

func (r *cartRepository) DeleteItem(ctx context.Context, itemID string) error {
	return r.s.withWrite(r.inTx, func(d *data) error {
		if _, ok := d.cartItems[itemID]; !ok {
			return domain.ErrCartItemNotFound
		}
		delete(d.cartItems, itemID)
		return nil
	})
}

// Clear удаляет все позиции, саму корзину оставляет.
func (r *cartRepository) Clear(ctx context.Context, cartID string) error {
	return r.s.withWrite(r.inTx, func(d *data) error {
		for id, item := range d.cartItems {
			if item.CartID == cartID {
				delete(d.cartItems, id)
			}
		}
		return nil
	})
}

var _ domain.CartRepository = (*cartRepository)(nil)
