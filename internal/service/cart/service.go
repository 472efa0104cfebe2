package cart

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// ItemView — позиция корзины вместе с текущим состоянием товара.
type ItemView struct {
	Item    domain.CartItem
	Product domain.Product
}

// View — корзина пользователя целиком с промежуточной суммой по текущим
// ценам каталога. Сумма справочная: цены замораживаются только при checkout.
type View struct {
	Cart       domain.Cart
	Items      []ItemView
	TotalMinor int64
}

// Service управляет корзиной пользователя. Проверка остатка здесь
// советующая: окончательное слово за атомарным резервом при checkout.
type Service struct {
	store  domain.Store
	logger *log.Entry
}

// NewService создаёт сервис корзины.
func NewService(store domain.Store, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "cart")
	}
	return &Service{store: store, logger: logger}
}

// Get возвращает корзину пользователя, создавая её при первом обращении.
func (s *Service) Get(ctx context.Context, userID string) (View, error) {
	var view View
	err := s.store.WithinTx(ctx, func(tx domain.Tx) error {
		cart, err := tx.Carts().GetByUser(ctx, userID)
		if errors.Is(err, domain.ErrCartNotFound) {
			cart, err = tx.Carts().Create(ctx, userID)
		}
		if err != nil {
			return err
		}
		view, err = s.buildView(ctx, tx, cart)
		return err
	})
	return view, err
}

// AddItem добавляет товар в корзину. Повторное добавление того же товара
// сливает количества в одну позицию.
func (s *Service) AddItem(ctx context.Context, userID, productID string, qty int32) (View, error) {
	if qty <= 0 {
		return View{}, domain.ErrQuantityInvalid
	}

	var view View
	err := s.store.WithinTx(ctx, func(tx domain.Tx) error {
		product, err := tx.Products().Get(ctx, productID)
		if err != nil {
			return err
		}

		cart, err := tx.Carts().GetByUser(ctx, userID)
		if errors.Is(err, domain.ErrCartNotFound) {
			cart, err = tx.Carts().Create(ctx, userID)
		}
		if err != nil {
			return err
		}

		requested := qty
		existing, err := tx.Carts().FindItemByProduct(ctx, cart.ID, productID)
		switch {
		case err == nil:
			requested += existing.Qty
		case !errors.Is(err, domain.ErrCartItemNotFound):
			return err
		}

		if requested > product.Stock {
			return &domain.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   requested,
				Available:   product.Stock,
			}
		}

		if existing.ID != "" {
			if _, err := tx.Carts().UpdateItemQty(ctx, existing.ID, requested); err != nil {
				return err
			}
		} else {
			if _, err := tx.Carts().AddItem(ctx, domain.CartItem{
				CartID:    cart.ID,
				ProductID: productID,
				Qty:       qty,
			}); err != nil {
				return err
			}
		}

		view, err = s.buildView(ctx, tx, cart)
		return err
	})
	if err != nil {
		return View{}, err
	}

	s.logger.WithFields(log.Fields{
		"user_id":    userID,
		"product_id": productID,
		"qty":        qty,
	}).Debug("cart item added")
	return view, nil
}

// UpdateItemQty меняет количество позиции. Позиция должна принадлежать
// корзине этого пользователя.
func (s *Service) UpdateItemQty(ctx context.Context, userID, itemID string, qty int32) (View, error) {
	if qty <= 0 {
		return View{}, domain.ErrQuantityInvalid
	}

	var view View
	err := s.store.WithinTx(ctx, func(tx domain.Tx) error {
		cart, item, err := s.ownedItem(ctx, tx, userID, itemID)
		if err != nil {
			return err
		}

		product, err := tx.Products().Get(ctx, item.ProductID)
		if err != nil {
			return err
		}
		if qty > product.Stock {
			return &domain.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   qty,
				Available:   product.Stock,
			}
		}

		if _, err := tx.Carts().UpdateItemQty(ctx, itemID, qty); err != nil {
			return err
		}
		view, err = s.buildView(ctx, tx, cart)
		return err
	})
	return view, err
}

// RemoveItem удаляет позицию из корзины пользователя.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) (View, error) {
	var view View
	err := s.store.WithinTx(ctx, func(tx domain.Tx) error {
		cart, _, err := s.ownedItem(ctx, tx, userID, itemID)
		if err != nil {
			return err
		}
		if err := tx.Carts().DeleteItem(ctx, itemID); err != nil {
			return err
		}
		view, err = s.buildView(ctx, tx, cart)
		return err
	})
	return view, err
}

// Clear удаляет все позиции корзины пользователя.
func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.store.WithinTx(ctx, func(tx domain.Tx) error {
		cart, err := tx.Carts().GetByUser(ctx, userID)
		if errors.Is(err, domain.ErrCartNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return tx.Carts().Clear(ctx, cart.ID)
	})
}

// ownedItem возвращает корзину пользователя и позицию, убеждаясь, что
// позиция принадлежит именно его корзине.
func (s *Service) ownedItem(ctx context.Context, tx domain.Tx, userID, itemID string) (domain.Cart, domain.CartItem, error) {
	cart, err := tx.Carts().GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrCartNotFound) {
			return domain.Cart{}, domain.CartItem{}, domain.ErrCartItemNotFound
		}
		return domain.Cart{}, domain.CartItem{}, err
	}

	item, err := tx.Carts().GetItem(ctx, itemID)
	if err != nil {
		return domain.Cart{}, domain.CartItem{}, err
	}
	if item.CartID != cart.ID {
		return domain.Cart{}, domain.CartItem{}, domain.ErrForbidden
	}
	return cart, item, nil
}

func (s *Service) buildView(ctx context.Context, tx domain.Tx, cart domain.Cart) (View, error) {
	items, err := tx.Carts().Items(ctx, cart.ID)
	if err != nil {
		return View{}, err
	}

	view := View{Cart: cart, Items: make([]ItemView, 0, len(items))}
	for _, item := range items {
		product, err := tx.Products().Get(ctx, item.ProductID)
		if err != nil {
			return View{}, err
		}
		view.Items = append(view.Items, ItemView{Item: item, Product: product})
		view.TotalMinor += int64(item.Qty) * product.PriceMinor
	}
	return view, nil
}
