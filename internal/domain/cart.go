package domain

import "time"

// Cart — корзина пользователя. Ровно одна на пользователя, создаётся лениво
// при первом обращении или при регистрации и живёт до удаления аккаунта.
type Cart struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartItem — позиция корзины. Инвариант: не более одной позиции на пару
// (корзина, товар); повторное добавление того же товара сливает количества.
type CartItem struct {
	ID        string
	CartID    string
	ProductID string
	Qty       int32
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateInvariants проверяет позицию корзины.
func (i *CartItem) ValidateInvariants() []error {
	var errs []error

	if i.CartID == "" {
		errs = append(errs, ErrCartNotFound)
	}
	if i.ProductID == "" {
		errs = append(errs, ErrProductNotFound)
	}
	if i.Qty <= 0 {
		errs = append(errs, ErrItemQtyInvalid)
	}

	return errs
}
