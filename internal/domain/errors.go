package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUserNotFound возвращается, если пользователь не найден в репозитории.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailAlreadyUsed — попытка регистрации или смены email на уже занятый.
	ErrEmailAlreadyUsed = errors.New("email already in use")
	// ErrInvalidCredentials — неверная пара email/пароль при входе.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrProductNotFound возвращается, если товар не найден в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// ErrCartNotFound возвращается, если у пользователя ещё нет корзины.
	ErrCartNotFound = errors.New("cart not found")
	// ErrCartItemNotFound возвращается, если позиция корзины не найдена.
	ErrCartItemNotFound = errors.New("cart item not found")
	// ErrOrderNotFound возвращается, если заказ не найден.
	ErrOrderNotFound = errors.New("order not found")
	// ErrForbidden — попытка доступа к чужой сущности.
	ErrForbidden = errors.New("forbidden")
	// ErrEmptyCart — checkout по пустой корзине.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInsufficientStock — на складе меньше товара, чем запрошено.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidStatusTransition — недопустимый переход статуса заказа.
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	// ErrInvalidOrderStatus — неизвестное значение статуса заказа.
	ErrInvalidOrderStatus = errors.New("invalid order status")
	// ErrStoreUnavailable — транзакция прервана хранилищем (deadlock, timeout);
	// операцию можно безопасно повторить целиком.
	ErrStoreUnavailable = errors.New("store temporarily unavailable")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// Ошибки валидации доменных сущностей.
var (
	ErrUserIDRequired   = errors.New("user_id is required")
	ErrEmailRequired    = errors.New("email is required")
	ErrItemsRequired    = errors.New("order must contain at least one item")
	ErrItemQtyInvalid   = errors.New("item qty must be greater than zero")
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
	ErrTotalMismatch    = errors.New("order total does not match items sum")
	ErrProductNameEmpty = errors.New("product name is required")
	ErrPriceNegative    = errors.New("product price must be non-negative")
	ErrStockNegative    = errors.New("product stock must be non-negative")
	ErrQuantityInvalid  = errors.New("quantity must be greater than zero")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
)

// Ошибки обработки idempotency-ключей.
var (
	ErrIdempotencyKeyRequired         = errors.New("idempotency key is required")
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	ErrIdempotencyKeyNotFound         = errors.New("idempotency key not found")
	ErrIdempotencyKeyAlreadyExists    = errors.New("idempotency key already exists")
	ErrIdempotencyHashMismatch        = errors.New("idempotency key reused with different request")
)

// InsufficientStockError уточняет ErrInsufficientStock конкретным товаром,
// чтобы сервисный слой мог назвать виновника в ответе.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int32
	Available   int32
}

func (e *InsufficientStockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", name, e.Requested, e.Available)
}

// Is позволяет проверять ошибку через errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// InvalidTransitionError уточняет ErrInvalidStatusTransition парой статусов.
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	if e.From == OrderStatusCancelled {
		return "order is already cancelled"
	}
	if e.From == OrderStatusCompleted && e.To == OrderStatusCancelled {
		return "cannot cancel completed order"
	}
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidStatusTransition
}

// IsTransient проверяет, стоит ли повторять операцию целиком.
func IsTransient(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
