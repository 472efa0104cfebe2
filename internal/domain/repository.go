package domain

import (
	"context"
	"time"
)

// UserRepository описывает требования к хранилищу пользователей.
type UserRepository interface {
	// Create сохраняет нового пользователя. Возвращает ErrEmailAlreadyUsed,
	// если email уже занят.
	Create(ctx context.Context, user User) (User, error)
	// GetByID возвращает пользователя или ErrUserNotFound.
	GetByID(ctx context.Context, id string) (User, error)
	// GetByEmail возвращает пользователя или ErrUserNotFound.
	GetByEmail(ctx context.Context, email string) (User, error)
	// List возвращает всех пользователей, свежие первыми.
	List(ctx context.Context) ([]User, error)
	// Update перезаписывает профиль (email, name, password_hash, role).
	Update(ctx context.Context, user User) (User, error)
	// Delete удаляет пользователя; корзина удаляется каскадно.
	Delete(ctx context.Context, id string) error
}

// ProductRepository описывает требования к хранилищу каталога.
// Поле Stock через Update не меняется — только через InventoryLedger.
type ProductRepository interface {
	Create(ctx context.Context, product Product) (Product, error)
	Get(ctx context.Context, id string) (Product, error)
	// List возвращает товары каталога, свежие первыми.
	List(ctx context.Context) ([]Product, error)
	// Search ищет подстроку в имени и описании без учёта регистра.
	Search(ctx context.Context, query string) ([]Product, error)
	Update(ctx context.Context, product Product) (Product, error)
	Delete(ctx context.Context, id string) error
}

// CartRepository описывает требования к хранилищу корзин.
type CartRepository interface {
	// GetByUser возвращает корзину пользователя или ErrCartNotFound.
	GetByUser(ctx context.Context, userID string) (Cart, error)
	// Create создаёт пустую корзину; одна на пользователя (unique user_id).
	Create(ctx context.Context, userID string) (Cart, error)
	// Items возвращает позиции корзины в порядке добавления.
	Items(ctx context.Context, cartID string) ([]CartItem, error)
	// GetItem возвращает позицию или ErrCartItemNotFound.
	GetItem(ctx context.Context, itemID string) (CartItem, error)
	// FindItemByProduct возвращает позицию по паре (корзина, товар)
	// или ErrCartItemNotFound.
	FindItemByProduct(ctx context.Context, cartID, productID string) (CartItem, error)
	// AddItem вставляет новую позицию. Уникальность (cart_id, product_id)
	// гарантирует хранилище.
	AddItem(ctx context.Context, item CartItem) (CartItem, error)
	// UpdateItemQty меняет количество у существующей позиции.
	UpdateItemQty(ctx context.Context, itemID string, qty int32) (CartItem, error)
	// DeleteItem удаляет позицию.
	DeleteItem(ctx context.Context, itemID string) error
	// Clear удаляет все позиции корзины, саму корзину не трогает.
	Clear(ctx context.Context, cartID string) error
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ вместе с позициями.
	Create(ctx context.Context, order Order) (Order, error)
	// Get возвращает заказ с позициями или ErrOrderNotFound.
	Get(ctx context.Context, id string) (Order, error)
	// GetForUpdate возвращает заказ, удерживая блокировку строки до конца
	// транзакции. Вне WithinTx эквивалентен Get.
	GetForUpdate(ctx context.Context, id string) (Order, error)
	// ListByUser возвращает заказы пользователя, свежие первыми.
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	// ListAll возвращает все заказы (административная выборка).
	ListAll(ctx context.Context) ([]Order, error)
	// UpdateStatus меняет статус заказа. Позиции неизменяемы.
	UpdateStatus(ctx context.Context, id string, status OrderStatus) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(ctx context.Context, msg OutboxMessage) (OutboxMessage, error)
	PullPending(ctx context.Context, limit int) ([]OutboxMessage, error)
	Stats(ctx context.Context) (OutboxStats, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}

// TimelineRepository хранит события жизненного цикла заказа.
type TimelineRepository interface {
	Append(ctx context.Context, event TimelineEvent) error
	List(ctx context.Context, orderID string) ([]TimelineEvent, error)
}

// IdempotencyRepository хранит состояние обработки запросов по idempotency-key.
type IdempotencyRepository interface {
	CreateProcessing(ctx context.Context, key, requestHash string, ttlAt time.Time) (IdempotencyRecord, error)
	Get(ctx context.Context, key string) (IdempotencyRecord, error)
	MarkDone(ctx context.Context, key string, responseBody []byte, httpStatus int) error
	MarkFailed(ctx context.Context, key string, responseBody []byte, httpStatus int) error
	DeleteExpired(ctx context.Context, before time.Time, limit int) (int, error)
}
