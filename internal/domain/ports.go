package domain

import (
	"context"
	"time"
)

// InventoryLedger — атомарные операции над складским остатком товара.
// Обе операции обязаны выполняться внутри той же единицы работы (WithinTx),
// что и остальные записи checkout, иначе возможны потерянные обновления.
type InventoryLedger interface {
	// Reserve атомарно проверяет stock >= qty и уменьшает остаток.
	// Возвращает ErrInsufficientStock, если условие не выполнено в момент
	// проверки, и ErrProductNotFound, если товара нет. Частичных резервов не бывает.
	Reserve(ctx context.Context, productID string, qty int32) error
	// Release безусловно возвращает qty на склад (компенсация отмены).
	Release(ctx context.Context, productID string, qty int32) error
}

// Tx — набор репозиториев, разделяющих одну атомарную единицу работы.
// Все записи внутри fn из Store.WithinTx либо фиксируются вместе, либо
// откатываются вместе.
type Tx interface {
	Users() UserRepository
	Products() ProductRepository
	Carts() CartRepository
	Orders() OrderRepository
	Outbox() OutboxRepository
	Timeline() TimelineRepository
	Inventory() InventoryLedger
}

// Store — корневая точка доступа к хранилищу. Репозитории, полученные
// напрямую (вне WithinTx), выполняют каждую операцию автономно.
type Store interface {
	Tx
	Idempotency() IdempotencyRepository
	// WithinTx выполняет fn как одну атомарную изолированную единицу работы.
	// Любая ошибка fn откатывает все сделанные внутри записи; ошибки
	// инфраструктуры (deadlock, timeout) оборачиваются в ErrStoreUnavailable.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
	// Ping проверяет доступность хранилища.
	Ping(ctx context.Context) error
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
