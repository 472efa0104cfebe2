package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// Store — in-memory реализация domain.Store для локальной разработки и тестов.
// WithinTx удерживает эксклюзивную блокировку на всё время единицы работы,
// что даёт сериализуемую изоляцию, и восстанавливает снапшот данных при
// ошибке — откат получается полным, как у настоящей транзакции.
type Store struct {
	mu   sync.RWMutex
	data *data
}

// data — всё состояние хранилища одним значением, чтобы снапшот был тривиальным.
type data struct {
	users       map[string]domain.User
	products    map[string]domain.Product
	carts       map[string]domain.Cart
	cartByUser  map[string]string
	cartItems   map[string]domain.CartItem
	orders      map[string]domain.Order
	outbox      map[string]*outboxRecord
	timeline    map[string][]domain.TimelineEvent
	idempotency map[string]domain.IdempotencyRecord

	// seqs хранит порядок вставки по ID сущности; используется для
	// детерминированной сортировки выборок.
	seqs    map[string]int64
	nextSeq int64
}

func newData() *data {
	return &data{
		users:       make(map[string]domain.User),
		products:    make(map[string]domain.Product),
		carts:       make(map[string]domain.Cart),
		cartByUser:  make(map[string]string),
		cartItems:   make(map[string]domain.CartItem),
		orders:      make(map[string]domain.Order),
		outbox:      make(map[string]*outboxRecord),
		timeline:    make(map[string][]domain.TimelineEvent),
		idempotency: make(map[string]domain.IdempotencyRecord),
		seqs:        make(map[string]int64),
	}
}

func (d *data) seq(id string) {
	d.nextSeq++
	d.seqs[id] = d.nextSeq
}

// clone делает глубокую копию состояния. Slices внутри заказов и timeline
// копируются, чтобы откат не делил память с откатанными записями.
func (d *data) clone() *data {
	c := newData()
	c.nextSeq = d.nextSeq

	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.products {
		c.products[k] = v
	}
	for k, v := range d.carts {
		c.carts[k] = v
	}
	for k, v := range d.cartByUser {
		c.cartByUser[k] = v
	}
	for k, v := range d.cartItems {
		c.cartItems[k] = v
	}
	for k, v := range d.orders {
		v.Items = append([]domain.OrderItem(nil), v.Items...)
		c.orders[k] = v
	}
	for k, v := range d.outbox {
		rec := *v
		c.outbox[k] = &rec
	}
	for k, v := range d.timeline {
		c.timeline[k] = append([]domain.TimelineEvent(nil), v...)
	}
	for k, v := range d.idempotency {
		v.ResponseBody = append([]byte(nil), v.ResponseBody...)
		c.idempotency[k] = v
	}
	for k, v := range d.seqs {
		c.seqs[k] = v
	}

	return c
}

// NewStore создаёт пустое in-memory хранилище.
func NewStore() *Store {
	return &Store{data: newData()}
}

// WithinTx выполняет fn под эксклюзивной блокировкой и откатывает все
// изменения, если fn вернула ошибку.
func (s *Store) WithinTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(&txBundle{s: s}); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// Ping всегда успешен: хранилище живёт в том же процессе.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Users() domain.UserRepository         { return &userRepository{s: s} }
func (s *Store) Products() domain.ProductRepository   { return &productRepository{s: s} }
func (s *Store) Carts() domain.CartRepository         { return &cartRepository{s: s} }
func (s *Store) Orders() domain.OrderRepository       { return &orderRepository{s: s} }
func (s *Store) Outbox() domain.OutboxRepository      { return &outboxRepository{s: s} }
func (s *Store) Timeline() domain.TimelineRepository  { return &timelineRepository{s: s} }
func (s *Store) Inventory() domain.InventoryLedger    { return &inventoryLedger{s: s} }
func (s *Store) Idempotency() domain.IdempotencyRepository {
	return &idempotencyRepository{s: s}
}

// txBundle отдаёт репозитории, работающие без собственных блокировок:
// WithinTx уже удерживает мьютекс хранилища.
type txBundle struct {
	s *Store
}

func (t *txBundle) Users() domain.UserRepository        { return &userRepository{s: t.s, inTx: true} }
func (t *txBundle) Products() domain.ProductRepository  { return &productRepository{s: t.s, inTx: true} }
func (t *txBundle) Carts() domain.CartRepository        { return &cartRepository{s: t.s, inTx: true} }
func (t *txBundle) Orders() domain.OrderRepository      { return &orderRepository{s: t.s, inTx: true} }
func (t *txBundle) Outbox() domain.OutboxRepository     { return &outboxRepository{s: t.s, inTx: true} }
func (t *txBundle) Timeline() domain.TimelineRepository { return &timelineRepository{s: t.s, inTx: true} }
func (t *txBundle) Inventory() domain.InventoryLedger   { return &inventoryLedger{s: t.s, inTx: true} }

// withRead выполняет fn под блокировкой чтения (если репозиторий вне транзакции).
func (s *Store) withRead(inTx bool, fn func(d *data) error) error {
	if !inTx {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	return fn(s.data)
}

// withWrite выполняет fn под блокировкой записи (если репозиторий вне транзакции).
func (s *Store) withWrite(inTx bool, fn func(d *data) error) error {
	if !inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(s.data)
}

var _ domain.Store = (*Store)(nil)
var _ domain.Tx = (*txBundle)(nil)
