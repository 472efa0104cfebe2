package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// orderRepository — in-memory реализация OrderRepository.
type orderRepository struct {
	s    *Store
	inTx bool
}

func (r *orderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	err := r.s.withWrite(r.inTx, func(d *data) error {
		if order.ID == "" {
			order.ID = uuid.NewString()
		}
		now := time.Now().UTC()
		if order.CreatedAt.IsZero() {
			order.CreatedAt = now
		}
		order.UpdatedAt = order.CreatedAt

		items := make([]domain.OrderItem, len(order.Items))
		for i, item := range order.Items {
			if item.ID == "" {
				item.ID = uuid.NewString()
			}
			if item.CreatedAt.IsZero() {
				item.CreatedAt = order.CreatedAt
			}
			items[i] = item
		}
		order.Items = items

		// Сохраняем копию, чтобы избежать непредсказуемых мутаций извне.
		stored := order
		stored.Items = append([]domain.OrderItem(nil), items...)
		d.orders[order.ID] = stored
		d.seq(order.ID)
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func (r *orderRepository) Get(ctx context.Context, id string) (domain.Order, error) {
	var order domain.Order
	err := r.s.withRead(r.inTx, func(d *data) error {
		o, ok := d.orders[id]
		if !ok {
			return domain.ErrOrderNotFound
		}
		order = o
		order.Items = append([]domain.OrderItem(nil), o.Items...)
		return nil
	})
	return order, err
}

// GetForUpdate в памяти эквивалентен Get: WithinTx уже сериализует доступ.
func (r *orderRepository) GetForUpdate(ctx context.Context, id string) (domain.Order, error) {
	return r.Get(ctx, id)
}

func (r *orderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.list(func(o domain.Order) bool { return o.UserID == userID })
}

func (r *orderRepository) ListAll(ctx context.Context) ([]domain.Order, error) {
	return r.list(func(domain.Order) bool { return true })
}

func (r *orderRepository) list(keep func(domain.Order) bool) ([]domain.Order, error) {
	var orders []domain.Order
	err := r.s.withRead(r.inTx, func(d *data) error {
		orders = make([]domain.Order, 0, len(d.orders))
		for _, o := range d.orders {
			if !keep(o) {
				continue
			}
			o.Items = append([]domain.OrderItem(nil), o.Items...)
			orders = append(orders, o)
		}
		sort.Slice(orders, func(i, j int) bool {
			return d.seqs[orders[i].ID] > d.seqs[orders[j].ID]
		})
		return nil
	})
	return orders, err
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	return r.s.withWrite(r.inTx, func(d *data) error {
		o, ok := d.orders[id]
		if !ok {
			return domain.ErrOrderNotFound
		}
		o.Status = status
		o.UpdatedAt = time.Now().UTC()
		d.orders[id] = o
		return nil
	})
}

var _ domain.OrderRepository = (*orderRepository)(nil)
