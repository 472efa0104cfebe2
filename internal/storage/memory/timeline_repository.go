package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// timelineRepository — in-memory хранилище событий жизненного цикла заказа.
type timelineRepository struct {
	s    *Store
	inTx bool
}

func (r *timelineRepository) Append(ctx context.Context, event domain.TimelineEvent) error {
	return r.s.withWrite(r.inTx, func(d *data) error {
		if event.ID == "" {
			event.ID = uuid.NewString()
		}
		if event.Occurred.IsZero() {
			event.Occurred = time.Now().UTC()
		}
		d.timeline[event.OrderID] = append(d.timeline[event.OrderID], event)
		return nil
	})
}

func (r *timelineRepository) List(ctx context.Context, orderID string) ([]domain.TimelineEvent, error) {
	var events []domain.TimelineEvent
	err := r.s.withRead(r.inTx, func(d *data) error {
		events = append([]domain.TimelineEvent(nil), d.timeline[orderID]...)
		return nil
	})
	return events, err
}

var _ domain.TimelineRepository = (*timelineRepository)(nil)
