package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// outboxRecord хранит сообщение и служебные поля для in-memory реализации.
type outboxRecord struct {
	msg        domain.OutboxMessage
	status     string
	attemptCnt int
	createdAt  time.Time
	updatedAt  time.Time
}

type outboxRepository struct {
	s    *Store
	inTx bool
}

// Enqueue сохраняет событие со статусом `pending`.
func (r *outboxRepository) Enqueue(ctx context.Context, msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	err := r.s.withWrite(r.inTx, func(d *data) error {
		if msg.ID == "" {
			msg.ID = uuid.NewString()
		}
		now := time.Now().UTC()
		d.outbox[msg.ID] = &outboxRecord{
			msg:       msg,
			status:    "pending",
			createdAt: now,
			updatedAt: now,
		}
		d.seq(msg.ID)
		return nil
	})
	if err != nil {
		return domain.OutboxMessage{}, err
	}
	return msg, nil
}

// PullPending возвращает до limit сообщений со статусом `pending` в порядке добавления.
func (r *outboxRepository) PullPending(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var result []domain.OutboxMessage
	err := r.s.withRead(r.inTx, func(d *data) error {
		pending := make([]*outboxRecord, 0, len(d.outbox))
		for _, rec := range d.outbox {
			if rec.status == "pending" {
				pending = append(pending, rec)
			}
		}
		sort.Slice(pending, func(i, j int) bool {
			return d.seqs[pending[i].msg.ID] < d.seqs[pending[j].msg.ID]
		})
		if len(pending) > limit {
			pending = pending[:limit]
		}
		result = make([]domain.OutboxMessage, 0, len(pending))
		for _, rec := range pending {
			result = append(result, rec.msg)
		}
		return nil
	})
	return result, err
}

func (r *outboxRepository) Stats(ctx context.Context) (domain.OutboxStats, error) {
	var stats domain.OutboxStats
	err := r.s.withRead(r.inTx, func(d *data) error {
		for _, rec := range d.outbox {
			if rec.status != "pending" {
				continue
			}
			stats.PendingCount++
			if stats.OldestPendingAt.IsZero() || rec.createdAt.Before(stats.OldestPendingAt) {
				stats.OldestPendingAt = rec.createdAt
			}
		}
		return nil
	})
	return stats, err
}

func (r *outboxRepository) MarkSent(ctx context.Context, id string) error {
	return r.markStatus(id, "sent")
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id string) error {
	return r.markStatus(id, "failed")
}

func (r *outboxRepository) markStatus(id, status string) error {
	return r.s.withWrite(r.inTx, func(d *data) error {
		rec, ok := d.outbox[id]
		if !ok {
			return domain.ErrOutboxPublish
		}
		rec.status = status
		rec.attemptCnt++
		rec.updatedAt = time.Now().UTC()
		return nil
	})
}

// AllPending возвращает копию всех сообщений со статусом `pending` (используется в тестах).
func (r *outboxRepository) AllPending() []domain.OutboxMessage {
	result := make([]domain.OutboxMessage, 0)
	_ = r.s.withRead(r.inTx, func(d *data) error {
		for _, rec := range d.outbox {
			if rec.status == "pending" {
				result = append(result, rec.msg)
			}
		}
		return nil
	})
	return result
}

var _ domain.OutboxRepository = (*outboxRepository)(nil)
