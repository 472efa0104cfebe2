package memory

import (
	"context"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// idempotencyRepository — in-memory хранилище idempotency-ключей.
type idempotencyRepository struct {
	s    *Store
	inTx bool
}

func (r *idempotencyRepository) CreateProcessing(ctx context.Context, key, requestHash string, ttlAt time.Time) (domain.IdempotencyRecord, error) {
	key = strings.TrimSpace(key)
	requestHash = strings.TrimSpace(requestHash)

	if key == "" {
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyRequired
	}
	if requestHash == "" {
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyRequestHashRequired
	}

	now := time.Now().UTC()
	if ttlAt.IsZero() {
		ttlAt = now.Add(24 * time.Hour)
	}

	var record domain.IdempotencyRecord
	err := r.s.withWrite(r.inTx, func(d *data) error {
		if existing, ok := d.idempotency[key]; ok {
			record = existing
			if existing.RequestHash != requestHash {
				return domain.ErrIdempotencyHashMismatch
			}
			return domain.ErrIdempotencyKeyAlreadyExists
		}

		record = domain.IdempotencyRecord{
			Key:         key,
			RequestHash: requestHash,
			Status:      domain.IdempotencyStatusProcessing,
			TTLAt:       ttlAt,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		d.idempotency[key] = record
		return nil
	})
	return record, err
}

func (r *idempotencyRepository) Get(ctx context.Context, key string) (domain.IdempotencyRecord, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyRequired
	}

	var record domain.IdempotencyRecord
	err := r.s.withRead(r.inTx, func(d *data) error {
		rec, ok := d.idempotency[key]
		if !ok {
			return domain.ErrIdempotencyKeyNotFound
		}
		record = rec
		record.ResponseBody = append([]byte(nil), rec.ResponseBody...)
		return nil
	})
	return record, err
}

func (r *idempotencyRepository) MarkDone(ctx context.Context, key string, responseBody []byte, httpStatus int) error {
	return r.markStatus(key, domain.IdempotencyStatusDone, responseBody, httpStatus)
}

func (r *idempotencyRepository) MarkFailed(ctx context.Context, key string, responseBody []byte, httpStatus int) error {
	return r.markStatus(key, domain.IdempotencyStatusFailed, responseBody, httpStatus)
}

func (r *idempotencyRepository) DeleteExpired(ctx context.Context, before time.Time, limit int) (int, error) {
	if before.IsZero() {
		before = time.Now().UTC()
	}

	deleted := 0
	err := r.s.withWrite(r.inTx, func(d *data) error {
		for key, rec := range d.idempotency {
			if limit > 0 && deleted >= limit {
				break
			}
			if !rec.TTLAt.After(before) {
				delete(d.idempotency, key)
				deleted++
			}
		}
		return nil
	})
	return deleted, err
}

func (r *idempotencyRepository) markStatus(key string, status domain.IdempotencyStatus, responseBody []byte, httpStatus int) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.ErrIdempotencyKeyRequired
	}

	return r.s.withWrite(r.inTx, func(d *data) error {
		rec, ok := d.idempotency[key]
		if !ok {
			return domain.ErrIdempotencyKeyNotFound
		}
		rec.Status = status
		rec.ResponseBody = append([]byte(nil), responseBody...)
		rec.HTTPStatus = httpStatus
		rec.UpdatedAt = time.Now().UTC()
		d.idempotency[key] = rec
		return nil
	})
}

var _ domain.IdempotencyRepository = (*idempotencyRepository)(nil)
